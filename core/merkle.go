package core

import (
	"sort"
)

// NMTLeaf is one namespaced leaf going into a namespaced Merkle tree: a
// blob chunk tagged with the namespace it belongs to.
type NMTLeaf struct {
	Namespace uint32
	Data      []byte
}

// nmtNode is an internal tree node carrying the namespace range its
// subtree spans, the way the reference NMT implementation aggregates
// min/max namespace at every parent so a light client can reject a proof
// whose namespace range doesn't cover the namespace it queried.
type nmtNode struct {
	minNS, maxNS uint32
	hash         Hash
}

// nmtLeafHash computes a namespaced leaf's hash: the domain-separated
// hash of the namespace prefix followed by the leaf data, generalizing
// the teacher's BuildMerkleTree leaf step (sha256.Sum256(l)) to carry
// namespace information into the hash itself.
func nmtLeafHash(l NMTLeaf) Hash {
	buf := make([]byte, 4+len(l.Data))
	putUint32BE(buf, l.Namespace)
	copy(buf[4:], l.Data)
	return DomainHash(DomainMerkleLeaf, buf)
}

// nmtParentHash combines two child nodes into their parent, prefixing the
// concatenated namespace range ahead of the child hashes so identical
// child hashes under different namespace ranges never collide.
func nmtParentHash(left, right nmtNode) nmtNode {
	minNS := left.minNS
	if right.minNS < minNS {
		minNS = right.minNS
	}
	maxNS := left.maxNS
	if right.maxNS > maxNS {
		maxNS = right.maxNS
	}
	buf := make([]byte, 4+4+32+32)
	putUint32BE(buf[0:4], minNS)
	putUint32BE(buf[4:8], maxNS)
	copy(buf[8:40], left.hash[:])
	copy(buf[40:72], right.hash[:])
	return nmtNode{minNS: minNS, maxNS: maxNS, hash: DomainHash(DomainMerkleNode, buf)}
}

// BuildNMT constructs a namespaced Merkle tree over leaves, which must
// already be sorted by namespace (the caller — DA blob chunking —
// guarantees this; BuildNMT re-sorts defensively with a stable sort so
// leaves sharing a namespace keep their relative order). It returns the
// full level-by-level tree, the last level holding the single root node,
// mirroring the shape of the teacher's BuildMerkleTree return value
// generalized from [32]byte to nmtNode.
func BuildNMT(leaves []NMTLeaf) ([][]nmtNode, error) {
	if len(leaves) == 0 {
		return nil, ErrDecode(0, "no leaves to build NMT from")
	}
	sorted := append([]NMTLeaf(nil), leaves...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Namespace < sorted[j].Namespace })

	level := make([]nmtNode, len(sorted))
	for i, l := range sorted {
		level[i] = nmtNode{minNS: l.Namespace, maxNS: l.Namespace, hash: nmtLeafHash(l)}
	}
	tree := [][]nmtNode{level}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([]nmtNode, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next[i/2] = nmtParentHash(level[i], level[i+1])
		}
		tree = append(tree, next)
		level = next
	}
	return tree, nil
}

// NMTRoot returns the root hash and namespace range of the tree built from
// leaves.
func NMTRoot(leaves []NMTLeaf) (Hash, uint32, uint32, error) {
	tree, err := BuildNMT(leaves)
	if err != nil {
		return Hash{}, 0, 0, err
	}
	root := tree[len(tree)-1][0]
	return root.hash, root.minNS, root.maxNS, nil
}

// NMTProof is an inclusion proof for one leaf, the sibling hash at each
// level ordered from leaf upward alongside that sibling's namespace
// range, which VerifyNMTProof needs to reconstruct parent hashes
// correctly.
type NMTProof struct {
	Siblings []nmtNode
	Index    uint32
}

// ProveNMT returns the inclusion proof for the leaf at index in the tree
// built from leaves, mirroring the teacher's MerkleProof shape.
func ProveNMT(leaves []NMTLeaf, index uint32) (NMTProof, Hash, error) {
	if int(index) >= len(leaves) {
		return NMTProof{}, Hash{}, ErrDecode(0, "leaf index out of range")
	}
	tree, err := BuildNMT(leaves)
	if err != nil {
		return NMTProof{}, Hash{}, err
	}
	var siblings []nmtNode
	idx := int(index)
	for i := 0; i < len(tree)-1; i++ {
		level := tree[i]
		sib := idx ^ 1
		if sib >= len(level) {
			// Odd-length level: BuildNMT paired this node with a copy of itself.
			sib = idx
		}
		siblings = append(siblings, level[sib])
		idx /= 2
	}
	root := tree[len(tree)-1][0]
	return NMTProof{Siblings: siblings, Index: index}, root.hash, nil
}

// VerifyNMTProof reconstructs the root from leaf, proof and index and
// reports whether it matches root, and whether queryNS falls within the
// namespace range the proof attests to — both conditions a light client
// must check before trusting an inclusion claim.
func VerifyNMTProof(root Hash, leaf NMTLeaf, proof NMTProof, queryNS uint32) bool {
	node := nmtNode{minNS: leaf.Namespace, maxNS: leaf.Namespace, hash: nmtLeafHash(leaf)}
	idx := proof.Index
	for _, sib := range proof.Siblings {
		if idx%2 == 0 {
			node = nmtParentHash(node, sib)
		} else {
			node = nmtParentHash(sib, node)
		}
		idx /= 2
	}
	if node.hash != root {
		return false
	}
	return queryNS >= node.minNS && queryNS <= node.maxNS
}

func putUint32BE(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}
