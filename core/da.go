package core

import "sort"

// chunkSize is the fixed blob chunk width committed as one NMT leaf.
// Chosen so a typical block's blobs produce a tree shallow enough for
// cheap light-client proofs while keeping per-leaf hashing overhead low.
const chunkSize = 4096

// CommitBlob splits data into chunkSize-byte leaves under namespace and
// returns its BlobCommitment: the NMT root over those chunks, the blob
// size, and layout's K/N shard counts. It does not erasure-code the data;
// layout is only recorded in the commitment and does not affect the root.
func CommitBlob(namespace uint32, data []byte, layout RSLayout) (BlobCommitment, error) {
	leaves := chunkBlob(namespace, data)
	root, _, _, err := NMTRoot(leaves)
	if err != nil {
		return BlobCommitment{}, err
	}
	return BlobCommitment{
		Namespace: namespace,
		Root:      root,
		Size:      len(data),
		ShardsK:   layout.K,
		ShardsN:   layout.N,
	}, nil
}

// chunkBlob splits data into chunkSize-byte leaves tagged with namespace.
func chunkBlob(namespace uint32, data []byte) []NMTLeaf {
	if len(data) == 0 {
		return []NMTLeaf{{Namespace: namespace, Data: nil}}
	}
	var leaves []NMTLeaf
	for off := 0; off < len(data); off += chunkSize {
		end := off + chunkSize
		if end > len(data) {
			end = len(data)
		}
		leaves = append(leaves, NMTLeaf{Namespace: namespace, Data: data[off:end]})
	}
	return leaves
}

// BlockDARoot combines every blob commitment in a block into a single DA
// root over the whole block, by treating each commitment's root as a leaf
// namespaced under its own blob namespace and building one more NMT level
// above them. This is the value that lands in BlockHeader.DARoot.
func BlockDARoot(blobs []BlobCommitment) (Hash, error) {
	if len(blobs) == 0 {
		return Hash{}, nil
	}
	sorted := append([]BlobCommitment(nil), blobs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Namespace < sorted[j].Namespace })

	leaves := make([]NMTLeaf, len(sorted))
	for i, b := range sorted {
		leaves[i] = NMTLeaf{Namespace: b.Namespace, Data: b.Root[:]}
	}
	root, _, _, err := NMTRoot(leaves)
	return root, err
}

// VerifyBlobCommitment recomputes a commitment from data and layout and
// reports whether it matches want, the check a full node performs before
// accepting a blob as the data behind a header's claimed commitment.
func VerifyBlobCommitment(want BlobCommitment, data []byte, layout RSLayout) bool {
	got, err := CommitBlob(want.Namespace, data, layout)
	if err != nil {
		return false
	}
	return got.Root == want.Root && got.Size == want.Size
}
