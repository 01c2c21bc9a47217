package core

import (
	"sort"
	"time"
)

// headerVersion is the wire format version stamped into every assembled
// header, following the same version-byte convention address.go uses for
// bech32m addresses.
const headerVersion = 1

// AssembleHeader binds the outputs of every component — the drained
// mempool entries, the PoIES-selected proofs and their aggregate Γ, the
// block's DA commitments, the caller-supplied post-execution state root,
// the policy the proofs were selected under, and the finalized randomness
// round — into one BlockHeader, mirroring the teacher's BlockHeader
// construction in RunConsensusRound (core/consensus.go) generalized to
// this chain's component set. Γ is stored on the header as micro-units
// (see GammaMicro) so the canonical, float-free encoding HashHeader signs
// never embeds an IEEE-754 value.
func AssembleHeader(
	height uint64,
	parent Hash,
	stateRoot Hash,
	proposer Address,
	entries []*MempoolEntry,
	proofs []ProofCandidate,
	policy PoIESPolicy,
	gamma float64,
	blobs []BlobCommitment,
	round *RandomnessRound,
	now time.Time,
) (*Block, error) {
	txs := make([]*Transaction, len(entries))
	leaves := make([]NMTLeaf, len(entries))
	for i, e := range entries {
		txs[i] = e.Tx
		leaves[i] = NMTLeaf{Namespace: 0, Data: e.TxHash[:]}
	}
	sort.Slice(leaves, func(i, j int) bool {
		return hexString(leaves[i].Data) < hexString(leaves[j].Data)
	})

	var txRoot Hash
	if len(leaves) > 0 {
		r, _, _, err := NMTRoot(leaves)
		if err != nil {
			return nil, err
		}
		txRoot = r
	}

	daRoot, err := BlockDARoot(blobs)
	if err != nil {
		return nil, err
	}

	var proofRoot Hash
	if len(proofs) > 0 {
		proofLeaves := make([]NMTLeaf, len(proofs))
		for i, p := range proofs {
			digest := DomainHash(DomainProofDigest, p.Payload)
			proofLeaves[i] = NMTLeaf{Namespace: uint32(p.Type), Data: digest[:]}
		}
		r, _, _, err := NMTRoot(proofLeaves)
		if err != nil {
			return nil, err
		}
		proofRoot = r
	}

	var randomnessTag Hash
	if round != nil {
		randomnessTag = round.Beacon
	}

	policyRoot, err := HashPolicy(policy)
	if err != nil {
		return nil, err
	}

	header := BlockHeader{
		Version:         headerVersion,
		Height:          height,
		ParentHash:      parent,
		TxRoot:          txRoot,
		StateRoot:       stateRoot,
		DARoot:          daRoot,
		RandomnessTag:   randomnessTag,
		PoIESGammaMicro: GammaMicro(gamma),
		PolicyRoot:      policyRoot,
		ProofRoot:       proofRoot,
		Proposer:        proposer,
		Timestamp:       now,
	}

	headerHash, err := HashHeader(&header)
	if err != nil {
		return nil, err
	}

	return &Block{
		Header:     header,
		Txs:        txs,
		Proofs:     proofs,
		Blobs:      blobs,
		HeaderHash: headerHash,
	}, nil
}
