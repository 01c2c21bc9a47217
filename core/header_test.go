package core

import (
	"testing"
	"time"
)

func TestAssembleHeaderProducesStableHash(t *testing.T) {
	now := time.Now()
	entries := []*MempoolEntry{
		{Tx: mkTx(1, 0, addr(1), 10), TxHash: Hash{1}},
		{Tx: mkTx(1, 0, addr(2), 20), TxHash: Hash{2}},
	}
	proofs := []ProofCandidate{{Type: ProofHash, Submitter: addr(1), Payload: []byte("p1")}}
	blobs := []BlobCommitment{{Namespace: 1, Root: Hash{9}, Size: 100}}
	round := &RandomnessRound{Beacon: Hash{42}}

	policy := testPolicy()

	blk, err := AssembleHeader(100, Hash{5}, Hash{6}, addr(3), entries, proofs, policy, 1.5, blobs, round, now)
	if err != nil {
		t.Fatalf("AssembleHeader failed: %v", err)
	}
	if blk.Header.Height != 100 {
		t.Fatalf("unexpected height: %d", blk.Header.Height)
	}
	if blk.Header.RandomnessTag != round.Beacon {
		t.Fatalf("randomness tag not propagated from round")
	}
	if blk.Header.PoIESGammaMicro != GammaMicro(1.5) {
		t.Fatalf("unexpected PoIESGammaMicro: got %d want %d", blk.Header.PoIESGammaMicro, GammaMicro(1.5))
	}
	if blk.Header.PolicyRoot.IsZero() {
		t.Fatalf("expected non-zero policy root")
	}
	if blk.HeaderHash.IsZero() {
		t.Fatalf("expected non-zero header hash")
	}

	blk2, err := AssembleHeader(100, Hash{5}, Hash{6}, addr(3), entries, proofs, policy, 1.5, blobs, round, now)
	if err != nil {
		t.Fatalf("AssembleHeader failed: %v", err)
	}
	if blk.HeaderHash != blk2.HeaderHash {
		t.Fatalf("identical inputs produced different header hashes")
	}
}

func TestAssembleHeaderHandlesEmptyBlock(t *testing.T) {
	blk, err := AssembleHeader(1, Hash{}, Hash{}, addr(1), nil, nil, testPolicy(), 0, nil, nil, time.Now())
	if err != nil {
		t.Fatalf("AssembleHeader failed on empty block: %v", err)
	}
	if !blk.Header.TxRoot.IsZero() || !blk.Header.DARoot.IsZero() || !blk.Header.ProofRoot.IsZero() {
		t.Fatalf("expected zero roots for an empty block")
	}
	if blk.Header.PolicyRoot.IsZero() {
		t.Fatalf("expected a non-zero policy root even for an empty block")
	}
}
