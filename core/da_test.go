package core

import "testing"

func TestCommitBlobVerifies(t *testing.T) {
	layout := RSLayout{K: 4, N: 8}
	data := make([]byte, chunkSize*3+17)
	for i := range data {
		data[i] = byte(i)
	}

	commitment, err := CommitBlob(42, data, layout)
	if err != nil {
		t.Fatalf("CommitBlob failed: %v", err)
	}
	if !VerifyBlobCommitment(commitment, data, layout) {
		t.Fatalf("expected commitment to verify against original data")
	}

	tampered := append([]byte(nil), data...)
	tampered[0] ^= 0xff
	if VerifyBlobCommitment(commitment, tampered, layout) {
		t.Fatalf("expected commitment to reject tampered data")
	}
}

func TestBlockDARootEmptyBlobs(t *testing.T) {
	root, err := BlockDARoot(nil)
	if err != nil {
		t.Fatalf("BlockDARoot failed: %v", err)
	}
	if !root.IsZero() {
		t.Fatalf("expected zero DA root for a block with no blobs")
	}
}

func TestBlockDARootStableUnderBlobOrder(t *testing.T) {
	layout := RSLayout{K: 2, N: 4}
	b1, err := CommitBlob(1, []byte("blob one"), layout)
	if err != nil {
		t.Fatalf("CommitBlob failed: %v", err)
	}
	b2, err := CommitBlob(2, []byte("blob two"), layout)
	if err != nil {
		t.Fatalf("CommitBlob failed: %v", err)
	}

	r1, err := BlockDARoot([]BlobCommitment{b1, b2})
	if err != nil {
		t.Fatalf("BlockDARoot failed: %v", err)
	}
	r2, err := BlockDARoot([]BlobCommitment{b2, b1})
	if err != nil {
		t.Fatalf("BlockDARoot failed: %v", err)
	}
	if r1 != r2 {
		t.Fatalf("DA root differs based on blob order")
	}
}
