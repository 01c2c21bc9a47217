package core

import "testing"

func TestAddressEncodeDecodeRoundTrip(t *testing.T) {
	orig := Address{Algo: AlgoDilithium3, Raw: []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10}}

	s, err := EncodeAddress(orig)
	if err != nil {
		t.Fatalf("EncodeAddress failed: %v", err)
	}

	got, err := DecodeAddress(s)
	if err != nil {
		t.Fatalf("DecodeAddress failed: %v", err)
	}
	if !got.Equal(orig) {
		t.Fatalf("round trip mismatch: got %+v want %+v", got, orig)
	}
}

func TestDecodeAddressRejectsWrongHRP(t *testing.T) {
	saved := ChainHRP
	defer func() { ChainHRP = saved }()

	ChainHRP = "anim"
	addr := Address{Algo: AlgoSPHINCSPlus, Raw: []byte{1, 2, 3, 4}}
	s, err := EncodeAddress(addr)
	if err != nil {
		t.Fatalf("EncodeAddress failed: %v", err)
	}

	ChainHRP = "other"
	if _, err := DecodeAddress(s); err == nil {
		t.Fatalf("expected HRP mismatch error")
	}
}

func TestDeriveAddressDeterministic(t *testing.T) {
	pub := []byte("a dilithium public key")
	a1 := DeriveAddress(AlgoDilithium3, pub)
	a2 := DeriveAddress(AlgoDilithium3, pub)
	if !a1.Equal(a2) {
		t.Fatalf("DeriveAddress is not deterministic")
	}
	other := DeriveAddress(AlgoSPHINCSPlus, pub)
	if a1.Equal(other) {
		t.Fatalf("different algorithms produced the same address")
	}
}

func TestAddressZeroIsZero(t *testing.T) {
	if !AddressZero.IsZero() {
		t.Fatalf("AddressZero.IsZero() returned false")
	}
	nonZero := Address{Algo: AlgoDilithium3, Raw: []byte{1}}
	if nonZero.IsZero() {
		t.Fatalf("non-zero address reported as zero")
	}
}
