package core

import (
	"testing"

	"animica-core/internal/testutil"
)

func TestBlobStorePutGetRoundTrip(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	store, err := NewBlobStore(sb.Path("blobs"))
	if err != nil {
		t.Fatalf("NewBlobStore failed: %v", err)
	}

	data := []byte("namespaced blob payload")
	h, err := store.Put(DomainBlobCommit, data)
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok := store.Get(h)
	if !ok {
		t.Fatalf("expected blob to be found")
	}
	if string(got) != string(data) {
		t.Fatalf("data mismatch: got %q want %q", got, data)
	}
	if !store.Has(h) {
		t.Fatalf("expected Has to report true for stored blob")
	}
}

func TestBlobStoreMissingReturnsFalse(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	store, err := NewBlobStore(sb.Path("blobs"))
	if err != nil {
		t.Fatalf("NewBlobStore failed: %v", err)
	}

	if _, ok := store.Get(Hash{0xff}); ok {
		t.Fatalf("expected Get to report not-found for a hash never stored")
	}
}

func TestBlobStoreDelete(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	store, err := NewBlobStore(sb.Path("blobs"))
	if err != nil {
		t.Fatalf("NewBlobStore failed: %v", err)
	}

	h, err := store.Put(DomainBlobCommit, []byte("to be deleted"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := store.Delete(h); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if store.Has(h) {
		t.Fatalf("expected blob to be gone after Delete")
	}
}
