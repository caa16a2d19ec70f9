package modcache

import (
	"crypto/sha256"
	"testing"
)

func TestHasValidatedFalseBeforeMark(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	hash := sha256.Sum256([]byte("module bytes"))
	if store.HasValidated(hash) {
		t.Fatalf("expected unmarked hash to report unvalidated")
	}
}

func TestMarkValidatedPersists(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	hash := sha256.Sum256([]byte("module bytes"))
	store.MarkValidated(hash)
	if !store.HasValidated(hash) {
		t.Fatalf("expected marked hash to report validated")
	}
}

func TestDistinctHashesAreIndependent(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a := sha256.Sum256([]byte("a"))
	b := sha256.Sum256([]byte("b"))
	store.MarkValidated(a)
	if store.HasValidated(b) {
		t.Fatalf("expected unrelated hash to remain unvalidated")
	}
}
