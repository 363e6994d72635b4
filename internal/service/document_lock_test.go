package service

import (
	"context"
	"testing"
)

func TestLocalDocumentLockSingleHolder(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalDocumentLock()

	ok, err := lock.Acquire(ctx, "doc-1", "session-a")
	if err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if !ok {
		t.Fatal("expected first acquire to succeed")
	}

	ok, err = lock.Acquire(ctx, "doc-1", "session-b")
	if err != nil {
		t.Fatalf("second acquire errored: %v", err)
	}
	if ok {
		t.Error("expected acquire on a held document to fail")
	}

	// Other documents are not affected.
	ok, _ = lock.Acquire(ctx, "doc-2", "session-b")
	if !ok {
		t.Error("expected acquire on a different document to succeed")
	}
}

func TestLocalDocumentLockReleaseByHolderOnly(t *testing.T) {
	ctx := context.Background()
	lock := NewLocalDocumentLock()

	if ok, _ := lock.Acquire(ctx, "doc-1", "session-a"); !ok {
		t.Fatal("expected acquire to succeed")
	}

	// A non-holder release must not free the lock.
	lock.Release(ctx, "doc-1", "session-b")
	if ok, _ := lock.Acquire(ctx, "doc-1", "session-c"); ok {
		t.Error("expected lock to survive release by non-holder")
	}

	lock.Release(ctx, "doc-1", "session-a")
	if ok, _ := lock.Acquire(ctx, "doc-1", "session-c"); !ok {
		t.Error("expected lock to be free after holder released")
	}
}
