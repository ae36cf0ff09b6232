package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestGetMissReturnsNoAnswer(t *testing.T) {
	store, _ := newStore(t)

	answer, ok, err := store.Get(context.Background(), "Qual foi o IPCA em Recife?")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || answer != "" {
		t.Fatalf("Get() = (%q, %v), want miss", answer, ok)
	}
}

func TestPutThenGetExactMatch(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "Qual foi o IPCA em Recife?", "O IPCA foi de 0,42%."); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	answer, ok, err := store.Get(ctx, "Qual foi o IPCA em Recife?")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || answer != "O IPCA foi de 0,42%." {
		t.Fatalf("Get() = (%q, %v)", answer, ok)
	}

	// No normalization: a differently-cased question is a different key.
	if _, ok, err := store.Get(ctx, "qual foi o ipca em recife?"); err != nil || ok {
		t.Fatalf("Get() case variant = (%v, %v), want miss", ok, err)
	}
}

func TestPutOverwritesExistingAnswer(t *testing.T) {
	store, _ := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "pergunta", "primeira resposta"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Put(ctx, "pergunta", "segunda resposta"); err != nil {
		t.Fatalf("Put() overwrite error = %v", err)
	}

	answer, ok, err := store.Get(ctx, "pergunta")
	if err != nil || !ok {
		t.Fatalf("Get() = (%v, %v)", ok, err)
	}
	if answer != "segunda resposta" {
		t.Fatalf("answer = %q, want overwritten value", answer)
	}
}

func TestEntriesSurviveReopen(t *testing.T) {
	store, path := newStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "pergunta", "resposta"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("New() reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	answer, ok, err := reopened.Get(ctx, "pergunta")
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = (%v, %v)", ok, err)
	}
	if answer != "resposta" {
		t.Fatalf("answer = %q", answer)
	}
}
