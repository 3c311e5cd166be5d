package store

import (
	"context"
	"testing"
	"time"

	skelerrors "github.com/skeltree/skeltree/pkg/errors"
	"github.com/skeltree/skeltree/pkg/morphio"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	doc := &morphio.Document{Soma: morphio.SomaRecord{Radius: 1}}
	if err := s.Put(ctx, Entry{RunID: "run-1", Name: "cell.am", Document: doc}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	e, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if e.Name != "cell.am" {
		t.Errorf("name = %q, want cell.am", e.Name)
	}
	if e.Document.Soma.Radius != 1 {
		t.Errorf("document soma radius = %v, want 1", e.Document.Soma.Radius)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt not filled in")
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Get(context.Background(), "nope")
	if code := skelerrors.GetCode(err); code != skelerrors.ErrCodeNotFound {
		t.Errorf("code = %s, want %s", code, skelerrors.ErrCodeNotFound)
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Put(ctx, Entry{RunID: "run-1", Name: "old"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, Entry{RunID: "run-1", Name: "new"}); err != nil {
		t.Fatal(err)
	}

	e, err := s.Get(ctx, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if e.Name != "new" {
		t.Errorf("name = %q, want new", e.Name)
	}
}

func TestMemoryStoreList(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		e := Entry{
			RunID:     id,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
			Document:  &morphio.Document{},
		}
		if err := s.Put(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	// newest first, documents omitted
	if entries[0].RunID != "c" || entries[2].RunID != "a" {
		t.Errorf("order = [%s %s %s], want [c b a]",
			entries[0].RunID, entries[1].RunID, entries[2].RunID)
	}
	for _, e := range entries {
		if e.Document != nil {
			t.Errorf("entry %s still carries its document", e.RunID)
		}
	}

	limited, err := s.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d limited entries, want 2", len(limited))
	}
}
