package storage

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/richinex/calcflow/model"
)

func mustEntry(t *testing.T, summary string) Entry {
	t.Helper()
	entry, err := NewEntry(model.KindPartial, summary,
		model.PartialRequest{Function: "x*y", Variable: model.VarX, VarCount: model.TwoVars},
		model.Result{Result: "y", KeyPoints: []string{"k"}})
	if err != nil {
		t.Fatalf("NewEntry failed: %v", err)
	}
	return entry
}

func TestNewEntry(t *testing.T) {
	entry := mustEntry(t, "∂f/∂x")

	if entry.ID == "" {
		t.Error("expected generated ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("expected creation time")
	}

	var req model.PartialRequest
	if err := json.Unmarshal(entry.Request, &req); err != nil {
		t.Fatalf("request is not valid JSON: %v", err)
	}
	if req.Function != "x*y" {
		t.Errorf("expected function 'x*y', got '%s'", req.Function)
	}

	other := mustEntry(t, "∂f/∂x")
	if other.ID == entry.ID {
		t.Error("expected unique IDs")
	}
}

// exerciseHistory runs the shared HistoryStore contract against a backend.
func exerciseHistory(t *testing.T, store HistoryStore) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty history, got %d entries", len(empty))
	}

	first := mustEntry(t, "first")
	second := mustEntry(t, "second")
	third := mustEntry(t, "third")
	for _, e := range []Entry{first, second, third} {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	all, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].Summary != "third" || all[2].Summary != "first" {
		t.Errorf("expected newest first, got %q .. %q", all[0].Summary, all[2].Summary)
	}

	limited, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 entries, got %d", len(limited))
	}

	got, err := store.Get(ctx, second.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected entry, got nil")
	}
	if got.Kind != model.KindPartial {
		t.Errorf("expected kind partial, got %s", got.Kind)
	}
	if string(got.Result) != string(second.Result) {
		t.Errorf("expected result %s, got %s", second.Result, got.Result)
	}
	if !got.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("expected created_at %v, got %v", second.CreatedAt, got.CreatedAt)
	}

	missing, err := store.Get(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing entry")
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	cleared, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(cleared) != 0 {
		t.Errorf("expected empty history after clear, got %d", len(cleared))
	}
}

func TestInMemoryHistory(t *testing.T) {
	exerciseHistory(t, NewInMemoryHistory())
}

func TestInMemoryHistoryIsolation(t *testing.T) {
	store := NewInMemoryHistory()
	ctx := context.Background()

	entry := mustEntry(t, "isolated")
	if err := store.Record(ctx, entry); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Mutating the caller's buffer must not affect stored data
	entry.Result[0] = 'X'

	got, err := store.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Result[0] != '{' {
		t.Errorf("stored result was mutated: %s", got.Result)
	}
}
