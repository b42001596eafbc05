// Package storage provides calculation history storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Payloads are stored as opaque JSON documents

package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/richinex/calcflow/model"
)

// Entry is one successfully completed calculation.
type Entry struct {
	ID        string          `json:"id"`
	Kind      model.Kind      `json:"kind"`
	Summary   string          `json:"summary"`
	Request   json.RawMessage `json:"request"`
	Result    json.RawMessage `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEntry creates an entry with a fresh ID, encoding request and result as JSON.
func NewEntry(kind model.Kind, summary string, request, result any) (Entry, error) {
	req, err := json.Marshal(request)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode request: %w", err)
	}
	res, err := json.Marshal(result)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode result: %w", err)
	}
	return Entry{
		ID:        uuid.NewString(),
		Kind:      kind,
		Summary:   summary,
		Request:   req,
		Result:    res,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// HistoryStore defines the interface for storing calculation history.
type HistoryStore interface {
	// Record appends an entry.
	Record(ctx context.Context, entry Entry) error

	// List returns up to limit entries, newest first. A non-positive
	// limit returns every entry.
	List(ctx context.Context, limit int) ([]Entry, error)

	// Get returns the entry with the given ID.
	// Returns nil, nil if not found.
	Get(ctx context.Context, id string) (*Entry, error)

	// Clear deletes every entry.
	Clear(ctx context.Context) error
}
