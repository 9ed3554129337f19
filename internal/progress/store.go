package progress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"creativedojo/internal/storage"
)

type Store struct {
	kv     storage.KV
	logger Logger
}

func NewStore(kv storage.KV, logger Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

// wireTile mirrors the persisted shape; pointers make missing fields detectable.
type wireTile struct {
	ID          *int  `json:"id"`
	IsUnlocked  *bool `json:"isUnlocked"`
	IsCompleted *bool `json:"isCompleted"`
}

var errNoData = errors.New("no progress data")

// Load returns the stored tiles, or ok=false when nothing usable is stored. Unusable data
// is erased rather than coerced; err is only set for storage failures.
func (s *Store) Load(ctx context.Context, key string, expectedCount int) ([]Tile, bool, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read progress %s: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	tiles, err := Decode(raw, expectedCount)
	if err != nil {
		s.warn("progress.discarded", map[string]any{"key": key, "reason": err.Error()})
		if rmErr := s.kv.Remove(ctx, key); rmErr != nil {
			return nil, false, fmt.Errorf("erase corrupt progress %s: %w", key, rmErr)
		}
		return nil, false, nil
	}
	return tiles, true, nil
}

func (s *Store) Save(ctx context.Context, key string, tiles []Tile) error {
	b, err := Encode(tiles)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write progress %s: %w", key, err)
	}
	return nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.kv.Remove(ctx, key); err != nil {
		return fmt.Errorf("clear progress %s: %w", key, err)
	}
	return nil
}

func Encode(tiles []Tile) ([]byte, error) {
	wire := make([]wireTile, len(tiles))
	for i := range tiles {
		t := tiles[i]
		wire[i] = wireTile{ID: &t.ID, IsUnlocked: &t.Unlocked, IsCompleted: &t.Completed}
	}
	return json.Marshal(wire)
}

// Decode parses and validates a progress blob against the expected tile count.
func Decode(raw []byte, expectedCount int) ([]Tile, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, errNoData
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	var wire []wireTile
	if err := dec.Decode(&wire); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse: trailing data after progress array")
	}
	if wire == nil {
		return nil, errNoData
	}
	if len(wire) != expectedCount {
		return nil, fmt.Errorf("length mismatch: stored %d, expected %d", len(wire), expectedCount)
	}
	tiles := make([]Tile, len(wire))
	for i, w := range wire {
		if w.ID == nil || w.IsUnlocked == nil || w.IsCompleted == nil {
			return nil, fmt.Errorf("entry %d: missing required field", i)
		}
		if *w.ID != i+1 {
			return nil, fmt.Errorf("entry %d: id must be %d, got %d", i, i+1, *w.ID)
		}
		if *w.IsCompleted && !*w.IsUnlocked {
			return nil, fmt.Errorf("entry %d: completed but locked", i)
		}
		tiles[i] = Tile{ID: *w.ID, Unlocked: *w.IsUnlocked, Completed: *w.IsCompleted}
	}
	return tiles, nil
}

func (s *Store) warn(msg string, fields map[string]any) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, fields)
}
