package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"creativedojo/internal/storage"
)

// Store keeps every saved drawing in one blob. Artifacts are supplementary to progress, so
// unreadable data degrades to "nothing saved" instead of failing.
type Store struct {
	kv     storage.KV
	logger Logger
}

func NewStore(kv storage.KV, logger Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

type wireRecord struct {
	ChallengeID *int        `json:"challengeId"`
	Pixels      *[][]string `json:"pixels"`
}

func (s *Store) Load(ctx context.Context, key string) ([]Record, error) {
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read artifacts %s: %w", key, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return []Record{}, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		s.warn("artifact.blob_dropped", map[string]any{"key": key, "reason": err.Error()})
		if rmErr := s.kv.Remove(ctx, key); rmErr != nil {
			return nil, fmt.Errorf("erase corrupt artifacts %s: %w", key, rmErr)
		}
		return []Record{}, nil
	}

	out := make([]Record, 0, len(items))
	seen := map[int]struct{}{}
	for i, item := range items {
		rec, err := decodeRecord(item)
		if err != nil {
			s.warn("artifact.record_skipped", map[string]any{"key": key, "index": i, "reason": err.Error()})
			continue
		}
		if _, dup := seen[rec.ChallengeID]; dup {
			s.warn("artifact.record_skipped", map[string]any{"key": key, "index": i, "reason": "duplicate challengeId", "challenge": rec.ChallengeID})
			continue
		}
		seen[rec.ChallengeID] = struct{}{}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRecord(item json.RawMessage) (Record, error) {
	var w wireRecord
	if err := json.Unmarshal(item, &w); err != nil {
		return Record{}, err
	}
	if w.ChallengeID == nil || w.Pixels == nil {
		return Record{}, fmt.Errorf("missing required field")
	}
	if *w.ChallengeID <= 0 {
		return Record{}, fmt.Errorf("challengeId must be >0")
	}
	if err := ValidateMatrix(*w.Pixels); err != nil {
		return Record{}, err
	}
	return Record{ChallengeID: *w.ChallengeID, Pixels: *w.Pixels}, nil
}

// Upsert replaces the record for challengeID in place, or appends one.
func (s *Store) Upsert(ctx context.Context, key string, challengeID int, pixels [][]string) error {
	if challengeID <= 0 {
		return fmt.Errorf("challenge id must be >0")
	}
	if err := ValidateMatrix(pixels); err != nil {
		return err
	}
	records, err := s.Load(ctx, key)
	if err != nil {
		return err
	}
	rec := Record{ChallengeID: challengeID, Pixels: CloneMatrix(pixels)}
	replaced := false
	for i := range records {
		if records[i].ChallengeID == challengeID {
			records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		records = append(records, rec)
	}
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, key, b); err != nil {
		return fmt.Errorf("write artifacts %s: %w", key, err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, key string, challengeID int) (Record, bool, error) {
	records, err := s.Load(ctx, key)
	if err != nil {
		return Record{}, false, err
	}
	for _, r := range records {
		if r.ChallengeID == challengeID {
			return r.clone(), true, nil
		}
	}
	return Record{}, false, nil
}

func (s *Store) Clear(ctx context.Context, key string) error {
	if err := s.kv.Remove(ctx, key); err != nil {
		return fmt.Errorf("clear artifacts %s: %w", key, err)
	}
	return nil
}

func (s *Store) warn(msg string, fields map[string]any) {
	if s.logger == nil {
		return
	}
	s.logger.Warn(msg, fields)
}
