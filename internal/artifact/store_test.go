package artifact

import (
	"context"
	"errors"
	"testing"

	"creativedojo/internal/storage"

	"github.com/google/go-cmp/cmp"
)

type recordingLogger struct {
	warnings []string
}

func (r *recordingLogger) Warn(msg string, _ map[string]any) {
	r.warnings = append(r.warnings, msg)
}

func filled(n int, color string) [][]string {
	out := make([][]string, n)
	for r := range out {
		out[r] = make([]string, n)
		for c := range out[r] {
			out[r][c] = color
		}
	}
	return out
}

func TestUpsertReplacesExistingRecord(t *testing.T) {
	store := NewStore(storage.NewMemory(), nil)
	ctx := context.Background()

	first := filled(8, "#FF0000")
	second := filled(8, "#00FF00")
	if err := store.Upsert(ctx, "art", 3, first); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := store.Upsert(ctx, "art", 3, second); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	records, err := store.Load(ctx, "art")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []Record{{ChallengeID: 3, Pixels: second}}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestUpsertAppendsAndKeepsOrder(t *testing.T) {
	store := NewStore(storage.NewMemory(), nil)
	ctx := context.Background()
	for _, id := range []int{2, 1, 4} {
		if err := store.Upsert(ctx, "art", id, filled(8, "#FFFFFF")); err != nil {
			t.Fatalf("upsert %d: %v", id, err)
		}
	}
	if err := store.Upsert(ctx, "art", 1, filled(8, "#000000")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	records, err := store.Load(ctx, "art")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var ids []int
	for _, r := range records {
		ids = append(ids, r.ChallengeID)
	}
	if diff := cmp.Diff([]int{2, 1, 4}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if records[1].Pixels[0][0] != "#000000" {
		t.Fatalf("expected replaced pixels, got %q", records[1].Pixels[0][0])
	}
}

func TestUpsertCopiesInput(t *testing.T) {
	store := NewStore(storage.NewMemory(), nil)
	ctx := context.Background()
	pixels := filled(8, "#FFFFFF")
	if err := store.Upsert(ctx, "art", 1, pixels); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	pixels[0][0] = "#123456"
	rec, ok, err := store.Find(ctx, "art", 1)
	if err != nil || !ok {
		t.Fatalf("find: ok=%v err=%v", ok, err)
	}
	if rec.Pixels[0][0] != "#FFFFFF" {
		t.Fatalf("stored record aliased caller matrix")
	}
}

func TestUpsertRejectsInvalidMatrix(t *testing.T) {
	store := NewStore(storage.NewMemory(), nil)
	ctx := context.Background()
	cases := map[string][][]string{
		"empty":      {},
		"non-square": {{"#FFFFFF", "#FFFFFF"}, {"#FFFFFF"}},
		"bad colour": {{"red"}},
	}
	for name, pixels := range cases {
		if err := store.Upsert(ctx, "art", 1, pixels); !errors.Is(err, ErrInvalidMatrix) {
			t.Fatalf("%s: expected ErrInvalidMatrix, got %v", name, err)
		}
	}
	records, _ := store.Load(ctx, "art")
	if len(records) != 0 {
		t.Fatalf("expected nothing written, got %v", records)
	}
}

func TestFindMissing(t *testing.T) {
	store := NewStore(storage.NewMemory(), nil)
	_, ok, err := store.Find(context.Background(), "art", 7)
	if err != nil || ok {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
}

func TestLoadDropsNonArrayBlob(t *testing.T) {
	kv := storage.NewMemory()
	logger := &recordingLogger{}
	store := NewStore(kv, logger)
	ctx := context.Background()
	_ = kv.Set(ctx, "art", []byte(`{"challengeId":1}`))

	records, err := store.Load(ctx, "art")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty records, got %v", records)
	}
	if _, ok, _ := kv.Get(ctx, "art"); ok {
		t.Fatalf("expected corrupt blob removed")
	}
	if len(logger.warnings) != 1 || logger.warnings[0] != "artifact.blob_dropped" {
		t.Fatalf("unexpected warnings: %v", logger.warnings)
	}
}

func TestLoadSkipsInvalidRecords(t *testing.T) {
	kv := storage.NewMemory()
	logger := &recordingLogger{}
	store := NewStore(kv, logger)
	ctx := context.Background()
	blob := `[
		{"challengeId":1,"pixels":[["#FFF"]]},
		{"challengeId":0,"pixels":[["#FFF"]]},
		{"challengeId":2,"pixels":[["#FFF","#000"]]},
		{"challengeId":3,"pixels":[["nope"]]},
		{"challengeId":4},
		"garbage",
		{"challengeId":1,"pixels":[["#000"]]},
		{"challengeId":5,"pixels":[["#00FF00"]]}
	]`
	_ = kv.Set(ctx, "art", []byte(blob))

	records, err := store.Load(ctx, "art")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []Record{
		{ChallengeID: 1, Pixels: [][]string{{"#FFF"}}},
		{ChallengeID: 5, Pixels: [][]string{{"#00FF00"}}},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if len(logger.warnings) != 6 {
		t.Fatalf("expected 6 skipped records, got %v", logger.warnings)
	}
	if _, ok, _ := kv.Get(ctx, "art"); !ok {
		t.Fatalf("record-level corruption must not drop the blob")
	}
}

func TestClear(t *testing.T) {
	kv := storage.NewMemory()
	store := NewStore(kv, nil)
	ctx := context.Background()
	_ = store.Upsert(ctx, "art", 1, filled(8, "#FFFFFF"))
	if err := store.Clear(ctx, "art"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	records, err := store.Load(ctx, "art")
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty after clear, got %v err=%v", records, err)
	}
}

func TestWireFormat(t *testing.T) {
	kv := storage.NewMemory()
	store := NewStore(kv, nil)
	ctx := context.Background()
	_ = store.Upsert(ctx, "art", 2, [][]string{{"#FF0000"}})
	raw, _, _ := kv.Get(ctx, "art")
	want := `[{"challengeId":2,"pixels":[["#FF0000"]]}]`
	if string(raw) != want {
		t.Fatalf("unexpected wire format:\n got %s\nwant %s", raw, want)
	}
}
