package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/lucasb-eyer/go-colorful"
)

func TestResolveKnownAndAliasedNames(t *testing.T) {
	m := NewManager()
	cases := map[string]string{
		"fresh":       "fresh",
		" Midway ":    "midway",
		"editor":      "editor_open",
		"readonly":    "readonly",
		"done":        "all_done",
		"nonexistent": "fresh",
	}
	for in, want := range cases {
		if got := m.Resolve(in).Name; got != want {
			t.Fatalf("Resolve(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNamesListsEveryScenario(t *testing.T) {
	want := []string{"fresh", "midway", "editor_open", "readonly", "all_done"}
	if diff := cmp.Diff(want, NewManager().Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestCompletedCount(t *testing.T) {
	m := NewManager()
	if got := m.Resolve("fresh").CompletedCount(10); got != 0 {
		t.Fatalf("fresh completed %d", got)
	}
	if got := m.Resolve("midway").CompletedCount(10); got != 5 {
		t.Fatalf("midway completed %d", got)
	}
	if got := m.Resolve("all_done").CompletedCount(7); got != 7 {
		t.Fatalf("all_done completed %d", got)
	}
}

func TestPatternIsSquareDeterministicAndValid(t *testing.T) {
	a := Pattern(8, 3)
	b := Pattern(8, 3)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("expected deterministic pattern:\n%s", diff)
	}
	if len(a) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(a))
	}
	for _, row := range a {
		if len(row) != 8 {
			t.Fatalf("expected square pattern")
		}
		for _, hex := range row {
			if _, err := colorful.Hex(hex); err != nil {
				t.Fatalf("invalid colour %q", hex)
			}
		}
	}
	if a[0][0] == a[4][4] {
		t.Fatalf("expected outer ring to differ from centre")
	}
	if len(Pattern(0, 1)) != 0 {
		t.Fatalf("expected empty pattern for size 0")
	}
}

func TestSetStateWritesJSON(t *testing.T) {
	dir := t.TempDir()
	if err := NewManager().SetState(context.Background(), dir, "board", true); err != nil {
		t.Fatalf("set state: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "dev_state.json"))
	if err != nil {
		t.Fatalf("read state: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if got["state"] != "board" || got["rendered"] != true {
		t.Fatalf("unexpected payload %v", got)
	}
}
