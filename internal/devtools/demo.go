package devtools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Target says which challenge a scenario leaves open.
type Target string

const (
	TargetNone Target = ""
	// TargetCurrentPixelArt opens the first pixel-art challenge with a few unsaved strokes.
	TargetCurrentPixelArt Target = "current_pixel_art"
	// TargetDonePixelArt opens the first pixel-art challenge after it was completed.
	TargetDonePixelArt Target = "done_pixel_art"
)

// Scenario is a reproducible board state for screenshots and manual checks.
type Scenario struct {
	Name string
	// Fraction of the catalog completed in order, 0..1.
	Fraction float64
	Target   Target
}

var scenarios = []Scenario{
	{Name: "fresh"},
	{Name: "midway", Fraction: 0.5},
	{Name: "editor_open", Target: TargetCurrentPixelArt},
	{Name: "readonly", Target: TargetDonePixelArt},
	{Name: "all_done", Fraction: 1},
}

type Manager struct{}

func NewManager() *Manager { return &Manager{} }

// Resolve maps a requested name to a scenario. Unknown names fall back to "fresh".
func (m *Manager) Resolve(name string) Scenario {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case "done", "complete":
		name = "all_done"
	case "editor", "painting":
		name = "editor_open"
	case "half":
		name = "midway"
	}
	for _, s := range scenarios {
		if s.Name == name {
			return s
		}
	}
	return scenarios[0]
}

func (m *Manager) Names() []string {
	out := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		out = append(out, s.Name)
	}
	return out
}

// CompletedCount is how many of n challenges the scenario completes up front.
func (s Scenario) CompletedCount(n int) int {
	if n <= 0 || s.Fraction <= 0 {
		return 0
	}
	if s.Fraction >= 1 {
		return n
	}
	return int(float64(n) * s.Fraction)
}

// Pattern is a deterministic size x size drawing: concentric rings whose hue shifts with seed.
func Pattern(size, seed int) [][]string {
	if size <= 0 {
		return [][]string{}
	}
	out := make([][]string, size)
	base := float64((seed * 47) % 360)
	center := float64(size-1) / 2
	for r := range out {
		row := make([]string, size)
		for c := range row {
			ring := int(max(abs(float64(r)-center), abs(float64(c)-center)))
			hue := base + float64(ring)*30
			for hue >= 360 {
				hue -= 360
			}
			val := 0.95
			if ring%2 == 1 {
				val = 0.7
			}
			row[c] = strings.ToUpper(colorful.Hsv(hue, 0.65, val).Hex())
		}
		out[r] = row
	}
	return out
}

func (m *Manager) SetState(ctx context.Context, cacheDir string, state string, rendered bool) error {
	_ = ctx
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		cacheDir = filepath.Join(home, ".cache", "creativedojo")
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return err
	}
	payload := map[string]any{
		"state":    state,
		"rendered": rendered,
		"ts":       time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(payload)
	return os.WriteFile(filepath.Join(cacheDir, "dev_state.json"), b, 0o644)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
