package editor

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	MinSize       = 8
	MaxSize       = 32
	InitialColor  = "#FFFFFF"
	DefaultColor  = "#000000"
	ResetQuestion = "Are you sure you want to reset this pixel art? Any unsaved changes will be lost."
)

var (
	ErrSizeMismatch = errors.New("pixel data does not match grid size")
	ErrInvalidColor = errors.New("invalid colour")
)

type State string

const (
	StateIdle     State = "idle"
	StatePainting State = "painting"
)

// Editor is a square colour grid with a press/drag/release paint gesture. Read-only editors
// ignore every mutation.
type Editor struct {
	mu       sync.Mutex
	size     int
	pixels   [][]string
	color    string
	state    State
	readOnly bool
	dirty    bool
	unsub    func()
}

func ClampSize(n int) int {
	if n < MinSize {
		return MinSize
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}

func New(size int, readOnly bool) *Editor {
	size = ClampSize(size)
	return &Editor{
		size:     size,
		pixels:   blank(size),
		color:    DefaultColor,
		state:    StateIdle,
		readOnly: readOnly,
	}
}

func blank(n int) [][]string {
	out := make([][]string, n)
	for r := range out {
		row := make([]string, n)
		for c := range row {
			row[c] = InitialColor
		}
		out[r] = row
	}
	return out
}

func (e *Editor) Size() int { return e.size }

func (e *Editor) ReadOnly() bool { return e.readOnly }

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Color() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.color
}

// Dirty reports edits since the editor was created or last loaded.
func (e *Editor) Dirty() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dirty
}

func (e *Editor) MarkClean() {
	e.mu.Lock()
	e.dirty = false
	e.mu.Unlock()
}

// Load replaces the grid with saved pixels. The matrix must match the grid size.
func (e *Editor) Load(pixels [][]string) error {
	if len(pixels) != e.size {
		return fmt.Errorf("%w: got %d rows, want %d", ErrSizeMismatch, len(pixels), e.size)
	}
	next := make([][]string, e.size)
	for r, row := range pixels {
		if len(row) != e.size {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrSizeMismatch, r, len(row), e.size)
		}
		next[r] = append([]string(nil), row...)
	}
	e.mu.Lock()
	e.pixels = next
	e.dirty = false
	e.mu.Unlock()
	return nil
}

func (e *Editor) Snapshot() [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([][]string, len(e.pixels))
	for r, row := range e.pixels {
		out[r] = append([]string(nil), row...)
	}
	return out
}

func (e *Editor) Pixel(r, c int) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.inBounds(r, c) {
		return ""
	}
	return e.pixels[r][c]
}

func (e *Editor) SetColor(hex string) error {
	col, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("%w %q", ErrInvalidColor, hex)
	}
	if e.readOnly {
		return nil
	}
	e.mu.Lock()
	e.color = strings.ToUpper(col.Hex())
	e.mu.Unlock()
	return nil
}

// Press starts a paint gesture on (r, c).
func (e *Editor) Press(r, c int) {
	if e.readOnly {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = StatePainting
	e.paint(r, c)
}

// Enter paints (r, c) only while a gesture is in progress.
func (e *Editor) Enter(r, c int) {
	if e.readOnly {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StatePainting {
		return
	}
	e.paint(r, c)
}

func (e *Editor) Release() {
	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()
}

// Reset blanks the grid once confirm agrees.
func (e *Editor) Reset(confirm func(prompt string) bool) bool {
	if e.readOnly {
		return false
	}
	if confirm != nil && !confirm(ResetQuestion) {
		return false
	}
	e.mu.Lock()
	e.pixels = blank(e.size)
	e.state = StateIdle
	e.dirty = true
	e.mu.Unlock()
	return true
}

// Attach subscribes the editor to out-of-grid releases. Read-only editors never subscribe.
func (e *Editor) Attach(bus *ReleaseBus) {
	if e.readOnly || bus == nil {
		return
	}
	e.Detach()
	e.mu.Lock()
	e.unsub = bus.Subscribe(e.Release)
	e.mu.Unlock()
}

func (e *Editor) Detach() {
	e.mu.Lock()
	unsub := e.unsub
	e.unsub = nil
	e.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (e *Editor) Attached() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.unsub != nil
}

func (e *Editor) paint(r, c int) {
	if !e.inBounds(r, c) {
		return
	}
	if e.pixels[r][c] == e.color {
		return
	}
	e.pixels[r][c] = e.color
	e.dirty = true
}

func (e *Editor) inBounds(r, c int) bool {
	return r >= 0 && c >= 0 && r < e.size && c < e.size
}
