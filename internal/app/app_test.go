package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"creativedojo/internal/catalog"
	"creativedojo/internal/editor"
	"creativedojo/internal/storage"
	"creativedojo/internal/telemetry"
	"creativedojo/internal/ui"
)

type fakeView struct {
	mu      sync.Mutex
	ctrl    ui.Controller
	board   ui.Board
	prompts []string
	onYes   func()
	flashes []string
	stopped int
}

func (f *fakeView) Run() error { return nil }
func (f *fakeView) Stop() {
	f.mu.Lock()
	f.stopped++
	f.mu.Unlock()
}
func (f *fakeView) SetController(c ui.Controller) { f.ctrl = c }
func (f *fakeView) SetBoard(b ui.Board) {
	f.mu.Lock()
	f.board = b
	f.mu.Unlock()
}
func (f *fakeView) Confirm(prompt string, onYes func()) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.onYes = onYes
	f.mu.Unlock()
}
func (f *fakeView) FlashStatus(msg string) {
	f.mu.Lock()
	f.flashes = append(f.flashes, msg)
	f.mu.Unlock()
}
func (f *fakeView) RequestDraw() {}

func (f *fakeView) accept() {
	f.mu.Lock()
	yes := f.onYes
	f.onYes = nil
	f.mu.Unlock()
	if yes != nil {
		yes()
	}
}

func (f *fakeView) lastFlash() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.flashes) == 0 {
		return ""
	}
	return f.flashes[len(f.flashes)-1]
}

func newTestApp(t *testing.T, cat *catalog.Catalog) (*App, *fakeView) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg := DefaultConfig()
	cfg.Storage = storage.BackendMemory
	cfg.DataDir = t.TempDir()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	kv, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	view := &fakeView{}
	a := newApp(cfg, cat, kv, view, editor.NewReleaseBus(), telemetry.Nop())
	if err := a.session.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	a.sync()
	return a, view
}

func TestNewAppRegistersController(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	if view.ctrl != a {
		t.Fatalf("expected app to be the view controller")
	}
	if got := len(view.board.Tiles); got != 3 {
		t.Fatalf("expected 3 tiles, got %d", got)
	}
	if view.board.Tiles[1].Title != "Draw" || !view.board.Tiles[1].PixelArt {
		t.Fatalf("unexpected tile %+v", view.board.Tiles[1])
	}
}

func TestSelectOpensPanel(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	a.OnSelect(1)

	p := view.board.Panel
	if p == nil || p.ID != 1 || p.Title != "Write" || p.Category != "Writing" {
		t.Fatalf("unexpected panel %+v", p)
	}
	if p.Canvas != nil {
		t.Fatalf("expected no canvas for a writing challenge")
	}
}

func TestSelectLockedFlashes(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	a.OnSelect(3)

	if view.board.Panel != nil {
		t.Fatalf("expected no panel")
	}
	if !strings.Contains(view.lastFlash(), "locked") {
		t.Fatalf("expected locked flash, got %q", view.lastFlash())
	}
}

func TestSwitchingAwayFromDirtyEditorAsksFirst(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	a.OnSelect(1)
	a.OnComplete()
	a.OnSelect(2)
	canvas := view.board.Panel.Canvas
	if canvas == nil {
		t.Fatalf("expected canvas for pixel challenge")
	}
	canvas.Press(0, 0)
	canvas.Release()

	a.OnSelect(1)
	if len(view.prompts) != 1 || view.prompts[0] != DiscardPrompt {
		t.Fatalf("expected discard prompt, got %v", view.prompts)
	}
	if view.board.Panel.ID != 2 {
		t.Fatalf("expected panel to stay on 2 until confirmed")
	}

	view.accept()
	if view.board.Panel == nil || view.board.Panel.ID != 1 {
		t.Fatalf("expected panel 1 after confirming, got %+v", view.board.Panel)
	}
	if !view.board.Panel.ReadOnly {
		t.Fatalf("expected completed challenge to be read-only")
	}
}

func TestCloseDirtyEditorWaitsForConfirm(t *testing.T) {
	a, view := newTestApp(t, pixelCatalog())
	a.OnSelect(1)
	view.board.Panel.Canvas.Press(1, 1)
	view.board.Panel.Canvas.Release()

	a.OnClose()
	if view.board.Panel == nil {
		t.Fatalf("expected panel to stay open until confirmed")
	}
	view.accept()
	if view.board.Panel != nil {
		t.Fatalf("expected panel closed after confirming")
	}
}

func TestCompleteWithoutDrawingFlashes(t *testing.T) {
	a, view := newTestApp(t, pixelCatalog())
	a.OnSelect(1)
	a.OnComplete()

	if !strings.Contains(view.lastFlash(), "Paint something") {
		t.Fatalf("unexpected flash %q", view.lastFlash())
	}
	if view.board.Completed != 0 {
		t.Fatalf("expected nothing completed")
	}
}

func TestCompleteDrawingUnlocksNext(t *testing.T) {
	a, view := newTestApp(t, pixelCatalog())
	a.OnSelect(1)
	view.board.Panel.Canvas.Press(0, 0)
	view.board.Panel.Canvas.Release()
	a.OnComplete()

	if view.board.Completed != 1 || !view.board.Tiles[1].Unlocked {
		t.Fatalf("unexpected board %+v", view.board)
	}
	if view.board.Panel != nil {
		t.Fatalf("expected panel to close after completion")
	}
}

func TestResetEditorAsksThenClears(t *testing.T) {
	a, view := newTestApp(t, pixelCatalog())
	a.OnSelect(1)
	canvas := view.board.Panel.Canvas
	canvas.Press(2, 2)
	canvas.Release()

	a.OnResetEditor()
	if canvas.Pixel(2, 2) != editor.DefaultColor {
		t.Fatalf("expected pixel kept until confirmed")
	}
	if len(view.prompts) != 1 || view.prompts[0] != editor.ResetQuestion {
		t.Fatalf("expected reset question, got %v", view.prompts)
	}
	view.accept()
	if canvas.Pixel(2, 2) != editor.InitialColor {
		t.Fatalf("expected pixel cleared after confirming")
	}
}

func TestResetProgressAsksThenResets(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	a.OnSelect(1)
	a.OnComplete()
	if view.board.Completed != 1 {
		t.Fatalf("expected one completed")
	}

	a.OnResetProgress()
	if view.board.Completed != 1 {
		t.Fatalf("expected progress kept until confirmed")
	}
	if len(view.prompts) != 1 || view.prompts[0] != ResetPrompt {
		t.Fatalf("expected reset prompt, got %v", view.prompts)
	}
	view.accept()
	if view.board.Completed != 0 || view.board.Tiles[1].Unlocked {
		t.Fatalf("expected fresh board, got %+v", view.board)
	}
}

func TestExportWritesPNG(t *testing.T) {
	a, view := newTestApp(t, pixelCatalog())
	a.OnSelect(1)
	view.board.Panel.Canvas.Press(0, 0)
	view.board.Panel.Canvas.Release()

	a.OnExport()

	path := filepath.Join(a.cfg.DataDir, "exports", "pixel-art-8x8.png")
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if len(b) < 8 || string(b[1:4]) != "PNG" {
		t.Fatalf("expected png signature")
	}
	if !strings.Contains(view.lastFlash(), path) {
		t.Fatalf("expected flash to name the file, got %q", view.lastFlash())
	}
}

func TestQuitStopsViewWhenClean(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	a.OnQuit()
	if view.stopped != 1 {
		t.Fatalf("expected view stop")
	}
}

func TestQuitWithUnsavedDrawingAsksFirst(t *testing.T) {
	a, view := newTestApp(t, pixelCatalog())
	a.OnSelect(1)
	view.board.Panel.Canvas.Press(0, 0)
	view.board.Panel.Canvas.Release()

	a.OnQuit()
	if view.stopped != 0 {
		t.Fatalf("expected stop to wait for confirmation")
	}
	view.accept()
	if view.stopped != 1 {
		t.Fatalf("expected stop after confirming")
	}
}

func TestDemoScenarios(t *testing.T) {
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("builtin catalog: %v", err)
	}
	a, view := newTestApp(t, cat)
	ctx := context.Background()

	if _, err := a.runDemoScenario(ctx, "midway"); err != nil {
		t.Fatalf("midway: %v", err)
	}
	if view.board.Completed != cat.Len()/2 || view.board.Panel != nil {
		t.Fatalf("unexpected midway board: %d completed", view.board.Completed)
	}
	records, _ := a.session.Artifacts(ctx)
	if len(records) == 0 {
		t.Fatalf("expected demo to save pixel art for completed challenges")
	}

	if _, err := a.runDemoScenario(ctx, "editor_open"); err != nil {
		t.Fatalf("editor_open: %v", err)
	}
	p := view.board.Panel
	if p == nil || p.Canvas == nil || p.ReadOnly || !p.Canvas.Dirty() {
		t.Fatalf("expected a dirty editable canvas, got %+v", p)
	}

	if _, err := a.runDemoScenario(ctx, "readonly"); err != nil {
		t.Fatalf("readonly: %v", err)
	}
	p = view.board.Panel
	if p == nil || !p.ReadOnly || p.Canvas == nil {
		t.Fatalf("expected a read-only canvas, got %+v", p)
	}

	if _, err := a.runDemoScenario(ctx, "all_done"); err != nil {
		t.Fatalf("all_done: %v", err)
	}
	if view.board.Completed != cat.Len() {
		t.Fatalf("expected every challenge completed, got %d", view.board.Completed)
	}
}

func TestDevHandler(t *testing.T) {
	a, view := newTestApp(t, mixedCatalog())
	srv := httptest.NewServer(a.devHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/__dev/demo", "application/json", strings.NewReader(`{"demo":"all_done"}`))
	if err != nil {
		t.Fatalf("post demo: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if view.board.Completed != 3 {
		t.Fatalf("expected all done, got %d", view.board.Completed)
	}

	ready, err := http.Get(srv.URL + "/__dev/ready")
	if err != nil {
		t.Fatalf("get ready: %v", err)
	}
	defer ready.Body.Close()
	var state map[string]any
	if err := json.NewDecoder(ready.Body).Decode(&state); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if state["state"] != "all_done" || state["rendered"] != true {
		t.Fatalf("unexpected dev state %v", state)
	}

	bad, err := http.Post(srv.URL+"/__dev/demo", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("post empty demo: %v", err)
	}
	defer bad.Body.Close()
	if bad.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request, got %d", bad.StatusCode)
	}
}
