package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"creativedojo/internal/catalog"
	"creativedojo/internal/devtools"
	"creativedojo/internal/editor"
	"creativedojo/internal/export"
	"creativedojo/internal/progress"
	"creativedojo/internal/storage"
	"creativedojo/internal/telemetry"
	"creativedojo/internal/ui"

	"github.com/google/uuid"
)

type App struct {
	cfg Config

	logger  *telemetry.Logger
	kv      storage.KV
	catalog *catalog.Catalog
	session *Session
	bus     *editor.ReleaseBus
	demo    Demo
	view    ui.View

	sessionID string

	devMu     sync.Mutex
	devServer *http.Server
	demoMu    sync.Mutex
	devState  struct {
		State     string
		Demo      string
		RenderSeq int
		Rendered  bool
		Pending   bool
		Error     string
	}
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	cat, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	kv, err := cfg.OpenStorage()
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	bus := editor.NewReleaseBus()
	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.UI.ASCIIOnly,
		Debug:        cfg.DebugLayout,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
		Releases:     bus,
	})
	return newApp(cfg, cat, kv, view, bus, logger), nil
}

func newApp(cfg Config, cat *catalog.Catalog, kv storage.KV, view ui.View, bus *editor.ReleaseBus, logger *telemetry.Logger) *App {
	sessionID := uuid.NewString()
	logger = logger.With("session", sessionID)
	a := &App{
		cfg:     cfg,
		logger:  logger,
		kv:      kv,
		catalog: cat,
		bus:     bus,
		demo:    devtools.NewManager(),
		view:    view,
		session: NewSession(SessionOptions{
			Catalog:     cat,
			KV:          kv,
			ProgressKey: cfg.ProgressKey,
			ArtifactKey: cfg.ArtifactKey,
			Logger:      logger,
			Bus:         bus,
		}),
		sessionID: sessionID,
	}
	view.SetController(a)
	return a
}

// LoadCatalog reads path, or the built-in catalog when path is empty.
func LoadCatalog(path string) (*catalog.Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return catalog.Builtin()
	}
	return catalog.LoadFile(path)
}

// OpenSession loads progress without a terminal UI. The returned func releases storage and
// the log file.
func OpenSession(ctx context.Context, cfg Config) (*Session, func(), error) {
	cat, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, nil, err
	}
	kv, err := cfg.OpenStorage()
	if err != nil {
		_ = logger.Close()
		return nil, nil, err
	}
	release := func() {
		_ = kv.Close()
		_ = logger.Close()
	}
	s := NewSession(SessionOptions{
		Catalog:     cat,
		KV:          kv,
		ProgressKey: cfg.ProgressKey,
		ArtifactKey: cfg.ArtifactKey,
		Logger:      logger.With("session", uuid.NewString()),
	})
	if err := s.Load(ctx); err != nil {
		release()
		return nil, nil, fmt.Errorf("load progress: %w", err)
	}
	return s, release, nil
}

func (a *App) Session() *Session {
	return a.session
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("app.start", map[string]any{"storage": a.cfg.Storage, "challenges": a.catalog.Len()})

	if err := a.session.Load(ctx); err != nil {
		a.logger.Error("progress.load_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("load progress: %w", err)
	}
	a.sync()

	if a.cfg.Dev {
		if err := a.startDevHTTP(); err != nil {
			return err
		}
		if a.cfg.DemoScenario != "" {
			_, err := a.runDemoScenario(ctx, a.cfg.DemoScenario)
			if err != nil {
				a.logger.Error("dev.demo.initial_failed", map[string]any{"demo": a.cfg.DemoScenario, "error": err.Error()})
			}
		} else {
			a.setDevState("board", "")
			_ = a.demo.SetState(ctx, "", "board", true)
		}
	}

	return a.view.Run()
}

func (a *App) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if a.devServer != nil {
		_ = a.devServer.Shutdown(ctx)
	}
	a.session.Close(Approve)
	if a.kv != nil {
		_ = a.kv.Close()
	}
	_ = a.logger.Close()
}

// deferredConfirm declines immediately and asks the view instead. retry runs when the user
// agrees.
func (a *App) deferredConfirm(retry func()) ConfirmFunc {
	return func(prompt string) bool {
		a.view.Confirm(prompt, retry)
		return false
	}
}

func (a *App) OnSelect(id int) {
	if p, ok := a.session.Current(); ok && p.ID == id {
		return
	}
	if a.session.Dirty() {
		a.view.Confirm(DiscardPrompt, func() {
			a.session.Close(Approve)
			a.open(id)
		})
		return
	}
	a.open(id)
}

func (a *App) open(id int) {
	_, err := a.session.Open(context.Background(), id)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			a.view.FlashStatus(fmt.Sprintf("Day %d is locked. Finish the previous challenge first.", id))
		} else {
			a.view.FlashStatus(err.Error())
		}
		a.logger.Warn("challenge.open_failed", map[string]any{"challenge": id, "error": err.Error()})
		return
	}
	a.sync()
}

func (a *App) OnClose() {
	closed := a.session.Close(a.deferredConfirm(func() {
		a.session.Close(Approve)
		a.sync()
	}))
	if closed {
		a.sync()
	}
}

func (a *App) OnComplete() {
	p, ok := a.session.Current()
	if !ok {
		return
	}
	err := a.session.Complete(context.Background())
	switch {
	case err == nil:
		a.view.FlashStatus(a.completedMessage(p.ID))
	case errors.Is(err, ErrNothingToSave):
		a.view.FlashStatus("Paint something before saving.")
	case errors.Is(err, ErrReadOnly):
		a.view.FlashStatus("This challenge is already completed.")
	default:
		a.view.FlashStatus("Could not save: " + err.Error())
		a.logger.Error("challenge.complete_failed", map[string]any{"challenge": p.ID, "error": err.Error()})
	}
	a.sync()
}

func (a *App) completedMessage(id int) string {
	tiles := a.session.Tiles()
	done := progress.CompletedCount(tiles)
	if done == len(tiles) {
		return fmt.Sprintf("Day %d completed. Every challenge is done!", id)
	}
	return fmt.Sprintf("Day %d completed. %d of %d done.", id, done, len(tiles))
}

func (a *App) OnResetEditor() {
	p, ok := a.session.Current()
	if !ok || p.Editor == nil || p.ReadOnly {
		return
	}
	ed := p.Editor
	if ed.Reset(a.deferredConfirm(func() {
		ed.Reset(Approve)
		a.sync()
	})) {
		a.sync()
	}
}

func (a *App) OnExport() {
	p, ok := a.session.Current()
	if !ok {
		return
	}
	path, err := a.ExportTo(context.Background(), p.ID, filepath.Join(a.cfg.DataDir, "exports"))
	if err != nil {
		if errors.Is(err, export.ErrNoPixelData) {
			a.view.FlashStatus("Nothing to export yet.")
		} else {
			a.view.FlashStatus("Export failed: " + err.Error())
		}
		a.logger.Warn("artifact.export_failed", map[string]any{"challenge": p.ID, "error": err.Error()})
		return
	}
	a.view.FlashStatus("Saved " + path)
}

func (a *App) ExportTo(ctx context.Context, id int, dir string) (string, error) {
	return ExportFile(ctx, a.session, id, dir)
}

// ExportFile writes challenge id as a PNG into dir and returns the file path.
func ExportFile(ctx context.Context, s *Session, id int, dir string) (string, error) {
	var buf bytes.Buffer
	name, err := s.Export(ctx, id, &buf)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func (a *App) OnResetProgress() {
	a.resetProgress(a.deferredConfirm(func() { a.resetProgress(Approve) }))
}

func (a *App) resetProgress(confirm ConfirmFunc) {
	err := a.session.Reset(context.Background(), confirm)
	switch {
	case errors.Is(err, ErrNotConfirmed):
		return
	case err != nil:
		a.view.FlashStatus("Reset failed: " + err.Error())
		a.logger.Error("progress.reset_failed", map[string]any{"error": err.Error()})
	default:
		a.view.FlashStatus("Progress reset. Day 1 is waiting.")
	}
	a.sync()
}

func (a *App) OnQuit() {
	if a.session.Dirty() {
		a.view.Confirm(DiscardPrompt, a.view.Stop)
		return
	}
	a.view.Stop()
}

// sync pushes the session state to the view.
func (a *App) sync() {
	a.view.SetBoard(a.board())
	a.view.RequestDraw()
}

func (a *App) board() ui.Board {
	tiles := a.session.Tiles()
	b := ui.Board{
		Title:     a.catalog.Title(),
		Completed: progress.CompletedCount(tiles),
		Tiles:     make([]ui.Tile, 0, len(tiles)),
	}
	for _, t := range tiles {
		tile := ui.Tile{ID: t.ID, Unlocked: t.Unlocked, Completed: t.Completed}
		if ch, err := a.catalog.Find(t.ID); err == nil {
			tile.Title = ch.Title
			tile.PixelArt = ch.IsPixelArt()
		}
		b.Tiles = append(b.Tiles, tile)
	}
	if p, ok := a.session.Current(); ok {
		b.Panel = panelView(p)
	}
	return b
}

func panelView(p Panel) *ui.Panel {
	out := &ui.Panel{
		ID:       p.ID,
		NotFound: p.NotFound,
		ReadOnly: p.ReadOnly,
	}
	if !p.NotFound {
		ch := p.Challenge
		out.Title = ch.Title
		out.Category = titleWord(string(ch.Category))
		out.Difficulty = titleWord(string(ch.Difficulty))
		out.EstimatedTime = ch.EstimatedTime
		out.Description = ch.Description
		out.Tips = append([]string(nil), ch.Tips...)
	}
	if p.Editor != nil {
		out.Canvas = p.Editor
	}
	return out
}

func titleWord(s string) string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func (a *App) setDevState(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = true
	a.devState.Pending = false
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevPending(state, demo string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = true
	a.devState.Error = ""
	a.devState.RenderSeq++
}

func (a *App) setDevError(state, demo, errText string) {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	a.devState.State = state
	a.devState.Demo = demo
	a.devState.Rendered = false
	a.devState.Pending = false
	a.devState.Error = errText
	a.devState.RenderSeq++
}

func (a *App) getDevState() map[string]any {
	a.devMu.Lock()
	defer a.devMu.Unlock()
	return map[string]any{
		"ok":         true,
		"state":      a.devState.State,
		"demo":       a.devState.Demo,
		"render_seq": a.devState.RenderSeq,
		"rendered":   a.devState.Rendered,
		"pending":    a.devState.Pending,
		"error":      a.devState.Error,
	}
}

func (a *App) runDemoScenario(ctx context.Context, requested string) (string, error) {
	resolved := a.demo.Resolve(requested).Name
	a.logger.Info("dev.demo.dispatch.begin", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevPending(resolved, requested)

	a.demoMu.Lock()
	defer a.demoMu.Unlock()

	if err := a.applyDemoScenario(ctx, requested); err != nil {
		a.logger.Error("dev.demo.dispatch.apply_failed", map[string]any{"requested": requested, "resolved": resolved, "error": err.Error()})
		a.setDevError(resolved, requested, err.Error())
		_ = a.demo.SetState(ctx, "", resolved, false)
		return resolved, err
	}
	a.view.RequestDraw()
	a.logger.Info("dev.demo.dispatch.done", map[string]any{"requested": requested, "resolved": resolved})
	a.setDevState(resolved, resolved)
	if err := a.demo.SetState(ctx, "", resolved, true); err != nil {
		a.logger.Error("dev_state.write_failed", map[string]any{"state": resolved, "error": err.Error()})
	}
	return resolved, nil
}

func (a *App) devHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/__dev/ready", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(a.getDevState())
	})
	mux.HandleFunc("/__dev/demo", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		var req struct {
			Demo string `json:"demo"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "invalid json"})
			return
		}
		req.Demo = strings.TrimSpace(req.Demo)
		if req.Demo == "" {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": "demo is required", "available": a.demo.Names()})
			return
		}
		a.logger.Info("dev.demo.request", map[string]any{"demo": req.Demo})

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		resolved, err := a.runDemoScenario(ctx, req.Demo)
		if err != nil {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": err.Error(), "state": resolved})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "state": resolved, "requested": req.Demo})
	})
	return mux
}

func (a *App) startDevHTTP() error {
	a.devServer = &http.Server{Addr: a.cfg.DevHTTP, Handler: a.devHandler()}
	a.setDevState("board", a.cfg.DemoScenario)
	go func() {
		if err := a.devServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("dev_http.listen_failed", map[string]any{"error": err.Error(), "addr": a.cfg.DevHTTP})
		}
	}()
	return nil
}
