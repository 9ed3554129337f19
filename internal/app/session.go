package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"creativedojo/internal/artifact"
	"creativedojo/internal/catalog"
	"creativedojo/internal/editor"
	"creativedojo/internal/export"
	"creativedojo/internal/progress"
	"creativedojo/internal/selection"
	"creativedojo/internal/storage"
	"creativedojo/internal/telemetry"
)

var (
	ErrLocked        = errors.New("challenge is locked")
	ErrReadOnly      = errors.New("challenge is already completed")
	ErrNothingToSave = errors.New("no pixel art to save")
	ErrNothingOpen   = errors.New("no challenge is open")
	ErrNotConfirmed  = errors.New("not confirmed")
)

const (
	DiscardPrompt = "Close this challenge? Any unsaved changes will be lost."
	ResetPrompt   = "Reset all progress? Every completed challenge and saved pixel art will be erased."
)

// ConfirmFunc asks the user a yes/no question.
type ConfirmFunc func(prompt string) bool

// Approve confirms without asking.
func Approve(string) bool { return true }

// Panel is the open challenge as the view sees it.
type Panel struct {
	ID        int
	Challenge catalog.Challenge
	NotFound  bool
	ReadOnly  bool
	Editor    *editor.Editor
	// Restored is set when the editor was filled from a saved drawing.
	Restored  bool
}

type SessionOptions struct {
	Catalog     catalog.Provider
	KV          storage.KV
	ProgressKey string
	ArtifactKey string
	Logger      *telemetry.Logger
	Bus         *editor.ReleaseBus
}

// Session coordinates progress, artifacts and the single open challenge.
type Session struct {
	mu sync.Mutex

	catalog     catalog.Provider
	progress    *progress.Store
	artifacts   *artifact.Store
	progressKey string
	artifactKey string
	logger      *telemetry.Logger
	bus         *editor.ReleaseBus

	tiles     []progress.Tile
	selection *selection.Controller
	panel     *Panel
}

func NewSession(opts SessionOptions) *Session {
	if opts.ProgressKey == "" {
		opts.ProgressKey = DefaultProgressKey
	}
	if opts.ArtifactKey == "" {
		opts.ArtifactKey = DefaultArtifactKey
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.Nop()
	}
	return &Session{
		catalog:     opts.Catalog,
		progress:    progress.NewStore(opts.KV, opts.Logger),
		artifacts:   artifact.NewStore(opts.KV, opts.Logger),
		progressKey: opts.ProgressKey,
		artifactKey: opts.ArtifactKey,
		logger:      opts.Logger,
		bus:         opts.Bus,
		selection:   selection.New(),
	}
}

// Load restores progress, initialising and persisting a fresh sequence when none is usable.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.catalog.Len()
	tiles, ok, err := s.progress.Load(ctx, s.progressKey, n)
	if err != nil {
		return err
	}
	if !ok {
		tiles = progress.Initialize(n)
		if err := s.progress.Save(ctx, s.progressKey, tiles); err != nil {
			return err
		}
		s.logger.Info("progress.initialized", map[string]any{"challenges": n})
	}
	s.tiles = tiles

	records, err := s.artifacts.Load(ctx, s.artifactKey)
	if err != nil {
		s.logger.Warn("artifact.load_failed", map[string]any{"error": err.Error()})
	} else {
		s.logger.Info("session.loaded", map[string]any{"completed": progress.CompletedCount(tiles), "artifacts": len(records)})
	}
	return nil
}

func (s *Session) Catalog() catalog.Provider {
	return s.catalog
}

func (s *Session) Tiles() []progress.Tile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]progress.Tile(nil), s.tiles...)
}

func (s *Session) Current() (Panel, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return Panel{}, false
	}
	return *s.panel, true
}

// Dirty reports unsaved edits in the open editor.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel != nil && s.panel.Editor != nil && s.panel.Editor.Dirty()
}

// Open selects an unlocked challenge, replacing any open one. Reopening the open challenge
// returns the existing panel.
func (s *Session) Open(ctx context.Context, id int) (Panel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tile, ok := progress.Find(s.tiles, id)
	if !ok || !tile.Unlocked {
		return Panel{}, fmt.Errorf("challenge %d: %w", id, ErrLocked)
	}
	if s.panel != nil && s.panel.ID == id {
		return *s.panel, nil
	}
	s.closeLocked()
	s.selection.Open(tile)

	p := &Panel{ID: id, ReadOnly: selection.IsReadOnly(s.tiles, id)}
	ch, err := s.selection.ResolveContent(s.catalog, id)
	if err != nil {
		s.logger.Warn("challenge.not_found", map[string]any{"challenge": id, "error": err.Error()})
		p.NotFound = true
		s.panel = p
		return *p, nil
	}
	p.Challenge = ch
	if ch.IsPixelArt() {
		p.Editor, p.Restored = s.buildEditor(ctx, ch, p.ReadOnly)
	}
	s.panel = p
	s.logger.Info("challenge.opened", map[string]any{"challenge": id, "read_only": p.ReadOnly})
	return *p, nil
}

// buildEditor reports whether the saved drawing was loaded into the grid.
func (s *Session) buildEditor(ctx context.Context, ch catalog.Challenge, readOnly bool) (*editor.Editor, bool) {
	ed := editor.New(ch.Params.GridSize, readOnly)
	restored := false
	rec, found, err := s.artifacts.Find(ctx, s.artifactKey, ch.ID)
	switch {
	case err != nil:
		s.logger.Warn("artifact.load_failed", map[string]any{"challenge": ch.ID, "error": err.Error()})
	case found:
		if err := ed.Load(rec.Pixels); err != nil {
			s.logger.Warn("artifact.size_mismatch", map[string]any{"challenge": ch.ID, "size": ed.Size(), "saved": rec.Size()})
		} else {
			restored = true
		}
	}
	ed.Attach(s.bus)
	return ed, restored
}

// Close discards the open challenge. Unsaved edits are dropped only when confirm agrees.
func (s *Session) Close(confirm ConfirmFunc) bool {
	s.mu.Lock()
	p := s.panel
	dirty := p != nil && p.Editor != nil && p.Editor.Dirty()
	s.mu.Unlock()
	if p == nil {
		return true
	}
	if dirty && (confirm == nil || !confirm(DiscardPrompt)) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == p {
		s.closeLocked()
	}
	return true
}

func (s *Session) closeLocked() {
	if s.panel != nil && s.panel.Editor != nil {
		s.panel.Editor.Detach()
	}
	s.panel = nil
	s.selection.Close()
}

// Complete finishes the open challenge. Pixel-art challenges save their artwork first.
func (s *Session) Complete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return ErrNothingOpen
	}
	if s.panel.Editor != nil {
		return s.saveArtifactAndCompleteLocked(ctx)
	}
	if s.panel.NotFound {
		return fmt.Errorf("challenge %d: %w", s.panel.ID, catalog.ErrNotFound)
	}
	if s.panel.ReadOnly {
		return fmt.Errorf("challenge %d: %w", s.panel.ID, ErrReadOnly)
	}
	if err := s.completeLocked(ctx, s.panel.ID); err != nil {
		return err
	}
	s.closeLocked()
	return nil
}

// SaveArtifactAndComplete writes the drawing, then marks the challenge completed and closes
// it. A failed artifact write leaves progress and the selection untouched.
func (s *Session) SaveArtifactAndComplete(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveArtifactAndCompleteLocked(ctx)
}

func (s *Session) saveArtifactAndCompleteLocked(ctx context.Context) error {
	p := s.panel
	if p == nil {
		return ErrNothingOpen
	}
	if p.ReadOnly {
		return fmt.Errorf("challenge %d: %w", p.ID, ErrReadOnly)
	}
	if p.Editor == nil {
		return fmt.Errorf("challenge %d: %w", p.ID, ErrNothingToSave)
	}
	if !p.Editor.Dirty() && !p.Restored {
		return fmt.Errorf("challenge %d: %w", p.ID, ErrNothingToSave)
	}

	if err := s.artifacts.Upsert(ctx, s.artifactKey, p.ID, p.Editor.Snapshot()); err != nil {
		s.logger.Error("artifact.save_failed", map[string]any{"challenge": p.ID, "error": err.Error()})
		return fmt.Errorf("save pixel art for challenge %d: %w", p.ID, err)
	}
	if err := s.completeLocked(ctx, p.ID); err != nil {
		return err
	}
	p.Editor.MarkClean()
	s.closeLocked()
	return nil
}

func (s *Session) completeLocked(ctx context.Context, id int) error {
	next := progress.Complete(s.tiles, id, s.catalog.Len())
	if err := s.progress.Save(ctx, s.progressKey, next); err != nil {
		s.logger.Error("progress.save_failed", map[string]any{"challenge": id, "error": err.Error()})
		return err
	}
	s.tiles = next
	s.logger.Info("challenge.completed", map[string]any{"challenge": id, "completed": progress.CompletedCount(next)})
	return nil
}

// Reset erases progress and artifacts after confirmation and starts over.
func (s *Session) Reset(ctx context.Context, confirm ConfirmFunc) error {
	if confirm == nil || !confirm(ResetPrompt) {
		return ErrNotConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	// Artifacts first: a failure here leaves storage and the board untouched.
	if err := s.artifacts.Clear(ctx, s.artifactKey); err != nil {
		s.logger.Error("session.reset_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("reset: %w", err)
	}
	tiles := progress.Initialize(s.catalog.Len())
	s.tiles = tiles
	if err := s.progress.Save(ctx, s.progressKey, tiles); err != nil {
		// Without a progress blob the next load starts fresh, matching the board.
		if clearErr := s.progress.Clear(ctx, s.progressKey); clearErr != nil {
			s.logger.Error("progress.clear_failed", map[string]any{"error": clearErr.Error()})
		}
		s.logger.Error("session.reset_failed", map[string]any{"error": err.Error()})
		return fmt.Errorf("reset: %w", err)
	}
	s.logger.Info("session.reset", map[string]any{"challenges": len(tiles)})
	return nil
}

// Export writes challenge id as a PNG. The open editor wins over the saved artifact.
func (s *Session) Export(ctx context.Context, id int, w io.Writer) (string, error) {
	s.mu.Lock()
	var pixels [][]string
	if s.panel != nil && s.panel.ID == id && s.panel.Editor != nil {
		pixels = s.panel.Editor.Snapshot()
	}
	s.mu.Unlock()

	if pixels == nil {
		rec, found, err := s.artifacts.Find(ctx, s.artifactKey, id)
		if err != nil {
			return "", err
		}
		if !found {
			return "", fmt.Errorf("challenge %d: %w", id, export.ErrNoPixelData)
		}
		pixels = rec.Pixels
	}
	if err := export.PNG(w, pixels, export.PixelScale); err != nil {
		return "", err
	}
	name := export.FileName(len(pixels))
	s.logger.Info("artifact.exported", map[string]any{"challenge": id, "file": name})
	return name, nil
}

// Artifacts lists the saved drawings.
func (s *Session) Artifacts(ctx context.Context) ([]artifact.Record, error) {
	return s.artifacts.Load(ctx, s.artifactKey)
}
