package app

import (
	"context"
	"fmt"

	"creativedojo/internal/devtools"
	"creativedojo/internal/editor"
)

// applyDemoScenario rebuilds progress from scratch so the board matches the named scenario.
func (a *App) applyDemoScenario(ctx context.Context, name string) error {
	sc := a.demo.Resolve(name)
	if err := a.session.Reset(ctx, Approve); err != nil {
		return fmt.Errorf("reset for demo %s: %w", sc.Name, err)
	}

	n := a.catalog.Len()
	done := sc.CompletedCount(n)
	pixelID := a.firstPixelArt()
	switch sc.Target {
	case devtools.TargetCurrentPixelArt:
		done = max(0, pixelID-1)
	case devtools.TargetDonePixelArt:
		done = pixelID
	}

	for id := 1; id <= done; id++ {
		if err := a.completeForDemo(ctx, id); err != nil {
			return err
		}
	}

	if sc.Target != devtools.TargetNone && pixelID > 0 {
		p, err := a.session.Open(ctx, pixelID)
		if err != nil {
			return fmt.Errorf("open challenge %d: %w", pixelID, err)
		}
		if sc.Target == devtools.TargetCurrentPixelArt && p.Editor != nil {
			paintStrokes(p.Editor, devtools.Pattern(p.Editor.Size(), pixelID))
		}
	}
	a.sync()
	return nil
}

func (a *App) completeForDemo(ctx context.Context, id int) error {
	p, err := a.session.Open(ctx, id)
	if err != nil {
		return fmt.Errorf("open challenge %d: %w", id, err)
	}
	if p.Editor != nil {
		paintAll(p.Editor, devtools.Pattern(p.Editor.Size(), id))
	}
	if err := a.session.Complete(ctx); err != nil {
		return fmt.Errorf("complete challenge %d: %w", id, err)
	}
	return nil
}

func (a *App) firstPixelArt() int {
	for _, ch := range a.catalog.Challenges() {
		if ch.IsPixelArt() {
			return ch.ID
		}
	}
	return 0
}

func paintAll(ed *editor.Editor, pattern [][]string) {
	for r, row := range pattern {
		for c, hex := range row {
			if err := ed.SetColor(hex); err != nil {
				continue
			}
			ed.Press(r, c)
			ed.Release()
		}
	}
}

// paintStrokes paints only the outer ring, leaving the drawing visibly unfinished.
func paintStrokes(ed *editor.Editor, pattern [][]string) {
	last := len(pattern) - 1
	for r, row := range pattern {
		for c, hex := range row {
			if r != 0 && c != 0 && r != last && c != last {
				continue
			}
			if err := ed.SetColor(hex); err != nil {
				continue
			}
			ed.Press(r, c)
			ed.Release()
		}
	}
	_ = ed.SetColor(editor.DefaultColor)
}
