package commands

import (
	"fmt"
	"io"

	"creativedojo/internal/app"
	"creativedojo/internal/catalog"
	"creativedojo/internal/progress"

	"github.com/spf13/cobra"
)

func newStatusCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which challenges are completed, open and locked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := validatedConfig(cmd, g)
			if err != nil {
				return failure("Invalid configuration", err)
			}
			s, release, err := app.OpenSession(cmd.Context(), cfg)
			if err != nil {
				return failure("Could not load progress", err)
			}
			defer release()

			artifacts, err := s.Artifacts(cmd.Context())
			if err != nil {
				warning(cmd.ErrOrStderr(), "saved pixel art unavailable: %v", err)
			}
			saved := map[int]bool{}
			for _, rec := range artifacts {
				saved[rec.ChallengeID] = true
			}
			printStatus(cmd.OutOrStdout(), s.Catalog(), s.Tiles(), saved)
			return nil
		},
	}
}

func printStatus(w io.Writer, cat catalog.Provider, tiles []progress.Tile, saved map[int]bool) {
	fmt.Fprintf(w, "%d/%d challenges completed\n\n", progress.CompletedCount(tiles), len(tiles))
	for _, t := range tiles {
		title := "?"
		kind := ""
		if ch, err := cat.Find(t.ID); err == nil {
			title = ch.Title
			if ch.IsPixelArt() {
				kind = fmt.Sprintf("  [pixel art %dx%d]", ch.Params.GridSize, ch.Params.GridSize)
				if saved[t.ID] {
					kind += " saved"
				}
			}
		}
		switch {
		case t.Completed:
			green.Fprintf(w, "  done    Day %-3d %s%s\n", t.ID, title, kind)
		case t.Unlocked:
			cyan.Fprintf(w, "  open    Day %-3d %s%s\n", t.ID, title, kind)
		default:
			faint.Fprintf(w, "  locked  Day %-3d\n", t.ID)
		}
	}
}
