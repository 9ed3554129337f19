package commands

import (
	"errors"
	"path/filepath"

	"creativedojo/internal/app"
	"creativedojo/internal/export"

	"github.com/spf13/cobra"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		id  int
		out string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a saved pixel-art drawing as a PNG",
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

			if out == "" {
				out = filepath.Join(cfg.DataDir, "exports")
			}
			path, err := app.ExportFile(cmd.Context(), s, id, out)
			if err != nil {
				if errors.Is(err, export.ErrNoPixelData) {
					return failure("No saved pixel art for that challenge", err)
				}
				return failure("Export failed", err)
			}
			success(cmd.OutOrStdout(), "Saved %s", path)
			return nil
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "Challenge id to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output directory (default <data-dir>/exports)")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
