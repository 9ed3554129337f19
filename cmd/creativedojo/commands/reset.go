package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"creativedojo/internal/app"

	"github.com/spf13/cobra"
)

func newResetCmd(g *globalFlags) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all progress and saved pixel art",
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

			confirm := app.Approve
			if !yes {
				confirm = promptYesNo(cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if err := s.Reset(cmd.Context(), confirm); err != nil {
				if errors.Is(err, app.ErrNotConfirmed) {
					warning(cmd.OutOrStdout(), "Reset cancelled")
					return nil
				}
				return failure("Reset failed", err)
			}
			success(cmd.OutOrStdout(), "Progress reset. Day 1 is unlocked.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func promptYesNo(in io.Reader, out io.Writer) app.ConfirmFunc {
	return func(prompt string) bool {
		fmt.Fprintf(out, "%s [y/N]: ", prompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && line == "" {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		default:
			return false
		}
	}
}
