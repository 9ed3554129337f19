package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

func success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ "+format+"\n", a...)
}

func warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! "+format+"\n", a...)
}

// failure prints title and explanation to stderr and returns a plain error for cobra.
func failure(title string, err error) error {
	red.Fprintf(os.Stderr, "%s\n", title)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	return fmt.Errorf("%s", title)
}
