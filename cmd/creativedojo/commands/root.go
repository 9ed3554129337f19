package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"creativedojo/internal/app"

	"github.com/spf13/cobra"
)

var versionString = "dev"

// globalFlags are shared by every command.
type globalFlags struct {
	configPath     string
	dataDir        string
	storage        string
	redisAddr      string
	redisNamespace string
	catalogPath    string
	logPath        string
}

type boardFlags struct {
	dev         bool
	devHTTP     string
	demo        string
	debugLayout bool
	ascii       bool
	style       string
	motion      string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	b := &boardFlags{}

	root := &cobra.Command{
		Use:   "creativedojo",
		Short: "Creative Dojo - a daily creativity challenge board for the terminal",
		Long: `Creative Dojo unlocks one creativity challenge at a time. Finish a challenge to
unlock the next; pixel-art challenges save your drawing and can be exported as PNG.

Running without a subcommand opens the interactive board.`,
		Version: versionString,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return failure("Invalid configuration", err)
			}
			applyBoardFlags(cmd, b, &cfg)
			if err := cfg.Validate(); err != nil {
				return failure("Invalid configuration", err)
			}
			return runBoard(cmd, cfg)
		},
		SilenceErrors:      true,
		SilenceUsage:       true,
		FParseErrWhitelist: cobra.FParseErrWhitelist{},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "YAML config file (default ~/.config/creativedojo/config.yaml when present)")
	pf.StringVar(&g.dataDir, "data-dir", "", "Directory for the sqlite database and exports")
	pf.StringVar(&g.storage, "storage", "", "Storage backend: sqlite, redis or memory")
	pf.StringVar(&g.redisAddr, "redis-addr", "", "Redis address for the redis backend")
	pf.StringVar(&g.redisNamespace, "redis-namespace", "", "Key namespace for the redis backend")
	pf.StringVar(&g.catalogPath, "catalog", "", "Challenge catalog YAML (built-in catalog when empty)")
	pf.StringVar(&g.logPath, "log", "", "Append JSON logs to this file")

	f := root.Flags()
	f.BoolVar(&b.dev, "dev", false, "Serve the dev control endpoints")
	f.StringVar(&b.devHTTP, "dev-http", "", "Address for the dev control endpoints")
	f.StringVar(&b.demo, "demo", "", "Dev scenario to apply at startup (implies --dev)")
	f.BoolVar(&b.debugLayout, "debug-layout", false, "Show the last input event in the status bar")
	f.BoolVar(&b.ascii, "ascii", false, "Draw borders with ASCII only")
	f.StringVar(&b.style, "style", "", "Style variant: modern_arcade, cozy_clean or retro_terminal")
	f.StringVar(&b.motion, "motion", "", "Motion level: full, reduced or off")

	root.AddCommand(newStatusCmd(g), newResetCmd(g), newExportCmd(g))
	return root
}

// Execute runs the command tree. Errors are already printed by the time it returns.
func Execute() error {
	return newRootCmd().Execute()
}

func SetVersionInfo(v, c, d string) {
	versionString = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

// loadConfig layers defaults, the config file and explicit flags, in that order.
func loadConfig(cmd *cobra.Command, g *globalFlags) (app.Config, error) {
	cfg := app.DefaultConfig()

	path := g.configPath
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".config", "creativedojo", "config.yaml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			} else if !errors.Is(err, fs.ErrNotExist) {
				return cfg, err
			}
		}
	}
	if path != "" {
		loaded, err := app.LoadConfigFile(path, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = g.dataDir
	}
	if flags.Changed("storage") {
		cfg.Storage = g.storage
	}
	if flags.Changed("redis-addr") {
		cfg.RedisAddr = g.redisAddr
	}
	if flags.Changed("redis-namespace") {
		cfg.RedisNamespace = g.redisNamespace
	}
	if flags.Changed("catalog") {
		cfg.CatalogPath = g.catalogPath
	}
	if flags.Changed("log") {
		cfg.LogPath = g.logPath
	}
	return cfg, nil
}

func applyBoardFlags(cmd *cobra.Command, b *boardFlags, cfg *app.Config) {
	flags := cmd.Flags()
	if flags.Changed("dev") {
		cfg.Dev = b.dev
	}
	if flags.Changed("dev-http") {
		cfg.DevHTTP = b.devHTTP
	}
	if flags.Changed("demo") {
		cfg.DemoScenario = b.demo
		cfg.Dev = true
	}
	if flags.Changed("debug-layout") {
		cfg.DebugLayout = b.debugLayout
	}
	if flags.Changed("ascii") {
		cfg.UI.ASCIIOnly = b.ascii
	}
	if flags.Changed("style") {
		cfg.UI.StyleVariant = b.style
	}
	if flags.Changed("motion") {
		cfg.UI.MotionLevel = b.motion
	}
}

// validatedConfig is loadConfig plus Validate, for the one-shot subcommands.
func validatedConfig(cmd *cobra.Command, g *globalFlags) (app.Config, error) {
	cfg, err := loadConfig(cmd, g)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runBoard(cmd *cobra.Command, cfg app.Config) error {
	a, err := app.New(cfg)
	if err != nil {
		return failure("Could not start Creative Dojo", err)
	}
	defer a.Close()
	if err := a.Run(cmd.Context()); err != nil {
		return failure("Creative Dojo stopped with an error", err)
	}
	return nil
}
