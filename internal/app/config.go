package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"creativedojo/internal/storage"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

const (
	DefaultProgressKey = "creativityProgress"
	DefaultArtifactKey = "creativityPixelArt"
)

// Config controls runtime behavior for the TUI app and the CLI commands.
type Config struct {
	DataDir        string   `yaml:"data_dir"`
	LogPath        string   `yaml:"log_path"`
	Storage        string   `yaml:"storage"`
	RedisAddr      string   `yaml:"redis_addr"`
	RedisNamespace string   `yaml:"redis_namespace"`
	CatalogPath    string   `yaml:"catalog_path"`
	ProgressKey    string   `yaml:"progress_key"`
	ArtifactKey    string   `yaml:"artifact_key"`
	Dev            bool     `yaml:"dev"`
	DevHTTP        string   `yaml:"dev_http"`
	DemoScenario   string   `yaml:"demo_scenario"`
	DebugLayout    bool     `yaml:"debug_layout"`
	UI             UIConfig `yaml:"ui"`
}

type UIConfig struct {
	StyleVariant string `yaml:"style_variant"`
	MotionLevel  string `yaml:"motion_level"`
	ASCIIOnly    bool   `yaml:"ascii_only"`
}

func DefaultConfig() Config {
	return Config{
		Storage:        storage.BackendSQLite,
		RedisAddr:      "127.0.0.1:6379",
		RedisNamespace: "default",
		ProgressKey:    DefaultProgressKey,
		ArtifactKey:    DefaultArtifactKey,
		DevHTTP:        "127.0.0.1:17321",
		UI: UIConfig{
			StyleVariant: "modern_arcade",
			MotionLevel:  "full",
		},
	}
}

// LoadConfigFile merges a YAML file over base. Unknown keys are rejected.
func LoadConfigFile(path string, base Config) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := base
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return base, nil
		}
		return base, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case storage.BackendSQLite, storage.BackendRedis, storage.BackendMemory:
	case "":
		c.Storage = storage.BackendSQLite
	default:
		return fmt.Errorf("invalid storage backend %q", c.Storage)
	}
	if c.Storage == storage.BackendRedis {
		if strings.TrimSpace(c.RedisAddr) == "" {
			return errors.New("redis storage requires an address")
		}
		if strings.TrimSpace(c.RedisNamespace) == "" {
			c.RedisNamespace = "default"
		}
	}
	if strings.TrimSpace(c.ProgressKey) == "" {
		c.ProgressKey = DefaultProgressKey
	}
	if strings.TrimSpace(c.ArtifactKey) == "" {
		c.ArtifactKey = DefaultArtifactKey
	}
	if c.ProgressKey == c.ArtifactKey {
		return fmt.Errorf("progress and artifact keys must differ (both %q)", c.ProgressKey)
	}
	switch c.UI.StyleVariant {
	case "", "modern_arcade", "cozy_clean", "retro_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "modern_arcade"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}
	if c.DevHTTP == "" {
		c.DevHTTP = "127.0.0.1:17321"
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "creativedojo")
	}

	return nil
}

// OpenStorage builds the configured key-value backend.
func (c Config) OpenStorage() (storage.KV, error) {
	switch c.Storage {
	case storage.BackendMemory:
		return storage.NewMemory(), nil
	case storage.BackendRedis:
		rdb, err := storage.NewRedis(&redis.Options{Addr: c.RedisAddr}, c.RedisNamespace)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect redis %s: %w", c.RedisAddr, err)
		}
		return rdb, nil
	default:
		if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
			return nil, err
		}
		db, err := storage.NewSQLite(filepath.Join(c.DataDir, "state.db"))
		if err != nil {
			return nil, err
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}
}
