package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"creativedojo/internal/storage"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestValidateFillsDefaults(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	cfg := Config{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := Config{
		DataDir:     filepath.Join("/home/tester", ".local", "share", "creativedojo"),
		Storage:     storage.BackendSQLite,
		ProgressKey: DefaultProgressKey,
		ArtifactKey: DefaultArtifactKey,
		DevHTTP:     "127.0.0.1:17321",
		UI:          UIConfig{StyleVariant: "modern_arcade", MotionLevel: "full"},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]func(*Config){
		"storage": func(c *Config) { c.Storage = "floppy" },
		"redis": func(c *Config) {
			c.Storage = storage.BackendRedis
			c.RedisAddr = " "
		},
		"same keys": func(c *Config) { c.ArtifactKey = c.ProgressKey },
		"style":     func(c *Config) { c.UI.StyleVariant = "neon" },
		"motion":    func(c *Config) { c.UI.MotionLevel = "wobbly" },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		cfg.DataDir = t.TempDir()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestValidateNormalizesStorageName(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage = " Memory "
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Storage != storage.BackendMemory {
		t.Fatalf("expected memory backend, got %q", cfg.Storage)
	}
}

func TestLoadConfigFileMergesOverBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "storage: redis\nredis_addr: 10.0.0.5:6379\nui:\n  motion_level: reduced\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfigFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Storage != "redis" || cfg.RedisAddr != "10.0.0.5:6379" {
		t.Fatalf("unexpected storage settings %+v", cfg)
	}
	if cfg.UI.MotionLevel != "reduced" || cfg.UI.StyleVariant != "modern_arcade" {
		t.Fatalf("expected ui merged over defaults, got %+v", cfg.UI)
	}
	if cfg.ProgressKey != DefaultProgressKey {
		t.Fatalf("expected default progress key kept")
	}
}

func TestLoadConfigFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("colour: blue\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfigFile(path, DefaultConfig()); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestLoadConfigFileEmptyKeepsBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfigFile(path, DefaultConfig())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("expected base config:\n%s", diff)
	}
}

func TestOpenStorageSQLiteRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "nested")
	require.NoError(t, cfg.Validate())

	kv, err := cfg.OpenStorage()
	require.NoError(t, err)
	defer kv.Close()

	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, DefaultProgressKey, []byte("[]")))
	got, ok, err := kv.Get(ctx, DefaultProgressKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(got))
	require.FileExists(t, filepath.Join(cfg.DataDir, "state.db"))
}

func TestOpenStorageRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage = storage.BackendRedis
	cfg.RedisAddr = mr.Addr()
	cfg.RedisNamespace = "ns"
	require.NoError(t, cfg.Validate())

	kv, err := cfg.OpenStorage()
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set(context.Background(), DefaultArtifactKey, []byte("[]")))
	require.Len(t, mr.Keys(), 1)
}

func TestOpenStorageRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage = storage.BackendRedis
	cfg.RedisAddr = addr
	require.NoError(t, cfg.Validate())

	_, err := cfg.OpenStorage()
	require.Error(t, err)
}
