package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"creativedojo/internal/app"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func tempDataDir(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	return t.TempDir()
}

func completeFirst(t *testing.T, dir string) {
	t.Helper()
	cfg := app.DefaultConfig()
	cfg.DataDir = dir
	require.NoError(t, cfg.Validate())
	ctx := context.Background()
	s, release, err := app.OpenSession(ctx, cfg)
	require.NoError(t, err)
	defer release()

	p, err := s.Open(ctx, 1)
	require.NoError(t, err)
	if p.Editor != nil {
		p.Editor.Press(0, 0)
		p.Editor.Release()
	}
	require.NoError(t, s.Complete(ctx))
}

func TestStatusFreshBoard(t *testing.T) {
	dir := tempDataDir(t)
	out, err := runCmd(t, "", "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0/10 challenges completed")
	assert.Contains(t, out, "open    Day 1")
	assert.Contains(t, out, "locked  Day 2")
	assert.FileExists(t, filepath.Join(dir, "state.db"))
}

func TestStatusAfterCompletion(t *testing.T) {
	dir := tempDataDir(t)
	completeFirst(t, dir)

	out, err := runCmd(t, "", "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1/10 challenges completed")
	assert.Contains(t, out, "done    Day 1")
	assert.Contains(t, out, "open    Day 2")
}

func TestResetWithYes(t *testing.T) {
	dir := tempDataDir(t)
	completeFirst(t, dir)

	out, err := runCmd(t, "", "reset", "--yes", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Progress reset")

	out, err = runCmd(t, "", "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "0/10 challenges completed")
}

func TestResetPromptDeclined(t *testing.T) {
	dir := tempDataDir(t)
	completeFirst(t, dir)

	out, err := runCmd(t, "n\n", "reset", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "[y/N]")
	assert.Contains(t, out, "Reset cancelled")

	out, err = runCmd(t, "", "status", "--data-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1/10 challenges completed")
}

func TestExportWithoutDrawingFails(t *testing.T) {
	dir := tempDataDir(t)
	_, err := runCmd(t, "", "export", "--id", "2", "--data-dir", dir)
	require.Error(t, err)
}

func TestExportRequiresID(t *testing.T) {
	dir := tempDataDir(t)
	_, err := runCmd(t, "", "export", "--data-dir", dir)
	require.Error(t, err)
}

func TestExportSavedDrawing(t *testing.T) {
	dir := tempDataDir(t)
	completeFirst(t, dir)
	outDir := filepath.Join(t.TempDir(), "png")

	out, err := runCmd(t, "", "export", "--id", "1", "--out", outDir, "--data-dir", dir)
	require.NoError(t, err)
	path := filepath.Join(outDir, "pixel-art-8x8.png")
	assert.Contains(t, out, path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(b[1:4]))
}

func TestUnknownFlagRejected(t *testing.T) {
	tempDataDir(t)
	_, err := runCmd(t, "", "status", "--colour", "blue")
	require.Error(t, err)
}

func TestInvalidStorageRejected(t *testing.T) {
	dir := tempDataDir(t)
	_, err := runCmd(t, "", "status", "--data-dir", dir, "--storage", "floppy")
	require.Error(t, err)
}

func TestConfigFileThenFlags(t *testing.T) {
	dir := tempDataDir(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage: memory\n"), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--data-dir", dir}))
	cfg, err := loadConfig(cmd, &globalFlags{configPath: path, dataDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage)
	assert.Equal(t, dir, cfg.DataDir)
}

func TestPromptYesNo(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, promptYesNo(strings.NewReader("Yes\n"), &out)("Sure?"))
	assert.False(t, promptYesNo(strings.NewReader(""), &out)("Sure?"))
	assert.False(t, promptYesNo(strings.NewReader("maybe\n"), &out)("Sure?"))
	assert.Contains(t, out.String(), "Sure? [y/N]: ")
}
