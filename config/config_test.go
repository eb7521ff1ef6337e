package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ha1tch/cobolanon/naming"
)

func TestDefaultIsValidShapeForExistingDir(t *testing.T) {
	cfg := Default()
	cfg.InputDir = t.TempDir()
	cfg.DryRun = true
	assert.Empty(t, cfg.Validate())
}

func TestValidateFlagsMissingInputDir(t *testing.T) {
	cfg := Default()
	cfg.InputDir = "/does/not/exist/at/all"
	errs := cfg.Validate()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "input directory")
}

func TestValidateFlagsBadLogLevel(t *testing.T) {
	cfg := Default()
	cfg.InputDir = t.TempDir()
	cfg.DryRun = true
	cfg.LogLevel = "NONSENSE"
	errs := cfg.Validate()
	found := false
	for _, e := range errs {
		if e == "invalid log level: NONSENSE" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestLoadParsesYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "input_dir: " + dir + "\nnaming_scheme: animals\nseed: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.InputDir)
	assert.Equal(t, naming.Animals, cfg.NamingScheme)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.True(t, cfg.AnonymizeData)
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfg := Default()
	cfg.InputDir = dir
	cfg.NamingScheme = naming.Food

	require.NoError(t, Save(cfg, path))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, naming.Food, loaded.NamingScheme)
}

func TestMergeOverridesOnlyNonDefaultFields(t *testing.T) {
	base := Default()
	base.InputDir = "/base/dir"

	override := Default()
	override.NamingScheme = naming.Fantasy

	merged := Merge(base, override)
	assert.Equal(t, "/base/dir", merged.InputDir)
	assert.Equal(t, naming.Fantasy, merged.NamingScheme)
}
