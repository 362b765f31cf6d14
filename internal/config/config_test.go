package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	t.Parallel()

	cfg := New()
	require.Equal(t, DefaultOrganization, cfg.Organization)
	require.Equal(t, DefaultBucket, cfg.Bucket)
	require.Equal(t, DefaultRegion, cfg.Region)
	require.Equal(t, DefaultLockTable, cfg.LockTable)
	require.Equal(t, DefaultConcurrency, cfg.Concurrency)
	require.Equal(t, VerifyCLI, cfg.VerifyMode)
	require.True(t, cfg.StrictBackend)
	require.NotEmpty(t, cfg.RequiredVersions)
}

func TestStateKey(t *testing.T) {
	t.Parallel()

	cfg := New()
	require.Equal(t, "infra-networking/terraform.tfstate", cfg.StateKey("infra-networking"))
}

func TestLoadFrom(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := `
organization = "acme"
bucket = "acme-tfstate"
region = "eu-west-1"
lock_table = "acme-tf-lock"

[required_versions.vpc-factory]
min = "2.0.0"
max = "3.0.0"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "acme", cfg.Organization)
	require.Equal(t, "acme-tfstate", cfg.Bucket)
	require.Equal(t, "eu-west-1", cfg.Region)
	require.Equal(t, "acme-tf-lock", cfg.LockTable)
	// Unset values keep their defaults
	require.Equal(t, DefaultBranch, cfg.Branch)
	require.Equal(t, DefaultAWSProfile, cfg.AWSProfile)

	req, ok := cfg.RequiredVersions["vpc-factory"]
	require.True(t, ok)
	require.Equal(t, "2.0.0", req.Min)
	require.Equal(t, "3.0.0", req.Max)
}

func TestLoadFromMissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}

func TestLoadFromBadTOML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("organization = [broken"), 0o600))

	_, err := LoadFrom(path)
	require.Error(t, err)
}

func TestValidScriptsPath(t *testing.T) {
	t.Parallel()

	t.Run("valid when script present", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, CopyStateScript), []byte("#!/bin/bash\n"), 0o755))
		require.True(t, ValidScriptsPath(dir))
	})

	t.Run("invalid when script missing", func(t *testing.T) {
		t.Parallel()
		require.False(t, ValidScriptsPath(t.TempDir()))
	})

	t.Run("invalid for empty path", func(t *testing.T) {
		t.Parallel()
		require.False(t, ValidScriptsPath(""))
	})
}
