// Package config holds the resolved run parameters for a migration batch.
// A Config is constructed once per invocation and read-only afterwards.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults applied when neither a CLI flag nor a config file sets a value.
const (
	DefaultOrganization = "your-org"
	DefaultBucket       = "your-org-tfstate-bucket"
	DefaultRegion       = "us-east-1"
	DefaultAWSProfile   = "default"
	DefaultLockTable    = "terraform-state-lock"
	DefaultBranch       = "migrate-to-s3-backend"
	DefaultLogDir       = "migration_logs"
	DefaultConcurrency  = 1
	DefaultTimeout      = 5 * time.Minute

	// StateCopyTimeout bounds the state-relocation script, which downloads and
	// re-uploads potentially large state files.
	StateCopyTimeout = 10 * time.Minute
)

// CommitMessage is used for every migration commit.
const CommitMessage = "Migrate Terraform backend from Cloud to S3"

// PRTitle is the title of every migration pull request.
const PRTitle = "Migrate Terraform backend from Cloud to S3"

// PRBody is the body template for migration pull requests.
const PRBody = `## Migration Summary

This PR migrates the Terraform backend from HCP Terraform Cloud to AWS S3/DynamoDB.

### Changes Made:
- Terraform state copied from Cloud to S3
- Backend configuration updated to use S3
- Module sources converted from TFC registry to Git
- GitHub Actions workflows updated with required secrets

### Testing:
- [ ] Run ` + "`terraform init`" + ` to verify backend configuration
- [ ] Run ` + "`terraform plan`" + ` to verify state integrity
- [ ] Verify no resource changes are detected (state should match)

### Post-Merge:
1. Merge this PR
2. Run ` + "`terraform init -reconfigure`" + ` in your local environment
3. Verify state is accessible
4. Archive the old TFC workspace
`

// VerifyMode selects how the Verify stage checks the relocated state object.
type VerifyMode string

const (
	// VerifyCLI shells out to the aws CLI (head-object).
	VerifyCLI VerifyMode = "cli"
	// VerifySDK uses the AWS SDK S3 client directly.
	VerifySDK VerifyMode = "sdk"
)

// VersionRequirement bounds the acceptable version range for a module.
// An empty Min or Max means unbounded on that side.
type VersionRequirement struct {
	Min string `toml:"min"`
	Max string `toml:"max"`
}

// Config is the resolved, immutable run configuration. Every component
// receives it explicitly; nothing reads process-wide mutable state.
type Config struct {
	Organization string
	Bucket       string
	Region       string
	AWSProfile   string
	LockTable    string
	Branch       string

	WorkDir     string
	LogDir      string
	ScriptsPath string

	DryRun           bool
	SkipVersionCheck bool
	SkipValidation   bool
	AutoPublish      bool
	// StrictBackend makes BackendUpdate fatal when no backend block is found
	// in any candidate file. Disabling it turns the stage into a benign no-op
	// for already-migrated repositories.
	StrictBackend bool
	Verbose       bool

	CommandTimeout time.Duration
	Concurrency    int
	VerifyMode     VerifyMode

	// RequiredVersions maps module names to their accepted version range for
	// the VersionCheck stage.
	RequiredVersions map[string]VersionRequirement
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Organization:   DefaultOrganization,
		Bucket:         DefaultBucket,
		Region:         DefaultRegion,
		AWSProfile:     DefaultAWSProfile,
		LockTable:      DefaultLockTable,
		Branch:         DefaultBranch,
		LogDir:         DefaultLogDir,
		CommandTimeout: DefaultTimeout,
		Concurrency:    DefaultConcurrency,
		VerifyMode:     VerifyCLI,
		StrictBackend:  true,
		RequiredVersions: map[string]VersionRequirement{
			"github-project-factory": {Min: "15.1.0"},
			"aws-project-factory":    {Min: "5.5.2"},
		},
	}
}

// StateKey returns the S3 object key under which a repository's state lives.
func (c *Config) StateKey(repo string) string {
	return repo + "/terraform.tfstate"
}

// fileConfig is the on-disk representation of org defaults.
type fileConfig struct {
	Organization     string                        `toml:"organization"`
	Bucket           string                        `toml:"bucket"`
	Region           string                        `toml:"region"`
	AWSProfile       string                        `toml:"aws_profile"`
	LockTable        string                        `toml:"lock_table"`
	Branch           string                        `toml:"branch"`
	ScriptsPath      string                        `toml:"scripts_path"`
	LogDir           string                        `toml:"log_dir"`
	RequiredVersions map[string]VersionRequirement `toml:"required_versions"`
}

// FileName is the config file looked up in the current directory and the
// user's home directory.
const FileName = ".tf2s3.toml"

// Load reads org defaults from the first config file found and applies them
// over the built-in defaults. A missing file is not an error.
func Load() (*Config, error) {
	cfg := New()

	for _, dir := range configDirs() {
		path := filepath.Join(dir, FileName)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if err := applyFile(cfg, data); err != nil {
			return nil, err
		}
		break
	}

	return cfg, nil
}

// LoadFrom reads org defaults from an explicit file path.
func LoadFrom(path string) (*Config, error) {
	cfg := New()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyFile(cfg, data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyFile(cfg *Config, data []byte) error {
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if fc.Organization != "" {
		cfg.Organization = fc.Organization
	}
	if fc.Bucket != "" {
		cfg.Bucket = fc.Bucket
	}
	if fc.Region != "" {
		cfg.Region = fc.Region
	}
	if fc.AWSProfile != "" {
		cfg.AWSProfile = fc.AWSProfile
	}
	if fc.LockTable != "" {
		cfg.LockTable = fc.LockTable
	}
	if fc.Branch != "" {
		cfg.Branch = fc.Branch
	}
	if fc.ScriptsPath != "" {
		cfg.ScriptsPath = fc.ScriptsPath
	}
	if fc.LogDir != "" {
		cfg.LogDir = fc.LogDir
	}
	if len(fc.RequiredVersions) > 0 {
		cfg.RequiredVersions = fc.RequiredVersions
	}
	return nil
}

func configDirs() []string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}
	return dirs
}
