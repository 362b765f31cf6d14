package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/EPdacoder05/TF2S3-migration/internal/batch"
	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/doctor"
	"github.com/EPdacoder05/TF2S3-migration/internal/gitops"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/pipeline"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
	"github.com/EPdacoder05/TF2S3-migration/internal/stateops"
	"github.com/EPdacoder05/TF2S3-migration/internal/validate"
)

// migrateFlags holds the raw flag values before they are merged over the
// config-file defaults.
type migrateFlags struct {
	repos           string
	org             string
	bucket          string
	region          string
	awsProfile      string
	lockTable       string
	scriptsPath     string
	workDir         string
	branch          string
	configFile      string
	concurrency     int
	dryRun          bool
	skipVersions    bool
	skipValidation  bool
	autoPublish     bool
	noStrictBackend bool
	verifyMode      string
	verbose         bool
}

func newMigrateCmd() *cobra.Command {
	var flags migrateFlags

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate repositories to the S3 backend",
		Long: `Run the migration pipeline for every listed repository: clone, copy state
to S3, rewrite backend and module sources, commit, push and open a PR.

Repositories are processed independently; one failure never aborts the batch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.repos, "repos", "", "comma-separated repository names to migrate (required)")
	cmd.Flags().StringVar(&flags.org, "org", "", "GitHub organization")
	cmd.Flags().StringVar(&flags.bucket, "bucket", "", "S3 bucket for Terraform state")
	cmd.Flags().StringVar(&flags.region, "region", "", "AWS region")
	cmd.Flags().StringVar(&flags.awsProfile, "aws-profile", "", "AWS profile for state operations")
	cmd.Flags().StringVar(&flags.lockTable, "lock-table", "", "DynamoDB table for state locking")
	cmd.Flags().StringVar(&flags.scriptsPath, "scripts-path", "", "platform-scripts directory containing copy_state.sh")
	cmd.Flags().StringVar(&flags.workDir, "work-dir", "", "working directory for clones (default: a temporary directory)")
	cmd.Flags().StringVar(&flags.branch, "branch", "", "migration branch name")
	cmd.Flags().StringVar(&flags.configFile, "config", "", "path to a "+config.FileName+" config file")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", config.DefaultConcurrency, "parallel repository migrations")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "log intended actions without executing them")
	cmd.Flags().BoolVar(&flags.skipVersions, "skip-version-check", false, "skip module version validation")
	cmd.Flags().BoolVar(&flags.skipValidation, "skip-validation", false, "skip environment pre-flight checks")
	cmd.Flags().BoolVar(&flags.autoPublish, "auto-publish", false, "open pull requests without confirmation")
	cmd.Flags().BoolVar(&flags.noStrictBackend, "no-strict-backend", false, "treat repositories without a backend block as a no-op instead of a failure")
	cmd.Flags().StringVar(&flags.verifyMode, "verify-mode", string(config.VerifyCLI), "state verification mode: cli or sdk")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	_ = cmd.MarkFlagRequired("repos")

	return cmd
}

func runMigrate(cmd *cobra.Command, flags migrateFlags) error {
	cfg, err := buildConfig(cmd, flags)
	if err != nil {
		return err
	}

	log, err := logging.NewWithFile(cfg.LogDir, cfg.Verbose)
	if err != nil {
		return err
	}
	defer log.Close()

	names := splitRepos(flags.repos)
	if len(names) == 0 {
		return fmt.Errorf("no repositories given: --repos must name at least one repository")
	}

	if cfg.Concurrency > validate.MaxRecommendedConcurrency {
		log.Warn("Concurrency %d exceeds the recommended maximum of %d; GitHub and AWS rate limits may slow the batch",
			cfg.Concurrency, validate.MaxRecommendedConcurrency)
	}

	runner := run.NewRunner(cfg.DryRun, log)
	ctx := cmd.Context()

	if cfg.SkipValidation {
		log.Warn("Skipping environment pre-flight checks")
	} else {
		// Probes must really run even when the migration itself is a dry run.
		probeRunner := run.NewRunner(false, log)
		report := doctor.New(probeRunner, log, cfg).Run(ctx)
		if err := report.Err(); err != nil {
			return err
		}
	}

	if cfg.DryRun {
		log.Info("DRY RUN: no external changes will be made")
	} else if !cfg.AutoPublish {
		if !confirm(fmt.Sprintf("Migrate %d repositories to s3://%s?", len(names), cfg.Bucket)) {
			log.Info("Migration aborted")
			return nil
		}
	}

	deps := pipeline.Deps{
		Git:      gitops.NewOps(runner, log, cfg.CommandTimeout),
		State:    stateops.NewOps(runner, log),
		Verifier: stateops.NewVerifier(cfg.VerifyMode, runner, cfg.AWSProfile, cfg.Region),
		Log:      log,
		Confirm: func(t pipeline.Target) bool {
			return confirm(fmt.Sprintf("Open pull request for %s?", t))
		},
	}

	if token, err := gitops.ResolveToken(ctx, runner); err != nil {
		log.Debug("GitHub API client unavailable: %v", err)
	} else {
		deps.PRs = gitops.NewPRClient(token)
	}

	targets := make([]pipeline.Target, len(names))
	for i, name := range names {
		targets[i] = pipeline.Target{Org: cfg.Organization, Repo: name, Branch: cfg.Branch}
	}

	summary := batch.Run(ctx, targets, cfg, deps)

	renderSummary(os.Stdout, summary, cfg)
	if log.LogPath() != "" {
		log.Info("Full log: %s", log.LogPath())
	}

	if summary.HasFailures() {
		return fmt.Errorf("%d of %d repository migration(s) failed", summary.Count(pipeline.StatusFailed), len(targets))
	}
	return nil
}

// buildConfig merges defaults, the optional config file and the CLI flags.
// Flags win over the file; the file wins over built-in defaults.
func buildConfig(cmd *cobra.Command, flags migrateFlags) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flags.configFile != "" {
		cfg, err = config.LoadFrom(flags.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.org != "" {
		cfg.Organization = flags.org
	}
	if flags.bucket != "" {
		cfg.Bucket = flags.bucket
	}
	if flags.region != "" {
		cfg.Region = flags.region
	}
	if flags.awsProfile != "" {
		cfg.AWSProfile = flags.awsProfile
	}
	if flags.lockTable != "" {
		cfg.LockTable = flags.lockTable
	}
	if flags.branch != "" {
		cfg.Branch = flags.branch
	}
	if flags.scriptsPath != "" {
		cfg.ScriptsPath = flags.scriptsPath
	}
	if flags.workDir != "" {
		cfg.WorkDir = flags.workDir
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flags.concurrency
	}

	cfg.DryRun = flags.dryRun
	cfg.SkipVersionCheck = flags.skipVersions
	cfg.SkipValidation = flags.skipValidation
	cfg.AutoPublish = flags.autoPublish
	cfg.StrictBackend = !flags.noStrictBackend
	cfg.Verbose = flags.verbose

	switch config.VerifyMode(flags.verifyMode) {
	case config.VerifyCLI, config.VerifySDK:
		cfg.VerifyMode = config.VerifyMode(flags.verifyMode)
	default:
		return nil, fmt.Errorf("invalid --verify-mode %q: must be cli or sdk", flags.verifyMode)
	}

	if err := validate.OrgName(cfg.Organization); err != nil {
		return nil, err
	}
	if err := validate.Region(cfg.Region); err != nil {
		return nil, err
	}
	if err := validate.BranchName(cfg.Branch); err != nil {
		return nil, err
	}
	if err := validate.Concurrency(cfg.Concurrency); err != nil {
		return nil, err
	}

	if cfg.ScriptsPath == "" {
		cfg.ScriptsPath = config.FindPlatformScripts()
	}

	if cfg.WorkDir == "" {
		dir, err := os.MkdirTemp("", "tf2s3-")
		if err != nil {
			return nil, fmt.Errorf("failed to create working directory: %w", err)
		}
		cfg.WorkDir = dir
	} else {
		if err := validate.PathSafety(cfg.WorkDir); err != nil {
			return nil, err
		}
		abs, err := filepath.Abs(cfg.WorkDir)
		if err != nil {
			return nil, err
		}
		cfg.WorkDir = abs
		if err := os.MkdirAll(cfg.WorkDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create working directory: %w", err)
		}
	}

	return cfg, nil
}

func splitRepos(repos string) []string {
	var names []string
	for _, name := range strings.Split(repos, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
