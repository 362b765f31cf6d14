// Package doctor runs the pre-flight checks a migration batch depends on:
// required CLI tools, authentication, the platform-scripts directory and the
// working directory. A failed required check aborts the batch before any
// repository starts.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// probeTimeout bounds each individual check so a wedged tool cannot stall
// the pre-flight.
const probeTimeout = 15 * time.Second

// Report collects the outcome of all checks.
type Report struct {
	Warnings []string
	Errors   []string
}

// OK reports whether every required check passed.
func (r *Report) OK() bool {
	return len(r.Errors) == 0
}

// Err returns an EnvironmentError describing the first failed required
// check, or nil when the report is clean.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return tferrors.NewEnvironmentError("pre-flight", strings.Join(r.Errors, "; "))
}

// Doctor runs the checks.
type Doctor struct {
	runner *run.Runner
	log    *logging.Logger
	cfg    *config.Config
}

// New creates a Doctor. The runner should not be in dry-run mode; probes are
// read-only.
func New(runner *run.Runner, log *logging.Logger, cfg *config.Config) *Doctor {
	return &Doctor{runner: runner, log: log, cfg: cfg}
}

// Run executes every check and returns the collected report.
func (d *Doctor) Run(ctx context.Context) *Report {
	report := &Report{}

	d.log.Info("Checking environment...")
	d.checkTool(ctx, report, "git", []string{"git", "--version"}, true)
	d.checkTool(ctx, report, "gh", []string{"gh", "--version"}, true)
	d.checkTool(ctx, report, "aws", []string{"aws", "--version"}, true)
	d.checkTool(ctx, report, "terraform", []string{"terraform", "-version"}, false)

	d.checkGitHubAuth(ctx, report)
	d.checkAWSAuth(ctx, report)
	d.checkScriptsPath(report)
	d.checkWorkDir(report)

	return report
}

func (d *Doctor) checkTool(ctx context.Context, report *Report, name string, argv []string, required bool) {
	out, err := d.runner.Output(ctx, run.Command{Argv: argv, Timeout: probeTimeout})
	if err != nil {
		msg := fmt.Sprintf("%s is not installed or not in PATH", name)
		if required {
			report.Errors = append(report.Errors, msg)
			d.log.Error("%s", msg)
		} else {
			report.Warnings = append(report.Warnings, msg)
			d.log.Warn("%s", msg)
		}
		return
	}

	version := out
	if i := strings.IndexByte(version, '\n'); i != -1 {
		version = version[:i]
	}
	d.log.Info("  ✅ %s", strings.TrimSpace(version))
}

func (d *Doctor) checkGitHubAuth(ctx context.Context, report *Report) {
	_, err := d.runner.Run(ctx, run.Command{
		Argv:    []string{"gh", "auth", "status"},
		Timeout: probeTimeout,
	})
	if err != nil {
		report.Errors = append(report.Errors, "GitHub authentication not configured (run gh auth login)")
		d.log.Error("GitHub authentication not configured")
		return
	}
	d.log.Info("  ✅ GitHub authentication")
}

func (d *Doctor) checkAWSAuth(ctx context.Context, report *Report) {
	out, err := d.runner.Output(ctx, run.Command{
		Argv:    []string{"aws", "sts", "get-caller-identity", "--profile", d.cfg.AWSProfile, "--query", "Account", "--output", "text"},
		Timeout: probeTimeout,
	})
	if err != nil {
		report.Errors = append(report.Errors,
			fmt.Sprintf("AWS credentials not available for profile %q", d.cfg.AWSProfile))
		d.log.Error("AWS credentials not available for profile %q", d.cfg.AWSProfile)
		return
	}
	d.log.Info("  ✅ AWS credentials (account %s)", out)
}

func (d *Doctor) checkScriptsPath(report *Report) {
	path := d.cfg.ScriptsPath
	if path == "" {
		path = config.FindPlatformScripts()
	}
	if !config.ValidScriptsPath(path) {
		report.Errors = append(report.Errors,
			fmt.Sprintf("platform-scripts directory with %s not found (set --scripts-path or PLATFORM_SCRIPTS_PATH)", config.CopyStateScript))
		d.log.Error("platform-scripts directory not found")
		return
	}
	d.log.Info("  ✅ platform scripts at %s", path)
}

func (d *Doctor) checkWorkDir(report *Report) {
	free, err := freeSpace(d.cfg.WorkDir)
	if err != nil || free < 0 {
		// Unknown free space is not worth failing over.
		return
	}

	const minFree = 1 << 30 // 1 GiB
	if free < minFree {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("less than 1 GiB free in working directory (%d MB)", free>>20))
		d.log.Warn("Low disk space in working directory")
		return
	}
	d.log.Info("  ✅ working directory (%d GB free)", free>>30)
}
