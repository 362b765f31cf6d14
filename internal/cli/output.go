package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/EPdacoder05/TF2S3-migration/internal/batch"
	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/pipeline"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failureStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// renderSummary prints the end-of-batch report: counts, per-status repository
// lists, failure details and rollback instructions after a non-dry failure.
func renderSummary(w io.Writer, summary *batch.Summary, cfg *config.Config) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("Migration summary"))
	fmt.Fprintf(w, "  Total:     %d\n", len(summary.Outcomes))
	fmt.Fprintf(w, "  Succeeded: %s\n", successStyle.Render(fmt.Sprint(summary.Count(pipeline.StatusSucceeded))))
	fmt.Fprintf(w, "  Failed:    %s\n", failureStyle.Render(fmt.Sprint(summary.Count(pipeline.StatusFailed))))
	fmt.Fprintf(w, "  Skipped:   %s\n", skippedStyle.Render(fmt.Sprint(summary.Count(pipeline.StatusSkipped))))
	fmt.Fprintf(w, "  Duration:  %s\n", formatDuration(summary.Duration))

	if n := summary.Count(pipeline.StatusSucceeded); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, successStyle.Render("✅ Succeeded:"))
		for _, o := range summary.Outcomes {
			if o.Status != pipeline.StatusSucceeded {
				continue
			}
			fmt.Fprintf(w, "  - %s\n", o.Target.Repo)
			if o.PRURL != "" {
				fmt.Fprintf(w, "    %s\n", dimStyle.Render(o.PRURL))
			}
		}
	}

	if n := summary.Count(pipeline.StatusFailed); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, failureStyle.Render("❌ Failed:"))
		for _, o := range summary.Outcomes {
			if o.Status != pipeline.StatusFailed {
				continue
			}
			fmt.Fprintf(w, "  - %s at %s: %s\n", o.Target.Repo, o.FirstFailedStage, o.FailureMessage)
		}
	}

	if n := summary.Count(pipeline.StatusSkipped); n > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, skippedStyle.Render("⏭  Skipped:"))
		for _, o := range summary.Outcomes {
			if o.Status != pipeline.StatusSkipped {
				continue
			}
			fmt.Fprintf(w, "  - %s: %s\n", o.Target.Repo, o.FailureMessage)
		}
	}

	if summary.HasFailures() && !cfg.DryRun {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Rollback instructions"))
		fmt.Fprintln(w, "  For failed migrations you may need to:")
		fmt.Fprintln(w, "  1. Close the pull request")
		fmt.Fprintf(w, "  2. Delete the migration branch: git push origin --delete %s\n", cfg.Branch)
		fmt.Fprintf(w, "  3. Review the logs under %s\n", cfg.LogDir)
		fmt.Fprintln(w, "  4. Re-run the migration for the failed repositories")
	}
	fmt.Fprintln(w)
}

// formatDuration renders a duration as "2m 30s" with second precision.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second

	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
