// Package cli wires the cobra command surface: the migrate batch command and
// the doctor pre-flight command.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tf2s3",
		Short: "Migrate Terraform repositories from Terraform Cloud to an S3 backend",
		Long: `tf2s3 migrates a fleet of Terraform repositories from the Terraform Cloud
backend to a self-managed S3 bucket with DynamoDB state locking.

For each repository it clones the repo, relocates the state, rewrites the
backend and module-source configuration, and opens a pull request for review.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newDoctorCmd())

	return rootCmd
}
