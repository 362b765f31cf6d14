package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/doctor"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// newDoctorCmd creates the doctor command.
func newDoctorCmd() *cobra.Command {
	var (
		awsProfile  string
		scriptsPath string
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the environment is ready for a migration",
		Long: `Run the pre-flight checks a migration depends on:

  - git, gh, aws and terraform on PATH
  - GitHub authentication (gh auth status)
  - AWS credentials for the selected profile
  - the platform-scripts directory with copy_state.sh
  - free space in the working directory`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if awsProfile != "" {
				cfg.AWSProfile = awsProfile
			}
			if scriptsPath != "" {
				cfg.ScriptsPath = scriptsPath
			}

			log := logging.New(verbose)
			report := doctor.New(run.NewRunner(false, log), log, cfg).Run(cmd.Context())

			for _, warning := range report.Warnings {
				log.Warn("%s", warning)
			}
			if !report.OK() {
				return report.Err()
			}
			fmt.Println("Environment is ready.")
			return nil
		},
	}

	cmd.Flags().StringVar(&awsProfile, "aws-profile", "", "AWS profile to check credentials for")
	cmd.Flags().StringVar(&scriptsPath, "scripts-path", "", "platform-scripts directory containing copy_state.sh")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	return cmd
}
