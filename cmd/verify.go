package cmd

import (
	"face-attendance/config"
	"face-attendance/convert"
	"face-attendance/roster"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that every reference image can be decoded",
	Long: `Verify opens the reference image of every person on the roster and prints
its size and color model, or why it could not be read. It never fails.`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := config.Config()
	people, err := loadPeople(cfg)
	if err != nil {
		return err
	}
	convert.Verify(roster.Resolve(people, cfg.DataDir), cmd.OutOrStdout())
	return nil
}
