package cmd

import (
	"os"

	"face-attendance/config"
	"face-attendance/convert"
	"face-attendance/roster"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert [images...]",
	Short: "Re-encode reference images as RGB JPEG",
	Long: `Convert decodes each image (JPEG, PNG, GIF, BMP or TIFF), drops the alpha
channel and writes it next to the source as <stem><suffix>.jpg.

Without arguments the roster images are converted. Missing files are skipped
and a summary is printed at the end.

Examples:
  # Convert the roster images
  face-attendance convert

  # Convert two files from another directory at lower quality
  face-attendance convert --dir ./photos --quality 85 monu.png rohan.png`,
	RunE: runConvert,
}

func init() {
	d := config.Default()
	convertCmd.Flags().String("dir", "", "Directory relative image names are resolved against (default: dataDir)")
	convertCmd.Flags().Int("quality", d.Convert.Quality, "JPEG quality (1-100)")
	convertCmd.Flags().String("suffix", d.Convert.Suffix, "Suffix inserted before the .jpg extension")
	convertCmd.Flags().Bool("strict", false, "Exit with an error when any image fails to convert")

	bindFlag("convert.quality", convertCmd.Flags().Lookup("quality"))
	bindFlag("convert.suffix", convertCmd.Flags().Lookup("suffix"))

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg := config.Config()
	dir := mustGetString(cmd, "dir")
	if dir == "" {
		dir = cfg.DataDir
	}

	files := args
	if len(files) == 0 {
		people, err := loadPeople(cfg)
		if err != nil {
			return err
		}
		// names stay relative so that Batch resolves them against dir
		files = roster.Images(roster.Resolve(people, ""))
	}

	result := convert.Batch(files, dir, convert.Options{
		Quality:  cfg.Convert.Quality,
		Suffix:   cfg.Convert.Suffix,
		Progress: os.Stderr,
	}, cmd.OutOrStdout())

	if result.HasFailures() && mustGetBool(cmd, "strict") {
		return errors.Errorf("%d of %d images failed to convert", result.Failed, result.Total())
	}
	return nil
}
