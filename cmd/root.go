package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"face-attendance/config"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	v         = viper.New()
	configErr error
)

var rootCmd = &cobra.Command{
	Use:   "face-attendance",
	Short: "Webcam face-recognition attendance logger",
	Long: `face-attendance recognizes known people in front of a camera and writes
the time each of them was first seen to a daily CSV sheet (<YYYY-MM-DD>.csv).

Reference images are listed in the config file or in a roster YAML file.
The convert command normalizes those images to RGB JPEG first.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configErr != nil {
			return configErr
		}
		cfg, err := config.Load(v)
		if err != nil {
			return err
		}
		debug, _ := cmd.Root().PersistentFlags().GetBool("debug")
		return setupLogging(cfg.Log.Level, debug)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	d := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default: ./face-attendance.yaml or ~/.config/face-attendance/face-attendance.yaml)")
	flags.Bool("debug", false, "Enable debug logging")
	flags.String("data-dir", d.DataDir, "Directory relative image paths are resolved against")
	flags.String("models-dir", d.ModelsDir, "Directory holding the dlib model files")
	flags.String("output-dir", d.OutputDir, "Directory the attendance sheet is written to")
	flags.String("roster", d.Roster, "YAML file listing {name, image} entries, replaces the configured people")

	bindFlag("dataDir", flags.Lookup("data-dir"))
	bindFlag("modelsDir", flags.Lookup("models-dir"))
	bindFlag("outputDir", flags.Lookup("output-dir"))
	bindFlag("roster", flags.Lookup("roster"))
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	config.SetDefaults(v)
	config.BindEnv(v)

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(config.ConfigName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", config.ConfigName))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = errors.Wrap(err, "fail to read config file")
		}
		return
	}
	fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
}

func setupLogging(level string, debug bool) error {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if debug {
		logrus.SetLevel(logrus.DebugLevel)
		return nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return errors.Wrapf(err, "invalid log.level %q", level)
	}
	logrus.SetLevel(lvl)
	return nil
}
