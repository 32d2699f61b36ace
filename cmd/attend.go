package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"face-attendance/attendance"
	"face-attendance/capture"
	"face-attendance/config"
	"face-attendance/publish"
	"face-attendance/recognize"
	"face-attendance/roster"
	"face-attendance/worker"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var attendCmd = &cobra.Command{
	Use:   "attend",
	Short: "Run an attendance session on the camera",
	Long: `Attend encodes the reference image of every person on the roster, then
watches the camera and writes "<name>,<HH:MM:SS>" to <outputDir>/<YYYY-MM-DD>.csv
the first time each person is recognized.

Press 'q' in the preview window or Ctrl+C to stop. People not seen are listed
when the session ends.

Examples:
  # Default camera, roster from the config file
  face-attendance attend

  # Second camera, no window, stop once everybody is present
  face-attendance attend --device 1 --headless --stop-when-complete`,
	Args: cobra.NoArgs,
	RunE: runAttend,
}

func init() {
	d := config.Default()
	flags := attendCmd.Flags()
	flags.String("device", d.Camera.Device, "Camera index or video file / stream URL")
	flags.Float64("scale", d.Camera.Scale, "Frame scale used for recognition, in (0, 1]")
	flags.Bool("headless", d.Camera.Headless, "Run without the preview window")
	flags.Float64("tolerance", d.Recognition.Tolerance, "Largest face distance counted as a match")
	flags.Bool("append", d.Attendance.Append, "Keep today's sheet and skip people already on it")
	flags.Bool("stop-when-complete", d.Attendance.StopWhenComplete, "End the session once everybody is marked")
	flags.String("broker", d.MQTT.Broker, "MQTT broker URL to publish attendance to, e.g. tcp://localhost:1883")

	bindFlag("camera.device", flags.Lookup("device"))
	bindFlag("camera.scale", flags.Lookup("scale"))
	bindFlag("camera.headless", flags.Lookup("headless"))
	bindFlag("recognition.tolerance", flags.Lookup("tolerance"))
	bindFlag("attendance.append", flags.Lookup("append"))
	bindFlag("attendance.stopWhenComplete", flags.Lookup("stop-when-complete"))
	bindFlag("mqtt.broker", flags.Lookup("broker"))

	rootCmd.AddCommand(attendCmd)
}

func runAttend(cmd *cobra.Command, args []string) error {
	cfg := config.Config()
	people, err := loadPeople(cfg)
	if err != nil {
		return err
	}
	people = roster.Resolve(people, cfg.DataDir)

	rec, err := recognize.NewRecognizerWrapper(cfg.ModelsDir)
	if err != nil {
		return err
	}
	defer rec.Close()

	known, err := roster.LoadKnownFaces(rec, people)
	if err != nil {
		return errors.Wrap(err, "nobody to recognize")
	}

	ledger, err := attendance.Open(cfg.OutputDir, time.Now(), cfg.Attendance.Append)
	if err != nil {
		return err
	}
	camera, err := capture.OpenCamera(cfg.Camera.Device)
	if err != nil {
		ledger.Close()
		return err
	}

	var display worker.Display = worker.Headless{}
	if !cfg.Camera.Headless {
		display = capture.NewWindow(capture.DefaultTitle)
	}

	publisher, err := publish.Connect(cfg.MQTT)
	if err != nil {
		logrus.WithError(err).Warnln("Attendance will not be published")
		publisher = publish.Nop{}
	}

	w := worker.NewWorker(camera, rec, known, ledger, display, publisher, worker.Options{
		Scale:            cfg.Camera.Scale,
		Tolerance:        cfg.Recognition.Tolerance,
		RetryDelay:       cfg.Camera.RetryDelay,
		MaxReadFailures:  cfg.Camera.MaxReadFailures,
		StopWhenComplete: cfg.Attendance.StopWhenComplete,
	})
	defer w.Close()

	if cfg.Attendance.Append {
		premark(w, ledger.Path())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Attendance saved to", ledger.Path())
	return nil
}

// premark takes people already on an existing sheet out of the pending set.
func premark(w *worker.Worker, path string) {
	rows, err := attendance.ReadRows(path)
	if err != nil {
		logrus.WithError(err).Warnln("Fail to read existing attendance, everybody stays pending")
		return
	}
	for _, row := range rows {
		if len(row) > 0 && w.Pending.Mark(row[0]) {
			logrus.Infoln("Already present:", row[0])
		}
	}
}
