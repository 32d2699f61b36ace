package worker

import (
	"context"
	"image"
	"math"
	"time"

	"face-attendance/attendance"
	"face-attendance/model"
	"face-attendance/publish"
	"face-attendance/roster"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrCameraUnavailable = errors.New("camera unavailable")
	log                  = logrus.WithField("component", "WORKER")
)

type FrameSource interface {
	Read() (image.Image, error)
	Close() error
}

type FaceRecognizer interface {
	Recognize(img image.Image) ([]model.DetectedFace, error)
}

type Display interface {
	Show(frame image.Image, faces []model.RecognizedFace) error
	QuitRequested() bool
	Close() error
}

type Recorder interface {
	Record(name string, at time.Time) error
	Close() error
}

type Options struct {
	// Scale is applied to frames before recognition; 0.25 means a quarter
	// of the width and height.
	Scale            float64
	Tolerance        float64
	RetryDelay       time.Duration
	MaxReadFailures  int
	StopWhenComplete bool
}

// Worker runs one attendance session: it owns the camera, the display, the
// sheet and the publisher and releases all of them in Close.
type Worker struct {
	SessionId  string
	Source     FrameSource
	Recognizer FaceRecognizer
	Known      *roster.KnownFaces
	Pending    *roster.Pending
	Ledger     Recorder
	Display    Display
	Publisher  publish.Publisher
	Options    Options
	Now        func() time.Time

	started time.Time
}

func NewWorker(source FrameSource, rec FaceRecognizer, known *roster.KnownFaces, ledger Recorder, display Display, publisher publish.Publisher, opts Options) *Worker {
	if opts.Scale <= 0 || opts.Scale > 1 {
		opts.Scale = 1
	}
	if display == nil {
		display = Headless{}
	}
	if publisher == nil {
		publisher = publish.Nop{}
	}
	return &Worker{
		SessionId:  uuid.New().String(),
		Source:     source,
		Recognizer: rec,
		Known:      known,
		Pending:    roster.NewPending(known.Names),
		Ledger:     ledger,
		Display:    display,
		Publisher:  publisher,
		Options:    opts,
		Now:        time.Now,
	}
}

// Run reads frames until the quit key is pressed, ctx is cancelled or, with
// StopWhenComplete, everybody has been marked. Read failures are retried;
// with MaxReadFailures set, that many failures in a row end the session with
// ErrCameraUnavailable.
func (worker *Worker) Run(ctx context.Context) error {
	worker.started = worker.Now()
	log.Infoln("[SESSION]", worker.SessionId, "started, waiting for", worker.Pending.Len(), "people")

	failures := 0
	for {
		select {
		case <-ctx.Done():
			log.Infoln("[SESSION]", worker.SessionId, "interrupted")
			return nil
		default:
		}

		frame, err := worker.Source.Read()
		if err != nil {
			failures++
			log.WithError(err).Warnln("Couldn't read from camera")
			if worker.Options.MaxReadFailures > 0 && failures >= worker.Options.MaxReadFailures {
				return errors.Wrapf(ErrCameraUnavailable, "%d consecutive read failures", failures)
			}
			if !sleep(ctx, worker.Options.RetryDelay) {
				return nil
			}
			continue
		}
		failures = 0

		faces, err := worker.HandleFrame(frame)
		if err != nil {
			log.WithError(err).Errorln("Fail to recognize frame")
		}
		if err := worker.Display.Show(frame, faces); err != nil {
			log.WithError(err).Warnln("Fail to display frame")
		}
		if worker.Display.QuitRequested() {
			log.Infoln("[SESSION]", worker.SessionId, "quit requested")
			return nil
		}
		if worker.Options.StopWhenComplete && worker.Pending.Len() == 0 {
			log.Infoln("[SESSION]", worker.SessionId, "everybody is present")
			return nil
		}
	}
}

// HandleFrame downscales frame, recognizes every face in it and marks people
// seen for the first time. Rectangles are returned in frame coordinates.
func (worker *Worker) HandleFrame(frame image.Image) ([]model.RecognizedFace, error) {
	small := downscale(frame, worker.Options.Scale)
	detected, err := worker.Recognizer.Recognize(small)
	if err != nil {
		return nil, err
	}

	recognized := make([]model.RecognizedFace, 0, len(detected))
	for _, f := range detected {
		name, distance, known := worker.Known.Match(f.Descriptor, worker.Options.Tolerance)
		if known && worker.Pending.Mark(name) {
			worker.markPresent(name)
		}
		recognized = append(recognized, model.RecognizedFace{
			Rect:     upscaleRect(f.Rect, worker.Options.Scale),
			Label:    name,
			Distance: distance,
			Known:    known,
		})
	}
	return recognized, nil
}

func (worker *Worker) markPresent(name string) {
	now := worker.Now()
	if err := worker.Ledger.Record(name, now); err != nil {
		log.WithError(err).Errorln("Fail to record", name)
	}
	timeNow := now.Format(attendance.TimeLayout)
	log.Infoln("Marked present:", name, "at", timeNow)

	event := model.AttendanceEvent{
		SessionId: worker.SessionId,
		Name:      name,
		Date:      now.Format(attendance.DateLayout),
		Time:      timeNow,
		MarkedAt:  now,
	}
	if err := worker.Publisher.PublishMarked(event); err != nil {
		log.WithError(err).Warnln("Fail to publish attendance of", name)
	}
}

func (worker *Worker) Summary() model.SessionSummary {
	day := worker.started
	if day.IsZero() {
		day = worker.Now()
	}
	return model.SessionSummary{
		SessionId: worker.SessionId,
		Date:      day.Format(attendance.DateLayout),
		Present:   worker.Pending.Marked(),
		Absent:    worker.Pending.Remaining(),
	}
}

// Close publishes the summary and releases the camera, the window, the sheet
// and the broker connection, whatever state the session ended in.
func (worker *Worker) Close() {
	summary := worker.Summary()
	if len(summary.Absent) > 0 {
		log.Infoln("[SESSION]", worker.SessionId, "absent:", summary.Absent)
	}
	if err := worker.Publisher.PublishSummary(summary); err != nil {
		log.WithError(err).Warnln("Fail to publish session summary")
	}

	if err := worker.Source.Close(); err != nil {
		log.WithError(err).Warnln("Fail to release camera")
	}
	if err := worker.Display.Close(); err != nil {
		log.WithError(err).Warnln("Fail to close window")
	}
	if err := worker.Ledger.Close(); err != nil {
		log.WithError(err).Errorln("Fail to close attendance sheet")
	}
	worker.Publisher.Close()
	log.Infoln("[SESSION]", worker.SessionId, "closed")
}

func downscale(img image.Image, scale float64) image.Image {
	if scale >= 1 {
		return img
	}
	b := img.Bounds()
	width := int(math.Max(1, math.Round(float64(b.Dx())*scale)))
	height := int(math.Max(1, math.Round(float64(b.Dy())*scale)))
	return imaging.Resize(img, width, height, imaging.Linear)
}

func upscaleRect(r image.Rectangle, scale float64) image.Rectangle {
	if scale >= 1 {
		return r
	}
	up := func(v int) int { return int(math.Round(float64(v) / scale)) }
	return image.Rect(up(r.Min.X), up(r.Min.Y), up(r.Max.X), up(r.Max.Y))
}

// sleep waits for d and reports false when ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Headless is the Display used without a preview window; the session then
// ends on interrupt only.
type Headless struct{}

func (Headless) Show(image.Image, []model.RecognizedFace) error { return nil }
func (Headless) QuitRequested() bool                            { return false }
func (Headless) Close() error                                   { return nil }
