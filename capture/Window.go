package capture

import (
	"image"
	"image/color"

	"face-attendance/model"
	"face-attendance/roster"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

const DefaultTitle = "Attendance System - Press 'q' to Quit"

var (
	boxColor   = color.RGBA{G: 255}
	labelColor = color.RGBA{B: 255}
)

// Window shows the camera feed with a box and a name over every face.
type Window struct {
	window  *gocv.Window
	quitKey int
}

func NewWindow(title string) *Window {
	return &Window{window: gocv.NewWindow(title), quitKey: 'q'}
}

func (w *Window) Show(frame image.Image, faces []model.RecognizedFace) error {
	mat, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return errors.Wrap(err, "fail to convert frame for display")
	}
	defer mat.Close()

	for _, f := range faces {
		gocv.Rectangle(&mat, f.Rect, boxColor, 2)
		origin := image.Pt(f.Rect.Min.X, f.Rect.Min.Y-10)
		gocv.PutText(&mat, roster.DisplayLabel(f.Label), origin, gocv.FontHersheySimplex, 0.8, labelColor, 2)
	}
	w.window.IMShow(mat)
	return nil
}

// QuitRequested pumps the window events and reports whether the quit key
// was pressed.
func (w *Window) QuitRequested() bool {
	key := w.window.WaitKey(1)
	return key >= 0 && key&0xff == w.quitKey
}

func (w *Window) Close() error {
	return w.window.Close()
}
