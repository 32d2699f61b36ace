package recognize

import (
	"bytes"
	"image"
	"sync"

	"face-attendance/convert"
	"face-attendance/model"

	"github.com/Kagami/go-face"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// frameQuality is the JPEG quality used to hand camera frames to dlib.
const frameQuality = 90

var log = logrus.WithField("component", "RECOGNIZE")

// RecognizerWrapper serializes access to a dlib recognizer. dlib only reads
// JPEG, so every image goes through an RGB JPEG encode first.
type RecognizerWrapper struct {
	Recognizer *face.Recognizer
	Lock       sync.Mutex
}

// NewRecognizerWrapper loads the dlib models (shape predictor, ResNet
// descriptor and face detector) from modelsDir.
func NewRecognizerWrapper(modelsDir string) (*RecognizerWrapper, error) {
	rec, err := face.NewRecognizer(modelsDir)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to initialize recognizer from %s", modelsDir)
	}
	log.Debugln("Recognizer initialized from", modelsDir)
	return &RecognizerWrapper{Recognizer: rec}, nil
}

// EncodeFile returns the descriptor of the first face found in path, or
// model.ErrNoFace.
func (w *RecognizerWrapper) EncodeFile(path string) (model.Descriptor, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return model.Descriptor{}, errors.Wrapf(err, "fail to decode %s", path)
	}
	log.Debugln("Loaded", path, "- size", img.Bounds().Dx(), "x", img.Bounds().Dy())

	faces, err := w.recognize(img, convert.DefaultQuality)
	if err != nil {
		return model.Descriptor{}, errors.Wrapf(err, "fail to recognize %s", path)
	}
	if len(faces) == 0 {
		return model.Descriptor{}, model.ErrNoFace
	}
	if len(faces) > 1 {
		log.Warnln("Found", len(faces), "faces in", path, "- using the first one")
	}
	return model.Descriptor(faces[0].Descriptor), nil
}

// Recognize detects every face in img and computes its descriptor.
func (w *RecognizerWrapper) Recognize(img image.Image) ([]model.DetectedFace, error) {
	faces, err := w.recognize(img, frameQuality)
	if err != nil {
		return nil, err
	}
	detected := make([]model.DetectedFace, 0, len(faces))
	for _, f := range faces {
		detected = append(detected, model.DetectedFace{
			Rect:       f.Rectangle,
			Descriptor: model.Descriptor(f.Descriptor),
		})
	}
	return detected, nil
}

func (w *RecognizerWrapper) recognize(img image.Image, quality int) ([]face.Face, error) {
	var buf bytes.Buffer
	if err := convert.EncodeJPEG(&buf, img, quality); err != nil {
		return nil, errors.Wrap(err, "fail to encode frame")
	}

	w.Lock.Lock()
	defer w.Lock.Unlock()
	faces, err := w.Recognizer.Recognize(buf.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "dlib recognize failed")
	}
	return faces, nil
}

func (w *RecognizerWrapper) Close() {
	w.Recognizer.Close()
}
