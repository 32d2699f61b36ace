package roster

import (
	"os"

	"face-attendance/model"

	"github.com/pkg/errors"
)

var ErrNoKnownFaces = errors.New("no known faces loaded")

// Encoder computes the descriptor of the first face in an image file.
// It returns model.ErrNoFace when the image has no face.
type Encoder interface {
	EncodeFile(path string) (model.Descriptor, error)
}

// KnownFaces is filled once at startup and read-only afterwards.
type KnownFaces struct {
	Names       []string
	Descriptors []model.Descriptor
}

// LoadKnownFaces encodes every person's image. Missing files, images without a
// face and unreadable images are logged and skipped; only an empty result is
// an error.
func LoadKnownFaces(enc Encoder, people []model.Person) (*KnownFaces, error) {
	known := &KnownFaces{}
	for _, p := range people {
		if _, err := os.Stat(p.Image); err != nil {
			if os.IsNotExist(err) {
				log.Warnln("File not found:", p.Image, "- skipping", p.Name)
			} else {
				log.WithError(err).Warnln("Cannot access", p.Image, "- skipping", p.Name)
			}
			continue
		}
		descriptor, err := enc.EncodeFile(p.Image)
		if err != nil {
			if errors.Is(err, model.ErrNoFace) {
				log.Warnln("No face found in", p.Image)
			} else {
				log.WithError(err).Errorln("Error processing", p.Image)
			}
			continue
		}
		log.Infoln("Loaded face from", p.Image)
		known.Names = append(known.Names, p.Name)
		known.Descriptors = append(known.Descriptors, descriptor)
	}
	if known.Len() == 0 {
		return nil, ErrNoKnownFaces
	}
	return known, nil
}

func (k *KnownFaces) Len() int {
	return len(k.Names)
}

// Match finds the nearest known face. ok is false when the nearest one is
// farther than tolerance; name and distance still describe that nearest face.
func (k *KnownFaces) Match(d model.Descriptor, tolerance float64) (name string, distance float64, ok bool) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	distances := FaceDistances(k.Descriptors, d)
	best := argmin(distances)
	if best < 0 {
		return model.UnknownLabel, 0, false
	}
	if distances[best] > tolerance {
		return model.UnknownLabel, distances[best], false
	}
	return k.Names[best], distances[best], true
}
