package model

import (
	"image"
	"time"

	"github.com/pkg/errors"
)

// UnknownLabel is shown for faces that match nobody on the roster.
const UnknownLabel = "Unknown"

var ErrNoFace = errors.New("no face found")

// Descriptor has the same layout as face.Descriptor.
type Descriptor [128]float32

type Person struct {
	Name  string `json:"name" yaml:"name" mapstructure:"name"`
	Image string `json:"image" yaml:"image" mapstructure:"image"`
}

type DetectedFace struct {
	Rect       image.Rectangle `json:"rect"`
	Descriptor Descriptor      `json:"descriptor"`
}

type RecognizedFace struct {
	Rect     image.Rectangle `json:"rect"`
	Label    string          `json:"label"`
	Distance float64         `json:"distance"`
	Known    bool            `json:"known"`
}

type AttendanceEvent struct {
	SessionId string    `json:"sessionId"`
	Name      string    `json:"name"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	MarkedAt  time.Time `json:"markedAt"`
}

type SessionSummary struct {
	SessionId string   `json:"sessionId"`
	Date      string   `json:"date"`
	Present   []string `json:"present"`
	Absent    []string `json:"absent"`
}
