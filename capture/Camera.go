package capture

import (
	"image"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrReadFailed = errors.New("couldn't read from camera")
	log           = logrus.WithField("component", "CAPTURE")
)

// Camera reads frames from a capture device. device is either a device index
// ("0" is the default camera) or a video file / stream URL.
type Camera struct {
	device  string
	capture *gocv.VideoCapture
	mat     gocv.Mat
}

func OpenCamera(device string) (*Camera, error) {
	vc, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "fail to open video capture %s", device)
	}
	log.Infoln("Opened video capture", device)
	return &Camera{device: device, capture: vc, mat: gocv.NewMat()}, nil
}

// Read blocks until the next frame is available.
func (c *Camera) Read() (image.Image, error) {
	if ok := c.capture.Read(&c.mat); !ok || c.mat.Empty() {
		return nil, ErrReadFailed
	}
	img, err := c.mat.ToImage()
	if err != nil {
		return nil, errors.Wrap(err, "fail to convert frame")
	}
	return img, nil
}

func (c *Camera) Close() error {
	if err := c.mat.Close(); err != nil {
		log.WithError(err).Warnln("Fail to release frame buffer")
	}
	return c.capture.Close()
}
