package convert

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"

	"face-attendance/model"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
)

type ImageInfo struct {
	Width      int
	Height     int
	ColorModel string
}

// Inspect decodes path and reports its size and color model.
func Inspect(path string) (ImageInfo, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return ImageInfo{}, errors.Wrapf(err, "fail to decode %s", path)
	}
	b := img.Bounds()
	return ImageInfo{Width: b.Dx(), Height: b.Dy(), ColorModel: colorModelName(img)}, nil
}

// Verify prints one line per person telling whether the reference image can
// be decoded. It returns how many could.
func Verify(people []model.Person, w io.Writer) int {
	fmt.Fprintln(w, "Verifying face images:")
	loaded := 0
	for _, p := range people {
		info, err := Inspect(p.Image)
		switch {
		case err == nil:
			loaded++
			fmt.Fprintf(w, "ok:        %s (%s) %dx%d, %s\n", p.Name, p.Image, info.Width, info.Height, info.ColorModel)
		case os.IsNotExist(errors.Cause(err)):
			fmt.Fprintf(w, "missing:   %s (%s) file not found\n", p.Name, p.Image)
		default:
			fmt.Fprintf(w, "error:     %s (%s) %v\n", p.Name, p.Image, err)
		}
	}
	return loaded
}

func colorModelName(img image.Image) string {
	if _, ok := img.(*image.Paletted); ok {
		return "Paletted"
	}
	switch img.ColorModel() {
	case color.RGBAModel, color.RGBA64Model:
		return "RGBA"
	case color.NRGBAModel, color.NRGBA64Model:
		return "NRGBA"
	case color.GrayModel, color.Gray16Model:
		return "Gray"
	case color.YCbCrModel:
		return "YCbCr"
	case color.CMYKModel:
		return "CMYK"
	}
	return fmt.Sprintf("%T", img.ColorModel())
}
