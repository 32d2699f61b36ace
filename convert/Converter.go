// Package convert re-encodes reference photos as plain RGB JPEGs so that the
// face recognizer, which only reads baseline JPEG, can load them.
package convert

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"
)

const (
	DefaultQuality = 95
	DefaultSuffix  = "_reprocessed"
)

var log = logrus.WithField("component", "CONVERT")

type Options struct {
	Quality int
	Suffix  string
	// Progress receives a progress bar when set.
	Progress io.Writer
}

// BatchResult holds the outcome of a batch run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Outputs   []string
}

func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// OutputPath puts suffix between the file stem and a ".jpg" extension:
// "monu_fixed.jpg" becomes "monu_fixed_reprocessed.jpg".
func OutputPath(src, suffix string) string {
	ext := filepath.Ext(src)
	return strings.TrimSuffix(src, ext) + suffix + ".jpg"
}

// ToRGB copies img and discards its alpha channel, keeping the color values.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// EncodeJPEG writes img as an RGB JPEG.
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	return imaging.Encode(w, ToRGB(img), imaging.JPEG, imaging.JPEGQuality(quality))
}

// Normalize decodes src and writes it to dst as an RGB JPEG. Nothing is left
// at dst when encoding fails.
func Normalize(src, dst string, quality int) error {
	img, err := imaging.Open(src)
	if err != nil {
		return errors.Wrapf(err, "fail to decode %s", src)
	}
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "fail to create %s", dst)
	}
	if err := EncodeJPEG(out, img, quality); err != nil {
		out.Close()
		os.Remove(dst)
		return errors.Wrapf(err, "fail to encode %s", dst)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return errors.Wrapf(err, "fail to write %s", dst)
	}
	return nil
}

// Batch normalizes every file, resolving relative names against dir, and
// prints one status line per file to w. Missing files are skipped and errors
// are counted; the batch never stops early.
func Batch(files []string, dir string, opts Options, w io.Writer) BatchResult {
	if opts.Quality == 0 {
		opts.Quality = DefaultQuality
	}
	if opts.Suffix == "" {
		opts.Suffix = DefaultSuffix
	}

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("converting"),
		)
	}

	fmt.Fprintf(w, "Reprocessing %d images in: %s\n", len(files), dir)
	var result BatchResult
	for _, f := range files {
		src := f
		if !filepath.IsAbs(src) {
			src = filepath.Join(dir, src)
		}
		dst := OutputPath(src, opts.Suffix)

		switch err := convertOne(src, dst, opts.Quality); {
		case err == nil:
			result.Converted++
			result.Outputs = append(result.Outputs, dst)
			fmt.Fprintf(w, "converted: %s -> %s\n", f, dst)
		case os.IsNotExist(errors.Cause(err)):
			result.Skipped++
			fmt.Fprintf(w, "skipped:   %s (not found)\n", src)
		default:
			result.Failed++
			log.WithError(err).Debugln("Conversion failed for", src)
			fmt.Fprintf(w, "failed:    %s (%v)\n", f, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

func convertOne(src, dst string, quality int) error {
	if _, err := os.Stat(src); err != nil {
		return errors.WithStack(err)
	}
	return Normalize(src, dst, quality)
}
