package convert

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writePNG writes a w x h image filled with c.
func writePNG(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, jpeg.Encode(f, img, nil))
	require.NoError(t, f.Close())
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := jpeg.Decode(f)
	require.NoError(t, err)
	return img
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		src    string
		suffix string
		want   string
	}{
		{"monu_fixed.jpg", "_reprocessed", "monu_fixed_reprocessed.jpg"},
		{"/data/rohan.jpeg", "_reprocessed", "/data/rohan_reprocessed.jpg"},
		{"face.png", "_rgb", "face_rgb.jpg"},
		{"noext", "_reprocessed", "noext_reprocessed.jpg"},
		{"a.jpg.jpg", "_x", "a.jpg_x.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			assert.Equal(t, tt.want, OutputPath(tt.src, tt.suffix))
		})
	}
}

func TestToRGB_DropsAlpha(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 20, A: 0})
	src.SetNRGBA(1, 0, color.NRGBA{R: 1, G: 2, B: 3, A: 128})

	dst := ToRGB(src)

	assert.Equal(t, color.NRGBA{R: 200, G: 10, B: 20, A: 255}, dst.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, dst.NRGBAAt(1, 0))
	// the source is untouched
	assert.Equal(t, uint8(0), src.NRGBAAt(0, 0).A)
}

func TestNormalize_JPEG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "monu_fixed.jpg")
	writeJPEG(t, src, 40, 30)
	dst := OutputPath(src, DefaultSuffix)

	require.NoError(t, Normalize(src, dst, DefaultQuality))

	img := decodeJPEG(t, dst)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	_, isYCbCr := img.(*image.YCbCr)
	assert.True(t, isYCbCr, "expected a color JPEG, got %T", img)
}

func TestNormalize_TransparentPNG(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "face.png")
	writePNG(t, src, 16, 16, color.NRGBA{R: 255, A: 0})
	dst := filepath.Join(dir, "face.jpg")

	require.NoError(t, Normalize(src, dst, 95))

	r, g, b, _ := decodeJPEG(t, dst).At(8, 8).RGBA()
	assert.Greater(t, r>>8, uint32(200), "red channel survives alpha removal")
	assert.Less(t, g>>8, uint32(60))
	assert.Less(t, b>>8, uint32(60))
}

func TestNormalize_Corrupt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(src, []byte("not an image"), 0o644))
	dst := filepath.Join(dir, "broken_reprocessed.jpg")

	err := Normalize(src, dst, 95)
	require.Error(t, err)
	assert.NoFileExists(t, dst)
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeJPEG(t, filepath.Join(dir, "monu_fixed.jpg"), 20, 20)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rohan_fixed.jpg"), []byte("garbage"), 0o644))

	var out, progress bytes.Buffer
	result := Batch([]string{"monu_fixed.jpg", "missing.jpg", "rohan_fixed.jpg"}, dir,
		Options{Progress: &progress}, &out)

	assert.Equal(t, 1, result.Converted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 3, result.Total())
	assert.True(t, result.HasFailures())
	assert.Equal(t, []string{filepath.Join(dir, "monu_fixed_reprocessed.jpg")}, result.Outputs)

	assert.FileExists(t, filepath.Join(dir, "monu_fixed_reprocessed.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "missing_reprocessed.jpg"))
	assert.NoFileExists(t, filepath.Join(dir, "rohan_fixed_reprocessed.jpg"))

	log := out.String()
	assert.Contains(t, log, "converted: monu_fixed.jpg")
	assert.Contains(t, log, "skipped:")
	assert.Contains(t, log, "failed:    rohan_fixed.jpg")
	assert.Contains(t, log, "Batch summary: 1 converted, 1 skipped, 1 failed (total: 3)")
	assert.NotEmpty(t, progress.String())
}

func TestBatch_Empty(t *testing.T) {
	var out bytes.Buffer
	result := Batch(nil, t.TempDir(), Options{}, &out)
	assert.Zero(t, result.Total())
	assert.False(t, result.HasFailures())
}
