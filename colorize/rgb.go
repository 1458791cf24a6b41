package colorize

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/janelia-flyem/gtbundle/gt"
)

// RGB is a floating-point visualization with interleaved channels in [0,1].
type RGB struct {
	gt.Size
	Pix []float32
}

// NewRGB returns a black image of the given size.
func NewRGB(size gt.Size) *RGB {
	return &RGB{Size: size, Pix: make([]float32, 3*size.NumPixels())}
}

// At returns the color of pixel (row, col).
func (img *RGB) At(row, col int) (r, g, b float32) {
	i := 3 * img.Index(row, col)
	return img.Pix[i], img.Pix[i+1], img.Pix[i+2]
}

func (img *RGB) set(i int, r, g, b float32) {
	img.Pix[3*i], img.Pix[3*i+1], img.Pix[3*i+2] = r, g, b
}

// NRGBA converts to an opaque 8-bit image, clamping to [0,1].
func (img *RGB) NRGBA() *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for i := 0; i < img.NumPixels(); i++ {
		out.Pix[4*i] = to8(img.Pix[3*i])
		out.Pix[4*i+1] = to8(img.Pix[3*i+1])
		out.Pix[4*i+2] = to8(img.Pix[3*i+2])
		out.Pix[4*i+3] = 255
	}
	return out
}

func to8(v float32) uint8 {
	switch {
	case v <= 0 || v != v:
		return 0
	case v >= 1:
		return 255
	}
	return uint8(v*255 + 0.5)
}

// FromColorImage wraps an 8-bit color image as a visualization.
func FromColorImage(c *gt.ColorImage) *RGB {
	img := NewRGB(c.Size)
	for i, v := range c.Pix {
		img.Pix[i] = float32(v) / 255
	}
	return img
}

// WritePNG writes the visualization as an 8-bit PNG.  The file appears at path
// only once it is complete.
func WritePNG(path string, img *RGB) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := png.Encode(tmp, img.NRGBA()); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %v", path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
