package colorize

import (
	"math"

	"github.com/chewxy/math32"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/janelia-flyem/gtbundle/gt"
	"github.com/janelia-flyem/gtbundle/modality"
)

const twoPi = 2 * math.Pi

// Flow visualizes one direction of optical flow.  Hue is the angle of (u, v) wrapped
// to [0, 2π), saturation is the magnitude divided by the largest magnitude in the
// image, and value is 1.  Pixels with zero magnitude get saturation 0 and value
// Neutral.
func Flow(u, v []float32, size gt.Size) *RGB {
	valid := modality.FlowMask(u, v, size)
	mag := make([]float32, size.NumPixels())
	var max float32
	for i := range mag {
		mag[i] = math32.Sqrt(u[i]*u[i] + v[i]*v[i])
		if mag[i] > max {
			max = mag[i]
		}
	}
	if max > 0 {
		for i := range mag {
			mag[i] /= max
		}
	}

	img := NewRGB(size)
	for i, ok := range valid.Valid {
		sat, val := float64(mag[i]), 1.0
		if !ok {
			sat, val = 0, float64(Neutral)
		}
		c := colorful.Hsv(360*hue(u[i], v[i]), sat, val)
		img.set(i, float32(c.R), float32(c.G), float32(c.B))
	}
	return img
}

// hue returns the angle of (u, v) as a fraction of a full turn in [0, 1).
func hue(u, v float32) float64 {
	phi := math32.Atan2(v, u)
	if phi < 0 {
		phi += twoPi
	}
	h := float64(phi / twoPi)
	if h >= 1 {
		h -= 1
	}
	return h
}

// ForwardFlow visualizes the forward flow of a field.
func ForwardFlow(f *gt.FlowField) *RGB {
	return Flow(f.ForwardU, f.ForwardV, f.Size)
}

// BackwardFlow visualizes the backward flow of a field.
func BackwardFlow(f *gt.FlowField) *RGB {
	return Flow(f.BackwardU, f.BackwardV, f.Size)
}
