package colorize

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/janelia-flyem/gtbundle/gt"
	"github.com/janelia-flyem/gtbundle/modality"
)

// BadColor paints pixels excluded from a ramp.  It is not on the viridis ramp.
var BadColor = colorful.Color{R: 1, G: 1, B: 1}

var viridisHex = []string{
	"#440154", "#482475", "#414487", "#355f8d", "#2a788e", "#21918c",
	"#22a884", "#44bf70", "#7ad151", "#bddf26", "#fde725",
}

var viridis []colorful.Color

func init() {
	for _, h := range viridisHex {
		c, err := colorful.Hex(h)
		if err != nil {
			panic(err)
		}
		viridis = append(viridis, c)
	}
}

// Viridis returns the ramp color at t in [0,1]; t is clamped.
func Viridis(t float64) colorful.Color {
	switch {
	case t <= 0 || t != t:
		return viridis[0]
	case t >= 1:
		return viridis[len(viridis)-1]
	}
	pos := t * float64(len(viridis)-1)
	i := int(pos)
	return viridis[i].BlendRgb(viridis[i+1], pos-float64(i))
}

// ramp paints values over the valid pixels, normalized by their min and max.
func ramp(values []float64, valid *gt.Mask) *RGB {
	img := NewRGB(valid.Size)
	var lo, hi float64
	first := true
	for i, ok := range valid.Valid {
		if !ok {
			continue
		}
		if first || values[i] < lo {
			lo = values[i]
		}
		if first || values[i] > hi {
			hi = values[i]
		}
		first = false
	}
	for i, ok := range valid.Valid {
		c := BadColor
		if ok {
			var t float64
			if hi > lo {
				t = (values[i] - lo) / (hi - lo)
			}
			c = Viridis(t)
		}
		img.set(i, float32(c.R), float32(c.G), float32(c.B))
	}
	return img
}

// Depth paints depth samples below far on the ramp.  Sentinel pixels are excluded
// from the min/max normalization and painted BadColor.
func Depth(d *gt.DepthField, far float32) *RGB {
	values := make([]float64, len(d.Data))
	for i, v := range d.Data {
		values[i] = float64(v)
	}
	return ramp(values, modality.DepthMask(d, far))
}

// Label paints non-background labels on the ramp; background is BadColor.
func Label(l *gt.LabelField) *RGB {
	values := make([]float64, len(l.Data))
	for i, v := range l.Data {
		values[i] = float64(v)
	}
	return ramp(values, modality.LabelMask(l))
}
