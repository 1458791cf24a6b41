package colorize

import (
	"github.com/janelia-flyem/gtbundle/gt"
	"github.com/janelia-flyem/gtbundle/modality"
)

// Neutral is the gray used for pixels without a normal or without motion.
const Neutral float32 = 0.5

// Normal maps (x, y, z) to (R, G, B) = ((x+1)/2, (y+1)/2, z).  z is used as is,
// assuming visible surfaces face the camera with z in [0,1].
func Normal(n *gt.NormalField) *RGB {
	valid := modality.NormalMask(n)
	img := NewRGB(n.Size)
	for i, ok := range valid.Valid {
		if !ok {
			img.set(i, Neutral, Neutral, Neutral)
			continue
		}
		img.set(i, (n.X[i]+1)/2, (n.Y[i]+1)/2, n.Z[i])
	}
	return img
}
