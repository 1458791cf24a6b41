package modality

import (
	"fmt"

	"github.com/janelia-flyem/gtbundle/gt"
)

// DepthMask marks depth samples below the far sentinel as valid.  Samples equal to
// the sentinel are invalid.
func DepthMask(d *gt.DepthField, far float32) *gt.Mask {
	m := gt.NewMask(d.Size)
	for i, v := range d.Data {
		m.Valid[i] = v < far
	}
	return m
}

// LabelMask marks non-background labels as valid.
func LabelMask(l *gt.LabelField) *gt.Mask {
	m := gt.NewMask(l.Size)
	for i, v := range l.Data {
		m.Valid[i] = v != gt.NoLabel
	}
	return m
}

// NormalMask marks every pixel whose normal is not exactly the zero vector as valid.
func NormalMask(n *gt.NormalField) *gt.Mask {
	m := gt.NewMask(n.Size)
	for i := range m.Valid {
		m.Valid[i] = n.X[i] != 0 || n.Y[i] != 0 || n.Z[i] != 0
	}
	return m
}

// FlowMask marks flow vectors with non-zero squared magnitude as valid.
func FlowMask(u, v []float32, size gt.Size) *gt.Mask {
	m := gt.NewMask(size)
	for i := range m.Valid {
		m.Valid[i] = u[i]*u[i]+v[i]*v[i] != 0
	}
	return m
}

// EscapeDepth returns a copy of d in which every sample at or beyond far is replaced
// by gt.DepthEscape, the value persisted for "no geometry".  The source field is not
// modified.  A valid sample already equal to gt.DepthEscape would be indistinguishable
// after escaping and is reported as an error.
func EscapeDepth(d *gt.DepthField, far float32) (*gt.DepthField, error) {
	out := &gt.DepthField{Size: d.Size, Data: make([]float32, len(d.Data))}
	for i, v := range d.Data {
		switch {
		case v >= far:
			out.Data[i] = gt.DepthEscape
		case v == gt.DepthEscape:
			row, col := i/d.Width, i%d.Width
			return nil, fmt.Errorf("valid depth at pixel (%d,%d) equals escape value %g", row, col, gt.DepthEscape)
		default:
			out.Data[i] = v
		}
	}
	return out, nil
}
