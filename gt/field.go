package gt

import "fmt"

const (
	// DefaultFarSentinel is the depth at or beyond which a pixel is considered to
	// have hit no geometry.
	DefaultFarSentinel float32 = 1e10

	// DepthEscape is the value persisted for invalid depth samples.  It differs from
	// the detection threshold: far sentinel detects, DepthEscape is stored.
	DepthEscape float32 = -1

	// NoLabel marks background pixels of a label field.
	NoLabel int32 = 0
)

// Size is the pixel grid of a field.
type Size struct {
	Width, Height int
}

// NumPixels returns Width * Height.
func (s Size) NumPixels() int {
	return s.Width * s.Height
}

// Index returns the offset of pixel (row, col) in a row-major planar slice.
func (s Size) Index(row, col int) int {
	return row*s.Width + col
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// ColorImage is the rendered color image, interleaved RGB with 3 bytes per pixel.
type ColorImage struct {
	Size
	Pix []uint8
}

// DepthField holds distance-to-camera along the view ray for each pixel.
type DepthField struct {
	Size
	Data []float32
}

// LabelField holds semantic or instance identifiers.  NoLabel is background.
type LabelField struct {
	Size
	Data []int32
}

// NormalField holds unit surface normals as planar x, y, z channels.  The all-zero
// vector marks pixels without a surface.
type NormalField struct {
	Size
	X, Y, Z []float32
}

// FlowField holds backward and forward optical flow as planar channels.  Forward flow
// is in its true direction, i.e. the stored sign has already been inverted.
type FlowField struct {
	Size
	BackwardU, BackwardV []float32
	ForwardU, ForwardV   []float32
}

// Mask marks pixels that carry data.
type Mask struct {
	Size
	Valid []bool
}

// NewMask returns a mask of the given size with every pixel invalid.
func NewMask(size Size) *Mask {
	return &Mask{Size: size, Valid: make([]bool, size.NumPixels())}
}

// Count returns the number of valid pixels.
func (m *Mask) Count() int {
	var n int
	for _, v := range m.Valid {
		if v {
			n++
		}
	}
	return n
}

// Camera holds optional camera parameters for a frame: a row-major 3x3 intrinsic
// matrix and a row-major 4x4 camera-to-world extrinsic matrix.
type Camera struct {
	Intrinsic [9]float64
	Extrinsic [16]float64
}

// Invalid returns the complement of Valid: true where the pixel carries no data.
func (m *Mask) Invalid() []bool {
	inv := make([]bool, len(m.Valid))
	for i, v := range m.Valid {
		inv[i] = !v
	}
	return inv
}
