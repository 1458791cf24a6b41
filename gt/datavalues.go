package gt

import "fmt"

// DataType is the numeric type of each value within a field, e.g., a uint8 or a float32.
type DataType uint8

const (
	T_uint8 DataType = iota
	T_int32
	T_float32
	T_float64
)

var typeBytes = map[DataType]int{
	T_uint8:   1,
	T_int32:   4,
	T_float32: 4,
	T_float64: 8,
}

// DataTypeBytes returns the # of bytes for a given type.
func DataTypeBytes(t DataType) int {
	return typeBytes[t]
}

func (t DataType) String() string {
	switch t {
	case T_uint8:
		return "uint8"
	case T_int32:
		return "int32"
	case T_float32:
		return "float32"
	case T_float64:
		return "float64"
	default:
		return fmt.Sprintf("unknown data type %d", uint8(t))
	}
}

// Modality is one category of per-pixel ground-truth data.
type Modality uint8

const (
	Image Modality = iota
	Depth
	Label
	Normal
	Flow
)

// Modalities lists every modality in capture order.
var Modalities = []Modality{Image, Depth, Label, Normal, Flow}

var modalityNames = [...]string{"image", "depth", "label", "normal", "flow"}

// String returns the lowercase name used as file prefix and archive key.
func (m Modality) String() string {
	if int(m) < len(modalityNames) {
		return modalityNames[m]
	}
	return fmt.Sprintf("modality(%d)", uint8(m))
}

// ParseModality returns the modality with the given name.
func ParseModality(s string) (Modality, error) {
	for i, name := range modalityNames {
		if name == s {
			return Modality(i), nil
		}
	}
	return 0, fmt.Errorf("unknown modality %q", s)
}

// Ext returns the extension of the raw per-frame file for the modality.  The color
// image is a lossless raster; everything else is a multi-channel float container.
func (m Modality) Ext() string {
	if m == Image {
		return "png"
	}
	return "exr"
}

// Channels returns the number of values per pixel.
func (m Modality) Channels() int {
	switch m {
	case Image, Normal:
		return 3
	case Flow:
		return 4
	default:
		return 1
	}
}

// DataType returns the in-memory numeric type of the modality's values.
func (m Modality) DataType() DataType {
	switch m {
	case Image:
		return T_uint8
	case Label:
		return T_int32
	default:
		return T_float32
	}
}
