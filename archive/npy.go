package archive

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/janelia-flyem/gtbundle/gt"
)

var npyMagic = []byte("\x93NUMPY")

// npyAlign is the alignment of the header plus preamble required by NumPy >= 1.14.
const npyAlign = 64

var descrs = map[gt.DataType]string{
	gt.T_uint8:   "|u1",
	gt.T_int32:   "<i4",
	gt.T_float32: "<f4",
	gt.T_float64: "<f8",
}

// Array is one named n-dimensional array of an archive.
type Array struct {
	Name  string
	Type  gt.DataType
	Shape []int

	data []byte
}

// NumElements returns the product of the shape.
func (a *Array) NumElements() int {
	n := 1
	for _, d := range a.Shape {
		n *= d
	}
	return n
}

func shapeTuple(shape []int) string {
	switch len(shape) {
	case 0:
		return "()"
	case 1:
		return fmt.Sprintf("(%d,)", shape[0])
	}
	dims := make([]string, len(shape))
	for i, d := range shape {
		dims[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(dims, ", ") + ")"
}

// encodeNPY returns the array in .npy format version 1.0.
func encodeNPY(a *Array) ([]byte, error) {
	descr, ok := descrs[a.Type]
	if !ok {
		return nil, fmt.Errorf("array %q has unsupported type %s", a.Name, a.Type)
	}
	if want := a.NumElements() * gt.DataTypeBytes(a.Type); len(a.data) != want {
		return nil, fmt.Errorf("array %q has %d bytes, shape %v needs %d", a.Name, len(a.data), a.Shape, want)
	}
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, shapeTuple(a.Shape))
	preamble := len(npyMagic) + 2 + 2
	pad := npyAlign - (preamble+len(dict)+1)%npyAlign
	if pad == npyAlign {
		pad = 0
	}
	header := dict + strings.Repeat(" ", pad) + "\n"

	var buf bytes.Buffer
	buf.Grow(preamble + len(header) + len(a.data))
	buf.Write(npyMagic)
	buf.Write([]byte{1, 0})
	binary.Write(&buf, binary.LittleEndian, uint16(len(header)))
	buf.WriteString(header)
	buf.Write(a.data)
	return buf.Bytes(), nil
}

// decodeNPY parses a .npy file written by encodeNPY or NumPy (version 1.0 - 3.0,
// C order, little endian).
func decodeNPY(name string, b []byte) (*Array, error) {
	if len(b) < 10 || !bytes.Equal(b[:6], npyMagic) {
		return nil, fmt.Errorf("%s: not a .npy array", name)
	}
	var hlen, start int
	switch b[6] {
	case 1:
		hlen, start = int(binary.LittleEndian.Uint16(b[8:10])), 10
	case 2, 3:
		if len(b) < 12 {
			return nil, fmt.Errorf("%s: truncated header", name)
		}
		hlen, start = int(binary.LittleEndian.Uint32(b[8:12])), 12
	default:
		return nil, fmt.Errorf("%s: unsupported .npy version %d", name, b[6])
	}
	if start+hlen > len(b) {
		return nil, fmt.Errorf("%s: truncated header", name)
	}
	header := string(b[start : start+hlen])

	a := &Array{Name: name, data: b[start+hlen:]}
	descr, err := dictValue(header, "descr")
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	descr = strings.Trim(descr, "'\"")
	found := false
	for t, d := range descrs {
		if d == descr {
			a.Type, found = t, true
		}
	}
	if !found {
		return nil, fmt.Errorf("%s: unsupported dtype %q", name, descr)
	}
	if order, err := dictValue(header, "fortran_order"); err != nil || order != "False" {
		return nil, fmt.Errorf("%s: only C-ordered arrays are supported", name)
	}
	shape, err := dictValue(header, "shape")
	if err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	for _, dim := range strings.Split(strings.Trim(shape, "()"), ",") {
		dim = strings.TrimSpace(dim)
		if dim == "" {
			continue
		}
		d, err := strconv.Atoi(dim)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%s: bad shape %s", name, shape)
		}
		a.Shape = append(a.Shape, d)
	}
	if want := a.NumElements() * gt.DataTypeBytes(a.Type); len(a.data) != want {
		return nil, fmt.Errorf("%s: %d data bytes, shape %v needs %d", name, len(a.data), a.Shape, want)
	}
	return a, nil
}

// dictValue extracts the raw value of key from a NumPy header dict literal.
func dictValue(header, key string) (string, error) {
	i := strings.Index(header, "'"+key+"'")
	if i < 0 {
		return "", fmt.Errorf("header has no %q", key)
	}
	rest := strings.TrimSpace(header[i+len(key)+2:])
	if !strings.HasPrefix(rest, ":") {
		return "", fmt.Errorf("malformed header near %q", key)
	}
	rest = strings.TrimSpace(rest[1:])
	end := strings.IndexAny(rest, ",}")
	if strings.HasPrefix(rest, "(") {
		end = strings.Index(rest, ")") + 1
	}
	if end <= 0 {
		return "", fmt.Errorf("malformed header near %q", key)
	}
	return strings.TrimSpace(rest[:end]), nil
}

func float32Bytes(vals []float32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(v))
	}
	return b
}

func int32Bytes(vals []int32) []byte {
	b := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	return b
}

func float64Bytes(vals []float64) []byte {
	b := make([]byte, 8*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b[8*i:], math.Float64bits(v))
	}
	return b
}

// interleave packs planar channels into one pixel-interleaved slice.
func interleave(planes ...[]float32) []float32 {
	if len(planes) == 0 {
		return nil
	}
	n := len(planes[0])
	out := make([]float32, n*len(planes))
	for c, p := range planes {
		for i, v := range p {
			out[i*len(planes)+c] = v
		}
	}
	return out
}

// Float32 returns the elements of a float32 array.
func (a *Array) Float32() ([]float32, error) {
	if a.Type != gt.T_float32 {
		return nil, fmt.Errorf("array %q is %s, not float32", a.Name, a.Type)
	}
	out := make([]float32, a.NumElements())
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(a.data[4*i:]))
	}
	return out, nil
}

// Float64 returns the elements of a float64 array.
func (a *Array) Float64() ([]float64, error) {
	if a.Type != gt.T_float64 {
		return nil, fmt.Errorf("array %q is %s, not float64", a.Name, a.Type)
	}
	out := make([]float64, a.NumElements())
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(a.data[8*i:]))
	}
	return out, nil
}

// Int32 returns the elements of an int32 array.
func (a *Array) Int32() ([]int32, error) {
	if a.Type != gt.T_int32 {
		return nil, fmt.Errorf("array %q is %s, not int32", a.Name, a.Type)
	}
	out := make([]int32, a.NumElements())
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(a.data[4*i:]))
	}
	return out, nil
}

// Uint8 returns the elements of a uint8 array.
func (a *Array) Uint8() ([]uint8, error) {
	if a.Type != gt.T_uint8 {
		return nil, fmt.Errorf("array %q is %s, not uint8", a.Name, a.Type)
	}
	return append([]uint8(nil), a.data...), nil
}
