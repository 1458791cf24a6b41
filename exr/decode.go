package exr

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/x448/float16"

	"github.com/janelia-flyem/gtbundle/gt"
)

// File is a decoded OpenEXR header plus its still-packed pixel chunks.
type File struct {
	hdr Header

	path    string
	data    []byte
	offsets []uint64
	planes  map[string][]byte
}

// Channel holds the samples of one channel in row-major order, top row first.
type Channel struct {
	Name string
	Type PixelType
	Size gt.Size

	data []byte
}

// Open reads and parses the OpenEXR file at path.  The file is not modified.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &gt.DecodeError{Where: gt.Where{Frame: gt.NoFrame, Path: path}, Err: err}
	}
	return Decode(data, path)
}

// Decode parses an OpenEXR file held in memory.  The path is only used in errors.
func Decode(data []byte, path string) (*File, error) {
	r := &reader{buf: data}
	h, err := readHeader(r)
	if err != nil {
		return nil, gt.NewDecodeError(path, "%v", err)
	}
	size := h.DataWindow.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return nil, gt.NewDecodeError(path, "data window %v has non-positive extent %s", h.DataWindow, size)
	}
	lpc := h.Compression.linesPerChunk()
	numChunks := (size.Height + lpc - 1) / lpc
	if numChunks > (len(data)-r.pos)/8 {
		return nil, gt.NewDecodeError(path, "data window %v needs %d chunks, file has %d bytes left",
			h.DataWindow, numChunks, len(data)-r.pos)
	}
	if err := checkPixelBytes(h, len(data)); err != nil {
		return nil, gt.NewDecodeError(path, "%v", err)
	}
	offsets := make([]uint64, numChunks)
	for i := range offsets {
		offsets[i] = r.uint64()
	}
	if r.err != nil {
		return nil, gt.NewDecodeError(path, "reading line offset table: %v", r.err)
	}
	return &File{hdr: *h, path: path, data: data, offsets: offsets}, nil
}

// Header returns the parsed header attributes.
func (f *File) Header() Header {
	return f.hdr
}

// Size returns the data window extent, max-min+1 per axis.
func (f *File) Size() gt.Size {
	return f.hdr.DataWindow.Size()
}

// Channels returns one channel per requested name, in request order.  A missing name
// is a gt.DecodeError; a subsampled channel, whose grid differs from the data window,
// is a gt.ShapeMismatchError.
func (f *File) Channels(names ...string) ([]Channel, error) {
	size := f.Size()
	for _, name := range names {
		i := f.hdr.channel(name)
		if i < 0 {
			return nil, gt.NewDecodeError(f.path, "no channel %q (have %s)", name, f.channelNames())
		}
		ci := f.hdr.Channels[i]
		if ci.XSampling != 1 || ci.YSampling != 1 {
			got := gt.Size{
				Width:  sampleCount(f.hdr.DataWindow.XMin, f.hdr.DataWindow.XMax, ci.XSampling),
				Height: sampleCount(f.hdr.DataWindow.YMin, f.hdr.DataWindow.YMax, ci.YSampling),
			}
			return nil, gt.NewShapeMismatchError(f.path, "channel "+name, size, got)
		}
	}
	if f.planes == nil {
		if err := f.decodePixels(); err != nil {
			return nil, err
		}
	}
	out := make([]Channel, len(names))
	for n, name := range names {
		ci := f.hdr.Channels[f.hdr.channel(name)]
		plane := f.planes[name]
		if len(plane) != size.NumPixels()*ci.Type.Bytes() {
			return nil, gt.NewShapeMismatchError(f.path, "channel "+name, size,
				gt.Size{Width: size.Width, Height: len(plane) / (size.Width * ci.Type.Bytes())})
		}
		out[n] = Channel{Name: name, Type: ci.Type, Size: size, data: plane}
	}
	return out, nil
}

func (f *File) channelNames() []string {
	names := make([]string, len(f.hdr.Channels))
	for i, ci := range f.hdr.Channels {
		names[i] = ci.Name
	}
	return names
}

// lineBytes returns the packed size of scanline y.
func (f *File) lineBytes(y int32) int {
	var n int
	for _, ci := range f.hdr.Channels {
		if mod(y, ci.YSampling) != 0 {
			continue
		}
		n += sampleCount(f.hdr.DataWindow.XMin, f.hdr.DataWindow.XMax, ci.XSampling) * ci.Type.Bytes()
	}
	return n
}

// decodePixels uncompresses every chunk and splits scanlines into per-channel planes.
// Only full-resolution channels are kept.
func (f *File) decodePixels() error {
	dw := f.hdr.DataWindow
	size := f.Size()
	lpc := int32(f.hdr.Compression.linesPerChunk())

	planes := make(map[string][]byte)
	for _, ci := range f.hdr.Channels {
		if ci.XSampling == 1 && ci.YSampling == 1 {
			planes[ci.Name] = make([]byte, size.NumPixels()*ci.Type.Bytes())
		}
	}
	filled := make([]bool, size.Height)

	for i, off := range f.offsets {
		r := &reader{buf: f.data, pos: int(off)}
		if off == 0 || off >= uint64(len(f.data)) {
			return gt.NewDecodeError(f.path, "chunk %d has invalid offset %d", i, off)
		}
		y := r.int32()
		packedSize := int(r.int32())
		packed := r.take(packedSize)
		if r.err != nil {
			return gt.NewDecodeError(f.path, "chunk %d: %v", i, r.err)
		}
		if y < dw.YMin || y > dw.YMax || mod(y-dw.YMin, lpc) != 0 {
			return gt.NewDecodeError(f.path, "chunk %d starts at invalid scanline %d", i, y)
		}
		last := y + lpc - 1
		if last > dw.YMax {
			last = dw.YMax
		}
		var rawSize int
		for line := y; line <= last; line++ {
			rawSize += f.lineBytes(line)
		}
		raw, err := uncompress(f.hdr.Compression, packed, rawSize)
		if err != nil {
			return gt.NewDecodeError(f.path, "chunk %d: %v", i, err)
		}

		pos := 0
		for line := y; line <= last; line++ {
			row := int(line - dw.YMin)
			for _, ci := range f.hdr.Channels {
				if mod(line, ci.YSampling) != 0 {
					continue
				}
				n := sampleCount(dw.XMin, dw.XMax, ci.XSampling) * ci.Type.Bytes()
				if plane, ok := planes[ci.Name]; ok {
					copy(plane[row*n:(row+1)*n], raw[pos:pos+n])
				}
				pos += n
			}
			filled[row] = true
		}
	}
	for row, ok := range filled {
		if !ok {
			return gt.NewDecodeError(f.path, "scanline %d missing from file", int(dw.YMin)+row)
		}
	}
	f.planes = planes
	return nil
}

// Float32 returns the samples converted to float32.  HALF and FLOAT samples convert
// exactly.
func (c *Channel) Float32() []float32 {
	n := c.Size.NumPixels()
	out := make([]float32, n)
	switch c.Type {
	case Half:
		for i := range out {
			out[i] = float16.Frombits(binary.LittleEndian.Uint16(c.data[2*i:])).Float32()
		}
	case Float:
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(c.data[4*i:]))
		}
	case Uint:
		for i := range out {
			out[i] = float32(binary.LittleEndian.Uint32(c.data[4*i:]))
		}
	}
	return out
}

// Int32 returns the samples converted to int32.  Floating-point samples are truncated
// toward zero.
func (c *Channel) Int32() []int32 {
	n := c.Size.NumPixels()
	out := make([]int32, n)
	switch c.Type {
	case Uint:
		for i := range out {
			out[i] = int32(binary.LittleEndian.Uint32(c.data[4*i:]))
		}
	default:
		for i, v := range c.Float32() {
			out[i] = int32(v)
		}
	}
	return out
}

func (c *Channel) String() string {
	return fmt.Sprintf("%s (%s, %s)", c.Name, c.Type, c.Size)
}

// maxExpansion is the largest ratio of raw to packed bytes a compression method
// can produce.  zlib tops out near 1032:1; an RLE run expands 2 bytes to 128.
func maxExpansion(c Compression) int {
	switch c {
	case ZIP, ZIPS:
		return 1032
	case RLE:
		return 64
	default:
		return 1
	}
}

// checkPixelBytes rejects headers whose uncompressed pixel data could not have come
// from a file of fileSize bytes, before any buffer of that size is allocated.
func checkPixelBytes(h *Header, fileSize int) error {
	limit := fileSize * maxExpansion(h.Compression)
	dw := h.DataWindow
	var total int
	for _, ci := range h.Channels {
		w := sampleCount(dw.XMin, dw.XMax, ci.XSampling)
		rows := sampleCount(dw.YMin, dw.YMax, ci.YSampling)
		if w <= 0 || rows <= 0 {
			continue
		}
		row := w * ci.Type.Bytes()
		if rows > (limit-total)/row {
			return fmt.Errorf("data window %v of channel %q holds more pixel data than a %d byte %s file can",
				dw, ci.Name, fileSize, h.Compression)
		}
		total += rows * row
	}
	return nil
}

// mod returns the non-negative remainder of a / b.
func mod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// sampleCount returns the number of multiples of s in [min, max].
func sampleCount(min, max, s int32) int {
	floorDiv := func(a, b int32) int32 {
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return q
	}
	return int(floorDiv(max, s) - floorDiv(min-1, s))
}
