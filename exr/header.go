package exr

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"github.com/janelia-flyem/gtbundle/gt"
)

const (
	magicNumber = 20000630

	versionMask   = 0xff
	tiledFlag     = 0x200
	longNamesFlag = 0x400
	deepFlag      = 0x800
	multiPartFlag = 0x1000
)

// PixelType is the storage type of a channel's samples.
type PixelType int32

const (
	Uint  PixelType = 0
	Half  PixelType = 1
	Float PixelType = 2
)

// Bytes returns the size of one sample.
func (t PixelType) Bytes() int {
	if t == Half {
		return 2
	}
	return 4
}

func (t PixelType) String() string {
	switch t {
	case Uint:
		return "uint"
	case Half:
		return "half"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("pixel type %d", int32(t))
	}
}

// Compression is the per-chunk compression method of a file.
type Compression uint8

const (
	NoCompression Compression = iota
	RLE
	ZIPS
	ZIP
	PIZ
	PXR24
	B44
	B44A
	DWAA
	DWAB
)

var compressionNames = [...]string{"none", "rle", "zips", "zip", "piz", "pxr24", "b44", "b44a", "dwaa", "dwab"}

func (c Compression) String() string {
	if int(c) < len(compressionNames) {
		return compressionNames[c]
	}
	return fmt.Sprintf("compression %d", uint8(c))
}

// linesPerChunk returns the number of scanlines stored in one chunk.
func (c Compression) linesPerChunk() int {
	switch c {
	case ZIP, PXR24:
		return 16
	case PIZ, B44, B44A, DWAA:
		return 32
	case DWAB:
		return 256
	default:
		return 1
	}
}

// Box is an integer pixel rectangle with inclusive bounds.
type Box struct {
	XMin, YMin, XMax, YMax int32
}

// Size returns max-min+1 along each axis.  Either value may be non-positive for a
// malformed box.
func (b Box) Size() gt.Size {
	return gt.Size{Width: int(b.XMax) - int(b.XMin) + 1, Height: int(b.YMax) - int(b.YMin) + 1}
}

// ChannelInfo describes one channel of the file.
type ChannelInfo struct {
	Name      string
	Type      PixelType
	Linear    bool
	XSampling int32
	YSampling int32
}

// Header holds the attributes needed to locate and decode pixel data.
type Header struct {
	Channels      []ChannelInfo
	Compression   Compression
	DataWindow    Box
	DisplayWindow Box
	LineOrder     uint8
}

// channel returns the index of the named channel or -1.
func (h *Header) channel(name string) int {
	for i, ci := range h.Channels {
		if ci.Name == name {
			return i
		}
	}
	return -1
}

// reader is a bounds-checked little-endian cursor over the file contents.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("unexpected end of file at byte %d", r.pos)
		return nil
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *reader) uint8() uint8 {
	if b := r.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (r *reader) int32() int32 {
	if b := r.take(4); b != nil {
		return int32(binary.LittleEndian.Uint32(b))
	}
	return 0
}

func (r *reader) uint64() uint64 {
	if b := r.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *reader) cstring(max int) string {
	if r.err != nil {
		return ""
	}
	for i := r.pos; i < len(r.buf) && i-r.pos <= max; i++ {
		if r.buf[i] == 0 {
			s := string(r.buf[r.pos:i])
			r.pos = i + 1
			return s
		}
	}
	r.err = fmt.Errorf("unterminated string at byte %d", r.pos)
	return ""
}

func readBox(r *reader) Box {
	return Box{r.int32(), r.int32(), r.int32(), r.int32()}
}

func readChannels(r *reader, maxName int) ([]ChannelInfo, error) {
	var chans []ChannelInfo
	for {
		name := r.cstring(maxName)
		if r.err != nil {
			return nil, r.err
		}
		if name == "" {
			break
		}
		ci := ChannelInfo{Name: name}
		ci.Type = PixelType(r.int32())
		ci.Linear = r.uint8() != 0
		r.take(3)
		ci.XSampling = r.int32()
		ci.YSampling = r.int32()
		if r.err != nil {
			return nil, r.err
		}
		if ci.Type < Uint || ci.Type > Float {
			return nil, fmt.Errorf("channel %q has unknown pixel type %d", name, int32(ci.Type))
		}
		if ci.XSampling < 1 || ci.YSampling < 1 {
			return nil, fmt.Errorf("channel %q has invalid sampling %d,%d", name, ci.XSampling, ci.YSampling)
		}
		chans = append(chans, ci)
	}
	return chans, nil
}

// readHeader parses the magic number, version and attribute list.
func readHeader(r *reader) (*Header, error) {
	if r.int32() != magicNumber {
		return nil, fmt.Errorf("not an OpenEXR file")
	}
	version := r.int32()
	if r.err != nil {
		return nil, r.err
	}
	if version&versionMask != 2 {
		return nil, fmt.Errorf("unsupported OpenEXR version %d", version&versionMask)
	}
	switch {
	case version&tiledFlag != 0:
		return nil, fmt.Errorf("tiled files are not supported")
	case version&deepFlag != 0:
		return nil, fmt.Errorf("deep files are not supported")
	case version&multiPartFlag != 0:
		return nil, fmt.Errorf("multi-part files are not supported")
	}
	maxName := 31
	if version&longNamesFlag != 0 {
		maxName = 255
	}

	h := new(Header)
	seen := map[string]bool{}
	for {
		name := r.cstring(maxName)
		if r.err != nil {
			return nil, r.err
		}
		if name == "" {
			break
		}
		typ := r.cstring(maxName)
		size := int(r.int32())
		value := r.take(size)
		if r.err != nil {
			return nil, r.err
		}
		ar := &reader{buf: value}
		switch name {
		case "channels":
			chans, err := readChannels(ar, maxName)
			if err != nil {
				return nil, err
			}
			h.Channels = chans
		case "compression":
			h.Compression = Compression(ar.uint8())
		case "dataWindow":
			h.DataWindow = readBox(ar)
		case "displayWindow":
			h.DisplayWindow = readBox(ar)
		case "lineOrder":
			h.LineOrder = ar.uint8()
		default:
			continue
		}
		if ar.err != nil {
			return nil, fmt.Errorf("bad %s attribute %q: %v", typ, name, ar.err)
		}
		seen[name] = true
	}
	for _, required := range []string{"channels", "compression", "dataWindow"} {
		if !seen[required] {
			return nil, fmt.Errorf("missing required %q attribute", required)
		}
	}
	if h.Compression > DWAB {
		return nil, fmt.Errorf("unknown compression %d", uint8(h.Compression))
	}
	return h, nil
}

// writeHeader appends the magic number, version and attributes for a file with the
// given channels, which must already be sorted by name.
func writeHeader(buf []byte, h *Header) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, magicNumber)
	buf = binary.LittleEndian.AppendUint32(buf, 2)

	var chlist []byte
	for _, ci := range h.Channels {
		chlist = append(chlist, ci.Name...)
		chlist = append(chlist, 0)
		chlist = binary.LittleEndian.AppendUint32(chlist, uint32(ci.Type))
		var linear byte
		if ci.Linear {
			linear = 1
		}
		chlist = append(chlist, linear, 0, 0, 0)
		chlist = binary.LittleEndian.AppendUint32(chlist, uint32(ci.XSampling))
		chlist = binary.LittleEndian.AppendUint32(chlist, uint32(ci.YSampling))
	}
	chlist = append(chlist, 0)

	box := func(b Box) []byte {
		var v []byte
		for _, x := range []int32{b.XMin, b.YMin, b.XMax, b.YMax} {
			v = binary.LittleEndian.AppendUint32(v, uint32(x))
		}
		return v
	}
	f32 := func(fs ...float32) []byte {
		var v []byte
		for _, f := range fs {
			v = binary.LittleEndian.AppendUint32(v, math.Float32bits(f))
		}
		return v
	}
	attr := func(name, typ string, value []byte) {
		buf = append(buf, name...)
		buf = append(buf, 0)
		buf = append(buf, typ...)
		buf = append(buf, 0)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
		buf = append(buf, value...)
	}
	attr("channels", "chlist", chlist)
	attr("compression", "compression", []byte{byte(h.Compression)})
	attr("dataWindow", "box2i", box(h.DataWindow))
	attr("displayWindow", "box2i", box(h.DisplayWindow))
	attr("lineOrder", "lineOrder", []byte{h.LineOrder})
	attr("pixelAspectRatio", "float", f32(1))
	attr("screenWindowCenter", "v2f", f32(0, 0))
	attr("screenWindowWidth", "float", f32(1))
	return append(buf, 0)
}

func sortChannels(chans []ChannelInfo) {
	sort.Slice(chans, func(i, j int) bool { return chans[i].Name < chans[j].Name })
}
