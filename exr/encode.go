package exr

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/x448/float16"
)

// ChannelData is a full-resolution channel to be written.  Values are converted to
// the channel's pixel type on write.
type ChannelData struct {
	Name   string
	Type   PixelType
	Values []float32
}

// Write encodes a scanline OpenEXR file covering the data window dw.  Channels are
// stored in name order as the format requires.  Only NoCompression and ZIP are
// supported.
func Write(w io.Writer, dw Box, channels []ChannelData, c Compression) error {
	if c != NoCompression && c != ZIP {
		return fmt.Errorf("writing %s compression is not supported", c)
	}
	size := dw.Size()
	if size.Width <= 0 || size.Height <= 0 {
		return fmt.Errorf("data window %v has non-positive extent", dw)
	}
	if len(channels) == 0 {
		return fmt.Errorf("no channels to write")
	}
	byName := make(map[string]ChannelData, len(channels))
	h := &Header{Compression: c, DataWindow: dw, DisplayWindow: dw}
	for _, ch := range channels {
		if len(ch.Values) != size.NumPixels() {
			return fmt.Errorf("channel %q has %d values, data window needs %d", ch.Name, len(ch.Values), size.NumPixels())
		}
		if _, dup := byName[ch.Name]; dup {
			return fmt.Errorf("duplicate channel %q", ch.Name)
		}
		byName[ch.Name] = ch
		h.Channels = append(h.Channels, ChannelInfo{Name: ch.Name, Type: ch.Type, XSampling: 1, YSampling: 1})
	}
	sortChannels(h.Channels)

	lpc := c.linesPerChunk()
	var chunks [][]byte
	for y0 := 0; y0 < size.Height; y0 += lpc {
		var raw []byte
		for row := y0; row < y0+lpc && row < size.Height; row++ {
			for _, ci := range h.Channels {
				vals := byName[ci.Name].Values[row*size.Width : (row+1)*size.Width]
				raw = appendSamples(raw, ci.Type, vals)
			}
		}
		packed := raw
		if c == ZIP {
			var err error
			if packed, err = compressZip(raw); err != nil {
				return err
			}
		}
		chunk := binary.LittleEndian.AppendUint32(nil, uint32(dw.YMin+int32(y0)))
		chunk = binary.LittleEndian.AppendUint32(chunk, uint32(len(packed)))
		chunks = append(chunks, append(chunk, packed...))
	}

	buf := writeHeader(nil, h)
	offset := uint64(len(buf) + 8*len(chunks))
	for _, chunk := range chunks {
		buf = binary.LittleEndian.AppendUint64(buf, offset)
		offset += uint64(len(chunk))
	}
	for _, chunk := range chunks {
		buf = append(buf, chunk...)
	}
	_, err := w.Write(buf)
	return err
}

// WriteFile writes an OpenEXR file at path.
func WriteFile(path string, dw Box, channels []ChannelData, c Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, dw, channels, c); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func appendSamples(buf []byte, t PixelType, vals []float32) []byte {
	for _, v := range vals {
		switch t {
		case Half:
			buf = binary.LittleEndian.AppendUint16(buf, float16.Fromfloat32(v).Bits())
		case Float:
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		case Uint:
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		}
	}
	return buf
}
