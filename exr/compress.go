package exr

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// uncompress returns the raw scanline bytes of one chunk.  rawSize is the size the
// chunk has without compression; a chunk whose packed size equals rawSize was
// stored uncompressed by the writer.
func uncompress(c Compression, packed []byte, rawSize int) ([]byte, error) {
	if c == NoCompression || len(packed) == rawSize {
		if len(packed) != rawSize {
			return nil, fmt.Errorf("chunk holds %d bytes, expected %d", len(packed), rawSize)
		}
		return packed, nil
	}
	var tmp []byte
	switch c {
	case ZIP, ZIPS:
		zr, err := zlib.NewReader(bytes.NewReader(packed))
		if err != nil {
			return nil, fmt.Errorf("zlib: %v", err)
		}
		tmp = make([]byte, rawSize)
		if _, err := io.ReadFull(zr, tmp); err != nil {
			return nil, fmt.Errorf("zlib: %v", err)
		}
		zr.Close()
	case RLE:
		var err error
		if tmp, err = rleDecode(packed, rawSize); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%s compression is not supported", c)
	}
	undoPredictor(tmp)
	return deinterleave(tmp), nil
}

// rleDecode expands run-length encoded bytes: a negative count byte is followed by
// -count literal bytes, a non-negative count by one byte repeated count+1 times.
func rleDecode(in []byte, rawSize int) ([]byte, error) {
	out := make([]byte, 0, rawSize)
	for len(in) > 0 {
		count := int(int8(in[0]))
		in = in[1:]
		if count < 0 {
			n := -count
			if n > len(in) || len(out)+n > rawSize {
				return nil, fmt.Errorf("rle: literal run overflows chunk")
			}
			out = append(out, in[:n]...)
			in = in[n:]
			continue
		}
		if len(in) == 0 || len(out)+count+1 > rawSize {
			return nil, fmt.Errorf("rle: repeat run overflows chunk")
		}
		for i := 0; i <= count; i++ {
			out = append(out, in[0])
		}
		in = in[1:]
	}
	if len(out) != rawSize {
		return nil, fmt.Errorf("rle: got %d bytes, expected %d", len(out), rawSize)
	}
	return out, nil
}

// undoPredictor reverses the byte-delta predictor applied before compression.
func undoPredictor(t []byte) {
	for i := 1; i < len(t); i++ {
		t[i] = byte(int(t[i-1]) + int(t[i]) - 128)
	}
}

// applyPredictor replaces each byte after the first by its delta to the previous one.
func applyPredictor(t []byte) {
	if len(t) == 0 {
		return
	}
	p := t[0]
	for i := 1; i < len(t); i++ {
		d := int(t[i]) - int(p) + (128 + 256)
		p = t[i]
		t[i] = byte(d)
	}
}

// deinterleave merges the two halves written by interleave back into one stream.
func deinterleave(t []byte) []byte {
	out := make([]byte, len(t))
	half := (len(t) + 1) / 2
	for i := range out {
		if i%2 == 0 {
			out[i] = t[i/2]
		} else {
			out[i] = t[half+i/2]
		}
	}
	return out
}

// interleave moves even-indexed bytes to the first half and odd-indexed bytes to
// the second half.
func interleave(raw []byte) []byte {
	out := make([]byte, len(raw))
	half := (len(raw) + 1) / 2
	for i, b := range raw {
		if i%2 == 0 {
			out[i/2] = b
		} else {
			out[half+i/2] = b
		}
	}
	return out
}

// compressZip packs a raw chunk, falling back to the raw bytes when compression
// does not make it smaller.
func compressZip(raw []byte) ([]byte, error) {
	tmp := interleave(raw)
	applyPredictor(tmp)
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(tmp); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(raw) {
		return raw, nil
	}
	return buf.Bytes(), nil
}
