package exr

import (
	"bytes"
	"encoding/binary"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/janelia-flyem/gtbundle/gt"
)

func ramp(n int, scale float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = float32(i) * scale
	}
	return v
}

func uniform(n int, value float32) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = value
	}
	return v
}

func encode(t *testing.T, dw Box, chans []ChannelData, c Compression) []byte {
	var buf bytes.Buffer
	if err := Write(&buf, dw, chans, c); err != nil {
		t.Fatalf("unable to write exr: %v", err)
	}
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	dw := Box{XMin: 10, YMin: -3, XMax: 14, YMax: 33} // 5x37, spans several ZIP chunks
	size := dw.Size()
	n := size.NumPixels()
	chans := []ChannelData{
		{Name: "R", Type: Float, Values: ramp(n, 0.25)},
		{Name: "G", Type: Half, Values: ramp(n, 0.5)},
		{Name: "A", Type: Uint, Values: ramp(n, 1)},
		{Name: "B", Type: Float, Values: uniform(n, 3.5)},
	}
	for _, c := range []Compression{NoCompression, ZIP} {
		f, err := Decode(encode(t, dw, chans, c), "ramp.exr")
		if err != nil {
			t.Fatalf("%s: decode failed: %v", c, err)
		}
		if f.Size() != size {
			t.Fatalf("%s: expected size %s, got %s", c, size, f.Size())
		}
		if got := f.Header().Compression; got != c {
			t.Errorf("expected compression %s, got %s", c, got)
		}
		got, err := f.Channels("R", "G", "B", "A")
		if err != nil {
			t.Fatalf("%s: channels failed: %v", c, err)
		}
		for i, name := range []string{"R", "G", "B", "A"} {
			if got[i].Name != name {
				t.Errorf("channel %d: expected %s, got %s", i, name, got[i].Name)
			}
		}
		if !reflect.DeepEqual(got[0].Float32(), chans[0].Values) {
			t.Errorf("%s: float channel did not round trip", c)
		}
		if !reflect.DeepEqual(got[1].Float32(), chans[1].Values) {
			t.Errorf("%s: half channel did not round trip", c)
		}
		for i, v := range got[2].Float32() {
			if v != 3.5 {
				t.Fatalf("%s: pixel %d of uniform channel is %g", c, i, v)
			}
		}
		ints := got[3].Int32()
		for i, v := range ints {
			if v != int32(i) {
				t.Fatalf("%s: uint pixel %d is %d", c, i, v)
			}
		}
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "depth0001.exr")
	dw := Box{0, 0, 1, 1}
	vals := []float32{1, 1e10, 1e10, 2}
	if err := WriteFile(path, dw, []ChannelData{{Name: "R", Type: Float, Values: vals}}, ZIP); err != nil {
		t.Fatal(err)
	}
	f, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	chans, err := f.Channels("R")
	if err != nil {
		t.Fatal(err)
	}
	if got := chans[0].Float32(); !reflect.DeepEqual(got, vals) {
		t.Errorf("expected %v, got %v", vals, got)
	}
	if _, err := Open(filepath.Join(t.TempDir(), "missing.exr")); err == nil {
		t.Errorf("expected error opening missing file")
	}
}

func TestMissingChannel(t *testing.T) {
	data := encode(t, Box{0, 0, 1, 1}, []ChannelData{{Name: "R", Type: Float, Values: uniform(4, 1)}}, NoCompression)
	f, err := Decode(data, "depth0002.exr")
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Channels("R", "A")
	var de *gt.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %v", err)
	}
	if de.Path != "depth0002.exr" {
		t.Errorf("expected path in error, got %q", de.Path)
	}
}

func TestBadDataWindow(t *testing.T) {
	h := &Header{
		Channels:    []ChannelInfo{{Name: "R", Type: Float, XSampling: 1, YSampling: 1}},
		Compression: NoCompression,
		DataWindow:  Box{XMin: 5, YMin: 0, XMax: 4, YMax: 3},
	}
	_, err := Decode(writeHeader(nil, h), "bad.exr")
	var de *gt.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for empty data window, got %v", err)
	}
}

func TestSubsampledChannel(t *testing.T) {
	h := &Header{
		Channels: []ChannelInfo{
			{Name: "B", Type: Float, XSampling: 2, YSampling: 2},
			{Name: "R", Type: Float, XSampling: 1, YSampling: 1},
		},
		Compression: NoCompression,
		DataWindow:  Box{0, 0, 3, 3},
	}
	data := writeHeader(nil, h)
	data = append(data, make([]byte, 8*4)...) // offset table, never read
	f, err := Decode(data, "flow0001.exr")
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.Channels("R", "B")
	var se *gt.ShapeMismatchError
	if !errors.As(err, &se) {
		t.Fatalf("expected ShapeMismatchError, got %v", err)
	}
	if se.Got != (gt.Size{Width: 2, Height: 2}) || se.Want != (gt.Size{Width: 4, Height: 4}) {
		t.Errorf("unexpected sizes in %v", se)
	}
}

func TestRejectsUnsupported(t *testing.T) {
	data := encode(t, Box{0, 0, 1, 1}, []ChannelData{{Name: "R", Type: Float, Values: uniform(4, 1)}}, NoCompression)

	tiled := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(tiled[4:], 2|tiledFlag)
	if _, err := Decode(tiled, "tiled.exr"); err == nil {
		t.Errorf("expected tiled file to be rejected")
	}

	if _, err := Decode([]byte("not an exr file"), "junk.exr"); err == nil {
		t.Errorf("expected junk to be rejected")
	}

	if _, err := Decode(data[:len(data)-3], "short.exr"); err != nil {
		t.Fatalf("header should still parse: %v", err)
	}
	f, _ := Decode(data[:len(data)-3], "short.exr")
	if _, err := f.Channels("R"); err == nil {
		t.Errorf("expected truncated pixel data to fail")
	}

	if err := Write(&bytes.Buffer{}, Box{0, 0, 1, 1}, []ChannelData{{Name: "R", Type: Float, Values: uniform(4, 1)}}, PIZ); err == nil {
		t.Errorf("expected PIZ write to be rejected")
	}
}

func TestPredictorInterleave(t *testing.T) {
	raw := []byte{0, 1, 2, 3, 250, 7, 7, 7, 9}
	tmp := interleave(raw)
	applyPredictor(tmp)
	undoPredictor(tmp)
	if got := deinterleave(tmp); !bytes.Equal(got, raw) {
		t.Errorf("expected %v, got %v", raw, got)
	}
}

func TestRLEDecode(t *testing.T) {
	// 3 literal bytes, then byte 9 repeated 4 times.
	packed := []byte{0xfd, 1, 2, 3, 3, 9}
	got, err := rleDecode(packed, 7)
	if err != nil {
		t.Fatal(err)
	}
	if want := []byte{1, 2, 3, 9, 9, 9, 9}; !bytes.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if _, err := rleDecode(packed, 5); err == nil {
		t.Errorf("expected overflow error")
	}
}

func TestSampleCount(t *testing.T) {
	tests := []struct {
		min, max, s int32
		want        int
	}{
		{0, 3, 1, 4},
		{0, 3, 2, 2},
		{-3, 3, 2, 3},
		{1, 1, 2, 0},
	}
	for _, tc := range tests {
		if got := sampleCount(tc.min, tc.max, tc.s); got != tc.want {
			t.Errorf("sampleCount(%d,%d,%d) = %d, want %d", tc.min, tc.max, tc.s, got, tc.want)
		}
	}
}

// headerOnly returns a file with the given header followed by n zero offsets.
func headerOnly(h *Header, n int) []byte {
	buf := writeHeader(nil, h)
	for i := 0; i < n; i++ {
		buf = binary.LittleEndian.AppendUint64(buf, 0)
	}
	return buf
}

func TestHugeDataWindow(t *testing.T) {
	red := []ChannelInfo{{Name: "R", Type: Float, XSampling: 1, YSampling: 1}}
	tests := []struct {
		name string
		hdr  Header
		n    int
	}{
		{"tall window, offset table missing", Header{Channels: red, DataWindow: Box{0, 0, 0, 0x7ffffff0}}, 1},
		{"wide window, one chunk", Header{Channels: red, DataWindow: Box{0, 0, 0x7ffffff0, 0}}, 1},
		{"extreme corners", Header{Channels: red, DataWindow: Box{-0x7fffffff, -0x7fffffff, 0x7fffffff, 0}}, 1},
		{"zip window beyond expansion limit", Header{Channels: red, Compression: ZIP, DataWindow: Box{0, 0, 1 << 20, 15}}, 1},
	}
	for _, tc := range tests {
		_, err := Decode(headerOnly(&tc.hdr, tc.n), "huge.exr")
		var de *gt.DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%s: expected DecodeError, got %v", tc.name, err)
			continue
		}
		if de.Path != "huge.exr" {
			t.Errorf("%s: expected path in error, got %q", tc.name, de.Path)
		}
	}
}

func TestTruncatedChunks(t *testing.T) {
	dw := Box{XMax: 63, YMax: 63}
	n := dw.Size().NumPixels()
	data := encode(t, dw, []ChannelData{{Name: "R", Type: Float, Values: ramp(n, 1)}}, NoCompression)
	f, err := Decode(data[:len(data)/2], "short.exr")
	if err == nil {
		_, err = f.Channels("R")
	}
	var de *gt.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for truncated file, got %v", err)
	}
}
