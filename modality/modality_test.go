package modality

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/janelia-flyem/gtbundle/exr"
	"github.com/janelia-flyem/gtbundle/gt"
)

func writeEXR(t *testing.T, dir string, m gt.Modality, size gt.Size, chans ...exr.ChannelData) string {
	path := gt.FrameFile(dir, m, 1)
	dw := exr.Box{XMax: int32(size.Width - 1), YMax: int32(size.Height - 1)}
	if err := exr.WriteFile(path, dw, chans, exr.ZIP); err != nil {
		t.Fatalf("unable to write %s: %v", path, err)
	}
	return path
}

func fill(n int, v float32) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestReadDepthExact(t *testing.T) {
	size := gt.Size{Width: 7, Height: 5}
	for _, pt := range []exr.PixelType{exr.Float, exr.Half} {
		path := writeEXR(t, t.TempDir(), gt.Depth, size, exr.ChannelData{Name: "R", Type: pt, Values: fill(35, 3.5)})
		d, err := ReadDepth(path)
		if err != nil {
			t.Fatal(err)
		}
		if d.Size != size {
			t.Fatalf("expected %s, got %s", size, d.Size)
		}
		for i, v := range d.Data {
			if v != 3.5 {
				t.Fatalf("%s: pixel %d is %g, expected 3.5", pt, i, v)
			}
		}
	}
}

func TestReadDepthRowOrder(t *testing.T) {
	size := gt.Size{Width: 2, Height: 3}
	vals := []float32{0, 1, 10, 11, 20, 21}
	path := writeEXR(t, t.TempDir(), gt.Depth, size, exr.ChannelData{Name: "R", Type: exr.Float, Values: vals})
	d, err := ReadDepth(path)
	if err != nil {
		t.Fatal(err)
	}
	if got := d.Data[size.Index(2, 1)]; got != 21 {
		t.Errorf("expected bottom-right pixel 21, got %g", got)
	}
	if got := d.Data[size.Index(0, 1)]; got != 1 {
		t.Errorf("expected top-right pixel 1, got %g", got)
	}
}

func TestReadFlowNegatesForward(t *testing.T) {
	size := gt.Size{Width: 3, Height: 2}
	n := size.NumPixels()
	path := writeEXR(t, t.TempDir(), gt.Flow, size,
		exr.ChannelData{Name: "R", Type: exr.Float, Values: fill(n, 0.5)},
		exr.ChannelData{Name: "G", Type: exr.Float, Values: fill(n, -4)},
		exr.ChannelData{Name: "B", Type: exr.Float, Values: fill(n, 2)},
		exr.ChannelData{Name: "A", Type: exr.Float, Values: fill(n, -1)},
	)
	flow, err := ReadFlow(path)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < n; i++ {
		if flow.ForwardU[i] != -2 || flow.ForwardV[i] != 1 {
			t.Fatalf("pixel %d: expected forward (-2, 1), got (%g, %g)", i, flow.ForwardU[i], flow.ForwardV[i])
		}
		if flow.BackwardU[i] != 0.5 || flow.BackwardV[i] != -4 {
			t.Fatalf("pixel %d: expected backward (0.5, -4), got (%g, %g)", i, flow.BackwardU[i], flow.BackwardV[i])
		}
	}
}

func TestReadLabelPassthrough(t *testing.T) {
	size := gt.Size{Width: 2, Height: 2}
	for _, pt := range []exr.PixelType{exr.Float, exr.Uint} {
		path := writeEXR(t, t.TempDir(), gt.Label, size, exr.ChannelData{Name: "R", Type: pt, Values: []float32{0, 5, 5, 0}})
		l, err := ReadLabel(path)
		if err != nil {
			t.Fatal(err)
		}
		if want := []int32{0, 5, 5, 0}; !reflect.DeepEqual(l.Data, want) {
			t.Errorf("%s: expected %v, got %v", pt, want, l.Data)
		}
		if want := []bool{true, false, false, true}; !reflect.DeepEqual(LabelMask(l).Invalid(), want) {
			t.Errorf("%s: expected invalidity %v", pt, want)
		}
	}
}

func TestReadNormalOrder(t *testing.T) {
	size := gt.Size{Width: 1, Height: 2}
	path := writeEXR(t, t.TempDir(), gt.Normal, size,
		exr.ChannelData{Name: "R", Type: exr.Float, Values: []float32{1, 0}},
		exr.ChannelData{Name: "G", Type: exr.Float, Values: []float32{0, 0}},
		exr.ChannelData{Name: "B", Type: exr.Float, Values: []float32{0, 0}},
	)
	n, err := ReadNormal(path)
	if err != nil {
		t.Fatal(err)
	}
	if n.X[0] != 1 || n.Y[0] != 0 || n.Z[0] != 0 {
		t.Errorf("expected (1,0,0) at first pixel, got (%g,%g,%g)", n.X[0], n.Y[0], n.Z[0])
	}
	if want := []bool{true, false}; !reflect.DeepEqual(NormalMask(n).Valid, want) {
		t.Errorf("expected validity %v, got %v", want, NormalMask(n).Valid)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := ReadDepth(filepath.Join(dir, "depth0009.exr"))
	var de *gt.DecodeError
	if !errors.As(err, &de) || de.Modality != "depth" {
		t.Fatalf("expected depth DecodeError, got %v", err)
	}

	path := writeEXR(t, dir, gt.Normal, gt.Size{Width: 1, Height: 1}, exr.ChannelData{Name: "R", Type: exr.Float, Values: []float32{1}})
	_, err = ReadNormal(path)
	if !errors.As(err, &de) || de.Modality != "normal" || de.Path != path {
		t.Fatalf("expected normal DecodeError for missing channel, got %v", err)
	}

	if _, err := ReadImage(filepath.Join(dir, "image0001.png")); !errors.As(err, &de) {
		t.Fatalf("expected DecodeError for missing image, got %v", err)
	}
}

func TestReadImage(t *testing.T) {
	dir := t.TempDir()
	src := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	src.SetNRGBA(0, 0, color.NRGBA{10, 20, 30, 255})
	src.SetNRGBA(1, 0, color.NRGBA{40, 50, 60, 128})
	gray := image.NewGray(image.Rect(0, 0, 2, 1))
	gray.SetGray(1, 0, color.Gray{77})

	for name, img := range map[string]image.Image{"image0001.png": src, "image0002.png": gray} {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}

	got, err := ReadImage(filepath.Join(dir, "image0001.png"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint8{10, 20, 30, 40, 50, 60}; !reflect.DeepEqual(got.Pix, want) {
		t.Errorf("expected %v, got %v", want, got.Pix)
	}
	got, err = ReadImage(filepath.Join(dir, "image0002.png"))
	if err != nil {
		t.Fatal(err)
	}
	if want := []uint8{0, 0, 0, 77, 77, 77}; !reflect.DeepEqual(got.Pix, want) {
		t.Errorf("expected %v, got %v", want, got.Pix)
	}
}

func TestMasks(t *testing.T) {
	size := gt.Size{Width: 2, Height: 2}
	d := &gt.DepthField{Size: size, Data: []float32{1, 1e10, 2e10, 2}}
	if want := []bool{true, false, false, true}; !reflect.DeepEqual(DepthMask(d, gt.DefaultFarSentinel).Valid, want) {
		t.Errorf("depth mask: expected %v", want)
	}

	u := []float32{0, 1, 0, -0}
	v := []float32{0, 0, -3, 0}
	if want := []bool{false, true, true, false}; !reflect.DeepEqual(FlowMask(u, v, size).Valid, want) {
		t.Errorf("flow mask: expected %v, got %v", want, FlowMask(u, v, size).Valid)
	}

	n := &gt.NormalField{Size: size,
		X: []float32{0, 0, 0, 1},
		Y: []float32{0, 0, 1e-30, 0},
		Z: []float32{0, 1, 0, 0},
	}
	if want := []bool{false, true, true, true}; !reflect.DeepEqual(NormalMask(n).Valid, want) {
		t.Errorf("normal mask: expected %v, got %v", want, NormalMask(n).Valid)
	}
}

func TestEscapeDepth(t *testing.T) {
	size := gt.Size{Width: 2, Height: 2}
	d := &gt.DepthField{Size: size, Data: []float32{1, 1e10, 1e10, 2}}
	escaped, err := EscapeDepth(d, 1e10)
	if err != nil {
		t.Fatal(err)
	}
	if want := []float32{1, -1, -1, 2}; !reflect.DeepEqual(escaped.Data, want) {
		t.Errorf("expected %v, got %v", want, escaped.Data)
	}
	if d.Data[1] != 1e10 {
		t.Errorf("source field was modified")
	}

	d.Data[3] = -1
	if _, err := EscapeDepth(d, 1e10); err == nil {
		t.Errorf("expected collision with escape value to fail")
	}
}
