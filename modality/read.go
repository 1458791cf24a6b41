package modality

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/janelia-flyem/gtbundle/exr"
	"github.com/janelia-flyem/gtbundle/gt"
)

// exrChannels names the channels of a raw file in the order the renderer fills them.
var exrChannels = []string{"R", "G", "B", "A"}

// decode opens an EXR file and extracts the first m.Channels() of R, G, B, A,
// attaching the modality to any error.
func decode(path string, m gt.Modality) ([]exr.Channel, gt.Size, error) {
	names := exrChannels[:m.Channels()]
	f, err := exr.Open(path)
	if err != nil {
		return nil, gt.Size{}, gt.Annotate(err, gt.NoFrame, m)
	}
	chans, err := f.Channels(names...)
	if err != nil {
		return nil, gt.Size{}, gt.Annotate(err, gt.NoFrame, m)
	}
	return chans, f.Size(), nil
}

// ReadDepth reads channel R of a depth file as float32.
func ReadDepth(path string) (*gt.DepthField, error) {
	chans, size, err := decode(path, gt.Depth)
	if err != nil {
		return nil, err
	}
	return &gt.DepthField{Size: size, Data: chans[0].Float32()}, nil
}

// ReadLabel reads channel R of a label file as int32.
func ReadLabel(path string) (*gt.LabelField, error) {
	chans, size, err := decode(path, gt.Label)
	if err != nil {
		return nil, err
	}
	return &gt.LabelField{Size: size, Data: chans[0].Int32()}, nil
}

// ReadNormal reads channels R, G, B of a normal file as (x, y, z).
func ReadNormal(path string) (*gt.NormalField, error) {
	chans, size, err := decode(path, gt.Normal)
	if err != nil {
		return nil, err
	}
	return &gt.NormalField{
		Size: size,
		X:    chans[0].Float32(),
		Y:    chans[1].Float32(),
		Z:    chans[2].Float32(),
	}, nil
}

// ReadFlow reads channels R, G as backward flow and B, A as forward flow.  The
// renderer stores forward flow with inverted sign, so B and A are negated here.
func ReadFlow(path string) (*gt.FlowField, error) {
	chans, size, err := decode(path, gt.Flow)
	if err != nil {
		return nil, err
	}
	flow := &gt.FlowField{
		Size:      size,
		BackwardU: chans[0].Float32(),
		BackwardV: chans[1].Float32(),
		ForwardU:  chans[2].Float32(),
		ForwardV:  chans[3].Float32(),
	}
	negate(flow.ForwardU)
	negate(flow.ForwardV)
	return flow, nil
}

func negate(v []float32) {
	for i := range v {
		v[i] = -v[i]
	}
}

// ReadImage reads a PNG color image into interleaved 8-bit RGB.  Alpha is dropped
// without premultiplication.
func ReadImage(path string) (*gt.ColorImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, gt.Annotate(&gt.DecodeError{Where: gt.Where{Frame: gt.NoFrame, Path: path}, Err: err}, gt.NoFrame, gt.Image)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		return nil, gt.Annotate(gt.NewDecodeError(path, "png: %v", err), gt.NoFrame, gt.Image)
	}
	return colorImage(img), nil
}

func colorImage(img image.Image) *gt.ColorImage {
	b := img.Bounds()
	size := gt.Size{Width: b.Dx(), Height: b.Dy()}
	out := &gt.ColorImage{Size: size, Pix: make([]uint8, 3*size.NumPixels())}
	if nrgba, ok := img.(*image.NRGBA); ok {
		for row := 0; row < size.Height; row++ {
			src := nrgba.Pix[nrgba.PixOffset(b.Min.X, b.Min.Y+row):]
			dst := out.Pix[3*row*size.Width:]
			for col := 0; col < size.Width; col++ {
				copy(dst[3*col:3*col+3], src[4*col:4*col+3])
			}
		}
		return out
	}
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c.R, c.G, c.B
			i += 3
		}
	}
	return out
}
