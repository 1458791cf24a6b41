package capture

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/janelia-flyem/gtbundle/exr"
	"github.com/janelia-flyem/gtbundle/gt"
)

// SyntheticHost is an in-process Host that renders a square moving one pixel to the
// right per frame in front of empty space.  It writes raw files the way the
// renderer's file output node does and is used for demos and tests.
type SyntheticHost struct {
	Dir  string
	Size gt.Size

	// Far is the camera far clip.
	Far float32

	settings Settings
	nextID   NodeID
	layers   map[NodeID]bool
	outputs  map[NodeID][]Slot
}

// NewSyntheticHost returns a host rendering frames of the given size into dir.
func NewSyntheticHost(dir string, size gt.Size) *SyntheticHost {
	return &SyntheticHost{
		Dir:     dir,
		Size:    size,
		Far:     100,
		layers:  make(map[NodeID]bool),
		outputs: make(map[NodeID][]Slot),
	}
}

func (h *SyntheticHost) Settings() Settings { return h.settings }

func (h *SyntheticHost) Apply(s Settings) error {
	h.settings = s
	return nil
}

func (h *SyntheticHost) AddRenderLayers() (NodeID, error) {
	h.nextID++
	h.layers[h.nextID] = true
	return h.nextID, nil
}

func (h *SyntheticHost) AddFileOutput(dir string, source NodeID, slots []Slot) (NodeID, error) {
	if !h.layers[source] {
		return 0, fmt.Errorf("node %d is not a render layers node", source)
	}
	if dir != h.Dir {
		return 0, fmt.Errorf("file output must write to %s", h.Dir)
	}
	h.nextID++
	h.outputs[h.nextID] = slots
	return h.nextID, nil
}

func (h *SyntheticHost) RemoveNode(id NodeID) error {
	switch {
	case h.layers[id]:
		delete(h.layers, id)
	case h.outputs[id] != nil:
		delete(h.outputs, id)
	default:
		return fmt.Errorf("no node %d", id)
	}
	return nil
}

// Nodes returns the number of nodes currently in the compositor.
func (h *SyntheticHost) Nodes() int {
	return len(h.layers) + len(h.outputs)
}

func (h *SyntheticHost) OutputDir() string { return h.Dir }

func (h *SyntheticHost) FarClip() float32 { return h.Far }

// Camera returns a pinhole camera centered on the image looking down -z.
func (h *SyntheticHost) Camera() *gt.Camera {
	f := float64(h.Size.Width)
	cam := &gt.Camera{Intrinsic: [9]float64{f, 0, float64(h.Size.Width) / 2, 0, f, float64(h.Size.Height) / 2, 0, 0, 1}}
	cam.Extrinsic[0], cam.Extrinsic[5], cam.Extrinsic[10], cam.Extrinsic[15] = 1, 1, 1, 1
	return cam
}

// passEnabled reports whether the render settings produce the modality's pass.
func (h *SyntheticHost) passEnabled(m gt.Modality) bool {
	switch m {
	case gt.Depth:
		return h.settings.DepthPass
	case gt.Label:
		return h.settings.ObjectIndexPass
	case gt.Normal:
		return h.settings.NormalPass
	case gt.Flow:
		return h.settings.VectorPass
	}
	return true
}

// square returns the bounds of the object at a frame.
func (h *SyntheticHost) square(frame int) image.Rectangle {
	side := h.Size.Height / 2
	x0 := (frame + h.Size.Width/4) % h.Size.Width
	y0 := h.Size.Height / 4
	return image.Rect(x0, y0, x0+side, y0+side)
}

// Render writes the raw files of every output slot whose pass is enabled.
func (h *SyntheticHost) Render(frame int) error {
	if !h.settings.UseNodes {
		return nil
	}
	for _, slots := range h.outputs {
		for _, slot := range slots {
			if !h.passEnabled(slot.Modality) {
				continue
			}
			path := filepath.Join(h.Dir, fmt.Sprintf("%s%04d.%s", slot.Path, frame, slot.Modality.Ext()))
			if err := h.renderSlot(path, slot.Modality, frame); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *SyntheticHost) renderSlot(path string, m gt.Modality, frame int) error {
	sq := h.square(frame)
	size := h.Size
	inside := func(i int) bool {
		return image.Pt(i%size.Width, i/size.Width).In(sq)
	}
	n := size.NumPixels()
	if m == gt.Image {
		img := image.NewNRGBA(image.Rect(0, 0, size.Width, size.Height))
		for i := 0; i < n; i++ {
			c := color.NRGBA{40, 40, 40, 255}
			if inside(i) {
				c = color.NRGBA{200, 30, 30, 255}
			}
			img.SetNRGBA(i%size.Width, i/size.Width, c)
		}
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := png.Encode(f, img); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	plane := func(in, out float32) []float32 {
		v := make([]float32, n)
		for i := range v {
			v[i] = out
			if inside(i) {
				v[i] = in
			}
		}
		return v
	}
	var chans []exr.ChannelData
	switch m {
	case gt.Depth:
		chans = []exr.ChannelData{{Name: "R", Type: exr.Float, Values: plane(5, gt.DefaultFarSentinel)}}
	case gt.Label:
		chans = []exr.ChannelData{{Name: "R", Type: exr.Float, Values: plane(1, 0)}}
	case gt.Normal:
		chans = []exr.ChannelData{
			{Name: "R", Type: exr.Float, Values: plane(0, 0)},
			{Name: "G", Type: exr.Float, Values: plane(0, 0)},
			{Name: "B", Type: exr.Float, Values: plane(1, 0)},
		}
	case gt.Flow:
		// Moving +1 in x: backward flow is -1, forward flow is +1 stored negated.
		chans = []exr.ChannelData{
			{Name: "R", Type: exr.Float, Values: plane(-1, 0)},
			{Name: "G", Type: exr.Float, Values: plane(0, 0)},
			{Name: "B", Type: exr.Float, Values: plane(-1, 0)},
			{Name: "A", Type: exr.Float, Values: plane(0, 0)},
		}
	}
	dw := exr.Box{XMax: int32(size.Width - 1), YMax: int32(size.Height - 1)}
	return exr.WriteFile(path, dw, chans, exr.ZIP)
}
