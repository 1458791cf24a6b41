package capture

import (
	"github.com/janelia-flyem/gtbundle/gt"
)

// Settings are the host render settings a session may change.
type Settings struct {
	UseNodes        bool
	DepthPass       bool
	NormalPass      bool
	VectorPass      bool
	ObjectIndexPass bool
}

// NodeID identifies a compositor node created in the host.
type NodeID int

// Slot routes one render-layer output to a file.  The host writes
// <dir>/<Path><frame:04d>.<ext>.
type Slot struct {
	Modality gt.Modality
	Pass     string // render-layer output socket, e.g. "Depth"
	Format   string // "PNG" or "OPEN_EXR"
	Path     string
}

// Host is the renderer hosting a capture.  It is not called concurrently.
type Host interface {
	// Settings returns the current render settings.
	Settings() Settings

	// Apply replaces the render settings.
	Apply(Settings) error

	// AddRenderLayers creates a node exposing the render passes.
	AddRenderLayers() (NodeID, error)

	// AddFileOutput creates a node writing the given slots of source to dir.
	AddFileOutput(dir string, source NodeID, slots []Slot) (NodeID, error)

	// RemoveNode deletes a node created by AddRenderLayers or AddFileOutput.
	RemoveNode(NodeID) error

	// OutputDir is where raw files and archives are written.
	OutputDir() string

	// FarClip is the camera far clip distance, or 0 if unknown.
	FarClip() float32

	// Camera returns the camera parameters for the current frame or nil.
	Camera() *gt.Camera
}

var passes = map[gt.Modality]string{
	gt.Image:  "Image",
	gt.Depth:  "Depth",
	gt.Label:  "IndexOB",
	gt.Normal: "Normal",
	gt.Flow:   "Vector",
}

// slots returns the output slots producing the raw files of the given modalities.
func slots(mods []gt.Modality) []Slot {
	out := make([]Slot, 0, len(mods))
	for _, m := range mods {
		format := "OPEN_EXR"
		if m == gt.Image {
			format = "PNG"
		}
		out = append(out, Slot{Modality: m, Pass: passes[m], Format: format, Path: m.String()})
	}
	return out
}

// required returns prior with the passes needed for mods enabled.
func required(prior Settings, mods []gt.Modality) Settings {
	s := prior
	s.UseNodes = true
	for _, m := range mods {
		switch m {
		case gt.Depth:
			s.DepthPass = true
		case gt.Label:
			s.ObjectIndexPass = true
		case gt.Normal:
			s.NormalPass = true
		case gt.Flow:
			s.VectorPass = true
		}
	}
	return s
}
