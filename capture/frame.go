package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/janelia-flyem/gtbundle/archive"
	"github.com/janelia-flyem/gtbundle/gt"
	"github.com/janelia-flyem/gtbundle/modality"
)

// ReadFrame decodes every enabled modality of a frame from dir.  It returns the
// bundle and the raw files read.
func ReadFrame(dir string, frame int, mods []gt.Modality) (*archive.Bundle, []string, error) {
	b := &archive.Bundle{Frame: frame}
	var sources []string
	for _, m := range mods {
		path := gt.FrameFile(dir, m, frame)
		var err error
		switch m {
		case gt.Image:
			b.Image, err = modality.ReadImage(path)
		case gt.Depth:
			b.Depth, err = modality.ReadDepth(path)
		case gt.Label:
			b.Label, err = modality.ReadLabel(path)
		case gt.Normal:
			b.Normal, err = modality.ReadNormal(path)
		case gt.Flow:
			b.Flow, err = modality.ReadFlow(path)
		default:
			err = fmt.Errorf("unknown modality %s", m)
		}
		if err != nil {
			return nil, nil, gt.Annotate(err, frame, m)
		}
		sources = append(sources, path)
	}
	return b, sources, nil
}

// ProcessFrame decodes every enabled modality of a frame, then archives it and
// removes the raw files.  Nothing is written until all modalities are decoded.
func ProcessFrame(dir string, frame int, mods []gt.Modality, w *archive.Writer, cam *gt.Camera) (string, error) {
	timedLog := gt.NewTimeLog()
	b, sources, err := ReadFrame(dir, frame, mods)
	if err != nil {
		return "", err
	}
	b.Camera = cam
	path, err := w.Write(b, sources)
	if err != nil {
		return "", err
	}
	timedLog.Debugf("Frame %04d: decoded %d modalities and archived", frame, len(mods))
	return path, nil
}

// Discard removes the raw files and any temporary archive of a frame, e.g. after
// the host aborted it.  Other frames are not touched.
func Discard(dir string, frame int) error {
	var paths []string
	for _, m := range gt.Modalities {
		paths = append(paths, gt.FrameFile(dir, m, frame))
	}
	tmps, err := filepath.Glob(filepath.Join(dir, "."+filepath.Base(gt.ArchiveFile(dir, frame))+".*.tmp"))
	if err != nil {
		return err
	}
	paths = append(paths, tmps...)
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("discarding %s: %v", p, err)
		}
	}
	return nil
}
