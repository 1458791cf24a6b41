package archive

import (
	"io"
	"os"
	"path/filepath"

	humanize "github.com/dustin/go-humanize"
	"github.com/klauspost/compress/zip"

	"github.com/janelia-flyem/gtbundle/gt"
	"github.com/janelia-flyem/gtbundle/modality"
)

// FileMode is the permission of a finished archive.
const FileMode os.FileMode = 0644

// Member compression methods.
const (
	Store   = zip.Store
	Deflate = zip.Deflate
)

// Bundle holds every array captured for one frame.  Image and Depth are required;
// the other fields are nil when the modality was not captured.
type Bundle struct {
	Frame  int
	Image  *gt.ColorImage
	Depth  *gt.DepthField
	Label  *gt.LabelField
	Normal *gt.NormalField
	Flow   *gt.FlowField
	Camera *gt.Camera
}

// tempFile is the part of *os.File used while writing an archive.
type tempFile interface {
	io.Writer
	Name() string
	Chmod(os.FileMode) error
	Sync() error
	Close() error
}

// Writer persists bundles as NNNN.npz files in Dir.
type Writer struct {
	Dir string

	// Method is the zip compression method of each member, Deflate or Store.
	Method uint16

	// Far is the depth detection threshold; samples at or beyond it are stored as -1.
	Far float32

	// KeepSources retains the raw per-modality files after a successful write.
	KeepSources bool

	createTemp func(dir, pattern string) (tempFile, error)
}

// NewWriter returns a writer using deflate compression and the default far sentinel.
func NewWriter(dir string) *Writer {
	return &Writer{Dir: dir, Method: Deflate, Far: gt.DefaultFarSentinel}
}

func osCreateTemp(dir, pattern string) (tempFile, error) {
	return os.CreateTemp(dir, pattern)
}

// Write persists the bundle and then removes the given raw source files.  The archive
// appears at its final path only when complete; on failure nothing is left at that
// path (an archive from an earlier run is kept as is) and the sources are untouched.
func (w *Writer) Write(b *Bundle, sources []string) (string, error) {
	path := gt.ArchiveFile(w.Dir, b.Frame)
	arrays, err := b.arrays(w.Far)
	if err != nil {
		return "", err
	}
	size, err := w.writeAtomic(path, arrays)
	if err != nil {
		return "", gt.NewPersistError(b.Frame, path, err)
	}
	gt.Infof("Wrote frame %04d to %s (%s)\n", b.Frame, path, humanize.Bytes(uint64(size)))

	if !w.KeepSources {
		for _, src := range sources {
			if err := os.Remove(src); err != nil && !os.IsNotExist(err) {
				gt.Warningf("Unable to remove raw file %s of frame %04d: %v\n", src, b.Frame, err)
			}
		}
	}
	return path, nil
}

// arrays validates the bundle and converts it to archive arrays in key order.
func (b *Bundle) arrays(far float32) ([]*Array, error) {
	if b.Image == nil {
		return nil, gt.Annotate(gt.NewConfigError("no color image captured"), b.Frame, gt.Image)
	}
	if b.Depth == nil {
		return nil, gt.Annotate(gt.NewConfigError("no depth captured"), b.Frame, gt.Depth)
	}
	grid := b.Image.Size
	check := func(m gt.Modality, size gt.Size) error {
		if size != grid {
			return gt.Annotate(gt.NewShapeMismatchError("", m.String()+" field", grid, size), b.Frame, m)
		}
		return nil
	}
	h, wd := grid.Height, grid.Width

	if err := check(gt.Depth, b.Depth.Size); err != nil {
		return nil, err
	}
	depth, err := modality.EscapeDepth(b.Depth, far)
	if err != nil {
		return nil, gt.Annotate(gt.NewPersistError(b.Frame, "", err), b.Frame, gt.Depth)
	}
	arrays := []*Array{
		{Name: KeyImage, Type: gt.Image.DataType(), Shape: []int{h, wd, gt.Image.Channels()}, data: b.Image.Pix},
		{Name: KeyDepth, Type: gt.Depth.DataType(), Shape: []int{h, wd}, data: float32Bytes(depth.Data)},
	}
	if b.Label != nil {
		if err := check(gt.Label, b.Label.Size); err != nil {
			return nil, err
		}
		arrays = append(arrays, &Array{Name: KeyLabel, Type: gt.Label.DataType(), Shape: []int{h, wd}, data: int32Bytes(b.Label.Data)})
	}
	if n := b.Normal; n != nil {
		if err := check(gt.Normal, n.Size); err != nil {
			return nil, err
		}
		arrays = append(arrays, &Array{Name: KeyNormal, Type: gt.Normal.DataType(), Shape: []int{h, wd, gt.Normal.Channels()},
			data: float32Bytes(interleave(n.X, n.Y, n.Z))})
	}
	if f := b.Flow; f != nil {
		if err := check(gt.Flow, f.Size); err != nil {
			return nil, err
		}
		arrays = append(arrays, &Array{Name: KeyFlow, Type: gt.Flow.DataType(), Shape: []int{h, wd, gt.Flow.Channels()},
			data: float32Bytes(interleave(f.BackwardU, f.BackwardV, f.ForwardU, f.ForwardV))})
	}
	if c := b.Camera; c != nil {
		arrays = append(arrays,
			&Array{Name: KeyIntrinsic, Type: gt.T_float64, Shape: []int{3, 3}, data: float64Bytes(c.Intrinsic[:])},
			&Array{Name: KeyExtrinsic, Type: gt.T_float64, Shape: []int{4, 4}, data: float64Bytes(c.Extrinsic[:])},
		)
	}
	return arrays, nil
}

// writeAtomic zips the arrays into a temporary file next to path, syncs it and
// renames it over path.  The temporary file is removed on any failure.
func (w *Writer) writeAtomic(path string, arrays []*Array) (written int64, err error) {
	create := w.createTemp
	if create == nil {
		create = osCreateTemp
	}
	tmp, err := create(w.Dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	cw := &countingWriter{w: tmp}
	zw := zip.NewWriter(cw)
	for _, a := range arrays {
		var data []byte
		if data, err = encodeNPY(a); err != nil {
			return 0, err
		}
		var member io.Writer
		member, err = zw.CreateHeader(&zip.FileHeader{Name: a.Name + ".npy", Method: w.Method})
		if err != nil {
			return 0, err
		}
		if _, err = member.Write(data); err != nil {
			return 0, err
		}
	}
	if err = zw.Close(); err != nil {
		return 0, err
	}
	// CreateTemp makes the file owner-only; archives are shared like any output file.
	if err = tmp.Chmod(FileMode); err != nil {
		return 0, err
	}
	if err = tmp.Sync(); err != nil {
		return 0, err
	}
	if err = tmp.Close(); err != nil {
		return 0, err
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
