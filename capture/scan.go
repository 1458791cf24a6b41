package capture

import (
	"context"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/gtbundle/config"
	"github.com/janelia-flyem/gtbundle/gt"
)

// Scan returns the frames with raw files in dir, in increasing order.  Every
// enabled modality must have a file for every frame; a missing one is a
// gt.ConfigError naming the frame and modality.
func Scan(dir string, cfg *config.Config) ([]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, gt.NewConfigError("reading input directory: %v", err)
	}
	found := make(map[int]map[gt.Modality]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m, frame, err := gt.ParseFrameFile(e.Name())
		if err != nil {
			continue
		}
		if found[frame] == nil {
			found[frame] = make(map[gt.Modality]bool)
		}
		found[frame][m] = true
	}
	if len(found) == 0 {
		return nil, gt.NewConfigError("no <modality>NNNN frame files in %s", dir)
	}
	frames := make([]int, 0, len(found))
	for frame := range found {
		frames = append(frames, frame)
	}
	sort.Ints(frames)
	for _, frame := range frames {
		for _, m := range cfg.Modalities() {
			if !found[frame][m] {
				err := gt.NewConfigError("%s is enabled but %s does not exist", m, gt.FrameFile(dir, m, frame))
				return nil, gt.Annotate(err, frame, m)
			}
		}
	}
	return frames, nil
}

// Pack archives every frame found in dir, running up to workers frames at a time.
// Frames share nothing, so a failure does not affect frames already archived; the
// first failure stops frames not yet started and is returned.
func Pack(ctx context.Context, dir string, cfg *config.Config, workers int) ([]string, error) {
	frames, err := Scan(dir, cfg)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	w := cfg.Writer(dir, 0)
	mods := cfg.Modalities()
	paths := make([]string, len(frames))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, frame := range frames {
		i, frame := i, frame
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := ProcessFrame(dir, frame, mods, w, nil)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	gt.Infof("Packed %d frames in %s\n", len(frames), dir)
	return paths, nil
}
