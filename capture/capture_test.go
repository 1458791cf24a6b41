package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	check "github.com/janelia-flyem/go/gocheck"

	"github.com/janelia-flyem/gtbundle/archive"
	"github.com/janelia-flyem/gtbundle/config"
	"github.com/janelia-flyem/gtbundle/gt"
)

func Test(t *testing.T) { check.TestingT(t) }

type SessionSuite struct {
	dir  string
	host *SyntheticHost
	cfg  *config.Config
}

var _ = check.Suite(&SessionSuite{})

var testSize = gt.Size{Width: 8, Height: 4}

func (s *SessionSuite) SetUpTest(c *check.C) {
	s.dir = c.MkDir()
	s.host = NewSyntheticHost(s.dir, testSize)
	s.cfg = config.Default()
}

// failingHost refuses to create file output nodes.
type failingHost struct {
	*SyntheticHost
}

func (h failingHost) AddFileOutput(string, NodeID, []Slot) (NodeID, error) {
	return 0, errors.New("no compositor")
}

func (s *SessionSuite) TestBeginEndRestores(c *check.C) {
	prior := Settings{DepthPass: true}
	s.host.Apply(prior)

	sess, err := Begin(s.host, s.cfg)
	c.Assert(err, check.IsNil)
	c.Assert(sess.ID, check.Not(check.Equals), "")
	c.Assert(s.host.Nodes(), check.Equals, 2)
	c.Assert(s.host.Settings(), check.Equals, Settings{true, true, true, true, true})

	c.Assert(sess.End(), check.IsNil)
	c.Assert(s.host.Nodes(), check.Equals, 0)
	c.Assert(s.host.Settings(), check.Equals, prior)

	// A second End must not touch the host again.
	s.host.Apply(Settings{NormalPass: true})
	c.Assert(sess.End(), check.IsNil)
	c.Assert(s.host.Settings(), check.Equals, Settings{NormalPass: true})

	_, err = sess.FrameCaptured(1)
	c.Assert(err, check.NotNil)
}

func (s *SessionSuite) TestBeginFailureCleansUp(c *check.C) {
	prior := Settings{VectorPass: true}
	s.host.Apply(prior)
	sess, err := Begin(failingHost{s.host}, s.cfg)
	c.Assert(err, check.ErrorMatches, ".*no compositor.*")
	c.Assert(sess, check.IsNil)
	c.Assert(s.host.Nodes(), check.Equals, 0)
	c.Assert(s.host.Settings(), check.Equals, prior)
}

func (s *SessionSuite) TestRunArchivesFrames(c *check.C) {
	err := Run(s.host, s.cfg, []int{1, 2}, s.host.Render)
	c.Assert(err, check.IsNil)
	c.Assert(s.host.Nodes(), check.Equals, 0)

	for _, frame := range []int{1, 2} {
		for _, m := range gt.Modalities {
			c.Assert(gt.FileExists(gt.FrameFile(s.dir, m, frame)), check.Equals, false)
		}
		a, err := archive.Open(gt.ArchiveFile(s.dir, frame))
		c.Assert(err, check.IsNil)
		c.Assert(a.Keys(), check.DeepEquals, []string{"depth", "extrinsic", "flow", "image", "intrinsic", "label", "normal"})

		depth, err := a.Array(archive.KeyDepth)
		c.Assert(err, check.IsNil)
		c.Assert(depth.Shape, check.DeepEquals, []int{4, 8})
		vals, err := depth.Float32()
		c.Assert(err, check.IsNil)
		c.Assert(vals[0], check.Equals, gt.DepthEscape)
		c.Assert(vals[testSize.Index(1, frame+2)], check.Equals, float32(5))

		flow, err := a.Array(archive.KeyFlow)
		c.Assert(err, check.IsNil)
		c.Assert(flow.Shape, check.DeepEquals, []int{4, 8, 4})
		fv, err := flow.Float32()
		c.Assert(err, check.IsNil)
		i := testSize.Index(1, frame+2) * 4
		c.Assert(fv[i:i+4], check.DeepEquals, []float32{-1, 0, 1, 0})
	}
}

func (s *SessionSuite) TestRunRenderFailureDiscards(c *check.C) {
	render := func(frame int) error {
		if err := s.host.Render(frame); err != nil {
			return err
		}
		if frame == 2 {
			return errors.New("render aborted")
		}
		return nil
	}
	err := Run(s.host, s.cfg, []int{1, 2, 3}, render)
	c.Assert(err, check.ErrorMatches, ".*frame 0002.*render aborted")
	c.Assert(gt.FileExists(gt.ArchiveFile(s.dir, 1)), check.Equals, true)
	c.Assert(gt.FileExists(gt.ArchiveFile(s.dir, 2)), check.Equals, false)
	c.Assert(gt.FileExists(gt.ArchiveFile(s.dir, 3)), check.Equals, false)
	for _, m := range gt.Modalities {
		c.Assert(gt.FileExists(gt.FrameFile(s.dir, m, 2)), check.Equals, false)
	}
	c.Assert(s.host.Nodes(), check.Equals, 0)
	c.Assert(s.host.Settings(), check.Equals, Settings{})
}

func (s *SessionSuite) TestMissingPassKeepsRawFiles(c *check.C) {
	sess, err := Begin(s.host, s.cfg)
	c.Assert(err, check.IsNil)
	defer sess.End()

	// Simulate a scene change that dropped the vector pass after Begin.
	settings := s.host.Settings()
	settings.VectorPass = false
	s.host.Apply(settings)
	c.Assert(s.host.Render(4), check.IsNil)

	_, err = sess.FrameCaptured(4)
	var de *gt.DecodeError
	c.Assert(errors.As(err, &de), check.Equals, true)
	c.Assert(de.Frame, check.Equals, 4)
	c.Assert(de.Modality, check.Equals, "flow")
	c.Assert(gt.FileExists(gt.FrameFile(s.dir, gt.Depth, 4)), check.Equals, true)
	c.Assert(gt.FileExists(gt.ArchiveFile(s.dir, 4)), check.Equals, false)
}

func (s *SessionSuite) TestScanMissingModality(c *check.C) {
	s.host.Apply(required(Settings{}, gt.Modalities))
	id, _ := s.host.AddRenderLayers()
	_, err := s.host.AddFileOutput(s.dir, id, slots(gt.Modalities))
	c.Assert(err, check.IsNil)
	for frame := 1; frame <= 3; frame++ {
		c.Assert(s.host.Render(frame), check.IsNil)
	}
	// Signed or non-ASCII suffixes are not frame numbers.
	stray := filepath.Join(s.dir, "image+123.png")
	c.Assert(os.WriteFile(stray, []byte("x"), 0644), check.IsNil)
	frames, err := Scan(s.dir, s.cfg)
	c.Assert(err, check.IsNil)
	c.Assert(frames, check.DeepEquals, []int{1, 2, 3})

	c.Assert(os.Remove(gt.FrameFile(s.dir, gt.Normal, 2)), check.IsNil)
	_, err = Scan(s.dir, s.cfg)
	var ce *gt.ConfigError
	c.Assert(errors.As(err, &ce), check.Equals, true)
	c.Assert(ce.Frame, check.Equals, 2)
	c.Assert(ce.Modality, check.Equals, "normal")

	_, err = Scan(c.MkDir(), s.cfg)
	c.Assert(errors.As(err, &ce), check.Equals, true)
}

func (s *SessionSuite) TestPack(c *check.C) {
	s.host.Apply(required(Settings{}, gt.Modalities))
	id, _ := s.host.AddRenderLayers()
	_, err := s.host.AddFileOutput(s.dir, id, slots(gt.Modalities))
	c.Assert(err, check.IsNil)
	for frame := 0; frame < 6; frame++ {
		c.Assert(s.host.Render(frame), check.IsNil)
	}
	paths, err := Pack(context.Background(), s.dir, s.cfg, 3)
	c.Assert(err, check.IsNil)
	c.Assert(paths, check.HasLen, 6)
	for frame, p := range paths {
		c.Assert(p, check.Equals, filepath.Join(s.dir, fmt.Sprintf("%04d.npz", frame)))
		a, err := archive.Open(p)
		c.Assert(err, check.IsNil)
		// No camera is known when packing from disk.
		_, err = a.Array(archive.KeyIntrinsic)
		c.Assert(err, check.NotNil)
	}
	entries, err := os.ReadDir(s.dir)
	c.Assert(err, check.IsNil)
	c.Assert(entries, check.HasLen, 6)
}

func (s *SessionSuite) TestPackCorruptFrame(c *check.C) {
	s.host.Apply(required(Settings{}, gt.Modalities))
	id, _ := s.host.AddRenderLayers()
	s.host.AddFileOutput(s.dir, id, slots(gt.Modalities))
	c.Assert(s.host.Render(7), check.IsNil)
	c.Assert(os.WriteFile(gt.FrameFile(s.dir, gt.Label, 7), []byte("not an exr"), 0644), check.IsNil)

	_, err := Pack(context.Background(), s.dir, s.cfg, 1)
	c.Assert(err, check.NotNil)
	c.Assert(gt.FrameOf(err), check.Equals, 7)
	c.Assert(err, check.ErrorMatches, ".*label.*")
	c.Assert(gt.FileExists(gt.FrameFile(s.dir, gt.Depth, 7)), check.Equals, true)
}

func (s *SessionSuite) TestDiscard(c *check.C) {
	keep := gt.FrameFile(s.dir, gt.Image, 1)
	drop := gt.FrameFile(s.dir, gt.Image, 2)
	tmp := filepath.Join(s.dir, ".0002.npz.123.tmp")
	for _, p := range []string{keep, drop, tmp} {
		c.Assert(os.WriteFile(p, []byte("x"), 0644), check.IsNil)
	}
	c.Assert(Discard(s.dir, 2), check.IsNil)
	c.Assert(gt.FileExists(keep), check.Equals, true)
	c.Assert(gt.FileExists(drop), check.Equals, false)
	c.Assert(gt.FileExists(tmp), check.Equals, false)
}
