package capture

import (
	"errors"
	"fmt"

	"github.com/twinj/uuid"

	"github.com/janelia-flyem/gtbundle/archive"
	"github.com/janelia-flyem/gtbundle/config"
	"github.com/janelia-flyem/gtbundle/gt"
)

// Session is one capture from Begin to End.  It owns the prior render settings and
// the nodes it created.
type Session struct {
	ID string

	host    Host
	cfg     *config.Config
	dir     string
	prior   Settings
	applied bool
	nodes   []NodeID
	writer  *archive.Writer
	frames  int
	ended   bool
}

// Begin starts a capture: it records the host's render settings, enables the passes
// the configured modalities need and creates the output nodes.  If any step fails,
// whatever was changed is undone before returning.
func Begin(host Host, cfg *config.Config) (s *Session, err error) {
	s = &Session{
		ID:    uuid.NewV4().String(),
		host:  host,
		cfg:   cfg,
		dir:   host.OutputDir(),
		prior: host.Settings(),
	}
	defer func() {
		if err != nil {
			if endErr := s.End(); endErr != nil {
				gt.Errorf("Session %s: cleanup after failed start: %v\n", s.ID, endErr)
			}
			s = nil
		}
	}()

	mods := cfg.Modalities()
	if err = host.Apply(required(s.prior, mods)); err != nil {
		return s, fmt.Errorf("enabling render passes: %v", err)
	}
	s.applied = true

	layers, err := host.AddRenderLayers()
	if err != nil {
		return s, fmt.Errorf("adding render layers node: %v", err)
	}
	s.nodes = append(s.nodes, layers)

	output, err := host.AddFileOutput(s.dir, layers, slots(mods))
	if err != nil {
		return s, fmt.Errorf("adding file output node: %v", err)
	}
	s.nodes = append(s.nodes, output)

	s.writer = cfg.Writer(s.dir, host.FarClip())
	gt.Infof("Session %s: capturing %v into %s (far %g)\n", s.ID, mods, s.dir, s.writer.Far)
	return s, nil
}

// FrameCaptured archives a frame whose raw files the host has finished writing.
func (s *Session) FrameCaptured(frame int) (string, error) {
	if s.ended {
		return "", fmt.Errorf("session %s already ended", s.ID)
	}
	path, err := ProcessFrame(s.dir, frame, s.cfg.Modalities(), s.writer, s.host.Camera())
	if err != nil {
		return "", err
	}
	s.frames++
	return path, nil
}

// End removes the nodes created by Begin and restores the prior render settings.
// It is safe to call more than once; later calls do nothing.
func (s *Session) End() error {
	if s.ended {
		return nil
	}
	s.ended = true
	var errs []error
	for i := len(s.nodes) - 1; i >= 0; i-- {
		if err := s.host.RemoveNode(s.nodes[i]); err != nil {
			errs = append(errs, fmt.Errorf("removing node %d: %v", s.nodes[i], err))
		}
	}
	s.nodes = nil
	if s.applied {
		if err := s.host.Apply(s.prior); err != nil {
			errs = append(errs, fmt.Errorf("restoring render settings: %v", err))
		}
	}
	gt.Infof("Session %s: ended after %d frames\n", s.ID, s.frames)
	return errors.Join(errs...)
}

// Run begins a session, renders and archives each frame in order, and always ends
// the session.  render must leave the frame's raw files on disk when it returns nil.
// If render fails, the frame's partial files are discarded.
func Run(host Host, cfg *config.Config, frames []int, render func(frame int) error) (err error) {
	s, err := Begin(host, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if endErr := s.End(); endErr != nil && err == nil {
			err = endErr
		}
	}()
	for _, frame := range frames {
		if err = render(frame); err != nil {
			if derr := Discard(s.dir, frame); derr != nil {
				gt.Warningf("Frame %04d: %v\n", frame, derr)
			}
			return fmt.Errorf("rendering frame %04d: %w", frame, err)
		}
		if _, err = s.FrameCaptured(frame); err != nil {
			return err
		}
	}
	return nil
}
