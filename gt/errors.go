package gt

import (
	"errors"
	"fmt"
	"strings"
)

// NoFrame marks an error context whose frame is not (yet) known.
const NoFrame = -1

// Where locates a failure: the frame, the modality and the file involved.
// Readers fill in what they know; the capture pipeline adds the rest via Annotate.
type Where struct {
	Frame    int
	Modality string
	Path     string
}

func (w Where) String() string {
	var parts []string
	if w.Frame != NoFrame {
		parts = append(parts, fmt.Sprintf("frame %04d", w.Frame))
	}
	if w.Modality != "" {
		parts = append(parts, w.Modality)
	}
	if w.Path != "" {
		parts = append(parts, fmt.Sprintf("%q", w.Path))
	}
	return strings.Join(parts, ", ")
}

func (w *Where) fill(frame int, m Modality) {
	if w.Frame == NoFrame {
		w.Frame = frame
	}
	if w.Modality == "" {
		w.Modality = m.String()
	}
}

// DecodeError is returned for a malformed container or a missing channel.
type DecodeError struct {
	Where
	Err error
}

// NewDecodeError returns a DecodeError for the given file.
func NewDecodeError(path string, format string, args ...interface{}) *DecodeError {
	return &DecodeError{Where{NoFrame, "", path}, fmt.Errorf(format, args...)}
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error (%s): %v", e.Where, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeMismatchError is returned when channels or modalities of one frame disagree
// on the pixel grid.  Data is never cropped or resized to make them fit.
type ShapeMismatchError struct {
	Where
	Want, Got Size
	What      string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("shape mismatch (%s): %s is %s, expected %s", e.Where, e.What, e.Got, e.Want)
}

// PersistError is returned when an archive could not be written.
type PersistError struct {
	Where
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist error (%s): %v", e.Where, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

// ConfigError is returned at startup when the configuration and the files on disk
// disagree, e.g. an enabled modality has no file for a frame.
type ConfigError struct {
	Where
	Err error
}

// NewConfigError returns a ConfigError without frame context.
func NewConfigError(format string, args ...interface{}) *ConfigError {
	return &ConfigError{Where{NoFrame, "", ""}, fmt.Errorf(format, args...)}
}

func (e *ConfigError) Error() string {
	if w := e.Where.String(); w != "" {
		return fmt.Sprintf("config error (%s): %v", w, e.Err)
	}
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Annotate fills in the frame and modality of any taxonomy error in err's chain
// that does not know them yet.  Other errors are wrapped as a DecodeError so the
// user always sees the originating frame and modality.
func Annotate(err error, frame int, m Modality) error {
	if err == nil {
		return nil
	}
	var (
		de *DecodeError
		se *ShapeMismatchError
		pe *PersistError
		ce *ConfigError
	)
	switch {
	case errors.As(err, &de):
		de.fill(frame, m)
	case errors.As(err, &se):
		se.fill(frame, m)
	case errors.As(err, &pe):
		pe.fill(frame, m)
	case errors.As(err, &ce):
		ce.fill(frame, m)
	default:
		return &DecodeError{Where{frame, m.String(), ""}, err}
	}
	return err
}

// FrameOf returns the frame recorded in err's chain or NoFrame.
func FrameOf(err error) int {
	var (
		de *DecodeError
		se *ShapeMismatchError
		pe *PersistError
		ce *ConfigError
	)
	switch {
	case errors.As(err, &de):
		return de.Frame
	case errors.As(err, &se):
		return se.Frame
	case errors.As(err, &pe):
		return pe.Frame
	case errors.As(err, &ce):
		return ce.Frame
	}
	return NoFrame
}

// NewShapeMismatchError returns a ShapeMismatchError for the given file.
func NewShapeMismatchError(path, what string, want, got Size) *ShapeMismatchError {
	return &ShapeMismatchError{Where: Where{NoFrame, "", path}, Want: want, Got: got, What: what}
}

// NewPersistError returns a PersistError for the archive of a frame.
func NewPersistError(frame int, path string, err error) *PersistError {
	return &PersistError{Where{frame, "", path}, err}
}
