package gt

import "time"

// ModeFlag is the lowest severity that reaches the log.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	SilentMode
)

// mode starts at InfoMode; -verbose lowers it to DebugMode.
var mode = InfoMode

// Logger receives messages that pass the mode filter.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	// Shutdown flushes and closes any log file.
	Shutdown()
}

var logger Logger = stdLogger{}

// SetLogMode drops messages below the given severity.  SilentMode drops everything.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

func Debugf(format string, args ...interface{}) {
	if mode <= DebugMode {
		logger.Debugf(format, args...)
	}
}

func Infof(format string, args ...interface{}) {
	if mode <= InfoMode {
		logger.Infof(format, args...)
	}
}

func Warningf(format string, args ...interface{}) {
	if mode <= WarningMode {
		logger.Warningf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if mode <= ErrorMode {
		logger.Errorf(format, args...)
	}
}

// Shutdown closes any log file opened by LogConfig.SetLogger.
func Shutdown() {
	logger.Shutdown()
}

// TimeLog appends the time elapsed since its creation to a debug message:
//
//	timedLog := gt.NewTimeLog()
//	...
//	timedLog.Debugf("Frame %04d: archived", frame)
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{time.Now()}
}

func (t TimeLog) Debugf(format string, args ...interface{}) {
	if mode <= DebugMode {
		logger.Debugf(format+": %s\n", append(args, time.Since(t.start))...)
	}
}
