package gt

import (
	"fmt"
	"log"

	"github.com/natefinch/lumberjack"
)

// stdLogger writes through the standard log package, optionally into a rotating file.
type stdLogger struct {
	file *lumberjack.Logger
}

// LogConfig is the [logging] section of the configuration file.
type LogConfig struct {
	Logfile string
	MaxSize int `toml:"max_log_size"` // MB
	MaxAge  int `toml:"max_log_age"`  // days
}

// SetLogger redirects logging into c.Logfile, rotated by size and age.  Without a
// log file, messages stay on stderr.
func (c *LogConfig) SetLogger() {
	if c == nil || c.Logfile == "" {
		return
	}
	fmt.Printf("Logging to %s\n", c.Logfile)
	f := &lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}
	log.SetOutput(f)
	logger = stdLogger{f}
}

func (l stdLogger) Debugf(format string, args ...interface{}) {
	log.Printf(" DEBUG "+format, args...)
}

func (l stdLogger) Infof(format string, args ...interface{}) {
	log.Printf(" INFO "+format, args...)
}

func (l stdLogger) Warningf(format string, args ...interface{}) {
	log.Printf(" WARNING "+format, args...)
}

func (l stdLogger) Errorf(format string, args ...interface{}) {
	log.Printf(" ERROR "+format, args...)
}

func (l stdLogger) Shutdown() {
	if l.file != nil {
		l.file.Close()
	}
}
