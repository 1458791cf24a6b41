package gt

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	. "github.com/janelia-flyem/go/gocheck"
)

type recorder struct {
	lines []string
}

func (r *recorder) record(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *recorder) Debugf(format string, args ...interface{})   { r.record("D", format, args...) }
func (r *recorder) Infof(format string, args ...interface{})    { r.record("I", format, args...) }
func (r *recorder) Warningf(format string, args ...interface{}) { r.record("W", format, args...) }
func (r *recorder) Errorf(format string, args ...interface{})   { r.record("E", format, args...) }
func (r *recorder) Shutdown()                                   {}

type LogSuite struct {
	saved     Logger
	savedMode ModeFlag
	rec       *recorder
}

var _ = Suite(&LogSuite{})

func (s *LogSuite) SetUpTest(c *C) {
	s.saved, s.savedMode = logger, mode
	s.rec = &recorder{}
	logger = s.rec
}

func (s *LogSuite) TearDownTest(c *C) {
	logger, mode = s.saved, s.savedMode
}

func (s *LogSuite) TestModeFilters(c *C) {
	SetLogMode(WarningMode)
	Debugf("d")
	Infof("i")
	Warningf("w %d", 1)
	Errorf("e")
	c.Assert(s.rec.lines, DeepEquals, []string{"W w 1", "E e"})

	s.rec.lines = nil
	SetLogMode(SilentMode)
	Errorf("e")
	c.Assert(s.rec.lines, HasLen, 0)
}

func (s *LogSuite) TestTimeLog(c *C) {
	SetLogMode(InfoMode)
	t := NewTimeLog()
	t.Debugf("hidden")
	c.Assert(s.rec.lines, HasLen, 0)

	SetLogMode(DebugMode)
	t.Debugf("Frame %04d: archived", 3)
	c.Assert(s.rec.lines, HasLen, 1)
	c.Assert(strings.HasPrefix(s.rec.lines[0], "D Frame 0003: archived: "), Equals, true)
}

func (s *LogSuite) TestLogFile(c *C) {
	path := filepath.Join(c.MkDir(), "gtbundle.log")
	cfg := &LogConfig{Logfile: path, MaxSize: 1, MaxAge: 1}
	cfg.SetLogger()
	defer func() {
		logger.Shutdown()
		log.SetOutput(os.Stderr)
		logger = s.rec
	}()
	SetLogMode(InfoMode)
	Infof("Packed %d frames\n", 2)

	data, err := os.ReadFile(path)
	c.Assert(err, IsNil)
	c.Assert(strings.Contains(string(data), " INFO Packed 2 frames"), Equals, true)
}
