// Package config loads the TOML configuration of a capture or pack run.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/janelia-flyem/gtbundle/archive"
	"github.com/janelia-flyem/gtbundle/gt"
)

// Config is the parsed configuration.  An example file:
//
//	[capture]
//	modalities = ["image", "depth", "label", "normal", "flow"]
//	far = 1e10        # 0.0 uses the camera far clip
//	keep_raw = false
//
//	[archive]
//	compression = "deflate"   # or "store"
//	schema = "1.0.0"
//
//	[logging]
//	logfile = "gtbundle.log"
//	max_log_size = 100  # MB
//	max_log_age = 30    # days
type Config struct {
	Capture captureConfig
	Archive archiveConfig
	Logging gt.LogConfig

	modalities []gt.Modality
}

type captureConfig struct {
	Modalities []string
	Far        float32
	KeepRaw    bool `toml:"keep_raw"`
}

type archiveConfig struct {
	Compression string
	Schema      string
}

// Default returns the configuration used when no file is given: every modality,
// far sentinel 1e10, deflate compression.
func Default() *Config {
	c := &Config{
		Capture: captureConfig{Far: gt.DefaultFarSentinel},
		Archive: archiveConfig{Compression: "deflate", Schema: archive.SchemaVersion.String()},
	}
	for _, m := range gt.Modalities {
		c.Capture.Modalities = append(c.Capture.Modalities, m.String())
	}
	if err := c.resolve(); err != nil {
		panic(err)
	}
	return c
}

// Load reads a TOML configuration file.  Settings absent from the file keep their
// defaults.  Relative log file paths are taken relative to the file's directory.
func Load(filename string) (*Config, error) {
	c := Default()
	if filename == "" {
		return c, nil
	}
	if _, err := toml.DecodeFile(filename, c); err != nil {
		return nil, gt.NewConfigError("could not decode TOML config %s: %v", filename, err)
	}
	if c.Logging.Logfile != "" {
		abs, err := gt.ConvertToAbsolute(c.Logging.Logfile, filepath.Dir(filename))
		if err != nil {
			return nil, gt.NewConfigError("logfile setting: %v", err)
		}
		c.Logging.Logfile = abs
	}
	if err := c.resolve(); err != nil {
		return nil, err
	}
	return c, nil
}

// resolve validates the settings and parses modality names.
func (c *Config) resolve() error {
	c.modalities = nil
	seen := make(map[gt.Modality]bool)
	for _, name := range c.Capture.Modalities {
		m, err := gt.ParseModality(strings.ToLower(strings.TrimSpace(name)))
		if err != nil {
			return gt.NewConfigError("capture.modalities: %v", err)
		}
		if !seen[m] {
			seen[m] = true
			c.modalities = append(c.modalities, m)
		}
	}
	for _, required := range []gt.Modality{gt.Image, gt.Depth} {
		if !seen[required] {
			return gt.NewConfigError("capture.modalities must include %q", required)
		}
	}
	if c.Capture.Far < 0 {
		return gt.NewConfigError("capture.far must be positive, or 0 to use the camera far clip")
	}
	if _, err := c.Method(); err != nil {
		return err
	}
	if err := archive.CheckSchema(c.Archive.Schema); err != nil {
		return gt.NewConfigError("archive.schema: %v", err)
	}
	return nil
}

// Modalities returns the enabled modalities in capture order.
func (c *Config) Modalities() []gt.Modality {
	out := make([]gt.Modality, 0, len(c.modalities))
	for _, m := range gt.Modalities {
		for _, enabled := range c.modalities {
			if m == enabled {
				out = append(out, m)
			}
		}
	}
	return out
}

// Enabled returns true if the modality is captured.
func (c *Config) Enabled(m gt.Modality) bool {
	for _, enabled := range c.modalities {
		if enabled == m {
			return true
		}
	}
	return false
}

// Method returns the zip compression method for archive members.
func (c *Config) Method() (uint16, error) {
	switch strings.ToLower(c.Archive.Compression) {
	case "", "deflate":
		return archive.Deflate, nil
	case "store", "none":
		return archive.Store, nil
	default:
		return 0, gt.NewConfigError("archive.compression %q must be \"deflate\" or \"store\"", c.Archive.Compression)
	}
}

// Far returns the depth detection threshold, falling back to the camera far clip
// when the configured value is 0.
func (c *Config) Far(cameraFar float32) float32 {
	if c.Capture.Far > 0 {
		return c.Capture.Far
	}
	if cameraFar > 0 {
		return cameraFar
	}
	return gt.DefaultFarSentinel
}

// Writer returns an archive writer for dir configured from c.
func (c *Config) Writer(dir string, cameraFar float32) *archive.Writer {
	w := archive.NewWriter(dir)
	w.Method, _ = c.Method()
	w.Far = c.Far(cameraFar)
	w.KeepSources = c.Capture.KeepRaw
	return w
}

func (c *Config) String() string {
	return fmt.Sprintf("modalities %v, far %g, compression %s", c.Modalities(), c.Capture.Far, c.Archive.Compression)
}
