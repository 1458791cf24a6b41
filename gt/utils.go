package gt

import (
	"fmt"
	"os"
	"path/filepath"
)

// ConvertToAbsolute returns an absolute path, interpreting a relative path
// relative to the given base directory.
func ConvertToAbsolute(path, baseDir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	abs, err := filepath.Abs(filepath.Join(baseDir, path))
	if err != nil {
		return "", fmt.Errorf("could not make %q absolute: %v", path, err)
	}
	return abs, nil
}

// FileExists returns true if a regular file exists at the path.
func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
