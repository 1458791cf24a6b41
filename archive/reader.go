package archive

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Archive is a frame archive read back into memory.
type Archive struct {
	Path   string
	arrays map[string]*Array
}

// Open reads every array of the archive at path.
func Open(path string) (*Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %v", path, err)
	}
	defer zr.Close()

	a := &Archive{Path: path, arrays: make(map[string]*Array)}
	for _, f := range zr.File {
		key := strings.TrimSuffix(f.Name, ".npy")
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("archive %s member %s: %v", path, f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("archive %s member %s: %v", path, f.Name, err)
		}
		arr, err := decodeNPY(key, data)
		if err != nil {
			return nil, fmt.Errorf("archive %s: %v", path, err)
		}
		a.arrays[key] = arr
	}
	return a, nil
}

// Keys returns the array names in sorted order.
func (a *Archive) Keys() []string {
	keys := make([]string, 0, len(a.arrays))
	for k := range a.arrays {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Array returns the named array.
func (a *Archive) Array(key string) (*Array, error) {
	arr, ok := a.arrays[key]
	if !ok {
		return nil, fmt.Errorf("archive %s has no %q array", a.Path, key)
	}
	return arr, nil
}
