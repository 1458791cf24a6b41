package gt

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// ArchiveExt is the extension of the per-frame archive.
const ArchiveExt = "npz"

// FrameFile returns the path of the raw file for a modality at a frame, e.g.
// dir/depth0007.exr.
func FrameFile(dir string, m Modality, frame int) string {
	return filepath.Join(dir, fmt.Sprintf("%s%04d.%s", m, frame, m.Ext()))
}

// ArchiveFile returns the path of the archive for a frame, e.g. dir/0007.npz.
func ArchiveFile(dir string, frame int) string {
	return filepath.Join(dir, fmt.Sprintf("%04d.%s", frame, ArchiveExt))
}

// ParseFrameFile returns the modality and frame number encoded in a raw file name.
func ParseFrameFile(name string) (Modality, int, error) {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for _, m := range Modalities {
		prefix := m.String()
		if !strings.HasPrefix(stem, prefix) || ext != "."+m.Ext() {
			continue
		}
		digits := stem[len(prefix):]
		if len(digits) < 4 || strings.TrimLeft(digits, "0123456789") != "" {
			break
		}
		frame, err := strconv.Atoi(digits)
		if err != nil {
			break
		}
		return m, frame, nil
	}
	return 0, 0, fmt.Errorf("%q is not a <modality>NNNN frame file", base)
}
