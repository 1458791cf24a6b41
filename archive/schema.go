package archive

import (
	"fmt"

	"github.com/blang/semver"
)

// SchemaVersion is the version of the key layout described in the package docs.
// Consumers written against any 1.x schema can read archives of this version.
var SchemaVersion = semver.MustParse("1.0.0")

// Archive keys.
const (
	KeyImage     = "image"
	KeyDepth     = "depth"
	KeyLabel     = "label"
	KeyNormal    = "normal"
	KeyFlow      = "flow"
	KeyIntrinsic = "intrinsic"
	KeyExtrinsic = "extrinsic"
)

// CheckSchema returns an error if an archive consumer expecting the given schema
// version cannot read archives written by this package.
func CheckSchema(version string) error {
	v, err := semver.Parse(version)
	if err != nil {
		return fmt.Errorf("bad archive schema version %q: %v", version, err)
	}
	if v.Major != SchemaVersion.Major || v.GT(SchemaVersion) {
		return fmt.Errorf("archive schema %s requested, this build writes %s", v, SchemaVersion)
	}
	return nil
}
