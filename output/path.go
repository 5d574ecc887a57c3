package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Path is a per-run output location: one directory, named by a prefix, a
// timestamp, and a version, holding one numbered file per cadence-triggered
// dump. Mirrors `output/path.rs`'s OutputPath/with_extension scheme.
type Path struct {
	dir string
	id  string
}

// NewPath builds a Path rooted at root, identified by prefix-timestamp_vVERSION.
func NewPath(root, prefix, version string, now time.Time) Path {
	v := strings.ReplaceAll(version, ".", "_")
	id := fmt.Sprintf("%s-%s_v%s", prefix, now.Format("2006-01-02_150405"), v)
	return Path{dir: filepath.Join(root, id), id: id}
}

// Create makes the run directory.
func (p Path) Create() error {
	return os.MkdirAll(p.dir, 0o755)
}

// ID returns the run's identifier.
func (p Path) ID() string { return p.id }

// Dir returns the run's output directory.
func (p Path) Dir() string { return p.dir }

// WithExtension returns the numbered path for a single dump of the given
// kind at the given timestep, e.g. "<id>.particles-000042.bin".
func (p Path) WithExtension(ext string, timestep int) string {
	return filepath.Join(p.dir, fmt.Sprintf("%s.%s-%06d.bin", p.id, ext, timestep))
}

// SettingsSidecar returns the path of the run's TOML settings sidecar.
func (p Path) SettingsSidecar() string {
	return filepath.Join(p.dir, p.id+".toml")
}
