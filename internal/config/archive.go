package config

import "fmt"

// Archive backends.
const (
	ArchiveFS  = "fs"
	ArchiveGCS = "gcs"
)

// ArchiveConfig selects where report snapshots are stored. An empty backend
// disables snapshots.
type ArchiveConfig struct {
	Backend string `env:"AWE_ARCHIVE_BACKEND"`
	Dir     string `env:"AWE_ARCHIVE_DIR" default:"./awe-reports"`
	Bucket  string `env:"AWE_ARCHIVE_GCS_BUCKET"`
	Prefix  string `env:"AWE_ARCHIVE_GCS_PREFIX" default:"reports"`
}

// Validate validates the archive configuration.
func (c *ArchiveConfig) Validate() error {
	switch c.Backend {
	case "":
	case ArchiveFS:
		if c.Dir == "" {
			return fmt.Errorf("AWE_ARCHIVE_DIR is required when AWE_ARCHIVE_BACKEND is %q", ArchiveFS)
		}
	case ArchiveGCS:
		if c.Bucket == "" {
			return fmt.Errorf("AWE_ARCHIVE_GCS_BUCKET is required when AWE_ARCHIVE_BACKEND is %q", ArchiveGCS)
		}
	default:
		return fmt.Errorf("unknown AWE_ARCHIVE_BACKEND: %s", c.Backend)
	}
	return nil
}
