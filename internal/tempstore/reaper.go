package tempstore

import (
	"os"
	"path/filepath"
	"time"
)

// SweepExpiredArtifacts removes every file directly under downloads whose
// mtime is older than ttl and whose name is not in keep. It is used by the
// queue's reaper (spec.md §4.5) for artifacts whose record has already been
// deleted or is terminal; keep is its live artifact set.
func (s *Store) SweepExpiredArtifacts(ttl time.Duration, keep map[string]struct{}) {
	entries, err := os.ReadDir(s.downloadsRoot)
	if err != nil {
		return
	}
	now := time.Now()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := keep[e.Name()]; ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > ttl {
			s.Unlink(filepath.Join(s.downloadsRoot, e.Name()))
		}
	}
}
