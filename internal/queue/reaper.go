package queue

import (
	"context"
	"path/filepath"
	"time"
)

// StartReaper runs Reap on the configured 60s cadence (spec.md §4.5) until
// ctx is cancelled.
func (m *Manager) StartReaper(ctx context.Context) {
	ticker := time.NewTicker(60 * time.Second)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Reap()
			}
		}
	}()
}

// ForceCleanup runs the reaper synchronously (admin operation, spec.md §4.5).
func (m *Manager) ForceCleanup() {
	m.Reap()
}

// Reap deletes terminal records older than job_ttl (unlinking their
// artifact first) and sweeps any artifact on disk older than output_ttl
// whose record is missing or terminal.
func (m *Manager) Reap() {
	m.mu.Lock()
	now := time.Now()
	var toDelete []string
	keep := make(map[string]struct{})

	for id, rec := range m.records {
		if rec.Status.Terminal() && rec.FinishedAt != nil && now.Sub(*rec.FinishedAt) > m.cfg.JobTTL {
			toDelete = append(toDelete, id)
			continue
		}
		if rec.OutputPath != "" {
			keep[filepath.Base(rec.OutputPath)] = struct{}{}
		}
	}

	var artifactsToUnlink []string
	for _, id := range toDelete {
		rec := m.records[id]
		if rec.OutputPath != "" {
			artifactsToUnlink = append(artifactsToUnlink, rec.OutputPath)
		}
		delete(m.records, id)
	}
	m.mu.Unlock()

	for _, path := range artifactsToUnlink {
		m.store.Unlink(path)
	}
	m.store.SweepExpiredArtifacts(m.cfg.OutputTTL, keep)

	if len(toDelete) > 0 {
		m.log.Info().Int("count", len(toDelete)).Msg("reaper purged terminal records")
	}
}
