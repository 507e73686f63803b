package service

import (
	"context"
	"time"
)

// Snapshot writes the index to the configured snapshot path if it changed
// since the last successful snapshot or load. It reports whether a file
// was written.
func (s *Service) Snapshot() (bool, error) {
	s.snapMu.Lock()
	defer s.snapMu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.version == s.savedVersion {
		return false, nil
	}
	if err := s.ix.SaveToFile(s.cfg.SnapshotPath); err != nil {
		s.metrics.SnapshotsTotal.WithLabelValues("error").Inc()
		return false, err
	}
	s.savedVersion = s.version
	s.metrics.SnapshotsTotal.WithLabelValues("ok").Inc()
	return true, nil
}

// RunSnapshots calls Snapshot every SnapshotInterval until ctx is done.
// With a zero interval it only waits for ctx.
func (s *Service) RunSnapshots(ctx context.Context) error {
	if s.cfg.SnapshotInterval <= 0 || s.cfg.SnapshotPath == "" {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.cfg.SnapshotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Snapshot(); err != nil {
				s.logger.Error("snapshot failed", "path", s.cfg.SnapshotPath, "error", err)
			}
		}
	}
}
