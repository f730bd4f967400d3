package services

import (
	"context"
	"errors"

	"github.com/machamp0714/linear-time-tracker/internal/adapters/timecrowd"
	"github.com/machamp0714/linear-time-tracker/internal/domain"
)

// ReconcileTick absorbs timer stops made outside this process, e.g. from
// TimeCrowd's own UI. The cron job drives it on a fixed schedule; tests call
// it directly.
func (s *Service) ReconcileTick(ctx context.Context) error {
	rec, err := s.repo.TrackingRecord(ctx)
	if err != nil { return err }
	if rec == nil { return nil }

	entry, err := s.tc.Entry(ctx, rec.EntryID)
	if err != nil {
		if errors.Is(err, timecrowd.ErrNotFound) {
			// Entry deleted remotely. Treat as a stop; the duration is
			// unknowable, so no sync.
			s.log.Info().Str("issue", rec.IssueID).Int("entry_id", rec.EntryID).Msg("reconcile: entry gone, resetting")
			s.reset(ctx)
			return nil
		}
		return err
	}
	if entry.StoppedAt == nil { return nil }

	// Stopped out of band. Replay the stop transition locally, then sync —
	// awaited here, nobody is waiting on a tick.
	s.log.Info().Str("issue", rec.IssueID).Int("entry_id", rec.EntryID).Msg("reconcile: external stop detected")
	s.reset(ctx)
	if entry.Duration > 0 { return s.SyncIssueTime(ctx, rec.IssueID) }
	return nil
}

// reset drops the tracking record and returns the in-memory state to idle.
func (s *Service) reset(ctx context.Context) {
	s.mu.Lock()
	s.state = domain.TimerState{}
	s.mu.Unlock()
	if err := s.repo.DeleteTrackingRecord(ctx); err != nil {
		s.log.Error().Err(err).Msg("reconcile: tracking record delete failed")
	}
}
