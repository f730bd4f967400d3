package services

import (
	"context"
	"time"

	"github.com/machamp0714/linear-time-tracker/internal/domain"
	"github.com/machamp0714/linear-time-tracker/internal/issueid"
)

// attachmentURLBase keeps the attachment URL stable per issue so Linear's
// attachmentCreate upserts in place instead of stacking duplicates.
const attachmentURLBase = "https://timecrowd.net/linear/"

const syncTimeout = 2 * time.Minute

// spawnSync runs the Linear sync for an issue detached from the caller.
// Failures are logged here and go nowhere else; the triggering Stop/Start
// must not be delayed or failed by it.
func (s *Service) spawnSync(issueID string) {
	s.syncs.Add(1)
	go func() {
		defer s.syncs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		if err := s.SyncIssueTime(ctx, issueID); err != nil {
			s.log.Error().Err(err).Str("issue", issueID).Msg("sync: issue time sync failed")
		}
	}()
}

// WaitSyncs blocks until every detached sync has finished. Used on shutdown
// and by tests.
func (s *Service) WaitSyncs() { s.syncs.Wait() }

// SyncIssueTime recomputes the issue's grand total from TimeCrowd and
// upserts it as an attachment on the Linear issue. Recomputing from scratch
// every time makes the sync idempotent and self-correcting against missed
// runs. Skipped silently when either credential is absent (feature off, not
// an error) or the issue has no Linear-side counterpart.
func (s *Service) SyncIssueTime(ctx context.Context, issueID string) error {
	if !s.tc.Configured() || !s.lin.Configured() {
		s.log.Debug().Str("issue", issueID).Msg("sync: skipped, credentials not configured")
		return nil
	}
	entries, err := s.tc.Entries(ctx)
	if err != nil { return err }
	total := sumMatching(entries, issueID)

	issue, err := s.lin.IssueByIdentifier(ctx, issueID)
	if err != nil || issue == nil { return nil }

	_, err = s.lin.CreateAttachment(ctx,
		issue.ID,
		"TimeCrowd: "+issueid.FormatDuration(total),
		"Tracked with TimeCrowd",
		attachmentURLBase+issueID,
		map[string]any{"totalSeconds": total},
	)
	if err != nil { return err }
	s.log.Info().Str("issue", issueID).Int64("total_seconds", total).Msg("sync: issue total pushed to linear")
	return nil
}

func sumMatching(entries []domain.TimeEntry, issueID string) int64 {
	var total int64
	for _, e := range entries {
		if e.Task != nil && issueid.MatchInTitle(e.Task.Title, issueID) { total += e.Duration }
	}
	return total
}
