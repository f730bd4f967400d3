package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/machamp0714/linear-time-tracker/internal/cache"
	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/machamp0714/linear-time-tracker/internal/domain"
	"github.com/machamp0714/linear-time-tracker/internal/issueid"
	"github.com/rs/zerolog"
)

// tracker is the slice of the TimeCrowd client the coordinator needs.
type tracker interface {
	Configured() bool
	Teams(ctx context.Context) ([]domain.Team, error)
	Categories(ctx context.Context, teamID int) ([]domain.Category, error)
	CreateAndStartTask(ctx context.Context, teamID, categoryID int, issueID, title, issueURL string) (*domain.TimeEntry, error)
	StopEntry(ctx context.Context, entryID int) (*domain.TimeEntry, error)
	Entry(ctx context.Context, entryID int) (*domain.TimeEntry, error)
	Entries(ctx context.Context) ([]domain.TimeEntry, error)
}

// issueTracker is the slice of the Linear client the sync flow needs.
type issueTracker interface {
	Configured() bool
	IssueByIdentifier(ctx context.Context, identifier string) (*domain.Issue, error)
	CreateAttachment(ctx context.Context, issueID, title, subtitle, url string, metadata map[string]any) (*domain.Attachment, error)
}

type store interface {
	SaveTrackingRecord(ctx context.Context, rec domain.TrackingRecord) error
	TrackingRecord(ctx context.Context) (*domain.TrackingRecord, error)
	DeleteTrackingRecord(ctx context.Context) error
	ReplaceRecentCategories(ctx context.Context, list []domain.RecentCategory) error
	RecentCategories(ctx context.Context) ([]domain.RecentCategory, error)
}

// Service is the timer coordinator: it owns the single-timer state machine,
// the cross-service sync, and the reconcile tick the cron job drives.
type Service struct {
	cfg   config.Config
	log   zerolog.Logger
	repo  store
	tc    tracker
	lin   issueTracker
	cache *cache.Cache

	// mu serializes timer transitions. State is only ever replaced whole,
	// after the remote call resolved, never field by field.
	mu    sync.Mutex
	state domain.TimerState

	syncs sync.WaitGroup
	now   func() time.Time
}

func New(cfg config.Config, log zerolog.Logger, repo store, tc tracker, lin issueTracker) *Service {
	return &Service{
		cfg:   cfg,
		log:   log,
		repo:  repo,
		tc:    tc,
		lin:   lin,
		cache: cache.New(cfg.CacheTTL),
		now:   time.Now,
	}
}

func (s *Service) Teams(ctx context.Context) ([]domain.Team, error) {
	if v, ok := s.cache.Get("teams"); ok {
		if teams, ok := v.([]domain.Team); ok { return teams, nil }
	}
	teams, err := s.tc.Teams(ctx)
	if err != nil { return nil, err }
	s.cache.Set("teams", teams)
	return teams, nil
}

func (s *Service) Categories(ctx context.Context, teamID int) ([]domain.Category, error) {
	key := fmt.Sprintf("categories_%d", teamID)
	if v, ok := s.cache.Get(key); ok {
		if cats, ok := v.([]domain.Category); ok { return cats, nil }
	}
	cats, err := s.tc.Categories(ctx, teamID)
	if err != nil { return nil, err }
	s.cache.Set(key, cats)
	return cats, nil
}

// AllCategories flattens every team's categories into one list for the
// picker. Per-team fetches run concurrently; team order is preserved.
func (s *Service) AllCategories(ctx context.Context) ([]domain.CategoryWithTeam, error) {
	const key = "all_categories"
	if v, ok := s.cache.Get(key); ok {
		if all, ok := v.([]domain.CategoryWithTeam); ok { return all, nil }
	}
	teams, err := s.Teams(ctx)
	if err != nil { return nil, err }

	perTeam := make([][]domain.CategoryWithTeam, len(teams))
	errs := make([]error, len(teams))
	var wg sync.WaitGroup
	for i, t := range teams {
		wg.Add(1)
		go func(i int, t domain.Team) {
			defer wg.Done()
			cats, err := s.tc.Categories(ctx, t.ID)
			if err != nil { errs[i] = err; return }
			out := make([]domain.CategoryWithTeam, 0, len(cats))
			for _, c := range cats {
				out = append(out, domain.CategoryWithTeam{Category: c, TeamID: t.ID, TeamName: t.Name})
			}
			perTeam[i] = out
		}(i, t)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil { return nil, err }
	}
	var all []domain.CategoryWithTeam
	for _, part := range perTeam { all = append(all, part...) }
	s.cache.Set(key, all)
	return all, nil
}

func (s *Service) RecentCategories(ctx context.Context) ([]domain.RecentCategory, error) {
	return s.repo.RecentCategories(ctx)
}

// SaveRecentCategory moves the (team, category) pair to the head of the
// bounded most-recently-used list, deduplicated, capped at the configured
// limit.
func (s *Service) SaveRecentCategory(ctx context.Context, rc domain.RecentCategory) error {
	list, err := s.repo.RecentCategories(ctx)
	if err != nil { return err }
	rc.UsedAt = s.now()
	out := make([]domain.RecentCategory, 0, len(list)+1)
	out = append(out, rc)
	for _, existing := range list {
		if existing.TeamID == rc.TeamID && existing.CategoryID == rc.CategoryID { continue }
		out = append(out, existing)
	}
	limit := s.cfg.RecentCategoryLimit
	if limit <= 0 { limit = 5 }
	if len(out) > limit { out = out[:limit] }
	return s.repo.ReplaceRecentCategories(ctx, out)
}

// StartTimer starts tracking an issue, auto-switching away from any timer
// already running. On any remote failure the state is left exactly as it
// was; nothing partial is committed.
func (s *Service) StartTimer(ctx context.Context, teamID, categoryID int, issueID, title, linearURL string) (domain.TimerState, error) {
	if issueid.Extract(issueID) == "" {
		return s.CurrentTimer(), fmt.Errorf("invalid issue id: %q", issueID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsRunning && s.state.CurrentEntry != nil {
		prevIssue := s.state.CurrentIssueID
		stopped, err := s.tc.StopEntry(ctx, s.state.CurrentEntry.ID)
		if err != nil { return s.state, err }
		// The previous issue's total changed; push it to Linear without
		// holding up the new start.
		if stopped.Duration > 0 && prevIssue != "" { s.spawnSync(prevIssue) }
	}

	entry, err := s.tc.CreateAndStartTask(ctx, teamID, categoryID, issueID, title, linearURL)
	if err != nil { return s.state, err }

	s.state = domain.TimerState{IsRunning: true, CurrentEntry: entry, CurrentIssueID: issueID}
	rec := domain.TrackingRecord{IssueID: issueID, EntryID: entry.ID, StartedAt: entry.StartedAt}
	if err := s.repo.SaveTrackingRecord(ctx, rec); err != nil {
		// Timer is running remotely either way; losing the record only
		// costs reconciliation after a restart.
		s.log.Error().Err(err).Str("issue", issueID).Msg("coordinator: tracking record save failed")
	}
	s.log.Info().Str("issue", issueID).Int("entry_id", entry.ID).Msg("coordinator: timer started")
	return s.state, nil
}

// StopTimer stops the running timer. A stop while idle is a no-op that
// returns the current state. The Linear sync runs detached; its outcome
// never reaches the caller.
func (s *Service) StopTimer(ctx context.Context) (domain.TimerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.IsRunning || s.state.CurrentEntry == nil { return s.state, nil }

	stopped, err := s.tc.StopEntry(ctx, s.state.CurrentEntry.ID)
	if err != nil { return s.state, err }

	issueID := s.state.CurrentIssueID
	s.state = domain.TimerState{}
	if err := s.repo.DeleteTrackingRecord(ctx); err != nil {
		s.log.Error().Err(err).Msg("coordinator: tracking record delete failed")
	}
	if stopped.Duration > 0 && issueID != "" { s.spawnSync(issueID) }
	s.log.Info().Str("issue", issueID).Int("entry_id", stopped.ID).Msg("coordinator: timer stopped")
	return s.state, nil
}

// CurrentTimer returns a snapshot; pure read, no remote calls.
func (s *Service) CurrentTimer() domain.TimerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TimeForIssues sums tracked seconds per issue over the user's entry
// history. One fetch, then substring matching per issue; entry counts are a
// single user's history, so the quadratic scan is fine.
func (s *Service) TimeForIssues(ctx context.Context, issueIDs []string) (map[string]int64, error) {
	entries, err := s.tc.Entries(ctx)
	if err != nil { return nil, err }
	out := make(map[string]int64, len(issueIDs))
	for _, id := range issueIDs {
		out[id] = sumMatching(entries, id)
	}
	return out, nil
}
