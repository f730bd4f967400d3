package domain

import "time"

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// CategoryWithTeam is the flattened projection used by the category picker.
type CategoryWithTeam struct {
	Category
	TeamID   int    `json:"teamId"`
	TeamName string `json:"teamName"`
}

type RecentCategory struct {
	TeamID        int       `json:"teamId"`
	TeamName      string    `json:"teamName"`
	CategoryID    int       `json:"categoryId"`
	CategoryTitle string    `json:"categoryTitle"`
	UsedAt        time.Time `json:"usedAt"`
}

type Task struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

type User struct {
	ID       int    `json:"id"`
	Nickname string `json:"nickname"`
}

// TimeEntry is owned by TimeCrowd; we only ever hold possibly-stale copies.
// Duration is in seconds and comes from the service, never computed here.
type TimeEntry struct {
	ID        int        `json:"id"`
	StartedAt time.Time  `json:"started_at"`
	StoppedAt *time.Time `json:"stopped_at"`
	Duration  int64      `json:"duration"`
	Task      *Task      `json:"task"`
	User      *User      `json:"user"`
}

// TimerState is the coordinator's in-memory snapshot.
// Invariant: IsRunning == (CurrentEntry != nil).
type TimerState struct {
	IsRunning      bool       `json:"isRunning"`
	CurrentEntry   *TimeEntry `json:"currentEntry"`
	CurrentIssueID string     `json:"currentIssueId"`
}

// TrackingRecord is the durable proof that a timer might still be running.
// It survives restarts; the reconcile tick settles it against TimeCrowd.
type TrackingRecord struct {
	IssueID   string
	EntryID   int
	StartedAt time.Time
}

type Issue struct {
	ID         string `json:"id"`
	Identifier string `json:"identifier"`
}

type Attachment struct {
	ID       string         `json:"id"`
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Metadata map[string]any `json:"metadata"`
}
