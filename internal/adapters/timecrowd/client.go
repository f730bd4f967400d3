package timecrowd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/machamp0714/linear-time-tracker/internal/domain"
	"github.com/rs/zerolog"
)

// ErrNotFound marks a 404 from TimeCrowd, e.g. a time entry deleted remotely.
var ErrNotFound = errors.New("timecrowd: not found")

type Client struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.TimeCrowdBaseURL, "/"),
		token:   cfg.TimeCrowdToken,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		log:     log,
	}
}

// Configured reports whether a bearer token is present. Calls without one
// fail immediately as a configuration error, never reaching the network.
func (c *Client) Configured() bool { return strings.TrimSpace(c.token) != "" }

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	if !c.Configured() { return errors.New("timecrowd: missing token") }
	var r *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil { return err }
		r = bytes.NewReader(b)
	} else {
		r = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil { return err }
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil { return err }
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		msg := apiErr.Error
		if msg == "" { msg = apiErr.Message }
		if msg == "" { msg = fmt.Sprintf("API error: %d", resp.StatusCode) }
		if resp.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, msg)
		}
		return errors.New(msg)
	}
	if out == nil { return nil }
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) Teams(ctx context.Context) ([]domain.Team, error) {
	var teams []domain.Team
	if err := c.doJSON(ctx, http.MethodGet, "/teams", nil, &teams); err != nil { return nil, err }
	return teams, nil
}

func (c *Client) Categories(ctx context.Context, teamID int) ([]domain.Category, error) {
	var cats []domain.Category
	path := fmt.Sprintf("/teams/%d/categories", teamID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &cats); err != nil { return nil, err }
	return cats, nil
}

// CreateAndStartTask creates a task titled "[<issueID>] <title>" parented
// under the category, then starts a timer on it. If the start call fails the
// created task is left behind on TimeCrowd; there is no rollback, so the
// orphan is logged with its id.
func (c *Client) CreateAndStartTask(ctx context.Context, teamID, categoryID int, issueID, title, issueURL string) (*domain.TimeEntry, error) {
	body := map[string]any{
		"task": map[string]any{
			"title":     fmt.Sprintf("[%s] %s", issueID, title),
			"url":       issueURL,
			"parent_id": categoryID,
		},
	}
	var task domain.Task
	createPath := fmt.Sprintf("/teams/%d/tasks", teamID)
	if err := c.doJSON(ctx, http.MethodPost, createPath, body, &task); err != nil { return nil, err }

	var entry domain.TimeEntry
	startPath := fmt.Sprintf("/teams/%d/tasks/%d/start", teamID, task.ID)
	if err := c.doJSON(ctx, http.MethodPost, startPath, map[string]any{}, &entry); err != nil {
		c.log.Error().Err(err).Int("task_id", task.ID).Str("issue", issueID).Msg("timecrowd: start failed, task orphaned")
		return nil, err
	}
	return &entry, nil
}

func (c *Client) StopEntry(ctx context.Context, entryID int) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	path := fmt.Sprintf("/time_entries/%d/stop", entryID)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, &entry); err != nil { return nil, err }
	return &entry, nil
}

func (c *Client) Entry(ctx context.Context, entryID int) (*domain.TimeEntry, error) {
	var entry domain.TimeEntry
	path := fmt.Sprintf("/time_entries/%d", entryID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &entry); err != nil { return nil, err }
	return &entry, nil
}

func (c *Client) Entries(ctx context.Context) ([]domain.TimeEntry, error) {
	var entries []domain.TimeEntry
	if err := c.doJSON(ctx, http.MethodGet, "/time_entries", nil, &entries); err != nil { return nil, err }
	return entries, nil
}
