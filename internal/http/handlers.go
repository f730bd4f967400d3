package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/machamp0714/linear-time-tracker/internal/domain"
	"github.com/rs/zerolog"
)

type service interface {
	Teams(ctx context.Context) ([]domain.Team, error)
	Categories(ctx context.Context, teamID int) ([]domain.Category, error)
	AllCategories(ctx context.Context) ([]domain.CategoryWithTeam, error)
	RecentCategories(ctx context.Context) ([]domain.RecentCategory, error)
	SaveRecentCategory(ctx context.Context, rc domain.RecentCategory) error
	StartTimer(ctx context.Context, teamID, categoryID int, issueID, title, linearURL string) (domain.TimerState, error)
	StopTimer(ctx context.Context) (domain.TimerState, error)
	CurrentTimer() domain.TimerState
	TimeForIssues(ctx context.Context, issueIDs []string) (map[string]int64, error)
	ReconcileTick(ctx context.Context) error
}

type Handlers struct {
	cfg config.Config
	log zerolog.Logger
	svc service
}

func NewHandlers(cfg config.Config, log zerolog.Logger, svc service) *Handlers {
	return &Handlers{cfg: cfg, log: log, svc: svc}
}

// message mirrors the extension's request envelope: one type tag plus the
// union of all per-type fields.
type message struct {
	Type          string   `json:"type"`
	TeamID        int      `json:"teamId"`
	TeamName      string   `json:"teamName"`
	CategoryID    int      `json:"categoryId"`
	CategoryTitle string   `json:"categoryTitle"`
	IssueID       string   `json:"issueId"`
	Title         string   `json:"title"`
	LinearURL     string   `json:"linearUrl"`
	IssueIDs      []string `json:"issueIds"`
}

func (h *Handlers) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Message dispatches one envelope. Operation failures travel inside the
// envelope as {success:false,error}; HTTP status stays 200 so the transport
// outcome and the operation outcome stay separate, matching the extension's
// messaging model.
func (h *Handlers) Message(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Any("panic", r).Msg("http: message handler panicked")
			c.JSON(http.StatusOK, gin.H{"success": false, "error": fmt.Sprint(r)})
		}
	}()

	var msg message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var data any
	var err error
	switch msg.Type {
	case "GET_TEAMS":
		data, err = h.svc.Teams(ctx)
	case "GET_CATEGORIES":
		data, err = h.svc.Categories(ctx, msg.TeamID)
	case "GET_ALL_CATEGORIES":
		data, err = h.svc.AllCategories(ctx)
	case "GET_RECENT_CATEGORIES":
		data, err = h.svc.RecentCategories(ctx)
	case "SAVE_RECENT_CATEGORY":
		err = h.svc.SaveRecentCategory(ctx, domain.RecentCategory{
			TeamID:        msg.TeamID,
			TeamName:      msg.TeamName,
			CategoryID:    msg.CategoryID,
			CategoryTitle: msg.CategoryTitle,
		})
	case "START_TIMER":
		data, err = h.svc.StartTimer(ctx, msg.TeamID, msg.CategoryID, msg.IssueID, msg.Title, msg.LinearURL)
	case "STOP_TIMER":
		data, err = h.svc.StopTimer(ctx)
	case "GET_CURRENT_TIMER":
		data = h.svc.CurrentTimer()
	case "GET_TIME_FOR_ISSUES":
		data, err = h.svc.TimeForIssues(ctx, msg.IssueIDs)
	default:
		err = fmt.Errorf("unknown message type: %s", msg.Type)
	}
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func (h *Handlers) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CurrentTimer())
}

// Reconcile queues a tick detached from the HTTP request, the same shape as
// the cron-driven one.
func (h *Handlers) Reconcile(c *gin.Context) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := h.svc.ReconcileTick(ctx); err != nil {
			h.log.Error().Err(err).Msg("http: manual reconcile failed")
		}
	}()
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
