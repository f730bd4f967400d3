package timecrowd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/machamp0714/linear-time-tracker/internal/config"
	"github.com/rs/zerolog"
)

func newTestClient(srv *httptest.Server) *Client {
	cfg := config.Config{TimeCrowdBaseURL: srv.URL, TimeCrowdToken: "test-token", HTTPTimeout: 5 * time.Second}
	return NewClient(cfg, zerolog.Nop())
}

func TestTeamsSendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/teams" { t.Errorf("path = %s", r.URL.Path) }
		_, _ = w.Write([]byte(`[{"id":10,"name":"Team A"}]`))
	}))
	defer srv.Close()

	teams, err := newTestClient(srv).Teams(context.Background())
	if err != nil { t.Fatalf("Teams: %v", err) }
	if gotAuth != "Bearer test-token" { t.Fatalf("auth header = %q", gotAuth) }
	if len(teams) != 1 || teams[0].ID != 10 || teams[0].Name != "Team A" {
		t.Fatalf("unexpected teams: %#v", teams)
	}
}

func TestCreateAndStartTask(t *testing.T) {
	var calls []string
	var createBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch r.URL.Path {
		case "/teams/10/tasks":
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, &createBody)
			_, _ = w.Write([]byte(`{"id":100,"title":"[TIM-1] Test task"}`))
		case "/teams/10/tasks/100/start":
			_, _ = w.Write([]byte(`{"id":200,"started_at":"2026-01-01T00:00:00Z","duration":0}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	entry, err := newTestClient(srv).CreateAndStartTask(
		context.Background(), 10, 1, "TIM-1", "Test task",
		"https://linear.app/team/TIM/issue/TIM-1/test-task")
	if err != nil { t.Fatalf("CreateAndStartTask: %v", err) }
	if entry.ID != 200 { t.Fatalf("entry id = %d", entry.ID) }

	if len(calls) != 2 || calls[0] != "POST /teams/10/tasks" || calls[1] != "POST /teams/10/tasks/100/start" {
		t.Fatalf("call order: %v", calls)
	}
	// Wire body nests under "task" with parent_id for the category.
	task, _ := createBody["task"].(map[string]any)
	if task == nil { t.Fatalf("create body missing task key: %#v", createBody) }
	if task["title"] != "[TIM-1] Test task" { t.Fatalf("title = %v", task["title"]) }
	if task["parent_id"] != float64(1) { t.Fatalf("parent_id = %v", task["parent_id"]) }
	if task["url"] != "https://linear.app/team/TIM/issue/TIM-1/test-task" { t.Fatalf("url = %v", task["url"]) }
}

func TestCreateAndStartTaskStartFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/teams/10/tasks":
			_, _ = w.Write([]byte(`{"id":100}`))
		default:
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"timer already running"}`))
		}
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateAndStartTask(context.Background(), 10, 1, "TIM-1", "Test", "")
	if err == nil { t.Fatal("expected error") }
	if err.Error() != "timer already running" { t.Fatalf("err = %v", err) }
}

func TestStopEntryUsesPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/time_entries/200/stop" {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":200,"started_at":"2026-01-01T00:00:00Z","stopped_at":"2026-01-01T01:00:00Z","duration":3600}`))
	}))
	defer srv.Close()

	entry, err := newTestClient(srv).StopEntry(context.Background(), 200)
	if err != nil { t.Fatalf("StopEntry: %v", err) }
	if entry.StoppedAt == nil || entry.Duration != 3600 { t.Fatalf("unexpected entry: %#v", entry) }
}

func TestErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Teams(context.Background())
	if err == nil || err.Error() != "Unauthorized" { t.Fatalf("err = %v", err) }
}

func TestErrorMappingFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Teams(context.Background())
	if err == nil || err.Error() != "API error: 502" { t.Fatalf("err = %v", err) }
}

func TestEntryNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Not Found"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Entry(context.Background(), 999)
	if !errors.Is(err, ErrNotFound) { t.Fatalf("expected ErrNotFound, got %v", err) }
}

func TestMissingTokenIsConfigError(t *testing.T) {
	cfg := config.Config{TimeCrowdBaseURL: "http://127.0.0.1:0", HTTPTimeout: time.Second}
	c := NewClient(cfg, zerolog.Nop())
	if c.Configured() { t.Fatal("should not be configured") }
	if _, err := c.Teams(context.Background()); err == nil { t.Fatal("expected missing token error") }
}
