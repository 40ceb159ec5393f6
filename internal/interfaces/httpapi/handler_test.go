package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/courtside/community-api/internal/domain/game"
	"github.com/courtside/community-api/internal/infrastructure/repository/memory"
	"github.com/courtside/community-api/internal/usecase"
)

const testInternalToken = "test-job-token"

type routerFixture struct {
	gameRepo   *memory.GameRepository
	ratingRepo *memory.RatingRepository
	router     http.Handler
}

type recordingEnqueuer struct {
	gameIDs []string
	err     error
}

func (e *recordingEnqueuer) EnqueueGameReconcile(_ context.Context, gameID string, _ time.Duration) error {
	if e.err != nil {
		return e.err
	}
	e.gameIDs = append(e.gameIDs, gameID)
	return nil
}

func newRouterFixture(t *testing.T, enqueuer ReconcileEnqueuer) *routerFixture {
	t.Helper()

	gameRepo := memory.NewGameRepository()
	ratingRepo := memory.NewRatingRepository()
	seedConfirmedGame(gameRepo)

	ratingService := usecase.NewRatingService(gameRepo, ratingRepo, nil)
	resyncService := usecase.NewRatingResyncService(ratingService, nil)
	handler := NewHandler(ratingService, resyncService, enqueuer, nil)

	return &routerFixture{
		gameRepo:   gameRepo,
		ratingRepo: ratingRepo,
		router:     NewRouter(handler, nil, nil, testInternalToken),
	}
}

// seedConfirmedGame stores one completed draft game, p1,p2 vs p3,p4,
// confirmed 10-6 for team A.
func seedConfirmedGame(repo *memory.GameRepository) {
	repo.PutGame(game.Game{
		ID:               "game-1",
		CommunityID:      "community-1",
		Status:           game.StatusCompleted,
		DraftStatus:      game.DraftStatusCompleted,
		DraftModeEnabled: true,
	})
	repo.PutTeams("game-1", []game.Team{
		{ID: "team-a", GameID: "game-1", DraftOrder: 1},
		{ID: "team-b", GameID: "game-1", DraftOrder: 2},
	})
	repo.PutTeamMembers("team-a", []string{"p1", "p2"})
	repo.PutTeamMembers("team-b", []string{"p3", "p4"})

	winner := "team-a"
	loser := "team-b"
	winnerScore := 10
	loserScore := 6
	repo.PutResult(game.Result{
		GameID:        "game-1",
		Status:        game.ResultStatusConfirmed,
		WinningTeamID: &winner,
		LosingTeamID:  &loser,
		WinnerScore:   &winnerScore,
		LoserScore:    &loserScore,
	})
	repo.PutQueueEntries("game-1", []game.QueueEntry{
		{GameID: "game-1", ProfileID: "p1", Status: game.QueueStatusRostered},
		{GameID: "game-1", ProfileID: "p2", Status: game.QueueStatusRostered},
		{GameID: "game-1", ProfileID: "p3", Status: game.QueueStatusRostered},
		{GameID: "game-1", ProfileID: "p4", Status: game.QueueStatusRostered},
	})
}

func internalRequest(method, target string, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("X-Internal-Job-Token", testInternalToken)
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestHealthz(t *testing.T) {
	fixture := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReconcileThenGetGameRating(t *testing.T) {
	fixture := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/reconcile", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from reconcile, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/game-1/rating", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from get rating, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body)
	}
	if got, _ := data["rated"].(bool); !got {
		t.Fatalf("expected snapshot to be rated, got %v", data["rated"])
	}
	if got, _ := data["goal_diff"].(float64); got != 4 {
		t.Fatalf("expected goal_diff 4, got %v", data["goal_diff"])
	}
	players, ok := data["players"].([]any)
	if !ok || len(players) != 4 {
		t.Fatalf("expected 4 player snapshots, got %v", data["players"])
	}
}

func TestGetGameRating_NotFound(t *testing.T) {
	fixture := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/unknown/rating", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListCommunityRatings(t *testing.T) {
	fixture := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/reconcile", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from reconcile, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/communities/community-1/ratings", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body)
	}
	ratings, ok := data["ratings"].([]any)
	if !ok || len(ratings) != 4 {
		t.Fatalf("expected 4 community ratings, got %v", data["ratings"])
	}
	top, ok := ratings[0].(map[string]any)
	if !ok {
		t.Fatalf("expected rating object, got %v", ratings[0])
	}
	if got, _ := top["rating"].(float64); got <= 1500 {
		t.Fatalf("expected winner rating above base, got %v", top["rating"])
	}
}

func TestInternalRoutesRejectMissingToken(t *testing.T) {
	fixture := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/internal/games/game-1/rating/reconcile", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestRollbackGameRating(t *testing.T) {
	fixture := newRouterFixture(t, nil)

	rec := httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/reconcile", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from reconcile, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/rollback", ""))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from rollback, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	fixture.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/games/game-1/rating", nil))
	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %v", body)
	}
	if got, _ := data["rated"].(bool); got {
		t.Fatalf("expected snapshot unrated after rollback")
	}
	if _, ok := data["invalidated_at"]; !ok {
		t.Fatalf("expected invalidated_at after rollback")
	}
}

func TestEnqueueGameRatingReconcile(t *testing.T) {
	t.Run("publishes through the enqueuer", func(t *testing.T) {
		enqueuer := &recordingEnqueuer{}
		fixture := newRouterFixture(t, enqueuer)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/enqueue", `{"delay_seconds": 5}`))

		if rec.Code != http.StatusAccepted {
			t.Fatalf("expected 202, got %d body=%s", rec.Code, rec.Body.String())
		}
		if len(enqueuer.gameIDs) != 1 || enqueuer.gameIDs[0] != "game-1" {
			t.Fatalf("expected one enqueue for game-1, got %v", enqueuer.gameIDs)
		}
	})

	t.Run("returns 503 without an enqueuer", func(t *testing.T) {
		fixture := newRouterFixture(t, nil)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/enqueue", ""))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("returns 503 when publish fails", func(t *testing.T) {
		enqueuer := &recordingEnqueuer{err: errors.New("queue down")}
		fixture := newRouterFixture(t, enqueuer)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/enqueue", ""))

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})

	t.Run("rejects negative delay", func(t *testing.T) {
		enqueuer := &recordingEnqueuer{}
		fixture := newRouterFixture(t, enqueuer)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/games/game-1/rating/enqueue", `{"delay_seconds": -1}`))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestResyncCommunityRatings(t *testing.T) {
	t.Run("runs a full resync", func(t *testing.T) {
		fixture := newRouterFixture(t, nil)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/communities/community-1/rating/resync", `{"max_workers": 2}`))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
		}

		body := decodeEnvelope(t, rec)
		data, ok := body["data"].(map[string]any)
		if !ok {
			t.Fatalf("expected data object, got %v", body)
		}
		if got, _ := data["game_count"].(float64); got != 1 {
			t.Fatalf("expected game_count 1, got %v", data["game_count"])
		}
		if got, _ := data["success_count"].(float64); got != 1 {
			t.Fatalf("expected success_count 1, got %v", data["success_count"])
		}
	})

	t.Run("dry run writes nothing", func(t *testing.T) {
		fixture := newRouterFixture(t, nil)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/communities/community-1/rating/resync", `{"dry_run": true}`))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
		}
		if events := fixture.ratingRepo.Events(); len(events) != 0 {
			t.Fatalf("expected no events after dry run, got %d", len(events))
		}
	})

	t.Run("rejects out of range worker count", func(t *testing.T) {
		fixture := newRouterFixture(t, nil)

		rec := httptest.NewRecorder()
		fixture.router.ServeHTTP(rec, internalRequest(http.MethodPost, "/v1/internal/communities/community-1/rating/resync", `{"max_workers": 99}`))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
