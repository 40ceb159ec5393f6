package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/courtside/community-api/internal/platform/logging"
	"github.com/courtside/community-api/internal/usecase"
)

// ReconcileEnqueuer publishes an asynchronous reconcile job for a game.
type ReconcileEnqueuer interface {
	EnqueueGameReconcile(ctx context.Context, gameID string, delay time.Duration) error
}

type Handler struct {
	ratingService *usecase.RatingService
	resyncService *usecase.RatingResyncService
	enqueuer      ReconcileEnqueuer
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	ratingService *usecase.RatingService,
	resyncService *usecase.RatingResyncService,
	enqueuer ReconcileEnqueuer,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		ratingService: ratingService,
		resyncService: resyncService,
		enqueuer:      enqueuer,
		logger:        logger,
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ReconcileGameRating(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReconcileGameRating")
	defer span.End()

	gameID := r.PathValue("gameID")
	if err := h.ratingService.ReconcileGame(ctx, gameID); err != nil {
		h.logger.ErrorContext(ctx, "reconcile game rating failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileResponseDTO{
		GameID: gameID,
		Status: "reconciled",
	})
}

func (h *Handler) RollbackGameRating(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RollbackGameRating")
	defer span.End()

	gameID := r.PathValue("gameID")
	if err := h.ratingService.RollbackGame(ctx, gameID); err != nil {
		h.logger.ErrorContext(ctx, "rollback game rating failed", "game_id", gameID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileResponseDTO{
		GameID: gameID,
		Status: "rolled_back",
	})
}

func (h *Handler) EnqueueGameRatingReconcile(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EnqueueGameRatingReconcile")
	defer span.End()

	gameID := r.PathValue("gameID")
	if h.enqueuer == nil {
		writeError(ctx, w, fmt.Errorf("%w: job queue is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	var req enqueueReconcileRequestDTO
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	delay := time.Duration(req.DelaySeconds) * time.Second
	if err := h.enqueuer.EnqueueGameReconcile(ctx, gameID, delay); err != nil {
		h.logger.ErrorContext(ctx, "enqueue game rating reconcile failed", "game_id", gameID, "error", err)
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err))
		return
	}

	writeSuccess(ctx, w, http.StatusAccepted, reconcileResponseDTO{
		GameID: gameID,
		Status: "enqueued",
	})
}

func (h *Handler) ResyncCommunityRatings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResyncCommunityRatings")
	defer span.End()

	communityID := r.PathValue("communityID")

	var req resyncRequestDTO
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.resyncService.Run(ctx, usecase.RatingResyncInput{
		CommunityID: communityID,
		MaxWorkers:  req.MaxWorkers,
		DryRun:      req.DryRun,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "community rating resync failed", "community_id", communityID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) GetGameRating(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetGameRating")
	defer span.End()

	gameID := r.PathValue("gameID")
	snapshot, players, err := h.ratingService.GetGameRating(ctx, gameID)
	if err != nil {
		if !errors.Is(err, usecase.ErrNotFound) {
			h.logger.ErrorContext(ctx, "get game rating failed", "game_id", gameID, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	dto := gameRatingDTO{
		GameID:        snapshot.GameID,
		CommunityID:   snapshot.CommunityID,
		Rated:         snapshot.Rated,
		TeamAID:       snapshot.TeamAID,
		TeamBID:       snapshot.TeamBID,
		GoalDiff:      snapshot.GoalDiff,
		TeamARating:   snapshot.TeamARating,
		TeamBRating:   snapshot.TeamBRating,
		AppliedAt:     snapshot.AppliedAt,
		InvalidatedAt: snapshot.InvalidatedAt,
		Players:       make([]gameRatingPlayerDTO, 0, len(players)),
	}
	for _, row := range players {
		dto.Players = append(dto.Players, gameRatingPlayerDTO{
			ProfileID:     row.ProfileID,
			TeamID:        row.TeamID,
			TeamSide:      string(row.TeamSide),
			PreRating:     row.PreRating,
			PreRatedGames: row.PreRatedGames,
			KUsed:         row.KUsed,
			Delta:         row.Delta,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, dto)
}

func (h *Handler) ListCommunityRatings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListCommunityRatings")
	defer span.End()

	communityID := r.PathValue("communityID")
	rows, err := h.ratingService.ListCommunityStandings(ctx, communityID)
	if err != nil {
		h.logger.ErrorContext(ctx, "list community ratings failed", "community_id", communityID, "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]communityRatingDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, communityRatingDTO{
			ProfileID:  row.ProfileID,
			Rating:     row.Rating,
			RatedGames: row.RatedGames,
		})
	}

	writeSuccess(ctx, w, http.StatusOK, communityRatingsDTO{
		CommunityID: communityID,
		Ratings:     out,
	})
}

// decodeJSONBody tolerates an empty body so internal endpoints can be
// triggered without a payload.
func decodeJSONBody(r *http.Request, out any) error {
	if r.Body == nil {
		return nil
	}
	err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(out)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

type reconcileResponseDTO struct {
	GameID string `json:"game_id"`
	Status string `json:"status"`
}

type enqueueReconcileRequestDTO struct {
	DelaySeconds int `json:"delay_seconds" validate:"gte=0,lte=3600"`
}

type resyncRequestDTO struct {
	MaxWorkers int  `json:"max_workers" validate:"gte=0,lte=32"`
	DryRun     bool `json:"dry_run"`
}

type gameRatingDTO struct {
	GameID        string                `json:"game_id"`
	CommunityID   string                `json:"community_id"`
	Rated         bool                  `json:"rated"`
	TeamAID       string                `json:"team_a_id"`
	TeamBID       string                `json:"team_b_id"`
	GoalDiff      int                   `json:"goal_diff"`
	TeamARating   float64               `json:"team_a_rating"`
	TeamBRating   float64               `json:"team_b_rating"`
	AppliedAt     time.Time             `json:"applied_at"`
	InvalidatedAt *time.Time            `json:"invalidated_at,omitempty"`
	Players       []gameRatingPlayerDTO `json:"players"`
}

type gameRatingPlayerDTO struct {
	ProfileID     string  `json:"profile_id"`
	TeamID        string  `json:"team_id"`
	TeamSide      string  `json:"team_side"`
	PreRating     float64 `json:"pre_rating"`
	PreRatedGames int     `json:"pre_rated_games"`
	KUsed         int     `json:"k_used"`
	Delta         float64 `json:"delta"`
}

type communityRatingsDTO struct {
	CommunityID string               `json:"community_id"`
	Ratings     []communityRatingDTO `json:"ratings"`
}

type communityRatingDTO struct {
	ProfileID  string  `json:"profile_id"`
	Rating     float64 `json:"rating"`
	RatedGames int     `json:"rated_games"`
}
