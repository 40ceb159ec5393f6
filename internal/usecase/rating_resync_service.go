package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/courtside/community-api/internal/platform/logging"
)

const (
	resyncStatusReconciled = "reconciled"
	resyncStatusSkipped    = "skipped"
	resyncStatusFailed     = "failed"

	defaultResyncWorkers = 4
	maxResyncWorkers     = 32
)

type RatingResyncInput struct {
	CommunityID string
	MaxWorkers  int
	// DryRun evaluates eligibility only and writes nothing.
	DryRun bool
}

type RatingResyncResult struct {
	CommunityID  string                 `json:"community_id"`
	GameCount    int                    `json:"game_count"`
	SuccessCount int                    `json:"success_count"`
	SkippedCount int                    `json:"skipped_count"`
	FailedCount  int                    `json:"failed_count"`
	WorkerCount  int                    `json:"worker_count"`
	DryRun       bool                   `json:"dry_run"`
	Tasks        []RatingResyncTaskItem `json:"tasks"`
}

type RatingResyncTaskItem struct {
	GameID     string `json:"game_id"`
	Status     string `json:"status"`
	Rateable   bool   `json:"rateable"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// RatingResyncService re-runs reconciliation across every game in a
// community. Used to repair drift after bulk edits or restored backups.
type RatingResyncService struct {
	ratingSvc      *RatingService
	logger         *logging.Logger
	defaultWorkers int
}

type RatingResyncOption func(*RatingResyncService)

// WithDefaultWorkers sets the pool size used when a request does not ask
// for a specific worker count.
func WithDefaultWorkers(n int) RatingResyncOption {
	return func(s *RatingResyncService) {
		if n > 0 {
			s.defaultWorkers = n
		}
	}
}

func NewRatingResyncService(ratingSvc *RatingService, logger *logging.Logger, opts ...RatingResyncOption) *RatingResyncService {
	if logger == nil {
		logger = logging.Default()
	}
	svc := &RatingResyncService{
		ratingSvc:      ratingSvc,
		logger:         logger,
		defaultWorkers: defaultResyncWorkers,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *RatingResyncService) Run(ctx context.Context, input RatingResyncInput) (RatingResyncResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingResyncService.Run")
	defer span.End()

	communityID := strings.TrimSpace(input.CommunityID)
	if communityID == "" {
		return RatingResyncResult{}, fmt.Errorf("%w: community id is required", ErrInvalidInput)
	}

	gameIDs, err := s.ratingSvc.gameRepo.ListIDsByCommunity(ctx, communityID)
	if err != nil {
		return RatingResyncResult{}, fmt.Errorf("list community games: %w", err)
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = s.defaultWorkers
	}
	if workerCount > maxResyncWorkers {
		workerCount = maxResyncWorkers
	}
	if workerCount > len(gameIDs) && len(gameIDs) > 0 {
		workerCount = len(gameIDs)
	}

	result := RatingResyncResult{
		CommunityID: communityID,
		GameCount:   len(gameIDs),
		WorkerCount: workerCount,
		DryRun:      input.DryRun,
		Tasks:       make([]RatingResyncTaskItem, 0, len(gameIDs)),
	}
	if len(gameIDs) == 0 {
		return result, nil
	}

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RatingResyncResult{}, fmt.Errorf("create resync worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, gameID := range gameIDs {
		gameID := gameID
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			item := s.runOne(ctx, gameID, input.DryRun)
			mu.Lock()
			result.Tasks = append(result.Tasks, item)
			mu.Unlock()
		}); err != nil {
			wg.Done()
			mu.Lock()
			result.Tasks = append(result.Tasks, RatingResyncTaskItem{
				GameID:  gameID,
				Status:  resyncStatusFailed,
				Message: fmt.Sprintf("submit resync task: %v", err),
			})
			mu.Unlock()
		}
	}
	wg.Wait()

	sort.Slice(result.Tasks, func(i, j int) bool {
		return result.Tasks[i].GameID < result.Tasks[j].GameID
	})
	for _, item := range result.Tasks {
		switch item.Status {
		case resyncStatusReconciled:
			result.SuccessCount++
		case resyncStatusSkipped:
			result.SkippedCount++
		default:
			result.FailedCount++
		}
	}

	s.logger.InfoContext(ctx, "rating resync finished",
		"community_id", communityID,
		"games", result.GameCount,
		"success", result.SuccessCount,
		"skipped", result.SkippedCount,
		"failed", result.FailedCount,
		"dry_run", input.DryRun,
	)
	return result, nil
}

func (s *RatingResyncService) runOne(ctx context.Context, gameID string, dryRun bool) RatingResyncTaskItem {
	started := time.Now()
	item := RatingResyncTaskItem{GameID: gameID}

	if dryRun {
		rctx, err := s.ratingSvc.fetchRatingContext(ctx, gameID)
		item.DurationMs = time.Since(started).Milliseconds()
		if err != nil {
			item.Status = resyncStatusFailed
			item.Message = err.Error()
			return item
		}
		item.Rateable = rctx.ShouldRate
		item.Status = resyncStatusSkipped
		return item
	}

	err := s.ratingSvc.ReconcileGame(ctx, gameID)
	item.DurationMs = time.Since(started).Milliseconds()
	if err != nil {
		item.Status = resyncStatusFailed
		item.Message = err.Error()
		return item
	}
	item.Status = resyncStatusReconciled
	return item
}
