package usecase

import (
	"context"
	"testing"

	"github.com/courtside/community-api/internal/domain/game"
)

func TestRatingResyncService_Run(t *testing.T) {
	t.Parallel()

	fx := newRatingFixture(t)

	// A second, cancelled game in the same community. Reconciling it is a
	// successful no-op, so it still counts as reconciled.
	fx.gameRepo.PutGame(game.Game{
		ID:          "game-2",
		CommunityID: testCommunityID,
		Status:      game.StatusCancelled,
	})

	svc := NewRatingResyncService(fx.service, nil)
	result, err := svc.Run(context.Background(), RatingResyncInput{CommunityID: testCommunityID})
	if err != nil {
		t.Fatalf("run resync: %v", err)
	}

	if result.GameCount != 2 {
		t.Fatalf("game count: got=%d want=2", result.GameCount)
	}
	if result.SuccessCount != 2 || result.FailedCount != 0 {
		t.Fatalf("counts: got success=%d failed=%d want 2/0", result.SuccessCount, result.FailedCount)
	}
	if len(result.Tasks) != 2 || result.Tasks[0].GameID != testGameID {
		t.Fatalf("tasks should be sorted by game id: %+v", result.Tasks)
	}

	row := mustRating(t, fx.ratingRepo, "p1")
	if row.Rating != 1525 {
		t.Fatalf("resync should have rated the eligible game: got=%v", row.Rating)
	}
}

func TestRatingResyncService_DryRun(t *testing.T) {
	t.Parallel()

	fx := newRatingFixture(t)

	svc := NewRatingResyncService(fx.service, nil)
	result, err := svc.Run(context.Background(), RatingResyncInput{
		CommunityID: testCommunityID,
		DryRun:      true,
	})
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}

	if result.SkippedCount != 1 || result.SuccessCount != 0 {
		t.Fatalf("dry run counts: got skipped=%d success=%d", result.SkippedCount, result.SuccessCount)
	}
	if !result.Tasks[0].Rateable {
		t.Fatalf("eligible game should be reported rateable")
	}
	if got := len(fx.ratingRepo.Events()); got != 0 {
		t.Fatalf("dry run wrote events: got=%d", got)
	}
}

func TestRatingResyncService_RequiresCommunityID(t *testing.T) {
	t.Parallel()

	fx := newRatingFixture(t)
	svc := NewRatingResyncService(fx.service, nil)

	_, err := svc.Run(context.Background(), RatingResyncInput{CommunityID: "  "})
	if err == nil {
		t.Fatalf("expected invalid input error")
	}
}
