package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/courtside/community-api/internal/domain/game"
)

// ratingContext is the resolved input for one reconciliation pass. When
// ShouldRate is false only CommunityID is guaranteed to be set (and it is
// empty when the game itself is missing).
type ratingContext struct {
	ShouldRate      bool
	CommunityID     string
	GoalDiff        int
	TeamAID         string
	TeamBID         string
	TeamAProfileIDs []string
	TeamBProfileIDs []string
}

// fetchRatingContext decides whether a game currently qualifies for rating.
// Malformed or incomplete game state is an expected "not yet ready" outcome,
// not an error: only store failures propagate.
func (s *RatingService) fetchRatingContext(ctx context.Context, gameID string) (ratingContext, error) {
	g, found, err := s.gameRepo.GetByID(ctx, gameID)
	if err != nil {
		return ratingContext{}, fmt.Errorf("get game: %w", err)
	}
	if !found {
		return ratingContext{}, nil
	}

	unrated := ratingContext{CommunityID: g.CommunityID}

	if g.Status == game.StatusCancelled {
		return unrated, nil
	}
	if !g.DraftModeEnabled || g.DraftStatus != game.DraftStatusCompleted {
		return unrated, nil
	}

	teams, err := s.gameRepo.ListTeams(ctx, gameID)
	if err != nil {
		return ratingContext{}, fmt.Errorf("list game teams: %w", err)
	}
	if len(teams) != 2 {
		return unrated, nil
	}

	// Team A/B assignment must be stable across recomputations so stored
	// snapshots stay comparable: ascending draft order, id as tiebreak.
	sort.Slice(teams, func(i, j int) bool {
		if teams[i].DraftOrder != teams[j].DraftOrder {
			return teams[i].DraftOrder < teams[j].DraftOrder
		}
		return teams[i].ID < teams[j].ID
	})
	teamA, teamB := teams[0], teams[1]

	teamAProfileIDs, err := s.gameRepo.ListTeamMemberProfileIDs(ctx, teamA.ID)
	if err != nil {
		return ratingContext{}, fmt.Errorf("list team A members: %w", err)
	}
	teamBProfileIDs, err := s.gameRepo.ListTeamMemberProfileIDs(ctx, teamB.ID)
	if err != nil {
		return ratingContext{}, fmt.Errorf("list team B members: %w", err)
	}
	if len(teamAProfileIDs) == 0 || len(teamBProfileIDs) == 0 {
		return unrated, nil
	}

	result, found, err := s.gameRepo.GetResult(ctx, gameID)
	if err != nil {
		return ratingContext{}, fmt.Errorf("get game result: %w", err)
	}
	if !found || result.Status != game.ResultStatusConfirmed {
		return unrated, nil
	}
	if result.WinningTeamID == nil || result.LosingTeamID == nil || result.WinnerScore == nil || result.LoserScore == nil {
		return unrated, nil
	}

	teamAScore, ok := scoreForTeam(teamA.ID, result)
	if !ok {
		return unrated, nil
	}
	teamBScore, ok := scoreForTeam(teamB.ID, result)
	if !ok {
		return unrated, nil
	}

	entries, err := s.gameRepo.ListRosteredQueueEntries(ctx, gameID)
	if err != nil {
		return ratingContext{}, fmt.Errorf("list rostered queue entries: %w", err)
	}
	// Any no-show voids rating for the entire game.
	for _, entry := range entries {
		if entry.NoShowAt != nil {
			return unrated, nil
		}
	}

	return ratingContext{
		ShouldRate:      true,
		CommunityID:     g.CommunityID,
		GoalDiff:        teamAScore - teamBScore,
		TeamAID:         teamA.ID,
		TeamBID:         teamB.ID,
		TeamAProfileIDs: teamAProfileIDs,
		TeamBProfileIDs: teamBProfileIDs,
	}, nil
}

func scoreForTeam(teamID string, result game.Result) (int, bool) {
	switch teamID {
	case *result.WinningTeamID:
		return *result.WinnerScore, true
	case *result.LosingTeamID:
		return *result.LoserScore, true
	default:
		return 0, false
	}
}
