package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/courtside/community-api/internal/domain/game"
	"github.com/courtside/community-api/internal/domain/rating"
	"github.com/courtside/community-api/internal/platform/cache"
	"github.com/courtside/community-api/internal/platform/logging"
	"github.com/courtside/community-api/internal/platform/resilience"
)

const standingsCacheTTL = 5 * time.Second

// RatingService owns the community skill-rating lifecycle for games:
// applying a confirmed result, adjusting an edited one, and rolling back a
// game that no longer qualifies. Both entry points are idempotent.
//
// Concurrent calls for the same game are serialized through a singleflight
// key. Reconciling different games that share players is not ordered here;
// the surrounding trigger system is expected to invoke reconciliation at
// most once per game-state change.
type RatingService struct {
	gameRepo        game.Repository
	ratingRepo      rating.Repository
	logger          *logging.Logger
	now             func() time.Time
	reconcileFlight resilience.SingleFlight
	standings       *cache.Store
}

func NewRatingService(gameRepo game.Repository, ratingRepo rating.Repository, logger *logging.Logger) *RatingService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RatingService{
		gameRepo:   gameRepo,
		ratingRepo: ratingRepo,
		logger:     logger,
		now:        time.Now,
		standings:  cache.NewStore(standingsCacheTTL),
	}
}

// ReconcileGame brings stored community ratings in line with the game's
// current state. Safe to call repeatedly: with no state change between
// calls it emits no additional rating events.
func (s *RatingService) ReconcileGame(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.ReconcileGame")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	_, err, _ := s.reconcileFlight.Do(reconcileKey(gameID), func() (any, error) {
		return nil, s.reconcileOnce(ctx, gameID)
	})
	return err
}

// RollbackGame undoes a previously applied rating snapshot without
// recomputation. No-op when there is nothing to roll back.
func (s *RatingService) RollbackGame(ctx context.Context, gameID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.RollbackGame")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	_, err, _ := s.reconcileFlight.Do(reconcileKey(gameID), func() (any, error) {
		snapshot, found, err := s.ratingRepo.GetGameSnapshot(ctx, gameID)
		if err != nil {
			return nil, fmt.Errorf("get game rating snapshot: %w", err)
		}
		if !found {
			return nil, nil
		}
		return nil, s.rollbackFromSnapshot(ctx, snapshot)
	})
	return err
}

// GetGameRating returns a game's current rating snapshot and its
// per-player breakdown.
func (s *RatingService) GetGameRating(ctx context.Context, gameID string) (rating.GameSnapshot, []rating.PlayerSnapshot, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.GetGameRating")
	defer span.End()

	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return rating.GameSnapshot{}, nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	snapshot, found, err := s.ratingRepo.GetGameSnapshot(ctx, gameID)
	if err != nil {
		return rating.GameSnapshot{}, nil, fmt.Errorf("get game rating snapshot: %w", err)
	}
	if !found {
		return rating.GameSnapshot{}, nil, fmt.Errorf("%w: game rating=%s", ErrNotFound, gameID)
	}

	players, err := s.ratingRepo.ListPlayerSnapshots(ctx, gameID)
	if err != nil {
		return rating.GameSnapshot{}, nil, fmt.Errorf("list game rating players: %w", err)
	}
	return snapshot, players, nil
}

// ListCommunityStandings returns a community's current ratings ordered
// best-first.
func (s *RatingService) ListCommunityStandings(ctx context.Context, communityID string) ([]rating.CommunityRating, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RatingService.ListCommunityStandings")
	defer span.End()

	communityID = strings.TrimSpace(communityID)
	if communityID == "" {
		return nil, fmt.Errorf("%w: community id is required", ErrInvalidInput)
	}

	cached, err := s.standings.GetOrLoad(ctx, standingsCacheKey(communityID), func(ctx context.Context) (any, error) {
		rows, err := s.ratingRepo.ListCommunityStandings(ctx, communityID)
		if err != nil {
			return nil, fmt.Errorf("list community standings: %w", err)
		}
		return rows, nil
	})
	if err != nil {
		return nil, err
	}

	rows, ok := cached.([]rating.CommunityRating)
	if !ok {
		return nil, fmt.Errorf("unexpected standings cache entry for community=%s", communityID)
	}
	return rows, nil
}

func reconcileKey(gameID string) string {
	return "rating:reconcile:" + gameID
}

func standingsCacheKey(communityID string) string {
	return "rating:standings:" + communityID
}

func (s *RatingService) reconcileOnce(ctx context.Context, gameID string) error {
	snapshot, snapshotExists, err := s.ratingRepo.GetGameSnapshot(ctx, gameID)
	if err != nil {
		return fmt.Errorf("get game rating snapshot: %w", err)
	}

	rctx, err := s.fetchRatingContext(ctx, gameID)
	if err != nil {
		return err
	}

	if !rctx.ShouldRate {
		if snapshotExists && snapshot.Rated {
			s.logger.InfoContext(ctx, "game no longer rateable, rolling back", "game_id", gameID)
			return s.rollbackFromSnapshot(ctx, snapshot)
		}
		return nil
	}

	wasRated := snapshotExists && snapshot.Rated

	prior := make(map[string]rating.PlayerSnapshot)
	if snapshotExists {
		rows, err := s.ratingRepo.ListPlayerSnapshots(ctx, gameID)
		if err != nil {
			return fmt.Errorf("list game rating players: %w", err)
		}
		for _, row := range rows {
			prior[row.ProfileID] = row
		}
	}

	now := s.now().UTC()
	// A recompute must not shift the baseline the original apply used, so
	// an already-rated game keeps its original application time.
	appliedAt := now
	if wasRated {
		appliedAt = snapshot.AppliedAt
	}

	teamA, err := s.resolvePreRatings(ctx, rctx.CommunityID, rctx.TeamAProfileIDs, prior, wasRated, appliedAt)
	if err != nil {
		return err
	}
	teamB, err := s.resolvePreRatings(ctx, rctx.CommunityID, rctx.TeamBProfileIDs, prior, wasRated, appliedAt)
	if err != nil {
		return err
	}

	outcome := rating.ComputeDeltas(teamA, teamB, rctx.GoalDiff)
	changes := buildRatingChanges(outcome.PlayerDeltas, prior, wasRated)

	eventType := rating.EventApply
	if wasRated {
		eventType = rating.EventAdjust
	}
	if len(changes) > 0 {
		if err := s.applyRatingChanges(ctx, rctx.CommunityID, gameID, changes, eventType, now); err != nil {
			return err
		}
	}

	if err := s.ratingRepo.UpsertGameSnapshot(ctx, rating.GameSnapshot{
		GameID:      gameID,
		CommunityID: rctx.CommunityID,
		Rated:       true,
		TeamAID:     rctx.TeamAID,
		TeamBID:     rctx.TeamBID,
		GoalDiff:    rctx.GoalDiff,
		TeamARating: outcome.TeamARating,
		TeamBRating: outcome.TeamBRating,
		AppliedAt:   appliedAt,
	}); err != nil {
		return fmt.Errorf("upsert game rating snapshot: %w", err)
	}

	playerRows := buildPlayerSnapshots(gameID, rctx, teamA, teamB, outcome.PlayerDeltas)
	if err := s.ratingRepo.UpsertPlayerSnapshots(ctx, playerRows); err != nil {
		return fmt.Errorf("upsert game rating players: %w", err)
	}

	if snapshotExists {
		removed := removedProfileIDs(prior, playerRows)
		if len(removed) > 0 {
			if err := s.ratingRepo.DeletePlayerSnapshots(ctx, gameID, removed); err != nil {
				return fmt.Errorf("prune game rating players: %w", err)
			}
		}
	}

	s.logger.InfoContext(ctx, "game rating reconciled",
		"game_id", gameID,
		"community_id", rctx.CommunityID,
		"event_type", string(eventType),
		"changed_players", len(changes),
	)
	return nil
}

// resolvePreRatings reconstructs each roster player's rating state as it
// stood before this game's effect. For an already-rated game the stored
// per-player baselines win; players added to the roster since then are
// rebuilt as of the snapshot's original application time from the event
// log. A first apply reads current live ratings.
func (s *RatingService) resolvePreRatings(
	ctx context.Context,
	communityID string,
	profileIDs []string,
	prior map[string]rating.PlayerSnapshot,
	wasRated bool,
	appliedAt time.Time,
) ([]rating.PlayerRatingInput, error) {
	resolved := make(map[string]rating.PlayerRatingInput, len(profileIDs))

	lookup := make([]string, 0, len(profileIDs))
	for _, profileID := range profileIDs {
		if wasRated {
			if row, ok := prior[profileID]; ok {
				resolved[profileID] = rating.PlayerRatingInput{
					ProfileID:     profileID,
					PreRating:     row.PreRating,
					PreRatedGames: row.PreRatedGames,
				}
				continue
			}
		}
		lookup = append(lookup, profileID)
	}

	if len(lookup) > 0 {
		current, err := s.ratingRepo.ListCommunityRatings(ctx, communityID, lookup)
		if err != nil {
			return nil, fmt.Errorf("list community ratings: %w", err)
		}
		currentByID := make(map[string]rating.CommunityRating, len(current))
		for _, row := range current {
			currentByID[row.ProfileID] = row
		}

		var sums map[string]rating.EventSum
		if wasRated {
			sums, err = s.ratingRepo.SumEventsSince(ctx, communityID, lookup, appliedAt)
			if err != nil {
				return nil, fmt.Errorf("sum rating events: %w", err)
			}
		}

		for _, profileID := range lookup {
			cur, ok := currentByID[profileID]
			if !ok {
				cur = rating.CommunityRating{
					CommunityID: communityID,
					ProfileID:   profileID,
					Rating:      rating.BaseRating,
				}
			}

			input := rating.PlayerRatingInput{
				ProfileID:     profileID,
				PreRating:     cur.Rating,
				PreRatedGames: cur.RatedGames,
			}
			if wasRated {
				sum := sums[profileID]
				input.PreRating = cur.Rating - sum.Delta
				input.PreRatedGames = cur.RatedGames - sum.RatedGamesDelta
				if input.PreRatedGames < 0 {
					input.PreRatedGames = 0
				}
			}
			resolved[profileID] = input
		}
	}

	out := make([]rating.PlayerRatingInput, 0, len(profileIDs))
	for _, profileID := range profileIDs {
		out = append(out, resolved[profileID])
	}
	return out, nil
}

// buildRatingChanges diffs freshly computed deltas against the previously
// stored ones over the union of old and new rosters. Only non-zero changes
// are emitted.
func buildRatingChanges(newDeltas []rating.PlayerDelta, prior map[string]rating.PlayerSnapshot, wasRated bool) []rating.Change {
	changes := make([]rating.Change, 0, len(newDeltas))
	seen := make(map[string]struct{}, len(newDeltas))

	for _, pd := range newDeltas {
		seen[pd.ProfileID] = struct{}{}

		oldDelta := 0.0
		counted := false
		if wasRated {
			if row, ok := prior[pd.ProfileID]; ok {
				oldDelta = row.Delta
				counted = true
			}
		}

		change := rating.Change{
			ProfileID:   pd.ProfileID,
			RatingDelta: pd.Delta - oldDelta,
		}
		if !counted {
			change.RatedGamesDelta = 1
		}
		if change.RatingDelta != 0 || change.RatedGamesDelta != 0 {
			changes = append(changes, change)
		}
	}

	if !wasRated {
		return changes
	}

	// Players dropped from the roster since the last computation give back
	// their full prior delta and their rated-game credit.
	removed := make([]string, 0)
	for profileID := range prior {
		if _, ok := seen[profileID]; !ok {
			removed = append(removed, profileID)
		}
	}
	sort.Strings(removed)
	for _, profileID := range removed {
		changes = append(changes, rating.Change{
			ProfileID:       profileID,
			RatingDelta:     -prior[profileID].Delta,
			RatedGamesDelta: -1,
		})
	}
	return changes
}

// applyRatingChanges is the single write path into community_ratings and
// the event log. Ratings and rated-game counts never go below zero.
func (s *RatingService) applyRatingChanges(
	ctx context.Context,
	communityID, gameID string,
	changes []rating.Change,
	eventType rating.EventType,
	at time.Time,
) error {
	events := make([]rating.Event, 0, len(changes))
	for _, change := range changes {
		current, found, err := s.ratingRepo.GetCommunityRating(ctx, communityID, change.ProfileID)
		if err != nil {
			return fmt.Errorf("get community rating: %w", err)
		}
		if !found {
			current = rating.CommunityRating{
				CommunityID: communityID,
				ProfileID:   change.ProfileID,
				Rating:      rating.BaseRating,
			}
		}

		current.Rating = math.Max(0, current.Rating+change.RatingDelta)
		current.RatedGames += change.RatedGamesDelta
		if current.RatedGames < 0 {
			current.RatedGames = 0
		}

		if err := s.ratingRepo.UpsertCommunityRating(ctx, current); err != nil {
			return fmt.Errorf("upsert community rating: %w", err)
		}

		events = append(events, rating.Event{
			CommunityID:     communityID,
			GameID:          gameID,
			ProfileID:       change.ProfileID,
			Delta:           change.RatingDelta,
			RatedGamesDelta: change.RatedGamesDelta,
			EventType:       eventType,
			CreatedAt:       at,
		})
	}

	if err := s.ratingRepo.InsertEvents(ctx, events); err != nil {
		return fmt.Errorf("insert rating events: %w", err)
	}

	s.standings.Delete(ctx, standingsCacheKey(communityID))
	return nil
}

// rollbackFromSnapshot reverses every stored per-player delta and marks
// the snapshot unrated. Player rows are kept with their deltas reset so
// the roster history of the game stays visible.
func (s *RatingService) rollbackFromSnapshot(ctx context.Context, snapshot rating.GameSnapshot) error {
	if !snapshot.Rated {
		return nil
	}

	rows, err := s.ratingRepo.ListPlayerSnapshots(ctx, snapshot.GameID)
	if err != nil {
		return fmt.Errorf("list game rating players: %w", err)
	}

	changes := make([]rating.Change, 0, len(rows))
	for _, row := range rows {
		changes = append(changes, rating.Change{
			ProfileID:       row.ProfileID,
			RatingDelta:     -row.Delta,
			RatedGamesDelta: -1,
		})
	}

	now := s.now().UTC()
	if len(changes) > 0 {
		if err := s.applyRatingChanges(ctx, snapshot.CommunityID, snapshot.GameID, changes, rating.EventRollback, now); err != nil {
			return err
		}
	}

	snapshot.Rated = false
	snapshot.InvalidatedAt = &now
	if err := s.ratingRepo.UpsertGameSnapshot(ctx, snapshot); err != nil {
		return fmt.Errorf("upsert game rating snapshot: %w", err)
	}

	if err := s.ratingRepo.ZeroPlayerSnapshotDeltas(ctx, snapshot.GameID); err != nil {
		return fmt.Errorf("zero game rating player deltas: %w", err)
	}

	s.logger.InfoContext(ctx, "game rating rolled back",
		"game_id", snapshot.GameID,
		"community_id", snapshot.CommunityID,
		"players", len(changes),
	)
	return nil
}

func buildPlayerSnapshots(
	gameID string,
	rctx ratingContext,
	teamA, teamB []rating.PlayerRatingInput,
	deltas []rating.PlayerDelta,
) []rating.PlayerSnapshot {
	deltaByProfile := make(map[string]rating.PlayerDelta, len(deltas))
	for _, pd := range deltas {
		deltaByProfile[pd.ProfileID] = pd
	}

	rows := make([]rating.PlayerSnapshot, 0, len(teamA)+len(teamB))
	appendTeam := func(teamID string, side rating.TeamSide, inputs []rating.PlayerRatingInput) {
		for _, input := range inputs {
			pd := deltaByProfile[input.ProfileID]
			rows = append(rows, rating.PlayerSnapshot{
				GameID:        gameID,
				ProfileID:     input.ProfileID,
				TeamID:        teamID,
				TeamSide:      side,
				PreRating:     input.PreRating,
				PreRatedGames: input.PreRatedGames,
				KUsed:         pd.KUsed,
				Delta:         pd.Delta,
			})
		}
	}
	appendTeam(rctx.TeamAID, rating.TeamSideA, teamA)
	appendTeam(rctx.TeamBID, rating.TeamSideB, teamB)
	return rows
}

func removedProfileIDs(prior map[string]rating.PlayerSnapshot, current []rating.PlayerSnapshot) []string {
	keep := make(map[string]struct{}, len(current))
	for _, row := range current {
		keep[row.ProfileID] = struct{}{}
	}

	removed := make([]string, 0)
	for profileID := range prior {
		if _, ok := keep[profileID]; !ok {
			removed = append(removed, profileID)
		}
	}
	sort.Strings(removed)
	return removed
}
