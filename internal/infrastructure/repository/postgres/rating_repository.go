package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/courtside/community-api/internal/domain/rating"
	qb "github.com/courtside/community-api/internal/platform/querybuilder"
)

type RatingRepository struct {
	db *sqlx.DB
}

func NewRatingRepository(db *sqlx.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

func (r *RatingRepository) GetCommunityRating(ctx context.Context, communityID, profileID string) (rating.CommunityRating, bool, error) {
	query, args, err := qb.Select("*").
		From("community_ratings").
		Where(
			qb.Eq("community_id", communityID),
			qb.Eq("profile_id", profileID),
		).
		ToSQL()
	if err != nil {
		return rating.CommunityRating{}, false, fmt.Errorf("build get community rating query: %w", err)
	}

	var row communityRatingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return rating.CommunityRating{}, false, nil
		}
		return rating.CommunityRating{}, false, storeErr(err, "get community rating")
	}

	return communityRatingToDomain(row), true, nil
}

func (r *RatingRepository) ListCommunityRatings(ctx context.Context, communityID string, profileIDs []string) ([]rating.CommunityRating, error) {
	if len(profileIDs) == 0 {
		return nil, nil
	}

	query, args, err := qb.Select("*").
		From("community_ratings").
		Where(
			qb.Eq("community_id", communityID),
			qb.In("profile_id", toAnySlice(profileIDs)),
		).
		OrderBy("profile_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list community ratings query: %w", err)
	}

	var rows []communityRatingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(err, "list community ratings")
	}

	out := make([]rating.CommunityRating, 0, len(rows))
	for _, row := range rows {
		out = append(out, communityRatingToDomain(row))
	}
	return out, nil
}

func (r *RatingRepository) ListCommunityStandings(ctx context.Context, communityID string) ([]rating.CommunityRating, error) {
	query, args, err := qb.Select("*").
		From("community_ratings").
		Where(qb.Eq("community_id", communityID)).
		OrderBy("rating DESC", "rated_games DESC", "profile_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list community standings query: %w", err)
	}

	var rows []communityRatingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(err, "list community standings")
	}

	out := make([]rating.CommunityRating, 0, len(rows))
	for _, row := range rows {
		out = append(out, communityRatingToDomain(row))
	}
	return out, nil
}

func (r *RatingRepository) UpsertCommunityRating(ctx context.Context, row rating.CommunityRating) error {
	insertModel := communityRatingInsertModel{
		CommunityID: row.CommunityID,
		ProfileID:   row.ProfileID,
		Rating:      row.Rating,
		RatedGames:  row.RatedGames,
	}
	query, args, err := qb.InsertModel("community_ratings", insertModel, `ON CONFLICT (community_id, profile_id)
DO UPDATE SET
    rating = EXCLUDED.rating,
    rated_games = EXCLUDED.rated_games,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert community rating query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(err, "upsert community rating")
	}
	return nil
}

func (r *RatingRepository) InsertEvents(ctx context.Context, events []rating.Event) error {
	if len(events) == 0 {
		return nil
	}

	builder := qb.InsertInto("community_rating_events").
		Columns("community_id", "game_id", "profile_id", "delta", "rated_games_delta", "event_type", "created_at")
	for _, event := range events {
		row := ratingEventInsertModel{
			CommunityID:     event.CommunityID,
			GameID:          event.GameID,
			ProfileID:       event.ProfileID,
			Delta:           event.Delta,
			RatedGamesDelta: event.RatedGamesDelta,
			EventType:       string(event.EventType),
			CreatedAt:       event.CreatedAt,
		}
		builder = builder.Values(
			row.CommunityID,
			row.GameID,
			row.ProfileID,
			row.Delta,
			row.RatedGamesDelta,
			row.EventType,
			row.CreatedAt,
		)
	}

	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build insert rating events query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(err, "insert rating events")
	}
	return nil
}

func (r *RatingRepository) SumEventsSince(ctx context.Context, communityID string, profileIDs []string, since time.Time) (map[string]rating.EventSum, error) {
	if len(profileIDs) == 0 {
		return map[string]rating.EventSum{}, nil
	}

	query, args, err := qb.Select(
		"profile_id",
		"COALESCE(SUM(delta), 0) AS delta",
		"COALESCE(SUM(rated_games_delta), 0) AS rated_games_delta",
	).
		From("community_rating_events").
		Where(
			qb.Eq("community_id", communityID),
			qb.In("profile_id", toAnySlice(profileIDs)),
			qb.Expr("created_at >= ?", since),
		).
		GroupBy("profile_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build sum rating events query: %w", err)
	}

	var rows []eventSumRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(err, "sum rating events")
	}

	sums := make(map[string]rating.EventSum, len(rows))
	for _, row := range rows {
		sums[row.ProfileID] = rating.EventSum{
			Delta:           row.Delta,
			RatedGamesDelta: row.RatedGamesDelta,
		}
	}
	return sums, nil
}

func (r *RatingRepository) GetGameSnapshot(ctx context.Context, gameID string) (rating.GameSnapshot, bool, error) {
	query, args, err := qb.Select("*").
		From("community_game_ratings").
		Where(qb.Eq("game_id", gameID)).
		ToSQL()
	if err != nil {
		return rating.GameSnapshot{}, false, fmt.Errorf("build get game rating snapshot query: %w", err)
	}

	var row gameRatingSnapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return rating.GameSnapshot{}, false, nil
		}
		return rating.GameSnapshot{}, false, storeErr(err, "get game rating snapshot")
	}

	return rating.GameSnapshot{
		GameID:        row.GameID,
		CommunityID:   row.CommunityID,
		Rated:         row.Rated,
		TeamAID:       row.TeamAID,
		TeamBID:       row.TeamBID,
		GoalDiff:      row.GoalDiff,
		TeamARating:   row.TeamARating,
		TeamBRating:   row.TeamBRating,
		AppliedAt:     row.AppliedAt,
		InvalidatedAt: row.InvalidatedAt,
	}, true, nil
}

func (r *RatingRepository) UpsertGameSnapshot(ctx context.Context, snapshot rating.GameSnapshot) error {
	insertModel := gameRatingSnapshotInsertModel{
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
	}
	query, args, err := qb.InsertModel("community_game_ratings", insertModel, `ON CONFLICT (game_id)
DO UPDATE SET
    rated = EXCLUDED.rated,
    team_a_id = EXCLUDED.team_a_id,
    team_b_id = EXCLUDED.team_b_id,
    goal_diff = EXCLUDED.goal_diff,
    team_a_rating = EXCLUDED.team_a_rating,
    team_b_rating = EXCLUDED.team_b_rating,
    applied_at = EXCLUDED.applied_at,
    invalidated_at = EXCLUDED.invalidated_at,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert game rating snapshot query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(err, "upsert game rating snapshot")
	}
	return nil
}

func (r *RatingRepository) ListPlayerSnapshots(ctx context.Context, gameID string) ([]rating.PlayerSnapshot, error) {
	query, args, err := qb.Select("*").
		From("community_game_rating_players").
		Where(
			qb.Eq("game_id", gameID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list player rating snapshots query: %w", err)
	}

	var rows []playerRatingSnapshotTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(err, "list player rating snapshots")
	}

	out := make([]rating.PlayerSnapshot, 0, len(rows))
	for _, row := range rows {
		out = append(out, rating.PlayerSnapshot{
			GameID:        row.GameID,
			ProfileID:     row.ProfileID,
			TeamID:        row.TeamID,
			TeamSide:      rating.TeamSide(row.TeamSide),
			PreRating:     row.PreRating,
			PreRatedGames: row.PreRatedGames,
			KUsed:         row.KUsed,
			Delta:         row.Delta,
		})
	}
	return out, nil
}

func (r *RatingRepository) UpsertPlayerSnapshots(ctx context.Context, snapshots []rating.PlayerSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr(err, "begin tx upsert player rating snapshots")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, snapshot := range snapshots {
		insertModel := playerRatingSnapshotInsertModel{
			GameID:        snapshot.GameID,
			ProfileID:     snapshot.ProfileID,
			TeamID:        snapshot.TeamID,
			TeamSide:      string(snapshot.TeamSide),
			PreRating:     snapshot.PreRating,
			PreRatedGames: snapshot.PreRatedGames,
			KUsed:         snapshot.KUsed,
			Delta:         snapshot.Delta,
		}
		query, args, err := qb.InsertModel("community_game_rating_players", insertModel, `ON CONFLICT (game_id, profile_id)
DO UPDATE SET
    team_id = EXCLUDED.team_id,
    team_side = EXCLUDED.team_side,
    pre_rating = EXCLUDED.pre_rating,
    pre_rated_games = EXCLUDED.pre_rated_games,
    k_used = EXCLUDED.k_used,
    delta = EXCLUDED.delta,
    deleted_at = NULL,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert player rating snapshot query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return storeErr(err, "upsert player rating snapshot")
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr(err, "commit upsert player rating snapshots tx")
	}
	return nil
}

func (r *RatingRepository) DeletePlayerSnapshots(ctx context.Context, gameID string, profileIDs []string) error {
	if len(profileIDs) == 0 {
		return nil
	}

	query, args, err := qb.Update("community_game_rating_players").
		SetExpr("deleted_at", "NOW()").
		Where(
			qb.Eq("game_id", gameID),
			qb.In("profile_id", toAnySlice(profileIDs)),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete player rating snapshots query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(err, "delete player rating snapshots")
	}
	return nil
}

func (r *RatingRepository) ZeroPlayerSnapshotDeltas(ctx context.Context, gameID string) error {
	query, args, err := qb.Update("community_game_rating_players").
		Set("delta", 0.0).
		Where(
			qb.Eq("game_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build zero player snapshot deltas query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(err, "zero player snapshot deltas")
	}
	return nil
}

func communityRatingToDomain(row communityRatingTableModel) rating.CommunityRating {
	return rating.CommunityRating{
		CommunityID: row.CommunityID,
		ProfileID:   row.ProfileID,
		Rating:      row.Rating,
		RatedGames:  row.RatedGames,
	}
}
