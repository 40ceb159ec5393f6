package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/courtside/community-api/internal/domain/game"
	qb "github.com/courtside/community-api/internal/platform/querybuilder"
)

type GameRepository struct {
	db *sqlx.DB
}

func NewGameRepository(db *sqlx.DB) *GameRepository {
	return &GameRepository{db: db}
}

func (r *GameRepository) GetByID(ctx context.Context, gameID string) (game.Game, bool, error) {
	query, args, err := qb.Select("*").
		From("games").
		Where(
			qb.Eq("id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Game{}, false, fmt.Errorf("build get game query: %w", err)
	}

	var row gameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Game{}, false, nil
		}
		return game.Game{}, false, storeErr(err, "get game")
	}

	return game.Game{
		ID:               row.ID,
		CommunityID:      row.CommunityID,
		Status:           game.Status(row.Status),
		DraftStatus:      row.DraftStatus,
		DraftModeEnabled: row.DraftModeEnabled,
	}, true, nil
}

func (r *GameRepository) ListIDsByCommunity(ctx context.Context, communityID string) ([]string, error) {
	query, args, err := qb.Select("id").
		From("games").
		Where(
			qb.Eq("community_id", communityID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list community game ids query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, storeErr(err, "list community game ids")
	}
	return ids, nil
}

func (r *GameRepository) ListTeams(ctx context.Context, gameID string) ([]game.Team, error) {
	query, args, err := qb.Select("*").
		From("game_teams").
		Where(
			qb.Eq("game_id", gameID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("draft_order", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list game teams query: %w", err)
	}

	var rows []gameTeamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(err, "list game teams")
	}

	out := make([]game.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, game.Team{
			ID:         row.ID,
			GameID:     row.GameID,
			DraftOrder: row.DraftOrder,
		})
	}
	return out, nil
}

func (r *GameRepository) ListTeamMemberProfileIDs(ctx context.Context, teamID string) ([]string, error) {
	query, args, err := qb.Select("profile_id").
		From("game_team_members").
		Where(
			qb.Eq("game_team_id", teamID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list team members query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, storeErr(err, "list team members")
	}
	return ids, nil
}

func (r *GameRepository) GetResult(ctx context.Context, gameID string) (game.Result, bool, error) {
	query, args, err := qb.Select("*").
		From("game_results").
		Where(
			qb.Eq("game_id", gameID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return game.Result{}, false, fmt.Errorf("build get game result query: %w", err)
	}

	var row gameResultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return game.Result{}, false, nil
		}
		return game.Result{}, false, storeErr(err, "get game result")
	}

	return game.Result{
		GameID:        row.GameID,
		Status:        row.Status,
		WinningTeamID: row.WinningTeamID,
		LosingTeamID:  row.LosingTeamID,
		WinnerScore:   row.WinnerScore,
		LoserScore:    row.LoserScore,
	}, true, nil
}

func (r *GameRepository) ListRosteredQueueEntries(ctx context.Context, gameID string) ([]game.QueueEntry, error) {
	query, args, err := qb.Select("*").
		From("game_queue").
		Where(
			qb.Eq("game_id", gameID),
			qb.Eq("status", game.QueueStatusRostered),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list rostered queue entries query: %w", err)
	}

	var rows []gameQueueEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(err, "list rostered queue entries")
	}

	out := make([]game.QueueEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, game.QueueEntry{
			GameID:    row.GameID,
			ProfileID: row.ProfileID,
			Status:    row.Status,
			NoShowAt:  row.NoShowAt,
		})
	}
	return out, nil
}
