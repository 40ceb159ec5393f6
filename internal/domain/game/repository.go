package game

import "context"

// Repository is the read-side contract over game state. The rating engine
// never writes game rows.
type Repository interface {
	GetByID(ctx context.Context, gameID string) (Game, bool, error)
	ListIDsByCommunity(ctx context.Context, communityID string) ([]string, error)

	ListTeams(ctx context.Context, gameID string) ([]Team, error)
	ListTeamMemberProfileIDs(ctx context.Context, teamID string) ([]string, error)

	GetResult(ctx context.Context, gameID string) (Result, bool, error)
	ListRosteredQueueEntries(ctx context.Context, gameID string) ([]QueueEntry, error)
}
