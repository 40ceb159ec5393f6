package rating

import (
	"context"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// ErrStore wraps every persistence failure surfaced by rating repositories.
var ErrStore = crerr.New("rating store error")

// Repository is the persistence contract for community ratings, the
// append-only event log, and per-game snapshots. The reconciliation
// engine is the only writer.
type Repository interface {
	GetCommunityRating(ctx context.Context, communityID, profileID string) (CommunityRating, bool, error)
	ListCommunityRatings(ctx context.Context, communityID string, profileIDs []string) ([]CommunityRating, error)
	ListCommunityStandings(ctx context.Context, communityID string) ([]CommunityRating, error)
	UpsertCommunityRating(ctx context.Context, row CommunityRating) error

	InsertEvents(ctx context.Context, events []Event) error
	// SumEventsSince aggregates signed event deltas per profile for events
	// created at or after the given timestamp. Profiles without events map
	// to a zero sum.
	SumEventsSince(ctx context.Context, communityID string, profileIDs []string, since time.Time) (map[string]EventSum, error)

	GetGameSnapshot(ctx context.Context, gameID string) (GameSnapshot, bool, error)
	UpsertGameSnapshot(ctx context.Context, snapshot GameSnapshot) error

	ListPlayerSnapshots(ctx context.Context, gameID string) ([]PlayerSnapshot, error)
	UpsertPlayerSnapshots(ctx context.Context, snapshots []PlayerSnapshot) error
	DeletePlayerSnapshots(ctx context.Context, gameID string, profileIDs []string) error
	ZeroPlayerSnapshotDeltas(ctx context.Context, gameID string) error
}
