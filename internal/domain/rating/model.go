package rating

import "time"

// BaseRating is the effective rating used for players without any rated
// games and for empty team averages.
const BaseRating = 1500.0

type TeamSide string

const (
	TeamSideA TeamSide = "A"
	TeamSideB TeamSide = "B"
)

type EventType string

const (
	EventApply    EventType = "apply"
	EventAdjust   EventType = "adjust"
	EventRollback EventType = "rollback"
)

// PlayerRatingInput is a player's rating state immediately before a game's
// effect is applied. PreRatedGames gates which K-factor applies.
type PlayerRatingInput struct {
	ProfileID     string
	PreRating     float64
	PreRatedGames int
}

// PlayerDelta is the per-player output of the rating math. Immutable once
// computed for a given input set.
type PlayerDelta struct {
	ProfileID string
	TeamSide  TeamSide
	Delta     float64
	KUsed     int
}

// MatchOutcome is the full output of the rating math for one game.
// PlayerDeltas lists team A players first, then team B, input order preserved.
type MatchOutcome struct {
	TeamARating  float64
	TeamBRating  float64
	PlayerDeltas []PlayerDelta
}

// CommunityRating is a player's current cumulative standing within one
// community. Mutated only through the reconciliation engine.
type CommunityRating struct {
	CommunityID string
	ProfileID   string
	Rating      float64
	RatedGames  int
}

// Event is one append-only audit row. Events are never updated or deleted;
// summing them from a timestamp forward reconstructs historical state.
type Event struct {
	CommunityID     string
	GameID          string
	ProfileID       string
	Delta           float64
	RatedGamesDelta int
	EventType       EventType
	CreatedAt       time.Time
}

// GameSnapshot records a game's current effect on community ratings.
// The row is created on first apply, updated in place on recomputation,
// and marked unrated on rollback. It is never deleted.
type GameSnapshot struct {
	GameID        string
	CommunityID   string
	Rated         bool
	TeamAID       string
	TeamBID       string
	GoalDiff      int
	TeamARating   float64
	TeamBRating   float64
	AppliedAt     time.Time
	InvalidatedAt *time.Time
}

// PlayerSnapshot is the per-player breakdown backing a GameSnapshot,
// keyed by (gameID, profileID).
type PlayerSnapshot struct {
	GameID        string
	ProfileID     string
	TeamID        string
	TeamSide      TeamSide
	PreRating     float64
	PreRatedGames int
	KUsed         int
	Delta         float64
}

// Change is one player's pending adjustment to community_ratings,
// produced by diffing new deltas against previously stored ones.
type Change struct {
	ProfileID       string
	RatingDelta     float64
	RatedGamesDelta int
}

// EventSum aggregates a profile's signed event deltas since a timestamp.
type EventSum struct {
	Delta           float64
	RatedGamesDelta int
}
