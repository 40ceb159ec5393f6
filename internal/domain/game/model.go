package game

import "time"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

const (
	DraftStatusCompleted = "completed"

	ResultStatusConfirmed = "confirmed"

	QueueStatusRostered = "rostered"
)

// Game is the read model the rating engine needs; scheduling fields live
// with the surrounding application.
type Game struct {
	ID               string
	CommunityID      string
	Status           Status
	DraftStatus      string
	DraftModeEnabled bool
}

// Team is one drafted side of a game. DraftOrder fixes which side is
// treated as team A (ascending, ties broken by id).
type Team struct {
	ID         string
	GameID     string
	DraftOrder int
}

// Result is a game's reported outcome. Pointer fields are null until the
// result has been fully entered.
type Result struct {
	GameID        string
	Status        string
	WinningTeamID *string
	LosingTeamID  *string
	WinnerScore   *int
	LoserScore    *int
}

// QueueEntry tracks a profile's attendance for one game.
type QueueEntry struct {
	GameID    string
	ProfileID string
	Status    string
	NoShowAt  *time.Time
}
