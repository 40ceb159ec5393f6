package postgres

import "time"

type communityRatingTableModel struct {
	ID          int64     `db:"id"`
	CommunityID string    `db:"community_id"`
	ProfileID   string    `db:"profile_id"`
	Rating      float64   `db:"rating"`
	RatedGames  int       `db:"rated_games"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type communityRatingInsertModel struct {
	CommunityID string  `db:"community_id"`
	ProfileID   string  `db:"profile_id"`
	Rating      float64 `db:"rating"`
	RatedGames  int     `db:"rated_games"`
}

type ratingEventInsertModel struct {
	CommunityID     string    `db:"community_id"`
	GameID          string    `db:"game_id"`
	ProfileID       string    `db:"profile_id"`
	Delta           float64   `db:"delta"`
	RatedGamesDelta int       `db:"rated_games_delta"`
	EventType       string    `db:"event_type"`
	CreatedAt       time.Time `db:"created_at"`
}

type eventSumRowModel struct {
	ProfileID       string  `db:"profile_id"`
	Delta           float64 `db:"delta"`
	RatedGamesDelta int     `db:"rated_games_delta"`
}

type gameRatingSnapshotTableModel struct {
	ID            int64      `db:"id"`
	GameID        string     `db:"game_id"`
	CommunityID   string     `db:"community_id"`
	Rated         bool       `db:"rated"`
	TeamAID       string     `db:"team_a_id"`
	TeamBID       string     `db:"team_b_id"`
	GoalDiff      int        `db:"goal_diff"`
	TeamARating   float64    `db:"team_a_rating"`
	TeamBRating   float64    `db:"team_b_rating"`
	AppliedAt     time.Time  `db:"applied_at"`
	InvalidatedAt *time.Time `db:"invalidated_at"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
}

type gameRatingSnapshotInsertModel struct {
	GameID        string     `db:"game_id"`
	CommunityID   string     `db:"community_id"`
	Rated         bool       `db:"rated"`
	TeamAID       string     `db:"team_a_id"`
	TeamBID       string     `db:"team_b_id"`
	GoalDiff      int        `db:"goal_diff"`
	TeamARating   float64    `db:"team_a_rating"`
	TeamBRating   float64    `db:"team_b_rating"`
	AppliedAt     time.Time  `db:"applied_at"`
	InvalidatedAt *time.Time `db:"invalidated_at"`
}

type playerRatingSnapshotTableModel struct {
	ID            int64      `db:"id"`
	GameID        string     `db:"game_id"`
	ProfileID     string     `db:"profile_id"`
	TeamID        string     `db:"team_id"`
	TeamSide      string     `db:"team_side"`
	PreRating     float64    `db:"pre_rating"`
	PreRatedGames int        `db:"pre_rated_games"`
	KUsed         int        `db:"k_used"`
	Delta         float64    `db:"delta"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type playerRatingSnapshotInsertModel struct {
	GameID        string  `db:"game_id"`
	ProfileID     string  `db:"profile_id"`
	TeamID        string  `db:"team_id"`
	TeamSide      string  `db:"team_side"`
	PreRating     float64 `db:"pre_rating"`
	PreRatedGames int     `db:"pre_rated_games"`
	KUsed         int     `db:"k_used"`
	Delta         float64 `db:"delta"`
}
