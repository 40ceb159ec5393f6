package postgres

import "time"

type gameTableModel struct {
	ID               string     `db:"id"`
	CommunityID      string     `db:"community_id"`
	Status           string     `db:"status"`
	DraftStatus      string     `db:"draft_status"`
	DraftModeEnabled bool       `db:"draft_mode_enabled"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	DeletedAt        *time.Time `db:"deleted_at"`
}

type gameTeamTableModel struct {
	ID         string     `db:"id"`
	GameID     string     `db:"game_id"`
	DraftOrder int        `db:"draft_order"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at"`
	DeletedAt  *time.Time `db:"deleted_at"`
}

type gameResultTableModel struct {
	ID            int64      `db:"id"`
	GameID        string     `db:"game_id"`
	Status        string     `db:"status"`
	WinningTeamID *string    `db:"winning_team_id"`
	LosingTeamID  *string    `db:"losing_team_id"`
	WinnerScore   *int       `db:"winner_score"`
	LoserScore    *int       `db:"loser_score"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

type gameQueueEntryTableModel struct {
	ID        int64      `db:"id"`
	GameID    string     `db:"game_id"`
	ProfileID string     `db:"profile_id"`
	Status    string     `db:"status"`
	NoShowAt  *time.Time `db:"no_show_at"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}
