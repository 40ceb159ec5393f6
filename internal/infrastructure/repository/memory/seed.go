package memory

import "github.com/courtside/community-api/internal/domain/game"

// SeedDemoCommunity fills a game repository with one completed, confirmed
// game so local runs can exercise the rating endpoints without a database.
func SeedDemoCommunity(repo *GameRepository) {
	const (
		communityID = "demo-community"
		gameID      = "demo-game-1"
		teamAID     = "demo-team-a"
		teamBID     = "demo-team-b"
	)

	repo.PutGame(game.Game{
		ID:               gameID,
		CommunityID:      communityID,
		Status:           game.StatusCompleted,
		DraftStatus:      game.DraftStatusCompleted,
		DraftModeEnabled: true,
	})
	repo.PutTeams(gameID, []game.Team{
		{ID: teamAID, GameID: gameID, DraftOrder: 1},
		{ID: teamBID, GameID: gameID, DraftOrder: 2},
	})
	repo.PutTeamMembers(teamAID, []string{"profile-ana", "profile-ben"})
	repo.PutTeamMembers(teamBID, []string{"profile-cai", "profile-dee"})

	winner := teamAID
	loser := teamBID
	winnerScore := 11
	loserScore := 7
	repo.PutResult(game.Result{
		GameID:        gameID,
		Status:        game.ResultStatusConfirmed,
		WinningTeamID: &winner,
		LosingTeamID:  &loser,
		WinnerScore:   &winnerScore,
		LoserScore:    &loserScore,
	})
	repo.PutQueueEntries(gameID, []game.QueueEntry{
		{GameID: gameID, ProfileID: "profile-ana", Status: game.QueueStatusRostered},
		{GameID: gameID, ProfileID: "profile-ben", Status: game.QueueStatusRostered},
		{GameID: gameID, ProfileID: "profile-cai", Status: game.QueueStatusRostered},
		{GameID: gameID, ProfileID: "profile-dee", Status: game.QueueStatusRostered},
	})
}
