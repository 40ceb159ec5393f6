package rating

import (
	"math"
	"testing"
)

func TestExpectedScore_Complementary(t *testing.T) {
	t.Parallel()

	pairs := [][2]float64{
		{1500, 1500},
		{1520, 1480},
		{1800, 1200},
		{1000, 2400},
		{1475.5, 1503.25},
	}

	for _, pair := range pairs {
		sum := expectedScore(pair[0], pair[1]) + expectedScore(pair[1], pair[0])
		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("expected scores do not sum to 1 for ra=%v rb=%v: got=%v", pair[0], pair[1], sum)
		}
	}
}

func TestKForRatedGames(t *testing.T) {
	t.Parallel()

	for _, games := range []int{0, 1, 2} {
		if got := kForRatedGames(games); got != 50 {
			t.Fatalf("k for %d rated games: got=%d want=50", games, got)
		}
	}
	for _, games := range []int{3, 4, 10, 250} {
		if got := kForRatedGames(games); got != 30 {
			t.Fatalf("k for %d rated games: got=%d want=30", games, got)
		}
	}
}

func TestGoalDiffMultiplier(t *testing.T) {
	t.Parallel()

	cases := []struct {
		goalDiff int
		want     float64
	}{
		{0, 1.0},
		{1, 1.0},
		{-2, 1.0},
		{3, 1.25},
		{-4, 1.25},
		{5, 1.5},
		{-7, 1.5},
		{12, 1.5},
	}

	for _, tc := range cases {
		if got := goalDiffMultiplier(tc.goalDiff); got != tc.want {
			t.Fatalf("multiplier for goal diff %d: got=%v want=%v", tc.goalDiff, got, tc.want)
		}
	}
}

func TestComputeDeltas_EstablishedTeams(t *testing.T) {
	t.Parallel()

	teamA := []PlayerRatingInput{
		{ProfileID: "a1", PreRating: 1520, PreRatedGames: 3},
		{ProfileID: "a2", PreRating: 1520, PreRatedGames: 3},
	}
	teamB := []PlayerRatingInput{
		{ProfileID: "b1", PreRating: 1480, PreRatedGames: 3},
		{ProfileID: "b2", PreRating: 1480, PreRatedGames: 3},
	}

	cases := []struct {
		goalDiff  int
		wantDelta float64
	}{
		{2, 13.29},
		{4, 16.61},
		{6, 19.94},
	}

	for _, tc := range cases {
		out := ComputeDeltas(teamA, teamB, tc.goalDiff)
		if out.TeamARating != 1520 || out.TeamBRating != 1480 {
			t.Fatalf("unexpected team averages: a=%v b=%v", out.TeamARating, out.TeamBRating)
		}
		if len(out.PlayerDeltas) != 4 {
			t.Fatalf("unexpected delta count: got=%d want=4", len(out.PlayerDeltas))
		}
		for _, pd := range out.PlayerDeltas[:2] {
			if pd.KUsed != 30 {
				t.Fatalf("goalDiff=%d player=%s kUsed: got=%d want=30", tc.goalDiff, pd.ProfileID, pd.KUsed)
			}
			if math.Abs(pd.Delta-tc.wantDelta) > 0.05 {
				t.Fatalf("goalDiff=%d player=%s delta: got=%v want~%v", tc.goalDiff, pd.ProfileID, pd.Delta, tc.wantDelta)
			}
		}
		for i, pd := range out.PlayerDeltas[2:] {
			if pd.TeamSide != TeamSideB {
				t.Fatalf("goalDiff=%d index=%d side: got=%s want=B", tc.goalDiff, i, pd.TeamSide)
			}
			if math.Abs(pd.Delta+tc.wantDelta) > 0.05 {
				t.Fatalf("goalDiff=%d player=%s delta: got=%v want~%v", tc.goalDiff, pd.ProfileID, pd.Delta, -tc.wantDelta)
			}
		}
	}
}

func TestComputeDeltas_UnratedPlayersUseBaseRating(t *testing.T) {
	t.Parallel()

	// Actual pre-ratings are meaningless until a player has a rated game,
	// so both sides must be scored at BaseRating.
	teamA := []PlayerRatingInput{
		{ProfileID: "a1", PreRating: 900, PreRatedGames: 0},
		{ProfileID: "a2", PreRating: 2100, PreRatedGames: 0},
	}
	teamB := []PlayerRatingInput{
		{ProfileID: "b1", PreRating: 1234, PreRatedGames: 0},
	}

	out := ComputeDeltas(teamA, teamB, 1)
	if out.TeamARating != BaseRating || out.TeamBRating != BaseRating {
		t.Fatalf("unexpected team averages: a=%v b=%v", out.TeamARating, out.TeamBRating)
	}

	// K=50, multiplier 1.0, expected 0.5: winner delta is exactly 25.
	for _, pd := range out.PlayerDeltas {
		if pd.KUsed != 50 {
			t.Fatalf("player=%s kUsed: got=%d want=50", pd.ProfileID, pd.KUsed)
		}
		want := 25.0
		if pd.TeamSide == TeamSideB {
			want = -25.0
		}
		if pd.Delta != want {
			t.Fatalf("player=%s delta: got=%v want=%v", pd.ProfileID, pd.Delta, want)
		}
	}
}

func TestComputeDeltas_EmptyTeamAveragesToBase(t *testing.T) {
	t.Parallel()

	out := ComputeDeltas(nil, []PlayerRatingInput{{ProfileID: "b1", PreRating: 1600, PreRatedGames: 5}}, -3)
	if out.TeamARating != BaseRating {
		t.Fatalf("empty team average: got=%v want=%v", out.TeamARating, BaseRating)
	}
	if len(out.PlayerDeltas) != 1 {
		t.Fatalf("unexpected delta count: got=%d want=1", len(out.PlayerDeltas))
	}
	if out.PlayerDeltas[0].Delta <= 0 {
		t.Fatalf("winning higher-rated team B should still gain: got=%v", out.PlayerDeltas[0].Delta)
	}
}

func TestComputeDeltas_OrderStable(t *testing.T) {
	t.Parallel()

	teamA := []PlayerRatingInput{
		{ProfileID: "a2", PreRating: 1510, PreRatedGames: 4},
		{ProfileID: "a1", PreRating: 1490, PreRatedGames: 1},
	}
	teamB := []PlayerRatingInput{
		{ProfileID: "b9", PreRating: 1505, PreRatedGames: 7},
	}

	out := ComputeDeltas(teamA, teamB, 0)
	wantOrder := []string{"a2", "a1", "b9"}
	for i, pd := range out.PlayerDeltas {
		if pd.ProfileID != wantOrder[i] {
			t.Fatalf("unexpected order at %d: got=%s want=%s", i, pd.ProfileID, wantOrder[i])
		}
	}
}
