package rating

import "math"

const (
	kProvisional       = 50
	kEstablished       = 30
	provisionalGames   = 3
	multiplierModerate = 1.25
	multiplierBlowout  = 1.5
)

// ComputeDeltas computes per-player rating deltas for one completed game.
// goalDiff is team A score minus team B score. Pure: no I/O, deterministic,
// repeated calls with identical inputs yield identical outputs.
func ComputeDeltas(teamA, teamB []PlayerRatingInput, goalDiff int) MatchOutcome {
	teamARating := averageRating(teamA)
	teamBRating := averageRating(teamB)

	expectedA := expectedScore(teamARating, teamBRating)
	expectedB := 1 - expectedA

	actualA := actualScoreFromGoalDiff(goalDiff)
	actualB := 1 - actualA

	multiplier := goalDiffMultiplier(goalDiff)

	deltas := make([]PlayerDelta, 0, len(teamA)+len(teamB))
	for _, p := range teamA {
		k := kForRatedGames(p.PreRatedGames)
		deltas = append(deltas, PlayerDelta{
			ProfileID: p.ProfileID,
			TeamSide:  TeamSideA,
			Delta:     float64(k) * multiplier * (actualA - expectedA),
			KUsed:     k,
		})
	}
	for _, p := range teamB {
		k := kForRatedGames(p.PreRatedGames)
		deltas = append(deltas, PlayerDelta{
			ProfileID: p.ProfileID,
			TeamSide:  TeamSideB,
			Delta:     float64(k) * multiplier * (actualB - expectedB),
			KUsed:     k,
		})
	}

	return MatchOutcome{
		TeamARating:  teamARating,
		TeamBRating:  teamBRating,
		PlayerDeltas: deltas,
	}
}

// averageRating is the arithmetic mean of each player's effective rating.
// Unrated players count as BaseRating: only proven ratings feed the
// expectancy. An empty team averages to BaseRating.
func averageRating(team []PlayerRatingInput) float64 {
	if len(team) == 0 {
		return BaseRating
	}

	total := 0.0
	for _, p := range team {
		if p.PreRatedGames > 0 {
			total += p.PreRating
			continue
		}
		total += BaseRating
	}
	return total / float64(len(team))
}

func expectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/400))
}

func actualScoreFromGoalDiff(goalDiff int) float64 {
	switch {
	case goalDiff > 0:
		return 1
	case goalDiff < 0:
		return 0
	default:
		return 0.5
	}
}

// goalDiffMultiplier scales deltas by margin of victory so blowouts move
// ratings further.
func goalDiffMultiplier(goalDiff int) float64 {
	margin := goalDiff
	if margin < 0 {
		margin = -margin
	}
	switch {
	case margin >= 5:
		return multiplierBlowout
	case margin >= 3:
		return multiplierModerate
	default:
		return 1.0
	}
}

// kForRatedGames returns a higher K for players still converging on a
// stable rating.
func kForRatedGames(ratedGames int) int {
	if ratedGames < provisionalGames {
		return kProvisional
	}
	return kEstablished
}
