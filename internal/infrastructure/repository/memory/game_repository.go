package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/courtside/community-api/internal/domain/game"
)

// GameRepository is an in-memory read model over game state. Tests and the
// no-database dev mode mutate it directly through the setters.
type GameRepository struct {
	mu           sync.RWMutex
	games        map[string]game.Game
	teams        map[string][]game.Team
	members      map[string][]string
	results      map[string]game.Result
	queueEntries map[string][]game.QueueEntry
}

func NewGameRepository() *GameRepository {
	return &GameRepository{
		games:        make(map[string]game.Game),
		teams:        make(map[string][]game.Team),
		members:      make(map[string][]string),
		results:      make(map[string]game.Result),
		queueEntries: make(map[string][]game.QueueEntry),
	}
}

func (r *GameRepository) GetByID(_ context.Context, gameID string) (game.Game, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[gameID]
	return g, ok, nil
}

func (r *GameRepository) ListIDsByCommunity(_ context.Context, communityID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0)
	for id, g := range r.games {
		if g.CommunityID == communityID {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *GameRepository) ListTeams(_ context.Context, gameID string) ([]game.Team, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]game.Team(nil), r.teams[gameID]...), nil
}

func (r *GameRepository) ListTeamMemberProfileIDs(_ context.Context, teamID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.members[teamID]...), nil
}

func (r *GameRepository) GetResult(_ context.Context, gameID string) (game.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res, ok := r.results[gameID]
	return res, ok, nil
}

func (r *GameRepository) ListRosteredQueueEntries(_ context.Context, gameID string) ([]game.QueueEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]game.QueueEntry, 0)
	for _, entry := range r.queueEntries[gameID] {
		if entry.Status == game.QueueStatusRostered {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (r *GameRepository) PutGame(g game.Game) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[g.ID] = g
}

func (r *GameRepository) DeleteGame(gameID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, gameID)
}

func (r *GameRepository) PutTeams(gameID string, teams []game.Team) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.teams[gameID] = append([]game.Team(nil), teams...)
}

func (r *GameRepository) PutTeamMembers(teamID string, profileIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[teamID] = append([]string(nil), profileIDs...)
}

func (r *GameRepository) PutResult(res game.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[res.GameID] = res
}

func (r *GameRepository) PutQueueEntries(gameID string, entries []game.QueueEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queueEntries[gameID] = append([]game.QueueEntry(nil), entries...)
}
