package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/courtside/community-api/internal/domain/rating"
)

// RatingRepository keeps community ratings, the event log, and per-game
// snapshots in process memory. The event slice is append-only, matching
// the persistence contract.
type RatingRepository struct {
	mu              sync.RWMutex
	ratings         map[string]rating.CommunityRating
	events          []rating.Event
	snapshots       map[string]rating.GameSnapshot
	playerSnapshots map[string]map[string]rating.PlayerSnapshot
	playerOrder     map[string][]string
}

func NewRatingRepository() *RatingRepository {
	return &RatingRepository{
		ratings:         make(map[string]rating.CommunityRating),
		snapshots:       make(map[string]rating.GameSnapshot),
		playerSnapshots: make(map[string]map[string]rating.PlayerSnapshot),
		playerOrder:     make(map[string][]string),
	}
}

func ratingKey(communityID, profileID string) string {
	return communityID + "/" + profileID
}

func (r *RatingRepository) GetCommunityRating(_ context.Context, communityID, profileID string) (rating.CommunityRating, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.ratings[ratingKey(communityID, profileID)]
	return row, ok, nil
}

func (r *RatingRepository) ListCommunityRatings(_ context.Context, communityID string, profileIDs []string) ([]rating.CommunityRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rating.CommunityRating, 0, len(profileIDs))
	for _, profileID := range profileIDs {
		if row, ok := r.ratings[ratingKey(communityID, profileID)]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *RatingRepository) ListCommunityStandings(_ context.Context, communityID string) ([]rating.CommunityRating, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]rating.CommunityRating, 0)
	for _, row := range r.ratings {
		if row.CommunityID == communityID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		if out[i].RatedGames != out[j].RatedGames {
			return out[i].RatedGames > out[j].RatedGames
		}
		return out[i].ProfileID < out[j].ProfileID
	})
	return out, nil
}

func (r *RatingRepository) UpsertCommunityRating(_ context.Context, row rating.CommunityRating) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ratings[ratingKey(row.CommunityID, row.ProfileID)] = row
	return nil
}

func (r *RatingRepository) InsertEvents(_ context.Context, events []rating.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, events...)
	return nil
}

func (r *RatingRepository) SumEventsSince(_ context.Context, communityID string, profileIDs []string, since time.Time) (map[string]rating.EventSum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[string]struct{}, len(profileIDs))
	for _, profileID := range profileIDs {
		wanted[profileID] = struct{}{}
	}

	sums := make(map[string]rating.EventSum, len(profileIDs))
	for _, event := range r.events {
		if event.CommunityID != communityID {
			continue
		}
		if _, ok := wanted[event.ProfileID]; !ok {
			continue
		}
		if event.CreatedAt.Before(since) {
			continue
		}
		sum := sums[event.ProfileID]
		sum.Delta += event.Delta
		sum.RatedGamesDelta += event.RatedGamesDelta
		sums[event.ProfileID] = sum
	}
	return sums, nil
}

// Events returns a copy of the event log, newest last. Test helper.
func (r *RatingRepository) Events() []rating.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]rating.Event(nil), r.events...)
}

func (r *RatingRepository) GetGameSnapshot(_ context.Context, gameID string) (rating.GameSnapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot, ok := r.snapshots[gameID]
	return snapshot, ok, nil
}

func (r *RatingRepository) UpsertGameSnapshot(_ context.Context, snapshot rating.GameSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snapshots[snapshot.GameID] = snapshot
	return nil
}

func (r *RatingRepository) ListPlayerSnapshots(_ context.Context, gameID string) ([]rating.PlayerSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rows := r.playerSnapshots[gameID]
	out := make([]rating.PlayerSnapshot, 0, len(rows))
	for _, profileID := range r.playerOrder[gameID] {
		if row, ok := rows[profileID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *RatingRepository) UpsertPlayerSnapshots(_ context.Context, snapshots []rating.PlayerSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range snapshots {
		rows, ok := r.playerSnapshots[row.GameID]
		if !ok {
			rows = make(map[string]rating.PlayerSnapshot)
			r.playerSnapshots[row.GameID] = rows
		}
		if _, exists := rows[row.ProfileID]; !exists {
			r.playerOrder[row.GameID] = append(r.playerOrder[row.GameID], row.ProfileID)
		}
		rows[row.ProfileID] = row
	}
	return nil
}

func (r *RatingRepository) DeletePlayerSnapshots(_ context.Context, gameID string, profileIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows := r.playerSnapshots[gameID]
	for _, profileID := range profileIDs {
		delete(rows, profileID)
	}
	return nil
}

func (r *RatingRepository) ZeroPlayerSnapshotDeltas(_ context.Context, gameID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for profileID, row := range r.playerSnapshots[gameID] {
		row.Delta = 0
		r.playerSnapshots[gameID][profileID] = row
	}
	return nil
}
