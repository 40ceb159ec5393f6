package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/courtside/community-api/internal/domain/rating"
)

// newUnreachableDB returns a handle whose every query fails at dial time.
func newUnreachableDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 user=nobody dbname=none sslmode=disable connect_timeout=1")
	if err != nil {
		t.Fatalf("open db handle: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestGameRepository_DriverFailuresCarryStoreSentinel(t *testing.T) {
	repo := NewGameRepository(newUnreachableDB(t))
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
	}{
		{"get by id", func() error {
			_, _, err := repo.GetByID(ctx, "game-1")
			return err
		}},
		{"list ids by community", func() error {
			_, err := repo.ListIDsByCommunity(ctx, "community-1")
			return err
		}},
		{"list teams", func() error {
			_, err := repo.ListTeams(ctx, "game-1")
			return err
		}},
		{"list team member profile ids", func() error {
			_, err := repo.ListTeamMemberProfileIDs(ctx, "team-1")
			return err
		}},
		{"get result", func() error {
			_, _, err := repo.GetResult(ctx, "game-1")
			return err
		}},
		{"list rostered queue entries", func() error {
			_, err := repo.ListRosteredQueueEntries(ctx, "game-1")
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			if err == nil {
				t.Fatalf("expected an error from an unreachable store")
			}
			if !errors.Is(err, rating.ErrStore) {
				t.Fatalf("expected error marked with rating.ErrStore, got %v", err)
			}
		})
	}
}
