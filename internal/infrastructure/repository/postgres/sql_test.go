package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/courtside/community-api/internal/domain/rating"
)

func TestIsNotFound(t *testing.T) {
	t.Run("matches no rows", func(t *testing.T) {
		if !isNotFound(sql.ErrNoRows) {
			t.Fatalf("expected true for sql.ErrNoRows")
		}
	})

	t.Run("ignores unrelated error", func(t *testing.T) {
		if isNotFound(fmt.Errorf("pq: relation games does not exist")) {
			t.Fatalf("expected false for unrelated error")
		}
	})
}

func TestStoreErr_MarksStoreSentinel(t *testing.T) {
	err := storeErr(fmt.Errorf("connection refused"), "query ratings")
	if !errors.Is(err, rating.ErrStore) {
		t.Fatalf("expected error marked with rating.ErrStore, got %v", err)
	}
}

func TestToAnySlice(t *testing.T) {
	got := toAnySlice([]string{"a", "b"})
	if len(got) != 2 || got[0] != any("a") || got[1] != any("b") {
		t.Fatalf("unexpected slice: %v", got)
	}
}
