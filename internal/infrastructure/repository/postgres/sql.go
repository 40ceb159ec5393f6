package postgres

import (
	"database/sql"

	crerr "github.com/cockroachdb/errors"

	"github.com/courtside/community-api/internal/domain/rating"
)

func isNotFound(err error) bool {
	return err == sql.ErrNoRows
}

// storeErr tags a driver failure so callers can distinguish persistence
// outages from domain errors.
func storeErr(err error, msg string) error {
	return crerr.Mark(crerr.Wrap(err, msg), rating.ErrStore)
}

func toAnySlice(values []string) []any {
	out := make([]any, 0, len(values))
	for _, v := range values {
		out = append(out, v)
	}
	return out
}
