// package repositories provides the local SQLite persistence used by the client
package repositories

import (
	"database/sql"
	"time"
)

// nullTime converts a zero time to SQL NULL.
func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
