package store

import "time"

// sqliteTimeLayout stores timestamps with nanosecond precision in UTC so
// that event ordering survives a round trip through SQLite's TEXT affinity.
const sqliteTimeLayout = time.RFC3339Nano

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}
