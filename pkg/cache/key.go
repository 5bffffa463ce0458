package cache

import "strings"

// Table names, used as metric labels and in logs.
const (
	TableHot    = "hot"
	TableDetail = "detail"
	TableSearch = "search"
)

// HotKey is the single key of the hot table.
const HotKey = "hot"

// NormalizeQuery returns the search table key for a free-text query:
// trimmed and lower-cased. Internal whitespace is kept as is.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
