package gamecache

// specialCases pins well-known short titles whose general search results are
// ambiguous to their canonical item id. Keys are normalized queries.
var specialCases = map[string]int{
	"catan":       13,
	"carcassonne": 822,
	"pandemic":    30549,
	"dominion":    36218,
	"agricola":    31260,
	"azul":        230802,
	"wingspan":    266192,
	"gloomhaven":  174430,
	"scythe":      169786,
	"codenames":   178900,
	"splendor":    148228,
}

// pinnedID returns the pinned item id for a normalized query.
func pinnedID(key string) (int, bool) {
	id, ok := specialCases[key]
	return id, ok
}
