package games

import (
	"html"
	"math"
	"strings"

	"github.com/Sternrassler/bgg-cache/pkg/bgg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

var mappingDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "bgg_mapping_degraded_total",
	Help: "Total number of upstream items replaced by the fallback record",
})

// Map converts one raw upstream item into a GameRecord. It is pure and never
// fails: whatever cannot be read is left empty, and an item that breaks the
// mapper entirely yields Fallback(id).
func Map(raw bgg.Item, id int) GameRecord {
	record, _ := mapItem(raw, id)
	return record
}

// Mapper wraps Map and reports degraded items.
type Mapper struct {
	logger zerolog.Logger
}

// NewMapper creates a mapper logging to logger.
func NewMapper(logger zerolog.Logger) *Mapper {
	return &Mapper{logger: logger}
}

// Map converts raw into a GameRecord, logging when the fallback was used or
// no name could be parsed.
func (m *Mapper) Map(raw bgg.Item, id int) GameRecord {
	record, degraded := mapItem(raw, id)
	if degraded {
		mappingDegradedTotal.Inc()
		m.logger.Warn().
			Str("operation", "map").
			Int("key", id).
			Msg("Mapping degraded, using fallback values")
	}
	return record
}

// mapItem does the conversion and reports whether it degraded.
func mapItem(raw bgg.Item, id int) (record GameRecord, degraded bool) {
	defer func() {
		if r := recover(); r != nil {
			record, degraded = Fallback(id), true
		}
	}()

	name, ok := decodeNames(raw.Names).resolve()
	if !ok {
		name = FallbackName(id)
		degraded = true
	}

	record = GameRecord{
		ID:            id,
		Name:          name,
		Description:   cleanDescription(raw.Description),
		Image:         strings.TrimSpace(raw.Image.String()),
		Thumbnail:     strings.TrimSpace(raw.Thumbnail.String()),
		YearPublished: parseValue(raw.YearPublished),
		MinPlayers:    parseValue(raw.MinPlayers),
		MaxPlayers:    parseValue(raw.MaxPlayers),
		PlayingTime:   parseValue(raw.PlayingTime),
		MinPlayTime:   parseValue(raw.MinPlayTime),
		MaxPlayTime:   parseValue(raw.MaxPlayTime),
		MinAge:        parseValue(raw.MinAge),
		Categories:    linkValues(raw.Links, bgg.LinkCategory),
		Mechanics:     linkValues(raw.Links, bgg.LinkMechanic),
		Designers:     linkValues(raw.Links, bgg.LinkDesigner),
		Publishers:    linkValues(raw.Links, bgg.LinkPublisher),
	}

	if raw.Statistics != nil {
		ratings := raw.Statistics.Ratings
		record.Rating = valueString(ratings.Average)
		record.Weight = valueString(ratings.AverageWeight)
		record.Rank = boardGameRank(ratings.Ranks)
	}

	return record, degraded
}

// nameKind tags the shape a name arrived in.
type nameKind int

const (
	nameNone nameKind = iota
	// nameSingle is a bare string or one untyped element.
	nameSingle
	// nameTagged is a list of type-tagged variants.
	nameTagged
)

// nameVariant is the decoded form of the upstream name field.
type nameVariant struct {
	kind   nameKind
	single string
	tagged []bgg.Name
}

// decodeNames classifies the raw name elements.
func decodeNames(names []bgg.Name) nameVariant {
	switch {
	case len(names) == 0:
		return nameVariant{kind: nameNone}
	case len(names) == 1 && names[0].Type == "":
		return nameVariant{kind: nameSingle, single: nameText(names[0])}
	default:
		return nameVariant{kind: nameTagged, tagged: names}
	}
}

// resolve picks the display name: the single value, else the primary variant,
// else the first variant with any text.
func (v nameVariant) resolve() (string, bool) {
	switch v.kind {
	case nameSingle:
		return v.single, v.single != ""
	case nameTagged:
		for _, n := range v.tagged {
			if n.Type == "primary" {
				if text := nameText(n); text != "" {
					return text, true
				}
			}
		}
		for _, n := range v.tagged {
			if text := nameText(n); text != "" {
				return text, true
			}
		}
	}
	return "", false
}

func nameText(n bgg.Name) string {
	if v := strings.TrimSpace(n.Value); v != "" {
		return v
	}
	return strings.TrimSpace(n.Text)
}

// parseValue reads the leading integer of a {value}-wrapped field.
func parseValue(v *bgg.Value) *int {
	if v == nil {
		return nil
	}
	n, ok := parseLeadingInt(v.Value)
	if !ok {
		return nil
	}
	return &n
}

// parseLeadingInt parses an optional sign followed by digits at the start of
// s, ignoring whatever follows ("12abc" is 12, "abc" fails). Values that
// overflow int fail.
func parseLeadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}

	n, digits := 0, 0
	for ; digits < len(s) && s[digits] >= '0' && s[digits] <= '9'; digits++ {
		d := int(s[digits] - '0')
		if n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func valueString(v *bgg.Value) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(v.Value)
}

// linkValues collects the values of links with the given type discriminator.
func linkValues(links []bgg.Link, linkType string) []string {
	values := []string{}
	for _, l := range links {
		if l.Type == linkType && l.Value != "" {
			values = append(values, l.Value)
		}
	}
	return values
}

// boardGameRank returns the overall board game rank, nil when unranked.
func boardGameRank(ranks []bgg.Rank) *int {
	for _, r := range ranks {
		if r.Name != bgg.RankBoardGame {
			continue
		}
		if r.Value == bgg.NotRanked {
			return nil
		}
		n, ok := parseLeadingInt(r.Value)
		if !ok {
			return nil
		}
		return &n
	}
	return nil
}

// cleanDescription undoes the upstream's double entity escaping.
func cleanDescription(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
