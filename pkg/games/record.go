// Package games defines the normalized game record served by the cache and
// the mapper that builds it from raw upstream items.
package games

import (
	"fmt"
	"slices"
	"strings"
)

// GameRecord is the normalized unit stored in every cache table.
// The four facet slices are never nil.
type GameRecord struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Image         string   `json:"image"`
	Thumbnail     string   `json:"thumbnail"`
	YearPublished *int     `json:"yearPublished,omitempty"`
	MinPlayers    *int     `json:"minPlayers,omitempty"`
	MaxPlayers    *int     `json:"maxPlayers,omitempty"`
	PlayingTime   *int     `json:"playingTime,omitempty"`
	MinPlayTime   *int     `json:"minPlayTime,omitempty"`
	MaxPlayTime   *int     `json:"maxPlayTime,omitempty"`
	MinAge        *int     `json:"minAge,omitempty"`
	Rating        string   `json:"rating,omitempty"`
	Rank          *int     `json:"rank,omitempty"`
	Weight        string   `json:"weight,omitempty"`
	Categories    []string `json:"categories"`
	Mechanics     []string `json:"mechanics"`
	Designers     []string `json:"designers"`
	Publishers    []string `json:"publishers"`
}

// FallbackName is the synthetic display name used when none can be parsed.
func FallbackName(id int) string {
	return fmt.Sprintf("Game %d", id)
}

// Fallback returns the minimal record substituted for an item that could not
// be fetched or mapped.
func Fallback(id int) GameRecord {
	return GameRecord{
		ID:         id,
		Name:       FallbackName(id),
		Categories: []string{},
		Mechanics:  []string{},
		Designers:  []string{},
		Publishers: []string{},
	}
}

// Clone returns a deep copy of r. Facet slices and numeric fields of the copy
// share no memory with r.
func (r GameRecord) Clone() GameRecord {
	c := r
	c.YearPublished = cloneInt(r.YearPublished)
	c.MinPlayers = cloneInt(r.MinPlayers)
	c.MaxPlayers = cloneInt(r.MaxPlayers)
	c.PlayingTime = cloneInt(r.PlayingTime)
	c.MinPlayTime = cloneInt(r.MinPlayTime)
	c.MaxPlayTime = cloneInt(r.MaxPlayTime)
	c.MinAge = cloneInt(r.MinAge)
	c.Rank = cloneInt(r.Rank)
	c.Categories = cloneStrings(r.Categories)
	c.Mechanics = cloneStrings(r.Mechanics)
	c.Designers = cloneStrings(r.Designers)
	c.Publishers = cloneStrings(r.Publishers)
	return c
}

// CloneAll deep-copies every record of list.
func CloneAll(list []GameRecord) []GameRecord {
	out := make([]GameRecord, len(list))
	for i, r := range list {
		out[i] = r.Clone()
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// SortByRank orders records ascending by rank. Unranked records sort after
// all ranked ones and among themselves by case-insensitive name. The sort is
// stable, so equal ranks keep their input order.
func SortByRank(records []GameRecord) {
	slices.SortStableFunc(records, func(a, b GameRecord) int {
		switch {
		case a.Rank != nil && b.Rank != nil:
			return *a.Rank - *b.Rank
		case a.Rank != nil:
			return -1
		case b.Rank != nil:
			return 1
		default:
			return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
		}
	})
}
