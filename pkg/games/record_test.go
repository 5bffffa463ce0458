package games

import (
	"reflect"
	"testing"
)

func TestGameRecord_Clone(t *testing.T) {
	orig := GameRecord{
		ID:            13,
		Name:          "Catan",
		YearPublished: intPtr(1995),
		Rank:          intPtr(500),
		Categories:    []string{"Economic"},
		Mechanics:     []string{"Trading"},
		Designers:     []string{"Klaus Teuber"},
		Publishers:    []string{"KOSMOS"},
	}

	c := orig.Clone()
	if !reflect.DeepEqual(c, orig) {
		t.Fatalf("Clone() = %+v, want %+v", c, orig)
	}

	*c.YearPublished = 2000
	*c.Rank = 1
	c.Mechanics[0] = "changed"
	c.Publishers[0] = "changed"

	if *orig.YearPublished != 1995 || *orig.Rank != 500 {
		t.Error("numeric fields share memory with the clone")
	}
	if orig.Mechanics[0] != "Trading" || orig.Publishers[0] != "KOSMOS" {
		t.Error("facets share memory with the clone")
	}
}

func TestCloneAll(t *testing.T) {
	list := []GameRecord{Fallback(1), Fallback(2)}

	out := CloneAll(list)
	out[0].Categories = append(out[0].Categories, "x")
	out[1].Name = "changed"

	if len(list[0].Categories) != 0 || list[1].Name != "Game 2" {
		t.Errorf("CloneAll() result aliases input: %+v", list)
	}
	if got := CloneAll([]GameRecord{}); got == nil {
		t.Error("CloneAll(empty) = nil, want empty slice")
	}
}
