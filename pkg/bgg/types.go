package bgg

import "encoding/xml"

// Item is one raw upstream record as returned by the thing, hot and search
// endpoints. Only the thing endpoint populates the nested facts; hot and
// search items carry an id and names at most.
type Item struct {
	XMLName       xml.Name    `xml:"item"`
	ID            string      `xml:"id,attr"`
	Type          string      `xml:"type,attr"`
	Rank          string      `xml:"rank,attr"`
	Thumbnail     ValueOrText `xml:"thumbnail"`
	Image         ValueOrText `xml:"image"`
	Names         []Name      `xml:"name"`
	Description   string      `xml:"description"`
	YearPublished *Value      `xml:"yearpublished"`
	MinPlayers    *Value      `xml:"minplayers"`
	MaxPlayers    *Value      `xml:"maxplayers"`
	PlayingTime   *Value      `xml:"playingtime"`
	MinPlayTime   *Value      `xml:"minplaytime"`
	MaxPlayTime   *Value      `xml:"maxplaytime"`
	MinAge        *Value      `xml:"minage"`
	Links         []Link      `xml:"link"`
	Statistics    *Statistics `xml:"statistics"`
}

// Items is the root element of every XML API2 response this package reads.
type Items struct {
	XMLName xml.Name `xml:"items"`
	Total   string   `xml:"total,attr"`
	Items   []Item   `xml:"item"`
}

// Name is a name variant. The upstream sends either a bare text element
// (<name>Catan</name>) or a tagged element (<name type="primary" value="Catan"/>).
type Name struct {
	Type      string `xml:"type,attr"`
	SortIndex string `xml:"sortindex,attr"`
	Value     string `xml:"value,attr"`
	Text      string `xml:",chardata"`
}

// Value is a {value}-wrapped scalar such as <minplayers value="3"/>.
type Value struct {
	Value string `xml:"value,attr"`
}

// ValueOrText holds an element that may carry its payload as text or as a
// value attribute.
type ValueOrText struct {
	Value string `xml:"value,attr"`
	Text  string `xml:",chardata"`
}

// String returns whichever representation is present, text first.
func (v ValueOrText) String() string {
	if v.Text != "" {
		return v.Text
	}
	return v.Value
}

// Link is a typed facet reference (category, mechanic, designer, publisher, ...).
type Link struct {
	Type  string `xml:"type,attr"`
	ID    string `xml:"id,attr"`
	Value string `xml:"value,attr"`
}

// Statistics wraps the ratings block returned when stats=1 is requested.
type Statistics struct {
	Ratings Ratings `xml:"ratings"`
}

// Ratings holds the rating facts of an item.
type Ratings struct {
	UsersRated    *Value `xml:"usersrated"`
	Average       *Value `xml:"average"`
	BayesAverage  *Value `xml:"bayesaverage"`
	Ranks         []Rank `xml:"ranks>rank"`
	AverageWeight *Value `xml:"averageweight"`
}

// Rank is one entry of the ranked-list block.
type Rank struct {
	Type         string `xml:"type,attr"`
	ID           string `xml:"id,attr"`
	Name         string `xml:"name,attr"`
	FriendlyName string `xml:"friendlyname,attr"`
	Value        string `xml:"value,attr"`
}

// Link type discriminators for the four facets the mapper extracts.
const (
	LinkCategory  = "boardgamecategory"
	LinkMechanic  = "boardgamemechanic"
	LinkDesigner  = "boardgamedesigner"
	LinkPublisher = "boardgamepublisher"
)

// RankBoardGame is the subtype name of the overall board game rank.
const RankBoardGame = "boardgame"

// NotRanked is the rank value the upstream uses for unranked items.
const NotRanked = "Not Ranked"
