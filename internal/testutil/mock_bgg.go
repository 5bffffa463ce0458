// Package testutil provides testing utilities for the BGG cache.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock upstream endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockBGG is a configurable mock XML API2 server for testing.
// Handlers are keyed by path plus the query parameters that identify a call,
// e.g. "/thing?id=13" or "/search?query=catan&exact=1".
type MockBGG struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	requestCount int
	requests     map[string]int
	lastHeader   http.Header
}

// NewMockBGG creates a new mock upstream server.
func NewMockBGG() *MockBGG {
	mock := &MockBGG{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
		requests: make(map[string]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := RequestKey(r)

		mock.mu.Lock()
		mock.requestCount++
		mock.requests[key]++
		mock.lastHeader = r.Header.Clone()
		handler, exists := mock.handlers[key]
		if !exists {
			handler, exists = mock.handlers[r.URL.Path]
		}
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// RequestKey builds the handler key for a request: the path followed by the
// identifying query parameters (id, query, exact) in a fixed order.
func RequestKey(r *http.Request) string {
	q := r.URL.Query()
	var parts []string
	for _, name := range []string{"id", "query", "exact"} {
		if v := q.Get(name); v != "" {
			parts = append(parts, name+"="+v)
		}
	}
	if len(parts) == 0 {
		return r.URL.Path
	}
	return r.URL.Path + "?" + strings.Join(parts, "&")
}

// URL returns the mock server URL.
func (m *MockBGG) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockBGG) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockBGG) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.requests = make(map[string]int)
	m.lastHeader = nil
}

// SetHandler sets a custom handler for a request key.
func (m *MockBGG) SetHandler(key string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[key] = handler
}

// SetResponse configures a simple response for a request key.
func (m *MockBGG) SetResponse(key string, resp MockResponse) {
	m.SetHandler(key, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetThing configures the thing endpoint for id.
func (m *MockBGG) SetThing(id int, resp MockResponse) {
	m.SetResponse(fmt.Sprintf("/thing?id=%d", id), resp)
}

// SetSearch configures the search endpoint for query and mode.
func (m *MockBGG) SetSearch(query string, exact bool, resp MockResponse) {
	key := "/search?query=" + query
	if exact {
		key += "&exact=1"
	}
	m.SetResponse(key, resp)
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockBGG) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// GetRequestCountFor returns the number of requests made for a request key.
func (m *MockBGG) GetRequestCountFor(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requests[key]
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockBGG) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHeader
}

// defaultHandler answers unknown requests with an empty items envelope.
func (m *MockBGG) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?><items total="0"></items>`))
}

// NewXMLResponse creates a standard 200 OK response with an XML body.
func NewXMLResponse(body string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       body,
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=utf-8",
		},
	}
}

// NewRateLimitResponse creates a 429 Too Many Requests response.
func NewRateLimitResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `<error><message>Rate limit exceeded.</message></error>`,
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=utf-8",
			"Retry-After":  "5",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `<error><message>Internal server error</message></error>`,
		Headers: map[string]string{
			"Content-Type": "text/xml; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `<error><message>Not found</message></error>`,
	}
}

// HotXML renders a hot list response for ids.
func HotXML(ids ...int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="utf-8"?><items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">`)
	for i, id := range ids {
		fmt.Fprintf(&b, `<item id="%d" rank="%d"><thumbnail value="https://cf.geekdo-images.com/%d_t.jpg"/><name value="Hot %d"/></item>`, id, i+1, id, id)
	}
	b.WriteString(`</items>`)
	return b.String()
}

// SearchXML renders a search response for ids.
func SearchXML(ids ...int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="utf-8"?><items total="%d" termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">`, len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, `<item type="boardgame" id="%d"><name type="primary" value="Result %d"/></item>`, id, id)
	}
	b.WriteString(`</items>`)
	return b.String()
}

// ThingXML renders a minimal well-formed thing response.
// A rank of 0 renders as "Not Ranked".
func ThingXML(id int, name string, rank int) string {
	rankValue := "Not Ranked"
	if rank > 0 {
		rankValue = fmt.Sprintf("%d", rank)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
  <item type="boardgame" id="%d">
    <thumbnail>https://cf.geekdo-images.com/%d_t.jpg</thumbnail>
    <image>https://cf.geekdo-images.com/%d.jpg</image>
    <name type="primary" sortindex="1" value="%s"/>
    <description>About %s</description>
    <yearpublished value="2000"/>
    <minplayers value="2"/>
    <maxplayers value="4"/>
    <link type="boardgamecategory" id="1" value="Strategy"/>
    <statistics page="1">
      <ratings>
        <average value="7.5"/>
        <ranks>
          <rank type="subtype" id="1" name="boardgame" friendlyname="Board Game Rank" value="%s"/>
        </ranks>
        <averageweight value="2.5"/>
      </ratings>
    </statistics>
  </item>
</items>`, id, id, id, name, name, rankValue)
}

// CatanXML is a full thing response for Catan (id 13).
const CatanXML = `<?xml version="1.0" encoding="utf-8"?>
<items termsofuse="https://boardgamegeek.com/xmlapi/termsofuse">
  <item type="boardgame" id="13">
    <thumbnail>https://cf.geekdo-images.com/W3Bsga_uLP9kO91gZ7H8yw__thumb/img/catan.jpg</thumbnail>
    <image>https://cf.geekdo-images.com/W3Bsga_uLP9kO91gZ7H8yw__original/img/catan.jpg</image>
    <name type="primary" sortindex="1" value="Catan"/>
    <name type="alternate" sortindex="1" value="Die Siedler von Catan"/>
    <name type="alternate" sortindex="1" value="The Settlers of Catan"/>
    <description>In CATAN, players try to be the dominant force on the island of Catan.&amp;#10;&amp;#10;Trade &amp;amp; build.</description>
    <yearpublished value="1995"/>
    <minplayers value="3"/>
    <maxplayers value="4"/>
    <playingtime value="120"/>
    <minplaytime value="60"/>
    <maxplaytime value="120"/>
    <minage value="10"/>
    <link type="boardgamecategory" id="1021" value="Economic"/>
    <link type="boardgamecategory" id="1026" value="Negotiation"/>
    <link type="boardgamemechanic" id="2072" value="Dice Rolling"/>
    <link type="boardgamemechanic" id="2008" value="Trading"/>
    <link type="boardgamefamily" id="3" value="Catan"/>
    <link type="boardgamedesigner" id="11" value="Klaus Teuber"/>
    <link type="boardgamepublisher" id="37" value="KOSMOS"/>
    <link type="boardgamepublisher" id="17" value="Mayfair Games"/>
    <statistics page="1">
      <ratings>
        <usersrated value="120000"/>
        <average value="7.09"/>
        <bayesaverage value="6.9"/>
        <ranks>
          <rank type="subtype" id="1" name="boardgame" friendlyname="Board Game Rank" value="500"/>
          <rank type="family" id="5497" name="strategygames" friendlyname="Strategy Game Rank" value="400"/>
        </ranks>
        <averageweight value="2.29"/>
      </ratings>
    </statistics>
  </item>
</items>`
