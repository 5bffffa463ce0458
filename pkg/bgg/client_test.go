package bgg

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/Sternrassler/bgg-cache/internal/testutil"
	"github.com/rs/zerolog"
)

func newTestClient(t *testing.T, mock *testutil.MockBGG) *Client {
	t.Helper()

	logger := zerolog.Nop()
	cfg := DefaultConfig("bgg-cache-test/1.0")
	cfg.BaseURL = mock.URL()
	cfg.Token = "secret"
	cfg.Logger = &logger

	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
		errorMsg    string
	}{
		{
			name:   "valid config",
			config: DefaultConfig("TestApp/1.0.0"),
		},
		{
			name:        "empty base url",
			config:      Config{UserAgent: "TestApp/1.0.0"},
			expectError: true,
			errorMsg:    "base url is required",
		},
		{
			name:        "empty user agent",
			config:      Config{BaseURL: DefaultBaseURL},
			expectError: true,
			errorMsg:    "user-agent is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error but got nil")
				}
				if err.Error() != tt.errorMsg {
					t.Errorf("Error message = %q, want %q", err.Error(), tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if client == nil {
				t.Fatal("Expected client, got nil")
			}
		})
	}
}

func TestClient_FetchHot(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetResponse("/hot", testutil.NewXMLResponse(testutil.HotXML(3, 1, 2)))

	c := newTestClient(t, mock)
	ids, err := c.FetchHot(context.Background())
	if err != nil {
		t.Fatalf("FetchHot() error = %v", err)
	}

	if !reflect.DeepEqual(ids, []int{3, 1, 2}) {
		t.Errorf("FetchHot() = %v, want [3 1 2]", ids)
	}

	header := mock.LastRequestHeader()
	if got := header.Get("User-Agent"); got != "bgg-cache-test/1.0" {
		t.Errorf("User-Agent = %q", got)
	}
	if got := header.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestClient_FetchHot_SkipsInvalidIDs(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetResponse("/hot", testutil.NewXMLResponse(
		`<items><item id="7"/><item id="abc"/><item id="-3"/><item id="0"/><item id=" 9 "/></items>`))

	c := newTestClient(t, mock)
	ids, err := c.FetchHot(context.Background())
	if err != nil {
		t.Fatalf("FetchHot() error = %v", err)
	}

	if !reflect.DeepEqual(ids, []int{7, 9}) {
		t.Errorf("FetchHot() = %v, want [7 9]", ids)
	}
}

func TestClient_FetchSearch(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetSearch("azul", false, testutil.NewXMLResponse(testutil.SearchXML(230802, 287954)))
	mock.SetSearch("azul", true, testutil.NewXMLResponse(testutil.SearchXML(230802)))

	c := newTestClient(t, mock)
	ctx := context.Background()

	ids, err := c.FetchSearch(ctx, "azul", false)
	if err != nil {
		t.Fatalf("FetchSearch() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int{230802, 287954}) {
		t.Errorf("FetchSearch(non-exact) = %v", ids)
	}

	ids, err = c.FetchSearch(ctx, "azul", true)
	if err != nil {
		t.Fatalf("FetchSearch() error = %v", err)
	}
	if !reflect.DeepEqual(ids, []int{230802}) {
		t.Errorf("FetchSearch(exact) = %v", ids)
	}

	if n := mock.GetRequestCountFor("/search?query=azul&exact=1"); n != 1 {
		t.Errorf("exact search requests = %d, want 1", n)
	}
}

func TestClient_FetchDetail(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetThing(13, testutil.NewXMLResponse(testutil.CatanXML))

	c := newTestClient(t, mock)
	item, err := c.FetchDetail(context.Background(), 13)
	if err != nil {
		t.Fatalf("FetchDetail() error = %v", err)
	}

	if item.ID != "13" {
		t.Errorf("ID = %q, want 13", item.ID)
	}
	if len(item.Names) != 3 {
		t.Errorf("len(Names) = %d, want 3", len(item.Names))
	}
	if item.Statistics == nil || len(item.Statistics.Ratings.Ranks) != 2 {
		t.Fatal("expected statistics with two ranks")
	}
	if item.MinPlayers == nil || item.MinPlayers.Value != "3" {
		t.Errorf("MinPlayers = %+v", item.MinPlayers)
	}
}

func TestClient_FetchDetail_Missing(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()

	c := newTestClient(t, mock)
	_, err := c.FetchDetail(context.Background(), 99)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchDetail() error = %v, want ErrNotFound", err)
	}
	if _, retry := Classify(err); retry {
		t.Error("missing item must not be retryable")
	}
}

func TestClient_FetchDetail_DifferentID(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetThing(13, testutil.NewXMLResponse(testutil.ThingXML(822, "Carcassonne", 40)))

	c := newTestClient(t, mock)
	_, err := c.FetchDetail(context.Background(), 13)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("FetchDetail() error = %v, want ErrNotFound", err)
	}
}

func TestClient_FetchDetail_SingleItemWithoutID(t *testing.T) {
	mock := testutil.NewMockBGG()
	defer mock.Close()
	mock.SetThing(13, testutil.NewXMLResponse(`<items><item type="boardgame"><name type="primary" value="Catan"/></item></items>`))

	c := newTestClient(t, mock)
	item, err := c.FetchDetail(context.Background(), 13)
	if err != nil {
		t.Fatalf("FetchDetail() error = %v", err)
	}
	if len(item.Names) != 1 {
		t.Errorf("len(Names) = %d, want 1", len(item.Names))
	}
}

func TestClient_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name      string
		response  testutil.MockResponse
		class     ErrorClass
		retryable bool
	}{
		{"429", testutil.NewRateLimitResponse(), ErrorClassRateLimit, true},
		{"500", testutil.NewServerErrorResponse(), ErrorClassServer, true},
		{"404", testutil.NewNotFoundResponse(), ErrorClassClient, false},
		{"202 queued", testutil.MockResponse{StatusCode: http.StatusAccepted}, ErrorClassClient, false},
		{"garbage body", testutil.NewXMLResponse("<items><item"), ErrorClassDecode, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockBGG()
			defer mock.Close()
			mock.SetResponse("/hot", tt.response)

			c := newTestClient(t, mock)
			_, err := c.FetchHot(context.Background())
			if err == nil {
				t.Fatal("expected error")
			}

			var upErr *UpstreamError
			if !errors.As(err, &upErr) {
				t.Fatalf("error %v is not an UpstreamError", err)
			}
			if upErr.ErrorClass != tt.class {
				t.Errorf("ErrorClass = %q, want %q", upErr.ErrorClass, tt.class)
			}
			if _, retry := Classify(err); retry != tt.retryable {
				t.Errorf("retryable = %v, want %v", retry, tt.retryable)
			}
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	mock := testutil.NewMockBGG()
	c := newTestClient(t, mock)
	mock.Close()

	_, err := c.FetchHot(context.Background())
	class, retry := Classify(err)
	if class != ErrorClassNetwork {
		t.Errorf("class = %q, want network", class)
	}
	if retry {
		t.Error("network errors are not retried")
	}
}

func TestParseID(t *testing.T) {
	tests := []struct {
		raw string
		id  int
		ok  bool
	}{
		{"13", 13, true},
		{" 42 ", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"12abc", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		id, ok := ParseID(tt.raw)
		if id != tt.id || ok != tt.ok {
			t.Errorf("ParseID(%q) = (%d, %v), want (%d, %v)", tt.raw, id, ok, tt.id, tt.ok)
		}
	}
}
