package bgg

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected ErrorClass
	}{
		{"ok", 200, ""},
		{"not found", 404, ErrorClassClient},
		{"bad request", 400, ErrorClassClient},
		{"too many requests", 429, ErrorClassRateLimit},
		{"internal error", 500, ErrorClassServer},
		{"bad gateway", 502, ErrorClassServer},
		{"service unavailable", 503, ErrorClassServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyStatus(tt.status); got != tt.expected {
				t.Errorf("ClassifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name       string
		errorClass ErrorClass
		expected   bool
	}{
		{"client error should not retry", ErrorClassClient, false},
		{"server error should retry", ErrorClassServer, true},
		{"rate limit should retry", ErrorClassRateLimit, true},
		{"network error should not retry", ErrorClassNetwork, false},
		{"decode error should not retry", ErrorClassDecode, false},
		{"empty error class should not retry", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := shouldRetry(tt.errorClass); result != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.errorClass, result, tt.expected)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	wrapped := fmt.Errorf("fetch thing: %w", &UpstreamError{StatusCode: 429, ErrorClass: ErrorClassRateLimit})

	class, retry := Classify(wrapped)
	if class != ErrorClassRateLimit || !retry {
		t.Errorf("Classify(wrapped 429) = (%q, %v), want (rate_limit, true)", class, retry)
	}

	class, retry = Classify(errors.New("plain"))
	if class != "" || retry {
		t.Errorf("Classify(plain) = (%q, %v), want (\"\", false)", class, retry)
	}
}

func TestUpstreamError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *UpstreamError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &UpstreamError{
				StatusCode: 200,
				ErrorClass: ErrorClassClient,
				Message:    "thing 5 missing from response",
				Err:        ErrNotFound,
			},
			expected: "bgg client error (status 200): thing 5 missing from response: item not found",
		},
		{
			name: "error without wrapped error",
			err: &UpstreamError{
				StatusCode: 503,
				ErrorClass: ErrorClassServer,
				Message:    "503 Service Unavailable",
			},
			expected: "bgg server error (status 503): 503 Service Unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestUpstreamError_Unwrap(t *testing.T) {
	err := &UpstreamError{ErrorClass: ErrorClassClient, Err: ErrNotFound}
	if !errors.Is(err, ErrNotFound) {
		t.Error("errors.Is should find ErrNotFound through UpstreamError")
	}
}
