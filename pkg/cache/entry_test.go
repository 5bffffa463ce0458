package cache

import (
	"testing"
	"time"
)

func TestEntry_IsFresh(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour

	tests := []struct {
		name      string
		createdAt time.Time
		want      bool
	}{
		{
			name:      "just stored",
			createdAt: now,
			want:      true,
		},
		{
			name:      "one millisecond before expiry",
			createdAt: now.Add(-ttl + time.Millisecond),
			want:      true,
		},
		{
			name:      "exactly ttl old",
			createdAt: now.Add(-ttl),
			want:      false,
		},
		{
			name:      "long expired",
			createdAt: now.Add(-24 * time.Hour),
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := Entry[int]{Value: 1, CreatedAt: tt.createdAt}
			if got := entry.IsFresh(now, ttl); got != tt.want {
				t.Errorf("IsFresh() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEntry_Timestamp(t *testing.T) {
	created := time.UnixMilli(1700000000123)
	entry := Entry[string]{Value: "x", CreatedAt: created}

	if got := entry.Timestamp(); got != 1700000000123 {
		t.Errorf("Timestamp() = %d, want 1700000000123", got)
	}
	if got := entry.Age(created.Add(5 * time.Second)); got != 5*time.Second {
		t.Errorf("Age() = %v, want 5s", got)
	}
}
