package ratelimit

import (
	"testing"
	"time"
)

func TestState_NextSlot(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		state    State
		now      time.Time
		expected time.Time
	}{
		{
			name:     "first request goes immediately",
			state:    State{Delay: 2 * time.Second},
			now:      base,
			expected: base,
		},
		{
			name:     "inside window waits for window end",
			state:    State{LastSlot: base, Delay: 2 * time.Second},
			now:      base.Add(500 * time.Millisecond),
			expected: base.Add(2 * time.Second),
		},
		{
			name:     "exactly at window end",
			state:    State{LastSlot: base, Delay: 2 * time.Second},
			now:      base.Add(2 * time.Second),
			expected: base.Add(2 * time.Second),
		},
		{
			name:     "after window goes immediately",
			state:    State{LastSlot: base, Delay: 2 * time.Second},
			now:      base.Add(5 * time.Second),
			expected: base.Add(5 * time.Second),
		},
		{
			name:     "reserved slot in the future",
			state:    State{LastSlot: base.Add(4 * time.Second), Delay: 2 * time.Second},
			now:      base,
			expected: base.Add(6 * time.Second),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.NextSlot(tt.now); !got.Equal(tt.expected) {
				t.Errorf("NextSlot() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestReserve(t *testing.T) {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	state := State{Delay: 2 * time.Second}

	var waits []time.Duration
	for i := 0; i < 3; i++ {
		slot, wait := reserve(state, base)
		state.LastSlot = slot
		waits = append(waits, wait)
	}

	expected := []time.Duration{0, 2 * time.Second, 4 * time.Second}
	for i := range expected {
		if waits[i] != expected[i] {
			t.Errorf("wait[%d] = %v, want %v", i, waits[i], expected[i])
		}
	}
}
