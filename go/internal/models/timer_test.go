package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTotalDuration(t *testing.T) {
	tests := []struct {
		name    string
		payload NewTimerPayload
		want    time.Duration
		ok      bool
	}{
		{"MinutesAndSeconds", NewTimerPayload{Minutes: 6, Seconds: 30}, 6*time.Minute + 30*time.Second, true},
		{"NegativeSecondsBorrow", NewTimerPayload{Minutes: 1, Seconds: -10}, 50 * time.Second, true},
		{"Zero", NewTimerPayload{}, 0, true},
		{"AtLimit", NewTimerPayload{Minutes: 6000}, MaxTimerDuration, true},
		{"OverLimit", NewTimerPayload{Minutes: 6000, Seconds: 1}, 0, false},
		{"HugeMinutes", NewTimerPayload{Minutes: math.MaxInt}, 0, false},
		{"HugeNegativeSeconds", NewTimerPayload{Seconds: math.MinInt}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.payload.TotalDuration()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
