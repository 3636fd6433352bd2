package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTriggerTime(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
		wantErr      bool
	}{
		{"21:00", 21, 0, false},
		{"07:05", 7, 5, false},
		{" 0:59 ", 0, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"noon", 0, 0, true},
		{"12", 0, 0, true},
		{"aa:00", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, m, err := ParseTriggerTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, h)
			assert.Equal(t, tt.minute, m)
		})
	}
}

func TestCronSpec(t *testing.T) {
	spec, err := CronSpec("21:30")
	require.NoError(t, err)
	assert.Equal(t, "30 21 * * *", spec)
}

func TestNewDaily_Errors(t *testing.T) {
	_, err := NewDaily("25:00", "UTC", nil)
	assert.Error(t, err)

	_, err = NewDaily("21:00", "Mars/Olympus_Mons", nil)
	assert.ErrorContains(t, err, "loading timezone")
}

func TestDaily_Next(t *testing.T) {
	d, err := NewDaily("21:00", "Asia/Shanghai", nil)
	require.NoError(t, err)

	// 12:00 UTC is 20:00 in Shanghai, so the next trigger is one hour later.
	now := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)
	next := d.Next(now)
	assert.True(t, next.Equal(time.Date(2026, 3, 8, 13, 0, 0, 0, time.UTC)), "next = %v", next)

	// After today's trigger, the next one is tomorrow.
	later := time.Date(2026, 3, 8, 13, 30, 0, 0, time.UTC)
	assert.True(t, d.Next(later).Equal(time.Date(2026, 3, 9, 13, 0, 0, 0, time.UTC)))
}

func TestDaily_RunStopsOnCancel(t *testing.T) {
	d, err := NewDaily("03:00", "UTC", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, d.Schedule(ctx, func(context.Context) {}))

	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
