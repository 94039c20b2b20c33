package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTrackedDates(t *testing.T) {
	// 2025-06-01 12:00 UTC is 17:30 the same day at +05:30.
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cal := NewWithClock(DefaultOffsetMinutes, fixedClock(now))

	assert.Equal(t, "2025-06-01", cal.Today())
	assert.Equal(t, "2025-06-02", cal.Tomorrow())
	assert.Equal(t, [2]string{"2025-06-01", "2025-06-02"}, cal.Tracked())
}

func TestTodayCrossesUTCMidnight(t *testing.T) {
	// 2025-06-01 20:00 UTC is already 2025-06-02 01:30 at +05:30.
	now := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	cal := NewWithClock(DefaultOffsetMinutes, fixedClock(now))

	assert.Equal(t, "2025-06-02", cal.Today())
	assert.Equal(t, "2025-06-03", cal.Tomorrow())
}

func TestIsTracked(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	cal := NewWithClock(DefaultOffsetMinutes, fixedClock(now))

	assert.True(t, cal.IsTracked("2025-06-01"))
	assert.True(t, cal.IsTracked("2025-06-02"))
	assert.False(t, cal.IsTracked("2025-06-03"))
	assert.False(t, cal.IsTracked("2025-05-31"))
	assert.False(t, cal.IsTracked(""))
	assert.False(t, cal.IsTracked("01-06-2025"))
}

func TestFormatUsesCivilZone(t *testing.T) {
	cal := New(DefaultOffsetMinutes)

	late := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-06-02", cal.Format(late))
}
