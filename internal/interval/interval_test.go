package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(day, hour int) time.Time {
	return time.Date(2026, time.March, day, hour, 0, 0, 0, time.UTC)
}

func TestNightsBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"Same day", d(10, 9), d(10, 18), 0},
		{"One night across midnight", d(10, 23), d(11, 1), 1},
		{"Three nights", d(10, 14), d(13, 11), 3},
		{"Reversed is zero", d(13, 0), d(10, 0), 0},
		{"Midnight to midnight", d(10, 0), d(14, 0), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NightsBetween(tt.start, tt.end, time.UTC))
		})
	}
}

func TestNightsBetweenUsesOperatingTimezone(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	// 15:00Z and 17:00Z fall on the same UTC day but straddle local midnight.
	start := time.Date(2026, time.March, 10, 15, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.March, 10, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, 0, NightsBetween(start, end, time.UTC))
	assert.Equal(t, 1, NightsBetween(start, end, loc))
}

func TestNightsBetweenAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Clocks go forward on 2026-03-29 and back on 2026-10-25.
	spring := NightsBetween(time.Date(2026, 3, 28, 12, 0, 0, 0, loc), time.Date(2026, 3, 30, 12, 0, 0, 0, loc), loc)
	autumn := NightsBetween(time.Date(2026, 10, 24, 12, 0, 0, 0, loc), time.Date(2026, 10, 26, 12, 0, 0, 0, loc), loc)

	assert.Equal(t, 2, spring)
	assert.Equal(t, 2, autumn)
}

func TestOccupiedNightsInRange(t *testing.T) {
	tests := []struct {
		name         string
		bStart, bEnd time.Time
		rStart, rEnd time.Time
		want         int
	}{
		{"Partial overlap inside range", d(1, 0), d(4, 0), d(2, 0), d(3, 0), 1},
		{"Disjoint before", d(1, 0), d(3, 0), d(5, 0), d(9, 0), 0},
		{"Disjoint after", d(10, 0), d(12, 0), d(5, 0), d(9, 0), 0},
		{"Touching boundary", d(1, 0), d(5, 0), d(5, 0), d(9, 0), 0},
		{"Fully contained", d(6, 14), d(8, 11), d(5, 0), d(9, 0), 2},
		{"Range inside booking", d(1, 0), d(20, 0), d(5, 0), d(9, 0), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OccupiedNightsInRange(tt.bStart, tt.bEnd, tt.rStart, tt.rEnd, time.UTC)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOccupiedNightsNeverExceedsStay(t *testing.T) {
	rangeStart := d(5, 0)
	rangeEnd := d(15, 0)

	for startDay := 1; startDay <= 18; startDay++ {
		for length := 1; length <= 8; length++ {
			bStart := d(startDay, 14)
			bEnd := bStart.AddDate(0, 0, length).Add(-3 * time.Hour)

			stay := NightsBetween(bStart, bEnd, time.UTC)
			got := OccupiedNightsInRange(bStart, bEnd, rangeStart, rangeEnd, time.UTC)

			require.LessOrEqual(t, got, stay)
			require.GreaterOrEqual(t, got, 0)
			if !bStart.Before(rangeStart) && !bEnd.After(rangeEnd) {
				require.Equal(t, stay, got, "contained booking %v-%v", bStart, bEnd)
			}
		}
	}
}

func TestAdjacentRangesDoNotDoubleCount(t *testing.T) {
	bStart := d(3, 14)
	bEnd := d(12, 10)

	total := 0
	for day := 1; day < 20; day++ {
		total += OccupiedNightsInRange(bStart, bEnd, d(day, 0), d(day+1, 0), time.UTC)
	}

	assert.Equal(t, NightsBetween(bStart, bEnd, time.UTC), total)
}

func TestOverlaps(t *testing.T) {
	assert.True(t, Overlaps(d(10, 0), d(14, 0), d(12, 0), d(16, 0)))
	assert.False(t, Overlaps(d(10, 0), d(14, 0), d(14, 0), d(16, 0)))
	assert.False(t, Overlaps(d(14, 0), d(16, 0), d(10, 0), d(14, 0)))
	assert.True(t, Overlaps(d(10, 0), d(20, 0), d(12, 0), d(13, 0)))
}

func TestWeekAndMonthStart(t *testing.T) {
	// 2026-03-12 is a Thursday.
	assert.Equal(t, d(9, 0), WeekStart(d(12, 17), time.UTC))
	// Sunday belongs to the week that started the previous Monday.
	assert.Equal(t, d(9, 0), WeekStart(d(15, 23), time.UTC))
	assert.Equal(t, d(16, 0), WeekStart(d(16, 0), time.UTC))
	assert.Equal(t, d(1, 0), MonthStart(d(31, 22), time.UTC))
}
