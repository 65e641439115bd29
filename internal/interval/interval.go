// Package interval holds the day/night arithmetic shared by the booking
// conflict checks and the occupancy analytics. All functions are pure.
package interval

import (
	"math"
	"time"
)

// DayStart returns midnight of t's calendar day in loc.
func DayStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// WeekStart returns Monday 00:00 of the week containing t.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	d := DayStart(t, loc)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// MonthStart returns the first day of t's month at 00:00 in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	d := DayStart(t, loc)
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// NightsBetween counts the calendar-day boundaries crossed between start and
// end. A stay is billed by nights, not elapsed hours, so 23:00 -> 01:00 the
// next day is one night. Never negative.
func NightsBetween(start, end time.Time, loc *time.Location) int {
	a := DayStart(start, loc)
	b := DayStart(end, loc)
	// Both ends are midnights; rounding absorbs 23h/25h DST days.
	n := int(math.Round(b.Sub(a).Hours() / 24))
	if n < 0 {
		return 0
	}
	return n
}

// OccupiedNightsInRange returns the nights of overlap between a booking
// window and a reporting range. Zero when they do not intersect.
func OccupiedNightsInRange(bookingStart, bookingEnd, rangeStart, rangeEnd time.Time, loc *time.Location) int {
	start := maxTime(bookingStart, rangeStart)
	end := minTime(bookingEnd, rangeEnd)
	if !start.Before(end) {
		return 0
	}
	return NightsBetween(start, end, loc)
}

// Overlaps reports whether the half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching boundaries do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
