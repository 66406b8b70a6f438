package core

import "time"

// NowFunc returns the current time; swapped out in tests.
var NowFunc = time.Now

// Today truncates now to UTC midnight. Calendar dates (chapter/course start
// dates) are anchored at UTC midnight, so date-only comparisons must happen
// in UTC too regardless of the server's location.
func Today() time.Time {
	now := NowFunc().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// DateOnly truncates t to UTC midnight.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
