package service

import "time"

// businessDay is midnight UTC of the calendar day now falls on in loc. All
// forecast dates are civil dates in that form.
func businessDay(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
