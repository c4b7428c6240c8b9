// Package cycle defines the restaurant's business day: the 24 hour window
// running from 4:00 AM to 4:00 AM the next morning. Every "today" question in
// the service (dashboard counts, exports, the expiry sweep) is answered here.
package cycle

import (
	"iter"
	"time"
)

// StartHour is the local hour at which a business day begins.
const StartHour = 4

// Length of every business day window.
const Length = 24 * time.Hour

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Compute returns the business day containing now, evaluated in now's location.
// Before 4 AM the window started at 4 AM on the previous calendar day.
func Compute(now time.Time) Window {
	y, m, d := now.Date()
	if now.Hour() < StartHour {
		d--
	}
	start := time.Date(y, m, d, StartHour, 0, 0, 0, now.Location())
	return Window{Start: start, End: start.Add(Length)}
}

// Contains reports whether t falls in the window, start inclusive, end exclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Previous returns the business day immediately before w.
func (w Window) Previous() Window {
	return Window{Start: w.Start.Add(-Length), End: w.Start}
}

// Label formats the window's start date as DD-MM-YYYY.
func (w Window) Label() string {
	return w.Start.Format("02-01-2006")
}

// Filter yields the records whose timestamp lies in w, in their original order.
// The sequence is lazy and may be ranged over any number of times; the input
// slice is never modified.
func Filter[T any](records []T, w Window, at func(T) time.Time) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, r := range records {
			if !w.Contains(at(r)) {
				continue
			}
			if !yield(r) {
				return
			}
		}
	}
}

// Collect drains a filtered sequence into a new slice.
func Collect[T any](seq iter.Seq[T]) []T {
	var out []T
	for r := range seq {
		out = append(out, r)
	}
	return out
}
