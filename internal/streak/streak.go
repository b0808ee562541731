// Package streak computes the longest run of calendar days on which every
// recorded meal was in-diet.
//
// THE ALGORITHM:
// The input is one user's meals sorted ascending by date. We walk it once,
// keeping two counters:
//
//	best:    longest qualifying run seen so far, in days
//	current: length of the run ending at the most recently closed day
//
// and a "day cursor" plus a perfect flag for the day currently being read.
// When the day changes, the day we just left is closed: if it was perfect it
// extends current. The first off-diet meal of a day marks the day imperfect
// and resets current to 0. Days with no meals at all are never visited, so
// they neither break nor extend a run.
//
// THE FINAL DAY:
// Days are only closed when a later day shows up, so the last day in the
// input is still open when the loop ends. CountFinalDay decides whether that
// open day is flushed into the result. Without the flush, a user who ate
// perfectly for K days gets K-1.
package streak

import (
	"fmt"
	"time"

	"github.com/dietlog/dietlog-api/internal/apperror"
)

var (
	// ErrEmpty is returned for an empty meal sequence.
	ErrEmpty = fmt.Errorf("streak: no meals to evaluate: %w", apperror.ErrInvalidInput)
	// ErrUnsorted is returned when the input is not ascending by date.
	ErrUnsorted = fmt.Errorf("streak: meals are not in chronological order: %w", apperror.ErrInvalidInput)
)

// Entry is the part of a meal the calculator needs.
type Entry struct {
	Date   time.Time
	InDiet bool
}

// Calculator holds the day-boundary convention.
//
// Location is the time zone in which a timestamp is truncated to its calendar
// date; nil means UTC. CountFinalDay flushes the last (still open) day after
// the loop.
type Calculator struct {
	Location      *time.Location
	CountFinalDay bool
}

// New returns a Calculator that truncates days in loc and counts the final day.
func New(loc *time.Location) *Calculator {
	return &Calculator{Location: loc, CountFinalDay: true}
}

// day is a calendar date with the time of day dropped.
type day struct {
	year  int
	month time.Month
	dom   int
}

func (c *Calculator) dayOf(t time.Time) day {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return day{year: y, month: m, dom: d}
}

// Best returns the longest run, in days, of consecutive meal days on which
// every meal was in-diet.
//
// Preconditions: entries is non-empty and sorted ascending by Date. Both are
// checked; violations return ErrEmpty or ErrUnsorted.
func (c *Calculator) Best(entries []Entry) (int, error) {
	if len(entries) == 0 {
		return 0, ErrEmpty
	}

	best, current := 0, 0
	cursor := c.dayOf(entries[0].Date)
	perfect := true

	for i, e := range entries {
		if i > 0 && e.Date.Before(entries[i-1].Date) {
			return 0, ErrUnsorted
		}

		// Close the previous day before looking at this meal, so an off-diet
		// first meal of a new day is charged to the new day only.
		if d := c.dayOf(e.Date); d != cursor {
			if perfect {
				current++
			}
			cursor = d
			perfect = true
		}

		if perfect && !e.InDiet {
			perfect = false
			current = 0
		}

		if current > best {
			best = current
		}
	}

	if c.CountFinalDay && perfect {
		current++
		if current > best {
			best = current
		}
	}

	return best, nil
}
