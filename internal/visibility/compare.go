package visibility

import (
	"math"
	"time"

	"github.com/azure/brand-visibility-bot/internal/models"
)

// Day is the comparison unit for daily and weekly changes
const Day = 24 * time.Hour

// Snapshot is one aggregate score at a point in time
type Snapshot struct {
	Timestamp time.Time
	Score     float64
}

// Comparison holds the latest score and its change against earlier runs. Nil
// fields mean there was nothing to compare with.
type Comparison struct {
	Current *float64
	Daily   *float64
	Weekly  *float64
}

// Delta converts the comparison to its API shape
func (c Comparison) Delta() models.Delta {
	return models.Delta{Daily: c.Daily, Weekly: c.Weekly}
}

// Compare computes day-over-day and week-over-week changes of the most recent
// snapshot not after now. The daily reference is the most recent snapshot
// aged [1 day, 2 days) relative to now, the weekly one the most recent aged
// [7 days, 8 days). A change is the plain difference current - reference, in
// percentage points, rounded to one decimal.
func Compare(history []Snapshot, now time.Time) Comparison {
	var comparison Comparison

	current, ok := latestInWindow(history, now, 0, math.MaxInt64)
	if !ok {
		return comparison
	}
	score := current.Score
	comparison.Current = &score

	if reference, ok := latestInWindow(history, now, Day, 2*Day); ok {
		comparison.Daily = delta(current.Score, reference.Score)
	}
	if reference, ok := latestInWindow(history, now, 7*Day, 8*Day); ok {
		comparison.Weekly = delta(current.Score, reference.Score)
	}

	return comparison
}

// latestInWindow picks the most recent snapshot whose age relative to now is in [min, max)
func latestInWindow(history []Snapshot, now time.Time, min, max time.Duration) (Snapshot, bool) {
	var best Snapshot
	found := false

	for _, snapshot := range history {
		age := now.Sub(snapshot.Timestamp)
		if age < min || age >= max {
			continue
		}
		if !found || snapshot.Timestamp.After(best.Timestamp) {
			best = snapshot
			found = true
		}
	}

	return best, found
}

func delta(current, reference float64) *float64 {
	change := Round1(current - reference)
	return &change
}
