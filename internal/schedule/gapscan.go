package schedule

import (
	"context"
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// FindFirstMissingOccurrence walks forward one day at a time from start's
// local date, for at most maxDays days (0 means the engine default), and
// returns the first occurrence with no completion on record. For tasks with
// specific times the result is that day at the first uncompleted time.
//
// If every occurrence in the window is complete, it returns the projection
// from the last day scanned. A failed query counts as "no completion found"
// for that day, so storage errors surface as gaps rather than hiding them.
// The only error returned is ctx's, when the scan is cancelled.
func (e *Engine) FindFirstMissingOccurrence(ctx context.Context, task models.TaskDefinition, start time.Time, src CompletionSource, maxDays int) (time.Time, error) {
	if maxDays <= 0 {
		maxDays = e.maxScanDays
	}
	q := QueryFor(task)
	first := e.DateOnly(start)
	last := first

	for i := 0; i < maxDays; i++ {
		if err := ctx.Err(); err != nil {
			return time.Time{}, err
		}
		day := e.AddDays(first, i)
		last = day
		if !e.IsScheduledOn(task, day) {
			continue
		}

		var records []models.CompletionRecord
		if src != nil {
			var err error
			records, err = src.CompletionsOn(ctx, q, day)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return time.Time{}, ctxErr
				}
				records = nil
			}
		}

		if missing, ok := e.firstMissingOn(task, q, day, records); ok {
			return missing, nil
		}
	}

	return e.ProjectNextDue(task, last), nil
}

// firstMissingOn checks one occurrence day against its completions.
func (e *Engine) firstMissingOn(task models.TaskDefinition, q CompletionQuery, day time.Time, records []models.CompletionRecord) (time.Time, bool) {
	if len(task.SpecificTimes) > 0 {
		done := make(map[string]bool, len(records))
		for _, r := range records {
			if q.Matches(r) {
				done[e.FormatClock(r.RecordedAt)] = true
			}
		}
		for _, s := range task.SpecificTimes {
			clock := models.NormalizeClock(s)
			if clock == "" {
				continue
			}
			if !done[clock] {
				at, _ := e.AtClock(day, clock)
				return at, true
			}
		}
		return time.Time{}, false
	}

	for _, r := range records {
		if r.TaskID != "" && r.TaskID == task.ID {
			return time.Time{}, false
		}
	}
	return e.applyTimeOfDay(task, day), true
}
