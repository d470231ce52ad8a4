package schedule

import (
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// Defaults applied by New when an option is left zero.
const (
	DefaultDueSoonDays = 14
	DefaultMaxScanDays = 90
	DefaultTimeOfDay   = "08:00"
)

// Options configures an Engine.
type Options struct {
	// Location is the facility time zone. Nil means time.Local.
	Location *time.Location
	// LegacyCutoff exempts tasks due on or before this local date from
	// urgency classification. The zero value disables the cutoff.
	LegacyCutoff time.Time
	// DueSoonDays is how far ahead a document task counts as due soon.
	DueSoonDays int
	// MaxScanDays bounds FindFirstMissingOccurrence when the caller passes 0.
	MaxScanDays int
	// DefaultTime is the time of day given to monitoring tasks that list no
	// specific times.
	DefaultTime string
}

// Engine evaluates task definitions against the facility calendar. It holds
// no mutable state and is safe for concurrent use.
type Engine struct {
	Calendar

	cutoff      time.Time
	dueSoonDays int
	maxScanDays int
	defaultTime string
}

// New creates an Engine from opts, filling in defaults.
func New(opts Options) *Engine {
	e := &Engine{
		Calendar:    NewCalendar(opts.Location),
		dueSoonDays: opts.DueSoonDays,
		maxScanDays: opts.MaxScanDays,
		defaultTime: models.NormalizeClock(opts.DefaultTime),
	}
	if e.dueSoonDays <= 0 {
		e.dueSoonDays = DefaultDueSoonDays
	}
	if e.maxScanDays <= 0 {
		e.maxScanDays = DefaultMaxScanDays
	}
	if e.defaultTime == "" {
		e.defaultTime = DefaultTimeOfDay
	}
	if !opts.LegacyCutoff.IsZero() {
		e.cutoff = e.DateOnly(opts.LegacyCutoff)
	}
	return e
}

// LegacyCutoff returns the configured cutoff date, or the zero time.
func (e *Engine) LegacyCutoff() time.Time { return e.cutoff }

// MaxScanDays returns the default gap-scan bound.
func (e *Engine) MaxScanDays() int { return e.maxScanDays }

// interval is the task's frequency multiplier, with malformed values read as 1.
func interval(task models.TaskDefinition) int {
	if task.FrequencyValue < 1 {
		return 1
	}
	return task.FrequencyValue
}

// applyTimeOfDay sets the wall-clock time of an occurrence: the first listed
// specific time if it parses, else the default time for monitoring tasks.
// Document tasks without a usable specific time keep t as is.
func (e *Engine) applyTimeOfDay(task models.TaskDefinition, t time.Time) time.Time {
	if len(task.SpecificTimes) > 0 {
		if at, ok := e.AtClock(t, task.SpecificTimes[0]); ok {
			return at
		}
	}
	if task.Category() == models.CategoryMonitoring {
		at, _ := e.AtClock(t, e.defaultTime)
		return at
	}
	return t
}

func containsInt(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
