package models

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// TaskType identifies the clinical care task a definition schedules.
type TaskType string

const (
	TaskTypeVitalSigns                   TaskType = "vital_signs"
	TaskTypeBloodSugar                   TaskType = "blood_sugar"
	TaskTypeWeight                       TaskType = "weight"
	TaskTypeRestraintConsent             TaskType = "restraint_consent"
	TaskTypeAnnualCheckup                TaskType = "annual_checkup"
	TaskTypeCatheterChange               TaskType = "catheter_change"
	TaskTypeNGTubeChange                 TaskType = "ng_tube_change"
	TaskTypeWoundDressingChange          TaskType = "wound_dressing_change"
	TaskTypeMedicationSelfStorageConsent TaskType = "medication_self_storage_consent"
	TaskTypeEndOfLifePlan                TaskType = "end_of_life_plan"
	TaskTypeOxygenTubeCleaning           TaskType = "oxygen_tube_cleaning"
)

// AllTaskTypes returns every known task type in display order.
func AllTaskTypes() []TaskType {
	return []TaskType{
		TaskTypeVitalSigns,
		TaskTypeBloodSugar,
		TaskTypeWeight,
		TaskTypeRestraintConsent,
		TaskTypeAnnualCheckup,
		TaskTypeCatheterChange,
		TaskTypeNGTubeChange,
		TaskTypeWoundDressingChange,
		TaskTypeMedicationSelfStorageConsent,
		TaskTypeEndOfLifePlan,
		TaskTypeOxygenTubeCleaning,
	}
}

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	for _, known := range AllTaskTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// Category groups task types by how their due state is judged.
type Category string

const (
	// CategoryDocument tasks are consent and plan renewals judged by calendar
	// date, with a multi-day due-soon window.
	CategoryDocument Category = "document"
	// CategoryMonitoring tasks are clinical checks judged by exact instant.
	CategoryMonitoring Category = "monitoring"
)

// Category returns the behavioural group of the task type. Unknown types are
// treated as monitoring tasks.
func (t TaskType) Category() Category {
	switch t {
	case TaskTypeRestraintConsent,
		TaskTypeMedicationSelfStorageConsent,
		TaskTypeEndOfLifePlan,
		TaskTypeAnnualCheckup:
		return CategoryDocument
	default:
		return CategoryMonitoring
	}
}

// FrequencyUnit is the unit of a recurrence interval.
type FrequencyUnit string

const (
	FrequencyHourly  FrequencyUnit = "hourly"
	FrequencyDaily   FrequencyUnit = "daily"
	FrequencyWeekly  FrequencyUnit = "weekly"
	FrequencyMonthly FrequencyUnit = "monthly"
	FrequencyYearly  FrequencyUnit = "yearly"
)

// Valid reports whether u is a known frequency unit.
func (u FrequencyUnit) Valid() bool {
	switch u {
	case FrequencyHourly, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// TaskDefinition is a recurring care task for one patient. It is persisted by
// the storage layer and treated as an immutable value by the scheduling engine.
type TaskDefinition struct {
	ID                  string        `yaml:"id" json:"id"`
	PatientID           string        `yaml:"patient_id" json:"patient_id"`
	TaskType            TaskType      `yaml:"task_type" json:"task_type"`
	Title               string        `yaml:"title,omitempty" json:"title,omitempty"`
	FrequencyUnit       FrequencyUnit `yaml:"frequency_unit" json:"frequency_unit"`
	FrequencyValue      int           `yaml:"frequency_value" json:"frequency_value"`
	SpecificTimes       []string      `yaml:"specific_times,omitempty" json:"specific_times,omitempty"`
	SpecificDaysOfWeek  []int         `yaml:"specific_days_of_week,omitempty" json:"specific_days_of_week,omitempty"`
	SpecificDaysOfMonth []int         `yaml:"specific_days_of_month,omitempty" json:"specific_days_of_month,omitempty"`
	IsRecurring         bool          `yaml:"is_recurring" json:"is_recurring"`
	CreatedAt           time.Time     `yaml:"created_at" json:"created_at"`
	LastCompletedAt     *time.Time    `yaml:"last_completed_at,omitempty" json:"last_completed_at,omitempty"`
	NextDueAt           *time.Time    `yaml:"next_due_at,omitempty" json:"next_due_at,omitempty"`
	Notes               string        `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Category is shorthand for t.TaskType.Category().
func (t TaskDefinition) Category() Category {
	return t.TaskType.Category()
}

// Validate checks the fields a caller must supply when creating a task.
// Definitions already in storage are never validated by the scheduling engine;
// it degrades to "not scheduled" instead.
func (t TaskDefinition) Validate() error {
	if t.PatientID == "" {
		return fmt.Errorf("patient id must not be empty")
	}
	if !t.TaskType.Valid() {
		return fmt.Errorf("unknown task type %q", t.TaskType)
	}
	if !t.IsRecurring {
		return validateTimes(t.SpecificTimes)
	}
	if !t.FrequencyUnit.Valid() {
		return fmt.Errorf("unknown frequency unit %q", t.FrequencyUnit)
	}
	if t.FrequencyValue < 1 {
		return fmt.Errorf("frequency value must be at least 1, got %d", t.FrequencyValue)
	}
	for _, d := range t.SpecificDaysOfWeek {
		if d < 1 || d > 7 {
			return fmt.Errorf("day of week %d out of range 1-7", d)
		}
	}
	for _, d := range t.SpecificDaysOfMonth {
		if d < 1 || d > 31 {
			return fmt.Errorf("day of month %d out of range 1-31", d)
		}
	}
	return validateTimes(t.SpecificTimes)
}

func validateTimes(times []string) error {
	for _, s := range times {
		if _, _, ok := ParseClock(s); !ok {
			return fmt.Errorf("invalid time of day %q (want HH:MM)", s)
		}
	}
	return nil
}

// ParseClock parses a wall-clock time such as "8:00", "08:00" or "08:00:00".
// Seconds are ignored.
func ParseClock(s string) (hour, minute int, ok bool) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	hour, _ = strconv.Atoi(m[1])
	minute, _ = strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return 0, 0, false
	}
	return hour, minute, true
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

// NormalizeClock returns s truncated to "HH:MM", or "" if s is not a valid time.
func NormalizeClock(s string) string {
	h, m, ok := ParseClock(s)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// TaskFilter narrows a task listing. Empty fields match everything.
type TaskFilter struct {
	PatientID string
	Types     []TaskType
}

// Matches reports whether t satisfies every criterion in f.
func (f TaskFilter) Matches(t TaskDefinition) bool {
	if f.PatientID != "" && t.PatientID != f.PatientID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, typ := range f.Types {
		if t.TaskType == typ {
			return true
		}
	}
	return false
}
