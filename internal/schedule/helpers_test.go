package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/valter-silva-au/careclock/pkg/models"
)

// testLoc is a fixed UTC+8 facility zone so local and UTC dates differ near midnight.
var testLoc = time.FixedZone("UTC+8", 8*60*60)

func newTestEngine() *Engine {
	return New(Options{Location: testLoc})
}

func at(y int, m time.Month, d, h, mi int) time.Time {
	return time.Date(y, m, d, h, mi, 0, 0, testLoc)
}

func day(y int, m time.Month, d int) time.Time {
	return at(y, m, d, 0, 0)
}

func ptr(t time.Time) *time.Time { return &t }

func dailyTask(n int) models.TaskDefinition {
	return models.TaskDefinition{
		ID:             "task-1",
		PatientID:      "patient-1",
		TaskType:       models.TaskTypeVitalSigns,
		FrequencyUnit:  models.FrequencyDaily,
		FrequencyValue: n,
		IsRecurring:    true,
		CreatedAt:      at(2026, time.October, 1, 9, 0),
	}
}

// fakeSource serves completions from memory and counts queries.
type fakeSource struct {
	cal     Calendar
	records []models.CompletionRecord
	err     error
	calls   int
}

func (f *fakeSource) CompletionsOn(_ context.Context, q CompletionQuery, date time.Time) ([]models.CompletionRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	want := f.cal.FormatDate(date)
	var out []models.CompletionRecord
	for _, r := range f.records {
		if f.cal.FormatDate(r.RecordedAt) == want && q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

var errStorage = errors.New("storage unavailable")

func completion(taskID string, recordedAt time.Time) models.CompletionRecord {
	return models.CompletionRecord{
		ID:         "c-" + recordedAt.Format("0102-1504"),
		TaskID:     taskID,
		PatientID:  "patient-1",
		TaskType:   models.TaskTypeVitalSigns,
		RecordedAt: recordedAt,
	}
}
