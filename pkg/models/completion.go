package models

import "time"

// CompletionRecord is one documented execution of a care task. Older rows
// may lack a TaskID and are matched by (PatientID, TaskType) instead.
type CompletionRecord struct {
	ID         string    `yaml:"id" json:"id"`
	TaskID     string    `yaml:"task_id,omitempty" json:"task_id,omitempty"`
	PatientID  string    `yaml:"patient_id" json:"patient_id"`
	TaskType   TaskType  `yaml:"task_type" json:"task_type"`
	RecordedAt time.Time `yaml:"recorded_at" json:"recorded_at"` // the occurrence the record was made against
	RecordedBy string    `yaml:"recorded_by,omitempty" json:"recorded_by,omitempty"`
	Notes      string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt  time.Time `yaml:"created_at" json:"created_at"`
}
