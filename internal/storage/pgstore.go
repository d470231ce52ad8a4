package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
)

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("connecting to postgres: empty DSN")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return pool, nil
}

// PgTaskStore is a PostgreSQL-backed task definition store.
type PgTaskStore struct {
	pool *pgxpool.Pool
}

// NewPgTaskStore creates a PgTaskStore.
func NewPgTaskStore(pool *pgxpool.Pool) *PgTaskStore {
	return &PgTaskStore{pool: pool}
}

// EnsureTable creates the care_tasks table if it doesn't exist.
func (s *PgTaskStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS care_tasks (
			id                     TEXT PRIMARY KEY,
			patient_id             TEXT NOT NULL,
			task_type              TEXT NOT NULL,
			title                  TEXT NOT NULL DEFAULT '',
			frequency_unit         TEXT NOT NULL DEFAULT '',
			frequency_value        INTEGER NOT NULL DEFAULT 1,
			specific_times         TEXT[] NOT NULL DEFAULT '{}',
			specific_days_of_week  INTEGER[] NOT NULL DEFAULT '{}',
			specific_days_of_month INTEGER[] NOT NULL DEFAULT '{}',
			is_recurring           BOOLEAN NOT NULL DEFAULT TRUE,
			created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			last_completed_at      TIMESTAMPTZ,
			next_due_at            TIMESTAMPTZ,
			notes                  TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return fmt.Errorf("creating care_tasks: %w", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_care_tasks_patient ON care_tasks(patient_id, task_type)`)
	return err
}

const taskColumns = `id, patient_id, task_type, title, frequency_unit, frequency_value,
	specific_times, specific_days_of_week, specific_days_of_month, is_recurring,
	created_at, last_completed_at, next_due_at, notes`

// AddTask inserts a new definition.
func (s *PgTaskStore) AddTask(ctx context.Context, t models.TaskDefinition) error {
	if t.ID == "" {
		return fmt.Errorf("adding task: ID must not be empty")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO care_tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		taskArgs(t)...)
	if err != nil {
		return fmt.Errorf("adding task %s: %w", t.ID, err)
	}
	return nil
}

// UpdateTask replaces an existing definition.
func (s *PgTaskStore) UpdateTask(ctx context.Context, t models.TaskDefinition) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE care_tasks SET
			patient_id = $2, task_type = $3, title = $4, frequency_unit = $5, frequency_value = $6,
			specific_times = $7, specific_days_of_week = $8, specific_days_of_month = $9,
			is_recurring = $10, created_at = $11, last_completed_at = $12, next_due_at = $13, notes = $14
		WHERE id = $1`,
		taskArgs(t)...)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("updating task %s: %w", t.ID, ErrNotFound)
	}
	return nil
}

// RemoveTask deletes a definition. Its completions are kept.
func (s *PgTaskStore) RemoveTask(ctx context.Context, taskID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM care_tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("removing task %s: %w", taskID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("removing task %s: %w", taskID, ErrNotFound)
	}
	return nil
}

// GetTask retrieves a single definition by ID.
func (s *PgTaskStore) GetTask(ctx context.Context, taskID string) (*models.TaskDefinition, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM care_tasks WHERE id = $1`, taskID)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
		}
		return nil, fmt.Errorf("get task %s: %w", taskID, err)
	}
	return &t, nil
}

// ListTasks returns the definitions matching filter ordered by patient, task
// type and ID.
func (s *PgTaskStore) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.TaskDefinition, error) {
	types := make([]string, len(filter.Types))
	for i, typ := range filter.Types {
		types[i] = string(typ)
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM care_tasks
		WHERE ($1 = '' OR patient_id = $1)
		  AND (cardinality($2::text[]) = 0 OR task_type = ANY($2::text[]))
		ORDER BY patient_id, task_type, id`,
		filter.PatientID, types)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.TaskDefinition
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return tasks, nil
}

func taskArgs(t models.TaskDefinition) []any {
	return []any{
		t.ID, t.PatientID, string(t.TaskType), t.Title, string(t.FrequencyUnit), t.FrequencyValue,
		nonNilStrings(t.SpecificTimes), int32s(t.SpecificDaysOfWeek), int32s(t.SpecificDaysOfMonth),
		t.IsRecurring, t.CreatedAt, t.LastCompletedAt, t.NextDueAt, t.Notes,
	}
}

func scanTask(row pgx.Row) (models.TaskDefinition, error) {
	var (
		t                    models.TaskDefinition
		taskType, unit       string
		daysOfWeek, daysOfMo []int32
	)
	err := row.Scan(&t.ID, &t.PatientID, &taskType, &t.Title, &unit, &t.FrequencyValue,
		&t.SpecificTimes, &daysOfWeek, &daysOfMo, &t.IsRecurring,
		&t.CreatedAt, &t.LastCompletedAt, &t.NextDueAt, &t.Notes)
	if err != nil {
		return t, err
	}
	t.TaskType = models.TaskType(taskType)
	t.FrequencyUnit = models.FrequencyUnit(unit)
	t.SpecificDaysOfWeek = intsFrom(daysOfWeek)
	t.SpecificDaysOfMonth = intsFrom(daysOfMo)
	if len(t.SpecificTimes) == 0 {
		t.SpecificTimes = nil
	}
	return t, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func int32s(v []int) []int32 {
	out := make([]int32, len(v))
	for i, x := range v {
		out[i] = int32(x)
	}
	return out
}

func intsFrom(v []int32) []int {
	if len(v) == 0 {
		return nil
	}
	out := make([]int, len(v))
	for i, x := range v {
		out[i] = int(x)
	}
	return out
}

// PgCompletionStore is a PostgreSQL-backed completion log.
type PgCompletionStore struct {
	pool *pgxpool.Pool
	cal  schedule.Calendar
}

// NewPgCompletionStore creates a PgCompletionStore. Day boundaries are taken
// in loc; nil means time.Local.
func NewPgCompletionStore(pool *pgxpool.Pool, loc *time.Location) *PgCompletionStore {
	return &PgCompletionStore{pool: pool, cal: schedule.NewCalendar(loc)}
}

// EnsureTable creates the care_completions table and its lookup indexes.
func (s *PgCompletionStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS care_completions (
			id          TEXT PRIMARY KEY,
			task_id     TEXT NOT NULL DEFAULT '',
			patient_id  TEXT NOT NULL DEFAULT '',
			task_type   TEXT NOT NULL DEFAULT '',
			recorded_at TIMESTAMPTZ NOT NULL,
			recorded_by TEXT NOT NULL DEFAULT '',
			notes       TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("creating care_completions: %w", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_care_completions_task ON care_completions(task_id, recorded_at) WHERE task_id != ''`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_care_completions_legacy ON care_completions(patient_id, task_type, recorded_at)`)
	return err
}

const completionColumns = `id, task_id, patient_id, task_type, recorded_at, recorded_by, notes, created_at`

// AddCompletion inserts rec.
func (s *PgCompletionStore) AddCompletion(ctx context.Context, rec models.CompletionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("adding completion: ID must not be empty")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO care_completions (`+completionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.TaskID, rec.PatientID, string(rec.TaskType), rec.RecordedAt, rec.RecordedBy, rec.Notes, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("adding completion %s: %w", rec.ID, err)
	}
	return nil
}

// matchClause selects rows belonging to a CompletionQuery by task ID or by
// (patient, task type). It expects the query values as $1..$3.
const matchClause = `(($1 <> '' AND task_id = $1) OR ($2 <> '' AND patient_id = $2 AND task_type = $3))`

// CompletionsOn returns the records on date's local day that match q.
func (s *PgCompletionStore) CompletionsOn(ctx context.Context, q schedule.CompletionQuery, date time.Time) ([]models.CompletionRecord, error) {
	from := s.cal.DateOnly(date)
	to := s.cal.AddDays(date, 1)
	rows, err := s.pool.Query(ctx, `
		SELECT `+completionColumns+` FROM care_completions
		WHERE `+matchClause+` AND recorded_at >= $4 AND recorded_at < $5
		ORDER BY recorded_at`,
		q.TaskID, q.PatientID, string(q.TaskType), from, to)
	if err != nil {
		return nil, fmt.Errorf("completions on %s: %w", s.cal.FormatDate(date), err)
	}
	defer rows.Close()
	return scanCompletionRows(rows)
}

// CompletionsBetween returns every record with from <= recorded_at <= to,
// oldest first.
func (s *PgCompletionStore) CompletionsBetween(ctx context.Context, from, to time.Time) ([]models.CompletionRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+completionColumns+` FROM care_completions
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at`, from, to)
	if err != nil {
		return nil, fmt.Errorf("completions between: %w", err)
	}
	defer rows.Close()
	return scanCompletionRows(rows)
}

// CompletionsFor returns up to limit of the most recent records matching q,
// newest first. A limit of 0 returns all of them.
func (s *PgCompletionStore) CompletionsFor(ctx context.Context, q schedule.CompletionQuery, limit int) ([]models.CompletionRecord, error) {
	query := `SELECT ` + completionColumns + ` FROM care_completions
		WHERE ` + matchClause + ` ORDER BY recorded_at DESC`
	args := []any{q.TaskID, q.PatientID, string(q.TaskType)}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("completion history: %w", err)
	}
	defer rows.Close()
	return scanCompletionRows(rows)
}

func scanCompletionRows(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.CompletionRecord, error) {
	var records []models.CompletionRecord
	for rows.Next() {
		var r models.CompletionRecord
		var taskType string
		if err := rows.Scan(&r.ID, &r.TaskID, &r.PatientID, &taskType, &r.RecordedAt, &r.RecordedBy, &r.Notes, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.TaskType = models.TaskType(taskType)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return records, nil
}
