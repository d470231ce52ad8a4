package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/valter-silva-au/careclock/internal/schedule"
	"github.com/valter-silva-au/careclock/pkg/models"
	"gopkg.in/yaml.v3"
)

// CompletionFile is the top-level structure of completions.yaml.
type CompletionFile struct {
	Version     string                    `yaml:"version"`
	Completions []models.CompletionRecord `yaml:"completions"`
}

// CompletionFileStore is an append-only log of completion records in
// completions.yaml. Dates are resolved in the facility location.
type CompletionFileStore struct {
	basePath string
	cal      schedule.Calendar
	mu       sync.Mutex
}

// NewCompletionFileStore creates a CompletionFileStore rooted at basePath.
// A nil loc means time.Local.
func NewCompletionFileStore(basePath string, loc *time.Location) *CompletionFileStore {
	return &CompletionFileStore{basePath: basePath, cal: schedule.NewCalendar(loc)}
}

func (s *CompletionFileStore) filePath() string {
	return filepath.Join(s.basePath, "completions.yaml")
}

// AddCompletion appends rec.
func (s *CompletionFileStore) AddCompletion(_ context.Context, rec models.CompletionRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("adding completion: ID must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("creating store directory: %w", err)
	}
	unlock, err := lockFile(s.filePath() + ".lock")
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	f, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range f.Completions {
		if existing.ID == rec.ID {
			return fmt.Errorf("adding completion: completion %s already exists", rec.ID)
		}
	}
	f.Completions = append(f.Completions, rec)
	return s.save(f)
}

// CompletionsOn returns the records on date's local day that match q.
func (s *CompletionFileStore) CompletionsOn(_ context.Context, q schedule.CompletionQuery, date time.Time) ([]models.CompletionRecord, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	want := s.cal.FormatDate(date)
	var out []models.CompletionRecord
	for _, r := range all {
		if s.cal.FormatDate(r.RecordedAt) == want && q.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CompletionsBetween returns every record with from <= RecordedAt <= to,
// oldest first.
func (s *CompletionFileStore) CompletionsBetween(_ context.Context, from, to time.Time) ([]models.CompletionRecord, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	var out []models.CompletionRecord
	for _, r := range all {
		if !r.RecordedAt.Before(from) && !r.RecordedAt.After(to) {
			out = append(out, r)
		}
	}
	sortCompletions(out)
	return out, nil
}

// CompletionsFor returns up to limit of the most recent records matching q,
// newest first. A limit of 0 returns all of them.
func (s *CompletionFileStore) CompletionsFor(_ context.Context, q schedule.CompletionQuery, limit int) ([]models.CompletionRecord, error) {
	all, err := s.all()
	if err != nil {
		return nil, err
	}
	var out []models.CompletionRecord
	for _, r := range all {
		if q.Matches(r) {
			out = append(out, r)
		}
	}
	sortCompletions(out)
	reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortCompletions(records []models.CompletionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].RecordedAt.Before(records[j].RecordedAt)
	})
}

func reverse(records []models.CompletionRecord) {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
}

func (s *CompletionFileStore) all() ([]models.CompletionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, err := s.load()
	if err != nil {
		return nil, err
	}
	return f.Completions, nil
}

func (s *CompletionFileStore) load() (*CompletionFile, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &CompletionFile{Version: storeFileVersion}, nil
		}
		return nil, fmt.Errorf("loading completions: %w", err)
	}

	var f CompletionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("loading completions: parsing YAML: %w", err)
	}
	return &f, nil
}

func (s *CompletionFileStore) save(f *CompletionFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("saving completions: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(s.filePath(), data); err != nil {
		return fmt.Errorf("saving completions: writing file: %w", err)
	}
	return nil
}
