package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/valter-silva-au/careclock/pkg/models"
	"gopkg.in/yaml.v3"
)

const storeFileVersion = "1.0"

// TaskFile is the top-level structure of tasks.yaml.
type TaskFile struct {
	Version string                           `yaml:"version"`
	Tasks   map[string]models.TaskDefinition `yaml:"tasks"`
}

// TaskFileStore keeps task definitions in a tasks.yaml file under a base
// directory. Every call reloads the file, so several processes may share it.
type TaskFileStore struct {
	basePath string
	mu       sync.Mutex
}

// NewTaskFileStore creates a TaskFileStore rooted at basePath.
func NewTaskFileStore(basePath string) *TaskFileStore {
	return &TaskFileStore{basePath: basePath}
}

func (s *TaskFileStore) filePath() string {
	return filepath.Join(s.basePath, "tasks.yaml")
}

// AddTask stores a new definition.
func (s *TaskFileStore) AddTask(_ context.Context, task models.TaskDefinition) error {
	if task.ID == "" {
		return fmt.Errorf("adding task: ID must not be empty")
	}
	return s.mutate(func(f *TaskFile) error {
		if _, exists := f.Tasks[task.ID]; exists {
			return fmt.Errorf("adding task: task %s already exists", task.ID)
		}
		f.Tasks[task.ID] = task
		return nil
	})
}

// UpdateTask replaces an existing definition.
func (s *TaskFileStore) UpdateTask(_ context.Context, task models.TaskDefinition) error {
	return s.mutate(func(f *TaskFile) error {
		if _, exists := f.Tasks[task.ID]; !exists {
			return fmt.Errorf("updating task %s: %w", task.ID, ErrNotFound)
		}
		f.Tasks[task.ID] = task
		return nil
	})
}

// RemoveTask deletes a definition. Its completions are kept.
func (s *TaskFileStore) RemoveTask(_ context.Context, taskID string) error {
	return s.mutate(func(f *TaskFile) error {
		if _, exists := f.Tasks[taskID]; !exists {
			return fmt.Errorf("removing task %s: %w", taskID, ErrNotFound)
		}
		delete(f.Tasks, taskID)
		return nil
	})
}

// GetTask returns one definition.
func (s *TaskFileStore) GetTask(_ context.Context, taskID string) (*models.TaskDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	task, exists := f.Tasks[taskID]
	if !exists {
		return nil, fmt.Errorf("task %s: %w", taskID, ErrNotFound)
	}
	return &task, nil
}

// ListTasks returns the definitions matching filter ordered by patient, then
// task type, then ID.
func (s *TaskFileStore) ListTasks(_ context.Context, filter models.TaskFilter) ([]models.TaskDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.load()
	if err != nil {
		return nil, err
	}
	tasks := make([]models.TaskDefinition, 0, len(f.Tasks))
	for _, t := range f.Tasks {
		if filter.Matches(t) {
			tasks = append(tasks, t)
		}
	}
	sortTasks(tasks)
	return tasks, nil
}

func sortTasks(tasks []models.TaskDefinition) {
	sort.Slice(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.PatientID != b.PatientID {
			return a.PatientID < b.PatientID
		}
		if a.TaskType != b.TaskType {
			return a.TaskType < b.TaskType
		}
		return a.ID < b.ID
	})
}

func (s *TaskFileStore) mutate(fn func(*TaskFile) error) error {
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
	if err := fn(f); err != nil {
		return err
	}
	return s.save(f)
}

func (s *TaskFileStore) load() (*TaskFile, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return &TaskFile{Version: storeFileVersion, Tasks: make(map[string]models.TaskDefinition)}, nil
		}
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	var f TaskFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("loading tasks: parsing YAML: %w", err)
	}
	if f.Tasks == nil {
		f.Tasks = make(map[string]models.TaskDefinition)
	}
	return &f, nil
}

func (s *TaskFileStore) save(f *TaskFile) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("saving tasks: marshaling YAML: %w", err)
	}
	if err := writeFileAtomic(s.filePath(), data); err != nil {
		return fmt.Errorf("saving tasks: writing file: %w", err)
	}
	return nil
}
