package storage

import "errors"

// ErrNotFound is returned when a task or completion does not exist.
var ErrNotFound = errors.New("not found")
