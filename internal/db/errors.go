package db

import "fmt"

// DuplicateError indicates a record with the same id already exists.
type DuplicateError struct {
	Kind string
	ID   string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s %s already exists", e.Kind, e.ID)
}
