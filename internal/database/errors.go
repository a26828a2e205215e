package database

import (
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when an id or key does not resolve.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a uniqueness constraint is violated.
	ErrConflict = errors.New("conflict")
	// ErrStatusMismatch is returned by conditional status updates whose expected status no longer holds.
	ErrStatusMismatch = errors.New("status mismatch")
)

type Entity string

const (
	EntityUser       Entity = "user"
	EntityTask       Entity = "task"
	EntitySubmission Entity = "submission"
)

type OpError struct {
	Op     string
	Entity Entity
	ID     int64
	Err    error
}

func (e *OpError) Error() string {
	if e == nil {
		return ""
	}
	if e.ID > 0 {
		return fmt.Sprintf("%s %s %d: %v", e.Op, e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func wrapErr(entity Entity, op string, id int64, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Entity: entity, ID: id, Err: err}
}

// classify maps driver constraint failures onto the store's error taxonomy.
// A foreign key failure on insert means a referenced row is absent.
func classify(err error) error {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %v", ErrConflict, se)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: referenced row missing: %v", ErrNotFound, se)
	}
	return err
}

// classifyDelete reports a delete blocked by referencing rows as ErrConflict.
func classifyDelete(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%w: still referenced: %v", ErrConflict, se)
	}
	return err
}
