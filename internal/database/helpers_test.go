package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestNullableHelpers(t *testing.T) {
	if got := toNullableArg[int](nil); got != nil {
		t.Fatalf("expected toNullableArg(nil) to return nil, got %v", got)
	}
	value := int64(7)
	if got := toNullableArg(&value); got != int64(7) {
		t.Fatalf("expected toNullableArg(&7) to return 7, got %v", got)
	}
	if boolToInt(true) != 1 || boolToInt(false) != 0 {
		t.Fatalf("boolToInt mapping broken")
	}
}

func TestClassify(t *testing.T) {
	unique := fmt.Errorf("exec: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	if !errors.Is(classify(unique), ErrConflict) {
		t.Fatalf("expected unique violation to map to ErrConflict")
	}
	fk := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	if !errors.Is(classify(fk), ErrNotFound) {
		t.Fatalf("expected foreign key violation on insert to map to ErrNotFound")
	}
	if !errors.Is(classifyDelete(fk), ErrConflict) {
		t.Fatalf("expected foreign key violation on delete to map to ErrConflict")
	}
	plain := errors.New("disk full")
	if classify(plain) != plain || classifyDelete(plain) != plain {
		t.Fatalf("expected unrelated errors to pass through")
	}
	if classifyDelete(nil) != nil {
		t.Fatalf("expected nil to pass through")
	}
}
