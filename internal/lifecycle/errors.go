package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned when the target row is not in a state the
	// operation can act on, such as reviewing an already reviewed submission.
	ErrInvalidState = errors.New("invalid state")
	// ErrPreconditionFailed is returned when the acting user may not perform the operation yet.
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidDecision    = errors.New("invalid decision")
	ErrInvalidArgument    = errors.New("invalid argument")
)

// Error carries the failing operation alongside one of the sentinel kinds above.
type Error struct {
	Op   string
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(op string, kind error, format string, args ...any) error {
	return &Error{Op: op, Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// storeErr tags a store failure with the engine operation that hit it.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
