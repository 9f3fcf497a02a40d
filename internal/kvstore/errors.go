package kvstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBackend indicates there is no storage location to open.
	ErrNoBackend = errors.New("no storage backend available")

	// ErrVersionDowngrade indicates the database on disk is newer than the
	// schema being opened.
	ErrVersionDowngrade = errors.New("schema version downgrade")

	// ErrConstraint indicates Add was given a key that already exists.
	ErrConstraint = errors.New("constraint violation")

	// ErrUnknownTable indicates a table not declared in the schema.
	ErrUnknownTable = errors.New("unknown table")

	// ErrUnknownIndex indicates an index not declared on the table.
	ErrUnknownIndex = errors.New("unknown index")

	// ErrMissingKey indicates a record without a key in a table that does not
	// allocate keys.
	ErrMissingKey = errors.New("record has no key")

	// ErrInvalidKey indicates a key that is neither an integer nor a string.
	ErrInvalidKey = errors.New("invalid key")

	// ErrNotObject indicates a record that does not encode to a JSON object.
	ErrNotObject = errors.New("record is not a JSON object")

	// ErrInvalidSchema indicates a malformed Schema declaration.
	ErrInvalidSchema = errors.New("invalid schema")
)

// OpenError reports that the database could not be opened or upgraded.
// Every operation waiting on the database receives the same *OpenError.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open storage %q: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// ConstraintError reports a key collision on Add. It matches ErrConstraint
// under errors.Is.
type ConstraintError struct {
	Table string
	Key   any
	Err   error
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: key %v already exists in %s", ErrConstraint, e.Key, e.Table)
}

func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrConstraint.
func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraint
}

// IsOpenError reports whether err is, or wraps, an *OpenError.
func IsOpenError(err error) bool {
	var oe *OpenError
	return errors.As(err, &oe)
}
