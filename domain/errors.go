package domain

import "fmt"

// ErrInvalidArgument is returned synchronously when a required argument is
// missing or malformed: an empty collection name, an empty index path, an
// empty identifier or a nil engine. Malformed optional structure (a nil
// predicate, a non-object hint value) is never an error; it coerces to its
// empty default.
type ErrInvalidArgument struct {
	Arg    string
	Reason string
}

func (e ErrInvalidArgument) Error() string {
	return fmt.Sprintf("invalid argument %s: %s", e.Arg, e.Reason)
}

// ErrNotOpen is returned when an operation reaches an engine that is not
// attached to a database.
type ErrNotOpen struct{}

func (e ErrNotOpen) Error() string { return "database is not open" }

// ErrAlreadyOpen is returned when opening an engine that is already
// attached to a database.
type ErrAlreadyOpen struct{}

func (e ErrAlreadyOpen) Error() string { return "database is already open" }

// ErrReadOnly is returned when a mutating operation reaches an engine
// opened without [OpenWriter].
type ErrReadOnly struct {
	Op string
}

func (e ErrReadOnly) Error() string {
	return fmt.Sprintf("%s: database is opened read-only", e.Op)
}

// ErrClosedCursor is returned when operating on a closed cursor, including
// closing it a second time.
type ErrClosedCursor struct{}

func (e ErrClosedCursor) Error() string { return "cursor is closed" }

// ErrTargetNil is returned when the passed target, which should be a
// pointer, is passed as a nil value.
type ErrTargetNil struct{}

func (e ErrTargetNil) Error() string { return "target interface is nil" }

// ErrNonPointer is returned when a decode target is not a pointer.
type ErrNonPointer struct{}

func (e ErrNonPointer) Error() string { return "target must be a pointer" }

// ErrDecode is returned when a document cannot be decoded into the target
// type. It wraps the underlying decoder error.
type ErrDecode struct {
	Source any
	Target any
}

func (e ErrDecode) Error() string {
	return fmt.Sprintf("cannot decode %T into %T", e.Source, e.Target)
}

// ErrBadSnapshot is returned when a snapshot file cannot be parsed.
type ErrBadSnapshot struct {
	Path   string
	Reason string
}

func (e ErrBadSnapshot) Error() string {
	return fmt.Sprintf("snapshot %s: %s", e.Path, e.Reason)
}

// ErrSnapshotVersion is returned when a snapshot file was written by a
// newer format version than this build understands.
type ErrSnapshotVersion struct {
	Version uint8
}

func (e ErrSnapshotVersion) Error() string {
	return fmt.Sprintf("unsupported snapshot version %d", e.Version)
}
