// Package dossier provides an embedded EJDB-like document database for
// golang.
//
// Documents are schemaless maps or structs stored in named collections and
// matched with $-operator queries. The basic usage starts with creating a
// new [DB] instance, which can be done by calling [NewDB], and opening a
// database file (or an in-memory one) with [DB.Open].
package dossier

import (
	"github.com/dossierdb/dossier/adapter/memengine"
	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/database"
)

// M is the generic document and predicate type. Field paths in predicates,
// hints and projections may use dot notation ("author.name").
type M = domain.M

// IDField is the document identifier field. Engines assign it on save when
// the submitted document carries none.
const IDField = domain.IDField

// OpenMode is the bitmask passed to [DB.Open].
type OpenMode = domain.OpenMode

const (
	// OpenReader opens the database for reading only. Mutating
	// operations fail with [ErrReadOnly].
	OpenReader = domain.OpenReader
	// OpenWriter opens the database for reading and writing.
	OpenWriter = domain.OpenWriter
	// OpenCreate creates the database file if it does not exist.
	OpenCreate = domain.OpenCreate
	// OpenTruncate discards any existing data before opening.
	OpenTruncate = domain.OpenTruncate
	// OpenDefault is the mode used when [DB.Open] receives mode 0.
	OpenDefault = domain.OpenDefault
)

// QueryMode is the bitmask passed to [Engine.Query].
type QueryMode = domain.QueryMode

// QueryCountOnly suppresses result materialization; the engine reports the
// matching count and may return a nil cursor.
const QueryCountOnly = domain.QueryCountOnly

// IndexFlag is the bitmask passed to [Engine.SetIndex]. A call composes one
// value-type flag with zero or more modifier flags.
type IndexFlag = domain.IndexFlag

const (
	// IndexDrop removes the index of the composed value type.
	IndexDrop = domain.IndexDrop
	// IndexDropAll removes every index on the field path.
	IndexDropAll = domain.IndexDropAll
	// IndexOptimize rebuilds the index storage for the field path.
	IndexOptimize = domain.IndexOptimize
	// IndexRebuild drops and recreates the index of the composed value
	// type.
	IndexRebuild = domain.IndexRebuild
	// IndexNumber indexes the field's numeric values.
	IndexNumber = domain.IndexNumber
	// IndexString indexes the field's string values, case sensitive.
	IndexString = domain.IndexString
	// IndexArray indexes each element of the field's array values.
	IndexArray = domain.IndexArray
	// IndexIString indexes the field's string values, case insensitive.
	IndexIString = domain.IndexIString
)

// ErrInvalidArgument is returned when a caller-provided argument cannot be
// used, naming the argument and the reason.
type ErrInvalidArgument = domain.ErrInvalidArgument

// ErrNotOpen is returned when an operation runs against a database that is
// not open.
type ErrNotOpen = domain.ErrNotOpen

// ErrAlreadyOpen is returned by [DB.Open] when the database is already
// open.
type ErrAlreadyOpen = domain.ErrAlreadyOpen

// ErrReadOnly is returned when a mutating operation runs against a
// database opened with [OpenReader].
type ErrReadOnly = domain.ErrReadOnly

// ErrClosedCursor is returned when operating on a closed [Cursor].
type ErrClosedCursor = domain.ErrClosedCursor

// ErrTargetNil is returned when a nil value is passed as the decoding
// target, for example to [Cursor.Scan].
type ErrTargetNil = domain.ErrTargetNil

// ErrNonPointer is returned when the decoding target is not a pointer.
type ErrNonPointer = domain.ErrNonPointer

// ErrDecode wraps third party decoding errors.
type ErrDecode = domain.ErrDecode

// ErrBadSnapshot is returned when a database file cannot be read back.
type ErrBadSnapshot = domain.ErrBadSnapshot

// ErrSnapshotVersion is returned when a database file was written by an
// unsupported format version.
type ErrSnapshotVersion = domain.ErrSnapshotVersion

// NewDB creates a new [DB] backed by the in-memory engine, with the
// provided configuration options:
//
// - [WithEngine]: replaces the storage engine.
//
// - [WithDecoder]: replaces the decoder backing [Cursor.Scan].
//
// Engine behavior (compression, id generation, file permissions) is
// configured on the engine itself; see [memengine.NewEngine].
func NewDB(options ...Option) (DB, error) {
	options = append([]Option{WithEngine(memengine.NewEngine())}, options...)
	return database.NewDatabase(options...)
}

// DB is the caller-facing database handle. All operations are safe to use
// concurrently from multiple goroutines.
type DB = domain.DB

// Cursor iterates the result set of [DB.Find]. The caller owns it and must
// close it when done.
type Cursor = domain.Cursor

// Engine is the storage capability a [DB] runs against. Implementations
// must be safe for concurrent use.
type Engine = domain.Engine

// EngineCursor is the raw result iterator produced by [Engine.Query].
type EngineCursor = domain.EngineCursor

// Decoder converts between different data representations.
type Decoder = domain.Decoder

// SortKey is one field of a sort order. Precedence is the position of the
// key in its slice.
type SortKey = domain.SortKey

// Hints carries the recognized per-query options of a [Request].
type Hints = domain.Hints

// Request is a normalized query, as delivered to [Engine.Query].
type Request = domain.Request

// Result is the raw outcome of [Engine.Query].
type Result = domain.Result

// CollectionOptions tune collection creation. They apply on first creation
// only.
type CollectionOptions = domain.CollectionOptions

// QueryOption configures query behavior through the functional options
// pattern.
type QueryOption = domain.QueryOption

// WithOr adds predicates to the query's OR set. A document is part of the
// result set if it matches the primary predicate or any OR predicate.
func WithOr(predicates ...any) QueryOption {
	return domain.WithOr(predicates...)
}

// WithLimit caps the number of returned records ($max).
func WithLimit(n int64) QueryOption {
	return domain.WithLimit(n)
}

// WithSkip sets the number of matching records to pass over ($skip).
func WithSkip(n int64) QueryOption {
	return domain.WithSkip(n)
}

// WithSort sets the full sort order for the results ($orderby), applied in
// key order.
func WithSort(keys ...SortKey) QueryOption {
	return domain.WithSort(keys...)
}

// WithOrderBy appends one field to the sort order ($orderby).
func WithOrderBy(field string, desc bool) QueryOption {
	return domain.WithOrderBy(field, desc)
}

// WithFields restricts returned documents to the listed field paths
// ($fields). The identifier field is always kept.
func WithFields(paths ...string) QueryOption {
	return domain.WithFields(paths...)
}

// WithCountOnly suppresses result materialization ($onlycount); the query
// reports its matching count only. [DB.Count] implies it.
func WithCountOnly() QueryOption {
	return domain.WithCountOnly()
}

// WithHint sets a raw hint key. Recognized keys ($max, $skip, $orderby,
// $fields, $onlycount) normalize into the same request slots as their
// typed options; unrecognized keys are forwarded to the engine untouched.
func WithHint(key string, value any) QueryOption {
	return domain.WithHint(key, value)
}

// CollectionOption configures collection creation through the functional
// options pattern.
type CollectionOption = domain.CollectionOption

// WithCollectionLarge allows the collection to grow past 2GB.
func WithCollectionLarge(l bool) CollectionOption {
	return domain.WithCollectionLarge(l)
}

// WithCollectionCompressed stores the collection's records compressed.
func WithCollectionCompressed(c bool) CollectionOption {
	return domain.WithCollectionCompressed(c)
}

// WithCollectionExpectedRecords sizes the collection for the given record
// count.
func WithCollectionExpectedRecords(n int64) CollectionOption {
	return domain.WithCollectionExpectedRecords(n)
}

// WithCollectionCachedRecords sets the number of records the collection
// keeps in memory.
func WithCollectionCachedRecords(n int64) CollectionOption {
	return domain.WithCollectionCachedRecords(n)
}

// Option configures database behavior through the functional options
// pattern.
type Option = database.Option

// WithEngine sets the storage engine operations run against.
func WithEngine(e Engine) Option {
	return database.WithEngine(e)
}

// WithDecoder sets the decoder backing [Cursor.Scan].
func WithDecoder(d Decoder) Option {
	return database.WithDecoder(d)
}
