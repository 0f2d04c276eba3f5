// Package domain contains the interfaces, entities and option types shared
// by the dossier client layer and its storage engines.
//
// The central boundary is [Engine], the opaque storage capability the
// client layer normalizes requests for. Everything the client layer does is
// expressed against this interface, so engines can be swapped or mocked
// freely.
package domain

import "context"

// Engine is the storage capability consumed by the client layer. It owns
// collection storage, index maintenance and query execution; the client
// layer owns request normalization and result projection.
//
// Implementations must be safe for concurrent use.
type Engine interface {
	// Open attaches the engine to the database at path. mode is a
	// bitmask of Open* flags; 0 means [OpenDefault]. An empty path opens
	// a purely in-memory database.
	Open(ctx context.Context, path string, mode OpenMode) error
	// Close detaches the engine, flushing pending state first when the
	// database is writable.
	Close(ctx context.Context) error
	// IsOpen reports whether the engine is attached to a database.
	IsOpen() bool

	// EnsureCollection creates the named collection. Options apply on
	// first creation only; an existing collection is left untouched.
	EnsureCollection(ctx context.Context, name string, options *CollectionOptions) error
	// RemoveCollection detaches the named collection. With prune, its
	// persisted records are erased as well; without it they survive and
	// re-attach the next time the collection is ensured.
	RemoveCollection(ctx context.Context, name string, prune bool) error

	// Save upserts the given documents and returns their identifiers in
	// submission order. Documents without an identifier get a generated
	// one.
	Save(ctx context.Context, name string, docs []M) ([]string, error)
	// Load returns the document with the given identifier, or nil when
	// the collection holds none.
	Load(ctx context.Context, name string, id string) (M, error)
	// Remove deletes the document with the given identifier. Removing an
	// absent document is not an error.
	Remove(ctx context.Context, name string, id string) error

	// Query executes a normalized request against the named collection.
	Query(ctx context.Context, name string, req Request, mode QueryMode) (Result, error)
	// SetIndex performs the index maintenance composed in flags on the
	// given field path.
	SetIndex(ctx context.Context, name string, path string, flags IndexFlag) error
	// Sync flushes pending state to storage.
	Sync(ctx context.Context) error
}

// EngineCursor is the raw result iterator produced by [Engine.Query]. It
// starts positioned before the first record. Exactly one Close per cursor;
// closing twice returns [ErrClosedCursor].
type EngineCursor interface {
	// Next advances the cursor, returning true while a record is
	// available.
	Next() bool
	// Document returns the record at the current position.
	Document() M
	// Err returns any error that occurred during iteration.
	Err() error
	// Close releases the cursor's resources.
	Close() error
}

// Cursor iterates the result set of [DB.Find]. The caller owns it and must
// close it when done.
type Cursor interface {
	// Next advances the cursor, returning true while a record is
	// available.
	Next() bool
	// Document returns the record at the current position.
	Document() M
	// Scan decodes the record at the current position into target, which
	// must be a non-nil pointer.
	Scan(target any) error
	// Count returns the engine-reported number of matching records.
	Count() int64
	// Err returns any error that occurred during iteration.
	Err() error
	// Close releases the underlying engine cursor.
	Close() error
}

// Decoder converts between different data representations.
type Decoder interface {
	// Decode converts from one data format to another.
	Decode(any, any) error
}

// DB is the caller-facing database handle: the request normalizer and
// result projector over an injected [Engine].
//
// Query predicates accept an [M], any map, a struct, or nil; nil and
// non-object values coerce to the empty predicate, which matches every
// document. Predicate operator keys ($gt, $in, $begin, $set, ...) are
// forwarded to the engine verbatim.
type DB interface {
	// Open attaches the underlying engine to the database at path. mode
	// 0 means [OpenDefault].
	Open(ctx context.Context, path string, mode OpenMode) error

	// Close detaches the underlying engine.
	Close(ctx context.Context) error

	// IsOpen reports whether the database is open.
	IsOpen() bool

	// EnsureCollection creates the named collection. Options apply on
	// first creation only:
	// - [WithCollectionLarge]
	// - [WithCollectionCompressed]
	// - [WithCollectionExpectedRecords]
	// - [WithCollectionCachedRecords]
	EnsureCollection(ctx context.Context, cname string, options ...CollectionOption) error

	// RemoveCollection detaches the named collection; prune erases its
	// persisted records as well.
	RemoveCollection(ctx context.Context, cname string, prune bool) error

	// Save upserts documents into the collection and returns their
	// identifiers in submission order. Map documents are written back:
	// each submitted map ends up carrying the engine-assigned identifier
	// under "_id". Struct documents are saved from a parsed copy and are
	// not written back.
	Save(ctx context.Context, cname string, docs ...any) ([]string, error)

	// Load returns the document with the given identifier, or (nil, nil)
	// when the collection holds none.
	Load(ctx context.Context, cname string, id string) (M, error)

	// Remove deletes the document with the given identifier.
	Remove(ctx context.Context, cname string, id string) error

	// Find returns a cursor over all documents matching the query. The
	// caller owns the cursor and must close it. Options:
	// - [WithOr]
	// - [WithLimit]
	// - [WithSkip]
	// - [WithSort]
	// - [WithOrderBy]
	// - [WithFields]
	// - [WithCountOnly]
	// - [WithHint]
	Find(ctx context.Context, cname string, query any, options ...QueryOption) (Cursor, error)

	// FindOne returns the first document matching the query, or
	// (nil, nil) when nothing matches. It accepts the same options as
	// [DB.Find]; the result cap is always forced to one record.
	FindOne(ctx context.Context, cname string, query any, options ...QueryOption) (M, error)

	// Count returns the number of documents matching the query without
	// materializing them.
	Count(ctx context.Context, cname string, query any, options ...QueryOption) (int64, error)

	// Update applies the mutation operators carried in query ($set,
	// $unset, $inc, $addToSet, $pull, $dropall) to every matching
	// document. Returns the number of affected documents and the
	// engine's diagnostic log; both are also delivered alongside a
	// non-nil error. Callers wanting fire-and-forget semantics may
	// discard all three.
	Update(ctx context.Context, cname string, query any, options ...QueryOption) (int64, string, error)

	// Sync flushes pending engine state to storage.
	Sync(ctx context.Context) error

	// EnsureStringIndex creates a case-sensitive string index on the
	// field path.
	EnsureStringIndex(ctx context.Context, cname string, path string) error

	// RebuildStringIndex drops and recreates the string index.
	RebuildStringIndex(ctx context.Context, cname string, path string) error

	// DropStringIndex removes the string index.
	DropStringIndex(ctx context.Context, cname string, path string) error

	// EnsureIStringIndex creates a case-insensitive string index on the
	// field path.
	EnsureIStringIndex(ctx context.Context, cname string, path string) error

	// RebuildIStringIndex drops and recreates the case-insensitive
	// string index.
	RebuildIStringIndex(ctx context.Context, cname string, path string) error

	// DropIStringIndex removes the case-insensitive string index.
	DropIStringIndex(ctx context.Context, cname string, path string) error

	// EnsureNumberIndex creates a numeric index on the field path.
	EnsureNumberIndex(ctx context.Context, cname string, path string) error

	// RebuildNumberIndex drops and recreates the numeric index.
	RebuildNumberIndex(ctx context.Context, cname string, path string) error

	// DropNumberIndex removes the numeric index.
	DropNumberIndex(ctx context.Context, cname string, path string) error

	// EnsureArrayIndex creates an element-wise index on the field path's
	// array values.
	EnsureArrayIndex(ctx context.Context, cname string, path string) error

	// RebuildArrayIndex drops and recreates the array index.
	RebuildArrayIndex(ctx context.Context, cname string, path string) error

	// DropArrayIndex removes the array index.
	DropArrayIndex(ctx context.Context, cname string, path string) error

	// DropIndexes removes every index on the field path.
	DropIndexes(ctx context.Context, cname string, path string) error

	// OptimizeIndexes rebuilds the index storage on the field path.
	OptimizeIndexes(ctx context.Context, cname string, path string) error
}
