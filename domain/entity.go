package domain

// M is the generic document and predicate type. Field paths in predicates,
// hints and projections may use dot notation ("author.name").
type M = map[string]any

// IDField is the document identifier field. Engines assign it on save when
// the submitted document carries none.
const IDField = "_id"

// OpenMode is the bitmask passed to [Engine.Open].
type OpenMode int

const (
	// OpenReader opens the database for reading only. Mutating
	// operations fail with [ErrReadOnly].
	OpenReader OpenMode = 1 << iota
	// OpenWriter opens the database for reading and writing.
	OpenWriter
	// OpenCreate creates the database file if it does not exist.
	OpenCreate
	// OpenTruncate discards any existing data before opening.
	OpenTruncate
)

// OpenDefault is the mode used when [Engine.Open] receives mode 0.
const OpenDefault = OpenWriter | OpenCreate

// QueryMode is the bitmask passed to [Engine.Query].
type QueryMode int

// QueryCountOnly suppresses result materialization; the engine reports the
// matching count and may return a nil cursor.
const QueryCountOnly QueryMode = 1 << 0

// IndexFlag is the bitmask passed to [Engine.SetIndex]. A call composes one
// value-type flag with zero or more modifier flags.
type IndexFlag int

const (
	// IndexDrop removes the index of the composed value type.
	IndexDrop IndexFlag = 1 << iota
	// IndexDropAll removes every index on the field path.
	IndexDropAll
	// IndexOptimize rebuilds the index storage for the field path.
	IndexOptimize
	// IndexRebuild drops and recreates the index of the composed value
	// type.
	IndexRebuild
	// IndexNumber indexes the field's numeric values.
	IndexNumber
	// IndexString indexes the field's string values, case sensitive.
	IndexString
	// IndexArray indexes each element of the field's array values.
	IndexArray
	// IndexIString indexes the field's string values, case insensitive.
	IndexIString
)

// SortKey is one field of a sort order. Precedence is the position of the
// key in its slice.
type SortKey struct {
	// Field is the dotted path of the field to sort by.
	Field string
	// Desc inverts the order for this field.
	Desc bool
}

// Hints carries the recognized per-query options of a [Request]. Keys the
// normalizer does not recognize are forwarded untouched in Extra.
type Hints struct {
	// Max caps the number of materialized records when positive.
	Max int64
	// Skip is the number of matching records to pass over.
	Skip int64
	// OrderBy is applied in slice order.
	OrderBy []SortKey
	// Fields restricts returned documents to the listed paths. The
	// identifier field is always kept.
	Fields []string
	// Extra holds unrecognized hint keys, passed through uninterpreted.
	Extra M
}

// Request is a normalized query. Predicate is never nil; an empty predicate
// matches every document. Or is never nil; a document is part of the result
// set if it matches Predicate or any element of Or.
type Request struct {
	Predicate M
	Or        []M
	Hints     Hints
}

// Result is the raw outcome of [Engine.Query]. Cursor may be nil in
// count-only mode. Log carries the engine's diagnostic trace for the query,
// empty when the engine produces none.
type Result struct {
	Cursor EngineCursor
	Count  int64
	Log    string
}

// CollectionOptions tune collection creation. They apply on first creation
// only; ensuring an existing collection leaves its options untouched.
type CollectionOptions struct {
	// Large allows the collection to grow past 2GB.
	Large bool `json:"large" msgpack:"large"`
	// Compressed stores records compressed.
	Compressed bool `json:"compressed" msgpack:"compressed"`
	// ExpectedRecords sizes the collection for the given record count.
	ExpectedRecords int64 `json:"records" msgpack:"records"`
	// CachedRecords is the number of records to keep in memory.
	CachedRecords int64 `json:"cachedrecords" msgpack:"cachedrecords"`
}
