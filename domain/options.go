package domain

// WithOr adds predicates to the query's OR set. A document is part of the
// result set if it matches the primary predicate or any OR predicate. Each
// predicate accepts the same forms as the primary one; nil entries are
// dropped.
func WithOr(predicates ...any) QueryOption {
	return func(qo *QueryOptions) {
		qo.Or = append(qo.Or, predicates...)
	}
}

// WithLimit caps the number of returned records ($max).
func WithLimit(n int64) QueryOption {
	return func(qo *QueryOptions) {
		qo.Limit = n
	}
}

// WithSkip sets the number of matching records to pass over ($skip).
func WithSkip(n int64) QueryOption {
	return func(qo *QueryOptions) {
		qo.Skip = n
	}
}

// WithSort sets the full sort order for the results ($orderby), applied in
// key order.
func WithSort(keys ...SortKey) QueryOption {
	return func(qo *QueryOptions) {
		qo.Sort = append(qo.Sort, keys...)
	}
}

// WithOrderBy appends one field to the sort order ($orderby).
func WithOrderBy(field string, desc bool) QueryOption {
	return func(qo *QueryOptions) {
		qo.Sort = append(qo.Sort, SortKey{Field: field, Desc: desc})
	}
}

// WithFields restricts returned documents to the listed field paths
// ($fields). The identifier field is always kept.
func WithFields(paths ...string) QueryOption {
	return func(qo *QueryOptions) {
		qo.Fields = append(qo.Fields, paths...)
	}
}

// WithCountOnly suppresses result materialization ($onlycount); the query
// reports its matching count only. [DB.Count] implies it.
func WithCountOnly() QueryOption {
	return func(qo *QueryOptions) {
		qo.CountOnly = true
	}
}

// WithHint sets a raw hint key. Recognized keys ($max, $skip, $orderby,
// $fields, $onlycount) normalize into the same request slots as their typed
// options; a $orderby map carries no key order, so its sort precedence
// follows the field names sorted. Use [WithSort] when precedence matters.
// Unrecognized keys are forwarded to the engine untouched.
func WithHint(key string, value any) QueryOption {
	return func(qo *QueryOptions) {
		if qo.Hints == nil {
			qo.Hints = M{}
		}
		qo.Hints[key] = value
	}
}

// QueryOption configures query behavior through the functional options
// pattern.
type QueryOption func(*QueryOptions)

// QueryOptions contains parameters for customizing query execution.
type QueryOptions struct {
	// Or holds additional predicates, any of which makes a document
	// match.
	Or []any
	// Limit caps the number of returned records when positive.
	Limit int64
	// Skip is the number of matching records to pass over.
	Skip int64
	// Sort is the sort order, applied in key order.
	Sort []SortKey
	// Fields restricts returned documents to the listed paths.
	Fields []string
	// CountOnly suppresses result materialization.
	CountOnly bool
	// Hints holds raw hint keys set through [WithHint].
	Hints M
}

// WithCollectionLarge allows the collection to grow past 2GB.
func WithCollectionLarge(l bool) CollectionOption {
	return func(co *CollectionOptions) {
		co.Large = l
	}
}

// WithCollectionCompressed stores the collection's records compressed.
func WithCollectionCompressed(c bool) CollectionOption {
	return func(co *CollectionOptions) {
		co.Compressed = c
	}
}

// WithCollectionExpectedRecords sizes the collection for the given record
// count.
func WithCollectionExpectedRecords(n int64) CollectionOption {
	return func(co *CollectionOptions) {
		co.ExpectedRecords = n
	}
}

// WithCollectionCachedRecords sets the number of records the collection
// keeps in memory.
func WithCollectionCachedRecords(n int64) CollectionOption {
	return func(co *CollectionOptions) {
		co.CachedRecords = n
	}
}

// CollectionOption configures collection creation through the functional
// options pattern.
type CollectionOption func(*CollectionOptions)
