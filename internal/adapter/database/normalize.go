package database

import (
	"slices"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/dossierdb/dossier/pkg/structure"
)

// buildRequest folds a caller query and its options into a normalized
// engine request. The second return reports whether the query is
// count-only.
//
// Malformed structure never fails here: a query that is not an object
// coerces to the empty predicate, a hint value of the wrong shape is
// dropped. Raw hints set through [domain.WithHint] fold into the same
// request slots as their typed options; when both are given, the typed
// option wins.
func buildRequest(query any, options []domain.QueryOption) (domain.Request, bool) {
	var opts domain.QueryOptions
	for _, option := range options {
		option(&opts)
	}

	req := domain.Request{
		Predicate: normalizePredicate(query),
		Or:        normalizeOr(opts.Or),
	}

	countOnly := opts.CountOnly
	for k, v := range opts.Hints {
		switch k {
		case "$max":
			if n, ok := structure.AsInteger(v); ok {
				req.Hints.Max = n
			}
		case "$skip":
			if n, ok := structure.AsInteger(v); ok {
				req.Hints.Skip = n
			}
		case "$orderby":
			req.Hints.OrderBy = parseOrderBy(v)
		case "$fields":
			req.Hints.Fields = parseFields(v)
		case "$onlycount":
			countOnly = countOnly || truthy(v)
		default:
			if req.Hints.Extra == nil {
				req.Hints.Extra = domain.M{}
			}
			req.Hints.Extra[k] = v
		}
	}

	if opts.Limit > 0 {
		req.Hints.Max = opts.Limit
	}
	if opts.Skip > 0 {
		req.Hints.Skip = opts.Skip
	}
	if len(opts.Sort) != 0 {
		req.Hints.OrderBy = slices.Clone(opts.Sort)
	}
	if len(opts.Fields) != 0 {
		req.Hints.Fields = slices.Clone(opts.Fields)
	}

	return req, countOnly
}

// normalizePredicate coerces a caller query into a predicate document. nil
// and values that cannot be parsed as objects coerce to the empty
// predicate, which matches every document.
func normalizePredicate(query any) domain.M {
	if query == nil {
		return domain.M{}
	}
	m, err := document.From(query)
	if err != nil {
		return domain.M{}
	}
	return m
}

func normalizeOr(entries []any) []domain.M {
	res := make([]domain.M, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		res = append(res, normalizePredicate(entry))
	}
	return res
}

// parseOrderBy accepts a typed key slice or any object whose keys are
// field paths and whose values give the direction, negative meaning
// descending. An object carries no key order, so its keys apply sorted by
// field name.
func parseOrderBy(v any) []domain.SortKey {
	if keys, ok := v.([]domain.SortKey); ok {
		return slices.Clone(keys)
	}
	m, err := document.From(v)
	if err != nil {
		return nil
	}
	fields := make([]string, 0, len(m))
	for k := range m {
		fields = append(fields, k)
	}
	slices.Sort(fields)

	keys := make([]domain.SortKey, 0, len(m))
	for _, field := range fields {
		key := domain.SortKey{Field: field}
		if f, ok := structure.AsFloat(m[field]); ok && f < 0 {
			key.Desc = true
		}
		keys = append(keys, key)
	}
	return keys
}

// parseFields accepts a string slice or any object whose keys are field
// paths; object keys with a falsy value are dropped, the rest apply sorted
// by field name.
func parseFields(v any) []string {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		fields := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	}
	m, err := document.From(v)
	if err != nil {
		return nil
	}
	fields := make([]string, 0, len(m))
	for k, dir := range m {
		if truthy(dir) {
			fields = append(fields, k)
		}
	}
	slices.Sort(fields)
	return fields
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	if f, ok := structure.AsFloat(v); ok {
		return f != 0
	}
	return false
}
