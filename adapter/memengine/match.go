package memengine

import (
	"strings"
	"time"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/dossierdb/dossier/pkg/structure"
)

// matchRequest reports whether d satisfies the predicate or any OR-branch.
// An empty predicate matches every record.
func matchRequest(d domain.M, pred domain.M, or []domain.M) bool {
	if matchPredicate(d, pred) {
		return true
	}
	for _, branch := range or {
		if matchPredicate(d, branch) {
			return true
		}
	}
	return false
}

// matchPredicate requires every field condition to hold.
func matchPredicate(d domain.M, pred domain.M) bool {
	for path, cond := range pred {
		if !matchCond(d, path, cond) {
			return false
		}
	}
	return true
}

func matchCond(d domain.M, path string, cond any) bool {
	v, present := document.Get(d, path)
	if ops, isOps := operatorObject(cond); isOps {
		return matchOps(v, present, ops)
	}
	return present && matchEqual(v, cond)
}

// operatorObject reports whether cond is a {"$op": arg, ...} object. An
// object with any operator-free key is a literal nested document instead.
func operatorObject(cond any) (domain.M, bool) {
	m, ok := cond.(domain.M)
	if !ok || len(m) == 0 {
		return nil, false
	}
	for key := range m {
		if !strings.HasPrefix(key, "$") {
			return nil, false
		}
	}
	return m, true
}

// matchEqual applies literal equality. A list field also matches when any
// of its elements equals the literal.
func matchEqual(v, want any) bool {
	if structure.Equal(v, want) {
		return true
	}
	if elems, ok := structure.Values(v); ok {
		for _, el := range elems {
			if structure.Equal(el, want) {
				return true
			}
		}
	}
	return false
}

// matchOps applies every operator in the condition object.
func matchOps(v any, present bool, ops domain.M) bool {
	for op, arg := range ops {
		if !matchOp(v, present, op, arg) {
			return false
		}
	}
	return true
}

// matchOp applies a single operator. Absent fields satisfy only a falsy
// $exists, $nin and negations; unknown operators match nothing.
func matchOp(v any, present bool, op string, arg any) bool {
	switch op {
	case "$exists":
		return present == truthy(arg)
	case "$not":
		if inner, isOps := operatorObject(arg); isOps {
			return !matchOps(v, present, inner)
		}
		return !(present && matchEqual(v, arg))
	case "$nin":
		if !present {
			return true
		}
		elems, _ := structure.Values(arg)
		for _, el := range elems {
			if matchEqual(v, el) {
				return false
			}
		}
		return true
	}
	if !present {
		return false
	}
	switch op {
	case "$gt":
		return anyValue(v, func(el any) bool { return structure.Compare(el, arg) > 0 })
	case "$gte":
		return anyValue(v, func(el any) bool { return structure.Compare(el, arg) >= 0 })
	case "$lt":
		return anyValue(v, func(el any) bool { return structure.Compare(el, arg) < 0 })
	case "$lte":
		return anyValue(v, func(el any) bool { return structure.Compare(el, arg) <= 0 })
	case "$bt":
		bounds, ok := structure.Values(arg)
		if !ok || len(bounds) != 2 {
			return false
		}
		lo, hi := bounds[0], bounds[1]
		if structure.Compare(lo, hi) > 0 {
			lo, hi = hi, lo
		}
		return anyValue(v, func(el any) bool {
			return structure.Compare(el, lo) >= 0 && structure.Compare(el, hi) <= 0
		})
	case "$in":
		elems, _ := structure.Values(arg)
		for _, el := range elems {
			if matchEqual(v, el) {
				return true
			}
		}
		return false
	case "$begin":
		prefix, isStr := arg.(string)
		if !isStr {
			return false
		}
		return anyString(v, func(s string) bool { return strings.HasPrefix(s, prefix) })
	case "$icase":
		return matchICase(v, arg)
	case "$strand":
		return matchTokens(v, arg, true)
	case "$stror":
		return matchTokens(v, arg, false)
	}
	return false
}

// matchICase applies case-insensitive string equality. The argument may
// nest $in or $begin, which then compare lowercased.
func matchICase(v, arg any) bool {
	if inner, isOps := operatorObject(arg); isOps {
		for op, innerArg := range inner {
			if !matchICaseOp(v, op, innerArg) {
				return false
			}
		}
		return true
	}
	want, isStr := arg.(string)
	if !isStr {
		return false
	}
	return anyString(v, func(s string) bool { return strings.EqualFold(s, want) })
}

func matchICaseOp(v any, op string, arg any) bool {
	switch op {
	case "$in":
		elems, _ := structure.Values(arg)
		for _, el := range elems {
			want, isStr := el.(string)
			if isStr && anyString(v, func(s string) bool { return strings.EqualFold(s, want) }) {
				return true
			}
		}
		return false
	case "$begin":
		want, isStr := arg.(string)
		if !isStr {
			return false
		}
		prefix := strings.ToLower(want)
		return anyString(v, func(s string) bool {
			return strings.HasPrefix(strings.ToLower(s), prefix)
		})
	}
	return false
}

// matchTokens implements $strand and $stror over token sets.
func matchTokens(v, arg any, all bool) bool {
	want := tokens(arg)
	if len(want) == 0 {
		return false
	}
	have := make(map[string]bool)
	for _, t := range tokens(v) {
		have[t] = true
	}
	for _, t := range want {
		if have[t] {
			if !all {
				return true
			}
		} else if all {
			return false
		}
	}
	return all
}

// tokens splits a value into string tokens, from a space-separated string
// or from the string elements of a list.
func tokens(v any) []string {
	if s, isStr := v.(string); isStr {
		return strings.Fields(s)
	}
	elems, ok := structure.Values(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(elems))
	for _, el := range elems {
		if s, isStr := el.(string); isStr {
			out = append(out, s)
		}
	}
	return out
}

// anyValue applies ok to the field value, or to each element when the
// value is a list, matching when any application holds.
func anyValue(v any, ok func(any) bool) bool {
	if elems, isList := structure.Values(v); isList {
		for _, el := range elems {
			if ok(el) {
				return true
			}
		}
		return false
	}
	return ok(v)
}

// anyString applies ok to the string form of the field value or its
// string elements.
func anyString(v any, ok func(string) bool) bool {
	return anyValue(v, func(el any) bool {
		s, isStr := el.(string)
		return isStr && ok(s)
	})
}

// literal reports whether cond is a plain scalar rather than an operator
// object, a nested document or a list.
func literal(cond any) bool {
	if _, isNum := structure.AsFloat(cond); isNum {
		return true
	}
	switch cond.(type) {
	case string, bool, time.Time:
		return true
	}
	return false
}

func truthy(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	f, ok := structure.AsFloat(v)
	return ok && f != 0
}
