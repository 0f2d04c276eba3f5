// Package structure contains type-related operations on dynamic values:
// converting numbers, expanding lists and comparing values of mixed types
// under one total order.
package structure

import (
	"cmp"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-reflect"
)

// AsFloat converts any built-in number to float64 and reports whether the
// argument is numeric.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int8:
		return float64(t), true
	case int16:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint8:
		return float64(t), true
	case uint16:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case float32:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// AsInteger converts any built-in number to int64 and reports whether the
// argument is a valid integer. Floats with a fractional part are not.
func AsInteger(v any) (int64, bool) {
	f, ok := AsFloat(v)
	if !ok || math.Trunc(f) != f {
		return 0, false
	}
	return int64(f), true
}

// Values expands a slice or array of any element type into []any. The
// second return reports whether the argument was a list at all; strings and
// []byte do not count.
func Values(v any) ([]any, bool) {
	switch t := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return t, true
	case []string:
		return expand(t), true
	case []int:
		return expand(t), true
	case []int64:
		return expand(t), true
	case []float64:
		return expand(t), true
	case []bool:
		return expand(t), true
	case []map[string]any:
		return expand(t), true
	}
	rv := reflect.ValueNoEscapeOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func expand[T any](s []T) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// Type ranks for Compare. Mixed-type values order by rank first, mirroring
// the null < numbers < strings < booleans < dates < arrays < objects
// ordering of Mongo-flavored stores.
const (
	rankNil = iota
	rankNumber
	rankString
	rankBool
	rankTime
	rankList
	rankOther
)

func rank(v any) int {
	if v == nil {
		return rankNil
	}
	if _, ok := AsFloat(v); ok {
		return rankNumber
	}
	switch v.(type) {
	case string:
		return rankString
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	}
	if _, ok := Values(v); ok {
		return rankList
	}
	return rankOther
}

// Compare returns -1, 0 or 1 ordering a before, equal to or after b. The
// order is total: values of different type ranks order by rank, numeric
// values compare after coercion to float64, lists compare element-wise then
// by length, and remaining types fall back to their string forms.
func Compare(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch ra {
	case rankNil:
		return 0
	case rankNumber:
		fa, _ := AsFloat(a)
		fb, _ := AsFloat(b)
		return cmp.Compare(fa, fb)
	case rankString:
		return cmp.Compare(a.(string), b.(string))
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case bb:
			return -1
		default:
			return 1
		}
	case rankTime:
		return a.(time.Time).Compare(b.(time.Time))
	case rankList:
		la, _ := Values(a)
		lb, _ := Values(b)
		for i := range min(len(la), len(lb)) {
			if c := Compare(la[i], lb[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(la), len(lb))
	default:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
}

// Equal reports whether a and b compare as the same value under [Compare].
func Equal(a, b any) bool {
	return Compare(a, b) == 0
}
