// Package document converts caller values into the map documents the
// engine boundary speaks, and navigates their dotted field paths.
package document

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
	"time"

	goreflect "github.com/goccy/go-reflect"

	"github.com/dossierdb/dossier/domain"
)

// TagName is the struct tag honored when parsing struct documents.
const TagName = "dossier"

var timeTyp = goreflect.TypeOf(*new(time.Time))

// From builds a [domain.M] from the given value. Maps keyed by string are
// copied; structs are parsed field by field, honoring the "dossier" tag
// (rename, "-", omitempty, omitzero) and skipping unexported fields.
// Pointers and interfaces are followed; nil yields an empty document.
func From(in any) (domain.M, error) {
	if in == nil {
		return domain.M{}, nil
	}
	if doc := fromMap(in); doc != nil {
		return doc, nil
	}

	r := goreflect.ValueNoEscapeOf(in)
	k := r.Kind()
	for k == goreflect.Interface || k == reflect.Pointer {
		if r.IsNil() {
			return domain.M{}, nil
		}
		r = r.Elem()
		k = r.Kind()
	}
	if k != goreflect.Struct && k != goreflect.Map {
		return nil, fmt.Errorf("expected map or struct, got %s", r.Type().String())
	}
	doc, err := parseReflect(r)
	if err != nil {
		return nil, err
	}
	m, ok := doc.(domain.M)
	if !ok {
		return nil, fmt.Errorf("expected map or struct, got %T", in)
	}
	return m, nil
}

func fromMap(v any) domain.M {
	switch t := v.(type) {
	case domain.M:
		res := make(domain.M, len(t))
		for k, v := range t {
			res[k] = v
		}
		return res
	case map[string]string:
		return copyMap(t)
	case map[string]bool:
		return copyMap(t)
	case map[string]int:
		return copyMap(t)
	case map[string]int8:
		return copyMap(t)
	case map[string]int16:
		return copyMap(t)
	case map[string]int32:
		return copyMap(t)
	case map[string]int64:
		return copyMap(t)
	case map[string]uint:
		return copyMap(t)
	case map[string]uint8:
		return copyMap(t)
	case map[string]uint16:
		return copyMap(t)
	case map[string]uint32:
		return copyMap(t)
	case map[string]uint64:
		return copyMap(t)
	case map[string]float32:
		return copyMap(t)
	case map[string]float64:
		return copyMap(t)
	case map[string]time.Time:
		return copyMap(t)
	default:
		return nil
	}
}

func copyMap[T any](v map[string]T) domain.M {
	res := make(domain.M, len(v))
	for k, v := range v {
		res[k] = v
	}
	return res
}

func parseReflect(r goreflect.Value) (any, error) {
	for r.Kind() == reflect.Pointer || r.Kind() == goreflect.Interface {
		if r.IsNil() {
			return nil, nil
		}
		r = r.Elem()
	}
	switch r.Kind() {
	case goreflect.Invalid:
		return nil, nil
	case goreflect.Slice:
		if r.IsNil() {
			return nil, nil
		}
		fallthrough
	case goreflect.Array:
		return parseList(r)
	case goreflect.Struct:
		if r.Type() == timeTyp {
			return r.Interface(), nil
		}
		return parseStruct(r)
	case goreflect.Map:
		if r.IsNil() {
			return nil, nil
		}
		return parseMapReflect(r)
	default:
		return r.Interface(), nil
	}
}

func parseStruct(r goreflect.Value) (any, error) {
	typ := r.Type()
	numField := r.NumField()

	res := make(domain.M, numField)

	for n := range numField {
		field := typ.Field(n)
		if field.PkgPath != "" {
			continue
		}
		name, value, err := parseField(r.Field(n), field)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		res[name] = value
	}
	return res, nil
}

func parseField(r goreflect.Value, typ goreflect.StructField) (string, any, error) {
	name := typ.Name
	var tagSegments []string
	if tag, ok := typ.Tag.Lookup(TagName); ok {
		if tag == "-" {
			return "", nil, nil
		}
		tagSegments = strings.Split(tag, ",")
		if tagSegments[0] != "" {
			name = tagSegments[0]
		}
		tagSegments = tagSegments[1:]
	}
	if slices.Contains(tagSegments, "omitempty") && isNullable(typ.Type) && r.IsNil() {
		return "", nil, nil
	}
	if slices.Contains(tagSegments, "omitzero") && r.IsZero() {
		return "", nil, nil
	}

	value, err := parseReflect(r)
	if err != nil {
		return "", nil, err
	}
	return name, value, nil
}

func parseMapReflect(v goreflect.Value) (any, error) {
	if v.Type().Key().Kind() != goreflect.String {
		return nil, fmt.Errorf("expected string map keys, got %s", v.Type().Key().String())
	}
	res := make(domain.M, v.Len())
	for _, k := range v.MapKeys() {
		str := k.String()
		var err error
		if res[str], err = parseReflect(v.MapIndex(k)); err != nil {
			return nil, err
		}
	}
	return res, nil
}

func parseList(r goreflect.Value) (any, error) {
	length := r.Len()
	res := make([]any, length)
	for i := range length {
		v, err := parseReflect(r.Index(i))
		if err != nil {
			return nil, err
		}
		res[i] = v
	}
	return res, nil
}

func isNullable(t goreflect.Type) bool {
	k := t.Kind()
	return k == reflect.Pointer ||
		k == reflect.Slice ||
		k == reflect.Map ||
		k == reflect.Interface ||
		k == reflect.Func ||
		k == reflect.Chan
}

// Clone deep-copies a document. Nested maps and []any slices are copied;
// other values are shared, which is safe for the primitive values documents
// normally hold.
func Clone(d domain.M) domain.M {
	if d == nil {
		return nil
	}
	res := make(domain.M, len(d))
	for k, v := range d {
		res[k] = cloneValue(v)
	}
	return res
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case domain.M:
		return Clone(t)
	case []any:
		res := make([]any, len(t))
		for i, e := range t {
			res[i] = cloneValue(e)
		}
		return res
	default:
		return v
	}
}

// ID returns the document identifier, or "" when it is absent or not a
// string.
func ID(d domain.M) string {
	id, _ := d[domain.IDField].(string)
	return id
}

// SetID sets the document identifier.
func SetID(d domain.M, id string) {
	d[domain.IDField] = id
}

// Get resolves a dotted field path, descending nested map values. The
// second return reports whether every segment resolved.
func Get(d domain.M, path string) (any, bool) {
	cur := any(d)
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes a value at a dotted field path, creating intermediate map
// values as needed. Intermediate segments holding non-map values are
// replaced.
func Set(d domain.M, path string, value any) {
	segs := strings.Split(path, ".")
	cur := d
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			next = domain.M{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// Unset removes the value at a dotted field path, if present.
func Unset(d domain.M, path string) {
	segs := strings.Split(path, ".")
	cur := d
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}

func asMap(v any) (domain.M, bool) {
	switch t := v.(type) {
	case domain.M:
		return t, true
	default:
		return nil, false
	}
}
