package memengine

import (
	"slices"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/dossierdb/dossier/pkg/structure"
)

// mutationOps are the top-level predicate keys that turn a query into an
// update.
var mutationOps = map[string]bool{
	"$set":      true,
	"$unset":    true,
	"$inc":      true,
	"$addToSet": true,
	"$pull":     true,
	"$dropall":  true,
}

// splitMutations separates mutation instructions from the matching part of
// a predicate. The mutation map is nil for plain queries.
func splitMutations(pred domain.M) (domain.M, domain.M) {
	var mut domain.M
	for key := range pred {
		if mutationOps[key] {
			mut = domain.M{}
			break
		}
	}
	if mut == nil {
		return pred, nil
	}
	match := domain.M{}
	for key, val := range pred {
		if mutationOps[key] {
			mut[key] = val
		} else {
			match[key] = val
		}
	}
	return match, mut
}

// mutate applies the instructions to every matched record. A truthy
// $dropall wins over everything else and deletes the records.
func (c *collection) mutate(ids []string, mut domain.M) (int, error) {
	if err := checkMutations(mut); err != nil {
		return 0, err
	}
	if truthy(mut["$dropall"]) {
		for _, id := range ids {
			c.remove(id)
		}
		return len(ids), nil
	}
	for _, id := range ids {
		d := c.docs[id]
		c.unindex(d)
		applyMutations(d, mut)
		c.index(d)
	}
	return len(ids), nil
}

// checkMutations validates instruction shapes before anything is touched.
func checkMutations(mut domain.M) error {
	for op, arg := range mut {
		switch op {
		case "$set", "$unset", "$inc", "$addToSet", "$pull":
			if _, ok := arg.(domain.M); !ok {
				return domain.ErrInvalidArgument{Arg: op, Reason: "expects an object of fields"}
			}
		}
	}
	return nil
}

// applyMutations edits one record in place. The id field is immune.
func applyMutations(d domain.M, mut domain.M) {
	for op, arg := range mut {
		fields, _ := arg.(domain.M)
		for path, val := range fields {
			if path == domain.IDField {
				continue
			}
			switch op {
			case "$set":
				document.Set(d, path, cloneValue(val))
			case "$unset":
				document.Unset(d, path)
			case "$inc":
				applyInc(d, path, val)
			case "$addToSet":
				applyAddToSet(d, path, val)
			case "$pull":
				applyPull(d, path, val)
			}
		}
	}
}

// applyInc adds to a numeric field, keeping integer arithmetic when both
// sides are integers. A missing field counts from zero; a non-numeric
// field or delta leaves the record untouched.
func applyInc(d domain.M, path string, delta any) {
	cur, present := document.Get(d, path)
	if !present {
		cur = int64(0)
	}
	if ci, ok := structure.AsInteger(cur); ok {
		if di, ok := structure.AsInteger(delta); ok {
			document.Set(d, path, ci+di)
			return
		}
	}
	cf, okCur := structure.AsFloat(cur)
	df, okDelta := structure.AsFloat(delta)
	if !okCur || !okDelta {
		return
	}
	document.Set(d, path, cf+df)
}

// applyAddToSet appends the value unless an equal element is present. A
// missing field becomes a one-element list; a non-list field is left
// untouched.
func applyAddToSet(d domain.M, path string, val any) {
	cur, present := document.Get(d, path)
	elems, isList := structure.Values(cur)
	if present && !isList {
		return
	}
	for _, el := range elems {
		if structure.Equal(el, val) {
			return
		}
	}
	document.Set(d, path, append(slices.Clone(elems), cloneValue(val)))
}

// applyPull removes every list element equal to the value.
func applyPull(d domain.M, path string, val any) {
	cur, _ := document.Get(d, path)
	elems, isList := structure.Values(cur)
	if !isList {
		return
	}
	out := make([]any, 0, len(elems))
	for _, el := range elems {
		if !structure.Equal(el, val) {
			out = append(out, el)
		}
	}
	document.Set(d, path, out)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case domain.M:
		return document.Clone(t)
	case []any:
		out := make([]any, len(t))
		for n, el := range t {
			out[n] = cloneValue(el)
		}
		return out
	}
	return v
}
