package memengine

import (
	"fmt"
	"slices"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/dossierdb/dossier/pkg/ctxsync"
	"github.com/dossierdb/dossier/pkg/structure"
)

// collection holds the records of one named collection. Every access goes
// through the collection mutex; the engine resolves collections under its
// own lock first, so lock order is always engine before collection.
type collection struct {
	mu      *ctxsync.Mutex
	name    string
	options domain.CollectionOptions
	docs    map[string]domain.M
	order   []string
	indexes map[string]*fieldIndex
}

func newCollection(name string, options *domain.CollectionOptions) *collection {
	c := &collection{
		mu:      ctxsync.NewMutex(),
		name:    name,
		docs:    make(map[string]domain.M),
		indexes: make(map[string]*fieldIndex),
	}
	if options != nil {
		c.options = *options
	}
	return c
}

// upsert stores a deep copy of d, assigning an id when absent. Replacing
// an existing record keeps its insertion position.
func (c *collection) upsert(d domain.M, newID func() string) string {
	id := document.ID(d)
	if id == "" {
		id = newID()
	}
	stored := document.Clone(d)
	stored[domain.IDField] = id
	if old, ok := c.docs[id]; ok {
		c.unindex(old)
	} else {
		c.order = append(c.order, id)
	}
	c.docs[id] = stored
	c.index(stored)
	return id
}

func (c *collection) remove(id string) bool {
	d, ok := c.docs[id]
	if !ok {
		return false
	}
	c.unindex(d)
	delete(c.docs, id)
	if n := slices.Index(c.order, id); n >= 0 {
		c.order = slices.Delete(c.order, n, n+1)
	}
	return true
}

// query runs one request against the collection. Mutation queries report
// the number of affected records and never yield a cursor.
func (c *collection) query(pred domain.M, or []domain.M, hints domain.Hints, mut domain.M, mode domain.QueryMode) (domain.Result, error) {
	ids, plan := c.candidates(pred, or)
	matched := make([]string, 0, len(ids))
	for _, id := range ids {
		if matchRequest(c.docs[id], pred, or) {
			matched = append(matched, id)
		}
	}
	if len(hints.OrderBy) > 0 {
		c.sortIDs(matched, hints.OrderBy)
	}
	matched = window(matched, hints.Skip, hints.Max)

	if len(mut) > 0 {
		affected, err := c.mutate(matched, mut)
		log := fmt.Sprintf("%s: %s, %d matched, %d updated", c.name, plan, len(matched), affected)
		return domain.Result{Count: int64(affected), Log: log}, err
	}

	log := fmt.Sprintf("%s: %s, %d matched", c.name, plan, len(matched))
	if mode&domain.QueryCountOnly != 0 {
		return domain.Result{Count: int64(len(matched)), Log: log}, nil
	}
	docs := make([]domain.M, len(matched))
	for n, id := range matched {
		docs[n] = project(document.Clone(c.docs[id]), hints.Fields)
	}
	return domain.Result{Cursor: newCursor(docs), Count: int64(len(docs)), Log: log}, nil
}

// candidates picks the ids to inspect, in insertion order. Single-field
// literal equality without OR-branches goes through a matching index;
// everything else scans.
func (c *collection) candidates(pred domain.M, or []domain.M) ([]string, string) {
	if len(or) == 0 && len(pred) == 1 {
		for path, cond := range pred {
			if !literal(cond) {
				continue
			}
			for _, idx := range c.indexes {
				if idx.path != path {
					continue
				}
				hits, ok := idx.lookup(cond)
				if !ok {
					continue
				}
				ids := make([]string, 0, len(hits))
				for _, id := range c.order {
					if hits[id] {
						ids = append(ids, id)
					}
				}
				return ids, "index " + path
			}
		}
	}
	return slices.Clone(c.order), "full scan"
}

// sortIDs orders ids by the requested keys, leaving ties in their current
// order.
func (c *collection) sortIDs(ids []string, keys []domain.SortKey) {
	slices.SortStableFunc(ids, func(a, b string) int {
		da, db := c.docs[a], c.docs[b]
		for _, key := range keys {
			va, _ := document.Get(da, key.Field)
			vb, _ := document.Get(db, key.Field)
			comp := structure.Compare(va, vb)
			if comp == 0 {
				continue
			}
			if key.Desc {
				return -comp
			}
			return comp
		}
		return 0
	})
}

// window applies skip and max to the matched set.
func window(ids []string, skip, max int64) []string {
	if skip > 0 {
		if skip >= int64(len(ids)) {
			return ids[:0]
		}
		ids = ids[skip:]
	}
	if max > 0 && max < int64(len(ids)) {
		ids = ids[:max]
	}
	return ids
}

// project keeps only the requested fields. The id field always survives.
func project(d domain.M, fields []string) domain.M {
	if len(fields) == 0 {
		return d
	}
	out := domain.M{}
	if id, ok := d[domain.IDField]; ok {
		out[domain.IDField] = id
	}
	for _, f := range fields {
		if v, ok := document.Get(d, f); ok {
			document.Set(out, f, v)
		}
	}
	return out
}
