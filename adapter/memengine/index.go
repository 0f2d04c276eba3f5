package memengine

import (
	"fmt"
	"strings"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/dossierdb/dossier/pkg/structure"
	"github.com/vinicius-lino-figueiredo/bst"
)

// indexKinds masks the type bits out of a composed index instruction.
const indexKinds = domain.IndexNumber | domain.IndexString | domain.IndexIString | domain.IndexArray

// fieldIndex is one typed tree over a dotted path. Tree values are record
// ids; the kind decides how field values decompose into keys.
type fieldIndex struct {
	path string
	kind domain.IndexFlag
	tree *bst.BinarySearchTree
}

func newFieldIndex(path string, kind domain.IndexFlag) *fieldIndex {
	return &fieldIndex{
		path: path,
		kind: kind,
		tree: bst.NewBinarySearchTree(bst.Options{CompareKeys: structure.Compare}),
	}
}

func (x *fieldIndex) add(d domain.M) {
	v, ok := document.Get(d, x.path)
	if !ok {
		return
	}
	id := document.ID(d)
	for _, key := range x.keysFor(v) {
		_ = x.tree.Insert(key, id)
	}
}

func (x *fieldIndex) remove(d domain.M) {
	v, ok := document.Get(d, x.path)
	if !ok {
		return
	}
	id := document.ID(d)
	for _, key := range x.keysFor(v) {
		x.tree.Delete(key, id)
	}
}

// lookup resolves the ids recorded under the condition value. ok is false
// when the tree cannot answer the value's type, forcing a scan.
func (x *fieldIndex) lookup(cond any) (map[string]bool, bool) {
	keys := x.keysFor(cond)
	if len(keys) == 0 {
		return nil, false
	}
	hits := make(map[string]bool)
	for _, key := range keys {
		for _, v := range x.tree.Search(key) {
			if id, isStr := v.(string); isStr {
				hits[id] = true
			}
		}
	}
	return hits, true
}

// keysFor decomposes a field value into tree keys. List values fan out
// into per-element keys so membership matches never miss the tree.
func (x *fieldIndex) keysFor(v any) []any {
	vals, ok := structure.Values(v)
	if !ok {
		vals = []any{v}
	}
	keys := make([]any, 0, len(vals))
	switch x.kind & indexKinds {
	case domain.IndexNumber:
		for _, v := range vals {
			if f, isNum := structure.AsFloat(v); isNum {
				keys = append(keys, f)
			}
		}
	case domain.IndexString:
		for _, v := range vals {
			if s, isStr := v.(string); isStr {
				keys = append(keys, s)
			}
		}
	case domain.IndexIString:
		for _, v := range vals {
			if s, isStr := v.(string); isStr {
				keys = append(keys, strings.ToLower(s))
			}
		}
	case domain.IndexArray:
		keys = append(keys, vals...)
	}
	return keys
}

func (c *collection) index(d domain.M) {
	for _, idx := range c.indexes {
		idx.add(d)
	}
}

func (c *collection) unindex(d domain.M) {
	for _, idx := range c.indexes {
		idx.remove(d)
	}
}

// setIndex applies one composed index instruction to the collection.
func (c *collection) setIndex(path string, flags domain.IndexFlag) error {
	if flags&domain.IndexDropAll != 0 {
		for key, idx := range c.indexes {
			if idx.path == path {
				delete(c.indexes, key)
			}
		}
		return nil
	}
	if flags&domain.IndexOptimize != 0 {
		for _, idx := range c.indexes {
			if idx.path == path {
				c.rebuild(idx)
			}
		}
		return nil
	}
	kind := flags & indexKinds
	if kind == 0 {
		return domain.ErrInvalidArgument{Arg: "flags", Reason: "no index type selected"}
	}
	key := indexKey(path, kind)
	switch {
	case flags&domain.IndexDrop != 0:
		delete(c.indexes, key)
	case flags&domain.IndexRebuild != 0:
		idx := newFieldIndex(path, kind)
		c.indexes[key] = idx
		c.rebuild(idx)
	default:
		if _, ok := c.indexes[key]; ok {
			return nil
		}
		idx := newFieldIndex(path, kind)
		c.indexes[key] = idx
		c.rebuild(idx)
	}
	return nil
}

// rebuild refills one tree from the live records.
func (c *collection) rebuild(idx *fieldIndex) {
	idx.tree = bst.NewBinarySearchTree(bst.Options{CompareKeys: structure.Compare})
	for _, id := range c.order {
		idx.add(c.docs[id])
	}
}

// indexKey distinguishes coexisting typed trees over the same path.
func indexKey(path string, kind domain.IndexFlag) string {
	return fmt.Sprintf("%s#%d", path, kind)
}
