// Package memengine contains an in-memory [domain.Engine] with optional
// snapshot persistence.
//
// Records live in per-collection maps guarded by collection mutexes; the
// engine mutex guards the session state and the collection registries.
// When a snapshot path is given, Sync and Close persist the full engine
// image and Open restores it.
package memengine

import (
	"context"
	"fmt"
	"os"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/document"
	"github.com/dossierdb/dossier/pkg/ctxsync"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

const DefaultFileMode os.FileMode = 0o644

// Engine implements domain.Engine.
type Engine struct {
	mu       *ctxsync.Mutex
	open     bool
	path     string
	mode     domain.OpenMode
	compress bool
	fileMode os.FileMode
	colls    *xsync.MapOf[string, *collection]
	detached *xsync.MapOf[string, *collection]
	newID    func() string
}

// NewEngine returns a new in-memory implementation of domain.Engine.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		mu:       ctxsync.NewMutex(),
		compress: true,
		fileMode: DefaultFileMode,
		colls:    xsync.NewMapOf[string, *collection](),
		detached: xsync.NewMapOf[string, *collection](),
		newID:    uuid.NewString,
	}
	for _, option := range options {
		option(e)
	}
	return e
}

// Open implements domain.Engine. An empty path keeps the engine purely in
// memory. Without [domain.OpenTruncate] an existing snapshot at path is
// restored; a missing snapshot is an error unless [domain.OpenCreate] is
// set.
func (e *Engine) Open(ctx context.Context, path string, mode domain.OpenMode) error {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if e.open {
		return domain.ErrAlreadyOpen{}
	}
	if mode == 0 {
		mode = domain.OpenDefault
	}
	if mode&(domain.OpenReader|domain.OpenWriter) == 0 {
		mode |= domain.OpenWriter
	}
	e.path = path
	e.mode = mode
	e.colls = xsync.NewMapOf[string, *collection]()
	e.detached = xsync.NewMapOf[string, *collection]()
	if path != "" && mode&domain.OpenTruncate == 0 {
		err := e.loadSnapshot(ctx)
		switch {
		case err == nil:
		case os.IsNotExist(err) && mode&domain.OpenCreate != 0:
			// First run. The file appears on the next Sync.
		default:
			return err
		}
	}
	e.open = true
	return nil
}

// Close implements domain.Engine. A writer session persists its snapshot
// before detaching.
func (e *Engine) Close(ctx context.Context) error {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if !e.open {
		return domain.ErrNotOpen{}
	}
	if e.path != "" && e.mode&domain.OpenWriter != 0 {
		// The closing flush must finish even when the caller's context
		// dies between the decision to close and the write.
		if err := e.writeSnapshot(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}
	e.open = false
	e.colls = xsync.NewMapOf[string, *collection]()
	e.detached = xsync.NewMapOf[string, *collection]()
	return nil
}

// IsOpen implements domain.Engine.
func (e *Engine) IsOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.open
}

// EnsureCollection implements domain.Engine. Options apply on first
// creation only; an existing or revived collection keeps its own.
func (e *Engine) EnsureCollection(ctx context.Context, cname string, options *domain.CollectionOptions) error {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if !e.open {
		return domain.ErrNotOpen{}
	}
	if e.mode&domain.OpenWriter == 0 {
		return domain.ErrReadOnly{Op: "ensure collection"}
	}
	e.attach(cname, options)
	return nil
}

// RemoveCollection implements domain.Engine. Without prune the collection
// is only detached: its records survive in snapshots and return on the
// next EnsureCollection or Save of the same name.
func (e *Engine) RemoveCollection(ctx context.Context, cname string, prune bool) error {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if !e.open {
		return domain.ErrNotOpen{}
	}
	if e.mode&domain.OpenWriter == 0 {
		return domain.ErrReadOnly{Op: "remove collection"}
	}
	c, ok := e.colls.LoadAndDelete(cname)
	if prune {
		e.detached.Delete(cname)
		return nil
	}
	if ok {
		e.detached.Store(cname, c)
	}
	return nil
}

// Save implements domain.Engine. Records are stored as deep copies;
// records without an id receive a generated one. The collection is
// created on first use.
func (e *Engine) Save(ctx context.Context, cname string, docs []domain.M) ([]string, error) {
	c, err := e.use(ctx, "save", cname)
	if err != nil {
		return nil, err
	}
	if err := c.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	ids := make([]string, len(docs))
	for n, d := range docs {
		ids[n] = c.upsert(d, e.newID)
	}
	return ids, nil
}

// Load implements domain.Engine. An absent record or collection yields
// (nil, nil).
func (e *Engine) Load(ctx context.Context, cname, id string) (domain.M, error) {
	c, err := e.view(ctx, cname)
	if c == nil || err != nil {
		return nil, err
	}
	if err := c.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	d, ok := c.docs[id]
	if !ok {
		return nil, nil
	}
	return document.Clone(d), nil
}

// Remove implements domain.Engine. Removing an absent record is not an
// error.
func (e *Engine) Remove(ctx context.Context, cname, id string) error {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return err
	}
	if !e.open {
		e.mu.Unlock()
		return domain.ErrNotOpen{}
	}
	if e.mode&domain.OpenWriter == 0 {
		e.mu.Unlock()
		return domain.ErrReadOnly{Op: "remove"}
	}
	c, ok := e.colls.Load(cname)
	e.mu.Unlock()
	if !ok {
		return nil
	}
	if err := c.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer c.mu.Unlock()
	c.remove(id)
	return nil
}

// Query implements domain.Engine. Predicates carrying mutation keys at the
// top level turn the query into an update, which needs a writer session
// and reports the affected record count instead of a cursor.
func (e *Engine) Query(ctx context.Context, cname string, req domain.Request, mode domain.QueryMode) (domain.Result, error) {
	pred, mut := splitMutations(req.Predicate)
	if err := e.mu.LockWithContext(ctx); err != nil {
		return domain.Result{}, err
	}
	if !e.open {
		e.mu.Unlock()
		return domain.Result{}, domain.ErrNotOpen{}
	}
	if len(mut) > 0 && e.mode&domain.OpenWriter == 0 {
		e.mu.Unlock()
		return domain.Result{}, domain.ErrReadOnly{Op: "update query"}
	}
	c, ok := e.colls.Load(cname)
	e.mu.Unlock()
	if !ok {
		res := domain.Result{Log: fmt.Sprintf("%s: no collection", cname)}
		if mode&domain.QueryCountOnly == 0 && len(mut) == 0 {
			res.Cursor = newCursor(nil)
		}
		return res, nil
	}
	if err := c.mu.LockWithContext(ctx); err != nil {
		return domain.Result{}, err
	}
	defer c.mu.Unlock()
	return c.query(pred, req.Or, req.Hints, mut, mode)
}

// SetIndex implements domain.Engine. The collection is created on first
// use.
func (e *Engine) SetIndex(ctx context.Context, cname, path string, flags domain.IndexFlag) error {
	c, err := e.use(ctx, "set index", cname)
	if err != nil {
		return err
	}
	if err := c.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer c.mu.Unlock()
	return c.setIndex(path, flags)
}

// Sync implements domain.Engine. Purely in-memory and read-only sessions
// have nothing to persist.
func (e *Engine) Sync(ctx context.Context) error {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if !e.open {
		return domain.ErrNotOpen{}
	}
	if e.path == "" || e.mode&domain.OpenWriter == 0 {
		return nil
	}
	return e.writeSnapshot(ctx)
}

// use resolves cname for writing, attaching the collection on first use.
func (e *Engine) use(ctx context.Context, op, cname string) (*collection, error) {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if !e.open {
		return nil, domain.ErrNotOpen{}
	}
	if e.mode&domain.OpenWriter == 0 {
		return nil, domain.ErrReadOnly{Op: op}
	}
	return e.attach(cname, nil), nil
}

// view resolves cname for reading. A nil collection with a nil error
// reports an absent collection.
func (e *Engine) view(ctx context.Context, cname string) (*collection, error) {
	if err := e.mu.LockWithContext(ctx); err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if !e.open {
		return nil, domain.ErrNotOpen{}
	}
	c, _ := e.colls.Load(cname)
	return c, nil
}

// attach returns the named collection, reviving a detached one or
// creating it on first use. Callers hold the engine lock.
func (e *Engine) attach(cname string, options *domain.CollectionOptions) *collection {
	if c, ok := e.colls.Load(cname); ok {
		return c
	}
	if c, ok := e.detached.LoadAndDelete(cname); ok {
		e.colls.Store(cname, c)
		return c
	}
	c := newCollection(cname, options)
	e.colls.Store(cname, c)
	return c
}
