// Package database contains the default [domain.DB] implementation.
//
// Database owns no storage. It normalizes caller queries into engine
// requests, composes the query mode for each operation and projects raw
// engine results back into caller-facing values; everything else is
// delegated to the injected [domain.Engine].
package database

import (
	"context"
	"fmt"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/internal/adapter/decoder"
	"github.com/dossierdb/dossier/internal/adapter/document"
)

// Database implements domain.DB.
type Database struct {
	engine  domain.Engine
	decoder domain.Decoder
}

// NewDatabase returns a new implementation of domain.DB. An engine is
// required:
// - [WithEngine]
// - [WithDecoder]
func NewDatabase(options ...Option) (domain.DB, error) {
	d := &Database{
		decoder: decoder.NewDecoder(),
	}
	for _, option := range options {
		option(d)
	}
	if d.engine == nil {
		return nil, domain.ErrInvalidArgument{Arg: "engine", Reason: "must not be nil"}
	}
	return d, nil
}

// Open implements domain.DB.
func (d *Database) Open(ctx context.Context, path string, mode domain.OpenMode) error {
	return d.engine.Open(ctx, path, mode)
}

// Close implements domain.DB.
func (d *Database) Close(ctx context.Context) error {
	return d.engine.Close(ctx)
}

// IsOpen implements domain.DB.
func (d *Database) IsOpen() bool {
	return d.engine.IsOpen()
}

// EnsureCollection implements domain.DB.
func (d *Database) EnsureCollection(ctx context.Context, cname string, options ...domain.CollectionOption) error {
	if cname == "" {
		return errEmptyCName
	}
	if len(options) == 0 {
		return d.engine.EnsureCollection(ctx, cname, nil)
	}
	var opts domain.CollectionOptions
	for _, option := range options {
		option(&opts)
	}
	return d.engine.EnsureCollection(ctx, cname, &opts)
}

// RemoveCollection implements domain.DB.
func (d *Database) RemoveCollection(ctx context.Context, cname string, prune bool) error {
	if cname == "" {
		return errEmptyCName
	}
	return d.engine.RemoveCollection(ctx, cname, prune)
}

// Save implements domain.DB.
func (d *Database) Save(ctx context.Context, cname string, docs ...any) ([]string, error) {
	if cname == "" {
		return nil, errEmptyCName
	}
	if len(docs) == 0 {
		return nil, nil
	}

	parsed := make([]domain.M, len(docs))
	for n, doc := range docs {
		m, err := document.From(doc)
		if err != nil {
			return nil, domain.ErrInvalidArgument{Arg: "docs", Reason: err.Error()}
		}
		parsed[n] = m
	}

	ids, err := d.engine.Save(ctx, cname, parsed)
	if err != nil {
		return ids, fmt.Errorf("save into %s: %w", cname, err)
	}

	for n := min(len(ids), len(docs)) - 1; n >= 0; n-- {
		switch m := docs[n].(type) {
		case domain.M:
			m[domain.IDField] = ids[n]
		case map[string]string:
			m[domain.IDField] = ids[n]
		}
	}
	return ids, nil
}

// Load implements domain.DB.
func (d *Database) Load(ctx context.Context, cname string, id string) (domain.M, error) {
	if cname == "" {
		return nil, errEmptyCName
	}
	if id == "" {
		return nil, errEmptyID
	}
	return d.engine.Load(ctx, cname, id)
}

// Remove implements domain.DB.
func (d *Database) Remove(ctx context.Context, cname string, id string) error {
	if cname == "" {
		return errEmptyCName
	}
	if id == "" {
		return errEmptyID
	}
	return d.engine.Remove(ctx, cname, id)
}

// Find implements domain.DB.
func (d *Database) Find(ctx context.Context, cname string, query any, options ...domain.QueryOption) (domain.Cursor, error) {
	if cname == "" {
		return nil, errEmptyCName
	}

	req, countOnly := buildRequest(query, options)
	var mode domain.QueryMode
	if countOnly {
		mode |= domain.QueryCountOnly
	}

	res, err := d.engine.Query(ctx, cname, req, mode)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", cname, err)
	}
	return newCursor(res, d.decoder), nil
}

// FindOne implements domain.DB.
func (d *Database) FindOne(ctx context.Context, cname string, query any, options ...domain.QueryOption) (domain.M, error) {
	if cname == "" {
		return nil, errEmptyCName
	}

	req, _ := buildRequest(query, options)
	req.Hints.Max = 1

	res, err := d.engine.Query(ctx, cname, req, 0)
	if err != nil {
		return nil, fmt.Errorf("find one in %s: %w", cname, err)
	}
	cur := res.Cursor
	if cur == nil {
		return nil, nil
	}

	var doc domain.M
	if cur.Next() {
		doc = cur.Document()
	}
	if err := cur.Err(); err != nil {
		cur.Close()
		return nil, fmt.Errorf("find one in %s: %w", cname, err)
	}
	if err := cur.Close(); err != nil {
		return nil, fmt.Errorf("find one in %s: %w", cname, err)
	}
	return doc, nil
}

// Count implements domain.DB.
func (d *Database) Count(ctx context.Context, cname string, query any, options ...domain.QueryOption) (int64, error) {
	if cname == "" {
		return 0, errEmptyCName
	}

	req, _ := buildRequest(query, options)

	res, err := d.engine.Query(ctx, cname, req, domain.QueryCountOnly)
	if res.Cursor != nil {
		res.Cursor.Close()
	}
	if err != nil {
		return 0, fmt.Errorf("count in %s: %w", cname, err)
	}
	return res.Count, nil
}

// Update implements domain.DB.
func (d *Database) Update(ctx context.Context, cname string, query any, options ...domain.QueryOption) (int64, string, error) {
	if cname == "" {
		return 0, "", errEmptyCName
	}

	req, _ := buildRequest(query, options)

	res, err := d.engine.Query(ctx, cname, req, domain.QueryCountOnly)
	if res.Cursor != nil {
		res.Cursor.Close()
	}
	if err != nil {
		err = fmt.Errorf("update in %s: %w", cname, err)
	}
	return res.Count, res.Log, err
}

// Sync implements domain.DB.
func (d *Database) Sync(ctx context.Context) error {
	return d.engine.Sync(ctx)
}

// EnsureStringIndex implements domain.DB.
func (d *Database) EnsureStringIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexString)
}

// RebuildStringIndex implements domain.DB.
func (d *Database) RebuildStringIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexString|domain.IndexRebuild)
}

// DropStringIndex implements domain.DB.
func (d *Database) DropStringIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexString|domain.IndexDrop)
}

// EnsureIStringIndex implements domain.DB.
func (d *Database) EnsureIStringIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexIString)
}

// RebuildIStringIndex implements domain.DB.
func (d *Database) RebuildIStringIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexIString|domain.IndexRebuild)
}

// DropIStringIndex implements domain.DB.
func (d *Database) DropIStringIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexIString|domain.IndexDrop)
}

// EnsureNumberIndex implements domain.DB.
func (d *Database) EnsureNumberIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexNumber)
}

// RebuildNumberIndex implements domain.DB.
func (d *Database) RebuildNumberIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexNumber|domain.IndexRebuild)
}

// DropNumberIndex implements domain.DB.
func (d *Database) DropNumberIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexNumber|domain.IndexDrop)
}

// EnsureArrayIndex implements domain.DB.
func (d *Database) EnsureArrayIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexArray)
}

// RebuildArrayIndex implements domain.DB.
func (d *Database) RebuildArrayIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexArray|domain.IndexRebuild)
}

// DropArrayIndex implements domain.DB.
func (d *Database) DropArrayIndex(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexArray|domain.IndexDrop)
}

// DropIndexes implements domain.DB.
func (d *Database) DropIndexes(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexDropAll)
}

// OptimizeIndexes implements domain.DB.
func (d *Database) OptimizeIndexes(ctx context.Context, cname string, path string) error {
	return d.setIndex(ctx, cname, path, domain.IndexOptimize)
}

func (d *Database) setIndex(ctx context.Context, cname string, path string, flags domain.IndexFlag) error {
	if cname == "" {
		return errEmptyCName
	}
	if path == "" {
		return errEmptyPath
	}
	return d.engine.SetIndex(ctx, cname, path, flags)
}

var (
	errEmptyCName = domain.ErrInvalidArgument{Arg: "cname", Reason: "must not be empty"}
	errEmptyID    = domain.ErrInvalidArgument{Arg: "id", Reason: "must not be empty"}
	errEmptyPath  = domain.ErrInvalidArgument{Arg: "path", Reason: "must not be empty"}
)
