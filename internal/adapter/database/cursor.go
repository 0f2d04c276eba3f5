package database

import (
	"fmt"

	"github.com/dossierdb/dossier/domain"
	"github.com/dossierdb/dossier/pkg/ctxsync"
)

// Cursor implements domain.Cursor over a raw engine cursor. A count-only
// result carries no engine cursor; the wrapper then iterates nothing and
// reports the engine count.
type Cursor struct {
	inner  domain.EngineCursor
	dec    domain.Decoder
	mu     *ctxsync.Mutex
	count  int64
	closed bool
}

func newCursor(res domain.Result, dec domain.Decoder) domain.Cursor {
	return &Cursor{
		inner: res.Cursor,
		dec:   dec,
		mu:    ctxsync.NewMutex(),
		count: res.Count,
	}
}

// Next implements domain.Cursor.
func (c *Cursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.inner == nil {
		return false
	}
	return c.inner.Next()
}

// Document implements domain.Cursor.
func (c *Cursor) Document() domain.M {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.inner == nil {
		return nil
	}
	return c.inner.Document()
}

// Scan implements domain.Cursor.
func (c *Cursor) Scan(target any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrClosedCursor{}
	}
	if c.inner == nil {
		return fmt.Errorf("called Scan on an empty cursor")
	}
	doc := c.inner.Document()
	if doc == nil {
		return fmt.Errorf("called Scan before calling Next")
	}
	return c.dec.Decode(doc, target)
}

// Count implements domain.Cursor.
func (c *Cursor) Count() int64 {
	return c.count
}

// Err implements domain.Cursor.
func (c *Cursor) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inner == nil {
		return nil
	}
	return c.inner.Err()
}

// Close implements domain.Cursor.
func (c *Cursor) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrClosedCursor{}
	}
	c.closed = true
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
