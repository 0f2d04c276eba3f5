package memengine

import "github.com/dossierdb/dossier/domain"

// cursor walks a materialized result window. It is not safe for
// concurrent use; the client layer adds its own locking.
type cursor struct {
	docs   []domain.M
	n      int
	closed bool
}

func newCursor(docs []domain.M) *cursor {
	return &cursor{docs: docs, n: -1}
}

// Next implements domain.EngineCursor.
func (c *cursor) Next() bool {
	if c.closed || c.n+1 >= len(c.docs) {
		return false
	}
	c.n++
	return true
}

// Document implements domain.EngineCursor.
func (c *cursor) Document() domain.M {
	if c.closed || c.n < 0 || c.n >= len(c.docs) {
		return nil
	}
	return c.docs[c.n]
}

// Err implements domain.EngineCursor.
func (c *cursor) Err() error { return nil }

// Close implements domain.EngineCursor.
func (c *cursor) Close() error {
	if c.closed {
		return domain.ErrClosedCursor{}
	}
	c.closed = true
	c.docs = nil
	return nil
}
