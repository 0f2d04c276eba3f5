package memengine

import "os"

// WithIDGenerator replaces the record id factory.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) {
		e.newID = f
	}
}

// WithCompression toggles lz4 block compression of snapshot payloads.
func WithCompression(on bool) Option {
	return func(e *Engine) {
		e.compress = on
	}
}

// WithFileMode sets the permission bits of snapshot files.
func WithFileMode(mode os.FileMode) Option {
	return func(e *Engine) {
		e.fileMode = mode
	}
}

// Option configures the engine.
type Option func(*Engine)
