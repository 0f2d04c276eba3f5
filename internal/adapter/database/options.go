package database

import "github.com/dossierdb/dossier/domain"

// WithEngine sets the storage engine operations run against.
func WithEngine(e domain.Engine) Option {
	return func(d *Database) {
		d.engine = e
	}
}

// WithDecoder sets the decoder backing [domain.Cursor.Scan].
func WithDecoder(dec domain.Decoder) Option {
	return func(d *Database) {
		d.decoder = dec
	}
}

// Option configures database behavior through the functional options
// pattern.
type Option func(*Database)
