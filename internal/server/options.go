package server

import (
	"log/slog"

	"github.com/dossierdb/dossier/domain"
)

// WithDB sets the database the gateway serves.
func WithDB(db domain.DB) Option {
	return func(s *Server) {
		s.db = db
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Option configures the gateway through the functional options pattern.
type Option func(*Server)
