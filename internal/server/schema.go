package server

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/xeipuuv/gojsonschema"

	"github.com/dossierdb/dossier/domain"
)

// schemaRegistry holds the compiled JSON Schemas guarding document
// writes, one per collection.
type schemaRegistry struct {
	schemas *xsync.MapOf[string, *gojsonschema.Schema]
}

func newSchemaRegistry() *schemaRegistry {
	return &schemaRegistry{schemas: xsync.NewMapOf[string, *gojsonschema.Schema]()}
}

// set compiles source and installs it as cname's write guard, replacing
// any previous schema.
func (reg *schemaRegistry) set(cname string, source string) error {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		return fmt.Errorf("compile schema for %s: %w", cname, err)
	}
	reg.schemas.Store(cname, schema)
	return nil
}

func (reg *schemaRegistry) drop(cname string) {
	reg.schemas.Delete(cname)
}

// check validates doc against cname's schema. It returns one detail line
// per violation; a collection without a schema accepts everything.
func (reg *schemaRegistry) check(cname string, doc domain.M) ([]string, error) {
	schema, ok := reg.schemas.Load(cname)
	if !ok {
		return nil, nil
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("validate against %s schema: %w", cname, err)
	}
	if result.Valid() {
		return nil, nil
	}
	details := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return details, nil
}

// handlePutSchema registers a JSON Schema that every subsequent save into
// the collection must satisfy.
func (s *Server) handlePutSchema(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	source, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(string(source)) == "" {
		writeError(w, http.StatusBadRequest, "schema body is empty")
		return
	}
	if err := s.schemas.set(cname, string(source)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDropSchema(w http.ResponseWriter, r *http.Request) {
	s.schemas.drop(mux.Vars(r)["coll"])
	w.WriteHeader(http.StatusNoContent)
}
