package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gorilla/mux"

	"github.com/dossierdb/dossier/domain"
)

// handleHealth reports liveness and whether the database is open.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, domain.M{"status": "ok", "open": s.db.IsOpen()})
}

// handleMetrics exposes the accumulated metrics in Prometheus text format.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	metrics.WritePrometheus(w, true)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Sync(r.Context()); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleEnsureCollection creates the collection. The optional body carries
// creation options; they apply on first creation only.
func (s *Server) handleEnsureCollection(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	var body domain.CollectionOptions
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed options body: %v", err))
		return
	}
	var options []domain.CollectionOption
	if body.Large {
		options = append(options, domain.WithCollectionLarge(true))
	}
	if body.Compressed {
		options = append(options, domain.WithCollectionCompressed(true))
	}
	if body.ExpectedRecords > 0 {
		options = append(options, domain.WithCollectionExpectedRecords(body.ExpectedRecords))
	}
	if body.CachedRecords > 0 {
		options = append(options, domain.WithCollectionCachedRecords(body.CachedRecords))
	}

	if err := s.db.EnsureCollection(r.Context(), cname, options...); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveCollection(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]
	prune, _ := strconv.ParseBool(r.URL.Query().Get("prune"))

	if err := s.db.RemoveCollection(r.Context(), cname, prune); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSaveDocuments upserts the posted document, or every document of
// the posted array, and answers with the assigned identifiers in
// submission order.
func (s *Server) handleSaveDocuments(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	var body any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed document body: %v", err))
		return
	}
	var docs []any
	switch v := body.(type) {
	case map[string]any:
		docs = []any{v}
	case []any:
		docs = v
	default:
		writeError(w, http.StatusBadRequest, "document body must be an object or an array of objects")
		return
	}

	for _, doc := range docs {
		obj, ok := doc.(map[string]any)
		if !ok {
			writeError(w, http.StatusBadRequest, "document body must be an object or an array of objects")
			return
		}
		details, err := s.schemas.check(cname, obj)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(details) > 0 {
			writeSchemaError(w, details)
			return
		}
	}

	ids, err := s.db.Save(r.Context(), cname, docs...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, domain.M{"ids": ids})
}

func (s *Server) handleLoadDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	doc, err := s.db.Load(r.Context(), vars["coll"], vars["id"])
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no document %s in collection %s", vars["id"], vars["coll"]))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleRemoveDocument(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := s.db.Remove(r.Context(), vars["coll"], vars["id"]); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleIndexes applies one index maintenance operation described by the
// body, for example {"path": "name", "kind": "string", "op": "ensure"}.
// Kinds are string, istring, number and array; ops are ensure, rebuild
// and drop, plus the kind-independent dropall and optimize.
func (s *Server) handleIndexes(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	var body struct {
		Path string `json:"path"`
		Kind string `json:"kind"`
		Op   string `json:"op"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("malformed index body: %v", err))
		return
	}
	if body.Path == "" {
		writeError(w, http.StatusBadRequest, "index body needs a path")
		return
	}

	op, err := s.indexOp(body.Kind, body.Op)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := op(r.Context(), cname, body.Path); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// indexOp resolves the database call for one kind/op pair.
func (s *Server) indexOp(kind, op string) (func(context.Context, string, string) error, error) {
	switch op {
	case "dropall":
		return s.db.DropIndexes, nil
	case "optimize":
		return s.db.OptimizeIndexes, nil
	}

	type ops struct {
		ensure, rebuild, drop func(context.Context, string, string) error
	}
	var kindOps ops
	switch kind {
	case "string":
		kindOps = ops{s.db.EnsureStringIndex, s.db.RebuildStringIndex, s.db.DropStringIndex}
	case "istring":
		kindOps = ops{s.db.EnsureIStringIndex, s.db.RebuildIStringIndex, s.db.DropIStringIndex}
	case "number":
		kindOps = ops{s.db.EnsureNumberIndex, s.db.RebuildNumberIndex, s.db.DropNumberIndex}
	case "array":
		kindOps = ops{s.db.EnsureArrayIndex, s.db.RebuildArrayIndex, s.db.DropArrayIndex}
	default:
		return nil, fmt.Errorf("unknown index kind %q", kind)
	}

	switch op {
	case "ensure":
		return kindOps.ensure, nil
	case "rebuild":
		return kindOps.rebuild, nil
	case "drop":
		return kindOps.drop, nil
	default:
		return nil, fmt.Errorf("unknown index op %q", op)
	}
}
