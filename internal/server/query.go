package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/dossierdb/dossier/domain"
)

// queryBody is the JSON request shared by the query, count and update
// routes.
type queryBody struct {
	Query domain.M   `json:"query"`
	Or    []domain.M `json:"or"`
	Hints *hintsBody `json:"hints"`
}

type hintsBody struct {
	Max     int64      `json:"max"`
	Skip    int64      `json:"skip"`
	OrderBy []sortBody `json:"orderby"`
	Fields  []string   `json:"fields"`
}

type sortBody struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// decodeQuery parses the shared query body. An empty body is the
// match-all query.
func decodeQuery(body io.Reader) (domain.M, []domain.QueryOption, error) {
	var req queryBody
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.M{}, nil, nil
		}
		return nil, nil, fmt.Errorf("malformed query body: %v", err)
	}

	var options []domain.QueryOption
	for _, or := range req.Or {
		options = append(options, domain.WithOr(or))
	}
	if h := req.Hints; h != nil {
		if h.Max > 0 {
			options = append(options, domain.WithLimit(h.Max))
		}
		if h.Skip > 0 {
			options = append(options, domain.WithSkip(h.Skip))
		}
		for _, key := range h.OrderBy {
			options = append(options, domain.WithOrderBy(key.Field, key.Desc))
		}
		if len(h.Fields) > 0 {
			options = append(options, domain.WithFields(h.Fields...))
		}
	}
	if req.Query == nil {
		req.Query = domain.M{}
	}
	return req.Query, options, nil
}

// handleQuery streams every matching document as one NDJSON line. The
// matching total rides in the X-Total-Count header.
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	query, options, err := decodeQuery(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	cur, err := s.db.Find(r.Context(), cname, query, options...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	defer cur.Close()

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("X-Total-Count", strconv.FormatInt(cur.Count(), 10))
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	for cur.Next() {
		if err := enc.Encode(cur.Document()); err != nil {
			s.logger.Error("query stream aborted", "collection", cname, "err", err)
			return
		}
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
	if err := cur.Err(); err != nil {
		s.logger.Error("query iteration failed", "collection", cname, "err", err)
	}
}

func (s *Server) handleCount(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	query, options, err := decodeQuery(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, err := s.db.Count(r.Context(), cname, query, options...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.M{"count": n})
}

// handleUpdate applies the mutation operators carried in the query and
// answers with the affected count and the engine's diagnostic log.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	cname := mux.Vars(r)["coll"]

	query, options, err := decodeQuery(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	n, log, err := s.db.Update(r.Context(), cname, query, options...)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.M{"count": n, "log": log})
}
