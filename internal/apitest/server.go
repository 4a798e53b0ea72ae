// Package apitest provides a small in-memory REST backend for exercising
// the HTTP transport and the end-to-end dispatch flow in tests. It keeps a
// single resource collection behind a chi router and supports scripted
// failures for exercising rollback paths.
package apitest

import (
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/arfordweb/redux-auto-api/pkg/collection"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is one in-memory resource collection exposed over REST:
//
//	GET    /  -> {"data": [...]} in insertion order, ?field=value filters
//	POST   /  -> create records from a JSON array, ids assigned if missing
//	PATCH  /  -> merge patches by id, 404 if any id is unknown
//	DELETE /  -> remove records by id
type Server struct {
	mu       sync.Mutex
	idKey    string
	items    map[string]collection.Resource
	order    []string
	failNext map[string]int
	handler  http.Handler
}

// NewServer creates a server keyed by idKey, pre-populated with seed.
func NewServer(idKey string, seed ...collection.Resource) *Server {
	s := &Server{
		idKey:    idKey,
		items:    map[string]collection.Resource{},
		failNext: map[string]int{},
	}
	for _, r := range seed {
		if id, ok := r.ID(idKey); ok {
			s.items[id] = r
			s.order = append(s.order, id)
		}
	}

	r := chi.NewRouter()
	r.Get("/", s.list)
	r.Post("/", s.create)
	r.Patch("/", s.patch)
	r.Delete("/", s.remove)
	s.handler = r

	return s
}

// Handler returns the HTTP handler, for use with httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// FailNext makes the next request of the given method fail with the code.
func (s *Server) FailNext(method string, code int) {
	s.mu.Lock()
	s.failNext[method] = code
	s.mu.Unlock()
}

// Len returns the number of stored records.
func (s *Server) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Record returns a stored record by id.
func (s *Server) Record(id string) (collection.Resource, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	return r, ok
}

func (s *Server) scripted(w http.ResponseWriter, method string) bool {
	s.mu.Lock()
	code, ok := s.failNext[method]
	if ok {
		delete(s.failNext, method)
	}
	s.mu.Unlock()
	if ok {
		http.Error(w, http.StatusText(code), code)
		return true
	}
	return false
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, http.MethodGet) {
		return
	}
	query := r.URL.Query()

	s.mu.Lock()
	var out []collection.Resource
	for _, id := range s.order {
		item, ok := s.items[id]
		if !ok {
			continue
		}
		match := true
		for k, vs := range query {
			if got, ok := item[k]; !ok || len(vs) == 0 || toString(got) != vs[0] {
				match = false
				break
			}
		}
		if match {
			out = append(out, item)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": out})
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, http.MethodPost) {
		return
	}
	records, ok := readRecords(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	created := make([]collection.Resource, 0, len(records))
	for _, record := range records {
		id, ok := record.ID(s.idKey)
		if !ok {
			id = uuid.NewString()
			record = record.Merge(collection.Resource{s.idKey: id})
		}
		if _, exists := s.items[id]; exists {
			s.mu.Unlock()
			http.Error(w, "duplicate id "+id, http.StatusConflict)
			return
		}
		s.items[id] = record
		s.order = append(s.order, id)
		created = append(created, record)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"data": created})
}

func (s *Server) patch(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, http.MethodPatch) {
		return
	}
	patches, ok := readRecords(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	merged := make([]collection.Resource, 0, len(patches))
	for _, patch := range patches {
		id, ok := patch.ID(s.idKey)
		if !ok {
			s.mu.Unlock()
			http.Error(w, "patch record missing id", http.StatusBadRequest)
			return
		}
		existing, ok := s.items[id]
		if !ok {
			s.mu.Unlock()
			http.Error(w, "no record "+id, http.StatusNotFound)
			return
		}
		next := existing.Merge(patch)
		s.items[id] = next
		merged = append(merged, next)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"data": merged})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	if s.scripted(w, http.MethodDelete) {
		return
	}
	records, ok := readRecords(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	for _, record := range records {
		id, ok := record.ID(s.idKey)
		if !ok {
			s.mu.Unlock()
			http.Error(w, "delete record missing id", http.StatusBadRequest)
			return
		}
		if _, exists := s.items[id]; !exists {
			s.mu.Unlock()
			http.Error(w, "no record "+id, http.StatusNotFound)
			return
		}
		delete(s.items, id)
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func readRecords(w http.ResponseWriter, r *http.Request) ([]collection.Resource, bool) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	var records []collection.Resource
	if err := json.Unmarshal(raw, &records); err != nil {
		http.Error(w, "request body must be a JSON array", http.StatusBadRequest)
		return nil, false
	}
	return records, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	raw, _ := json.Marshal(v)
	_, _ = w.Write(raw)
}

func toString(v any) string {
	if s, ok := collection.IDString(v); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
