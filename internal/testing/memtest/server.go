// Package memtest provides an in-process fake of the remote memory service
// for tests.
package memtest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/rcliao/agent-recall/internal/model"
)

// Request is a recorded call to the fake.
type Request struct {
	Method string
	Path   string
	Body   []byte
}

// RecallFunc selects recall results for a query, most relevant first.
type RecallFunc func(query string, memories []model.Memory) []model.Memory

// Server is a fake memory service. Its zero configuration accepts every
// request; the exported fields change behaviour for failure tests.
type Server struct {
	*httptest.Server

	// RejectMission answers 422 to ensure requests that carry a mission.
	RejectMission bool
	// RejectRetain makes retain succeed with zero accepted items.
	RejectRetain bool
	// DeleteNoContent answers successful deletes with 204 and no body.
	DeleteNoContent bool
	// Recall overrides the default word-overlap matching.
	Recall RecallFunc

	mu       sync.Mutex
	banks    map[string]*bank
	requests []Request
	failures map[string]int
	nextID   int
}

type bank struct {
	info     model.BankInfo
	memories []model.Memory
}

// New starts a fake service that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		banks:    make(map[string]*bank),
		failures: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("PUT /v1/{ns}/banks/{bank}", s.handleEnsure)
	mux.HandleFunc("POST /v1/{ns}/banks/{bank}/memories", s.handleRetain)
	mux.HandleFunc("POST /v1/{ns}/banks/{bank}/memories/recall", s.handleRecall)
	mux.HandleFunc("GET /v1/{ns}/banks/{bank}/memories/list", s.handleList)
	mux.HandleFunc("GET /v1/{ns}/banks/{bank}/memories/{mid}", s.handleGet)
	mux.HandleFunc("DELETE /v1/{ns}/banks/{bank}/memories/{mid}", s.handleDelete)
	mux.HandleFunc("POST /v1/{ns}/banks/{bank}/reflect", s.handleReflect)
	mux.HandleFunc("GET /v1/{ns}/banks/{bank}/entities", s.handleEntities)

	s.Server = httptest.NewServer(s.record(mux))
	t.Cleanup(s.Close)
	return s
}

// Fail makes every request matching method and path answer with status.
// Path is the URL path without query, e.g. "/v1/default/banks/b/memories".
func (s *Server) Fail(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = status
}

// Seed stores memories directly, creating the bank if needed. Memories
// without an ID get one assigned.
func (s *Server) Seed(bankID string, memories ...model.Memory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bankLocked(bankID)
	for _, m := range memories {
		if m.ID == "" {
			m.ID = s.newIDLocked()
		}
		b.memories = append(b.memories, m)
	}
}

// Memories returns a copy of the memories stored in a bank.
func (s *Server) Memories(bankID string) []model.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banks[bankID]
	if !ok {
		return nil
	}
	return append([]model.Memory(nil), b.memories...)
}

// HasBank reports whether the bank was created.
func (s *Server) HasBank(bankID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.banks[bankID]
	return ok
}

// Requests returns every recorded request in arrival order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns how many requests matched method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: body})
		status, fail := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if fail {
			http.Error(w, fmt.Sprintf(`{"detail":"injected failure %d"}`, status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleEnsure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mission string `json:"mission"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	if s.RejectMission && req.Mission != "" {
		http.Error(w, `{"detail":"unknown field: mission"}`, http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	b := s.bankLocked(r.PathValue("bank"))
	if req.Mission != "" {
		b.info.Mission = req.Mission
	}
	info := b.info
	s.mu.Unlock()

	writeJSON(w, info)
}

func (s *Server) handleRetain(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []model.CaptureItem `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bankID := r.PathValue("bank")
	if s.RejectRetain {
		writeJSON(w, model.RetainResult{Success: true, BankID: bankID})
		return
	}

	s.mu.Lock()
	b := s.bankLocked(bankID)
	for _, item := range req.Items {
		b.memories = append(b.memories, model.Memory{
			ID:         s.newIDLocked(),
			Text:       item.Content,
			Kind:       model.KindExperience,
			Context:    item.Context,
			DocumentID: item.DocumentID,
		})
	}
	s.mu.Unlock()

	writeJSON(w, model.RetainResult{Success: true, BankID: bankID, ItemsCount: len(req.Items)})
}

func (s *Server) handleRecall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	recall := s.Recall
	if recall == nil {
		recall = WordOverlap
	}
	results := recall(req.Query, s.Memories(r.PathValue("bank")))
	if req.Limit > 0 && len(results) > req.Limit {
		results = results[:req.Limit]
	}
	if results == nil {
		results = []model.Memory{}
	}
	writeJSON(w, model.RecallResult{Results: results})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	mems := s.Memories(r.PathValue("bank"))
	total := len(mems)
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit > 0 && limit < len(mems) {
		mems = mems[:limit]
	}
	if mems == nil {
		mems = []model.Memory{}
	}
	writeJSON(w, model.ListResult{Items: mems, Total: total})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	for _, m := range s.Memories(r.PathValue("bank")) {
		if m.ID == r.PathValue("mid") {
			writeJSON(w, m)
			return
		}
	}
	http.Error(w, `{"detail":"memory not found"}`, http.StatusNotFound)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.banks[r.PathValue("bank")]
	if ok {
		for i, m := range b.memories {
			if m.ID == r.PathValue("mid") {
				b.memories = append(b.memories[:i], b.memories[i+1:]...)
				if s.DeleteNoContent {
					w.WriteHeader(http.StatusNoContent)
					return
				}
				writeJSON(w, model.DeleteResult{Success: true})
				return
			}
		}
	}
	http.Error(w, `{"detail":"memory not found"}`, http.StatusNotFound)
}

func (s *Server) handleReflect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)
	sources := WordOverlap(req.Query, s.Memories(r.PathValue("bank")))
	answer := "I don't have enough information to answer that."
	if len(sources) > 0 {
		answer = "Based on what I remember: " + sources[0].Text
	}
	writeJSON(w, model.ReflectResult{Answer: answer, Sources: sources})
}

func (s *Server) handleEntities(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int{}
	for _, m := range s.Memories(r.PathValue("bank")) {
		for _, e := range m.Entities {
			counts[e]++
		}
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	list := model.EntityList{Items: []model.Entity{}}
	for _, name := range names {
		list.Items = append(list.Items, model.Entity{ID: "ent-" + name, CanonicalName: name, MentionCount: counts[name]})
	}
	writeJSON(w, list)
}

func (s *Server) bankLocked(id string) *bank {
	b, ok := s.banks[id]
	if !ok {
		b = &bank{info: model.BankInfo{BankID: id, Name: id}}
		s.banks[id] = b
	}
	return b
}

func (s *Server) newIDLocked() string {
	s.nextID++
	return fmt.Sprintf("mem-%d", s.nextID)
}

// All is a RecallFunc that returns every memory in stored order.
func All(_ string, memories []model.Memory) []model.Memory {
	return memories
}

// WordOverlap returns memories sharing at least one word of four or more
// letters with the query, in stored order.
func WordOverlap(query string, memories []model.Memory) []model.Memory {
	words := significantWords(query)
	var out []model.Memory
	for _, m := range memories {
		for w := range significantWords(m.Text) {
			if words[w] {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

func significantWords(s string) map[string]bool {
	words := map[string]bool{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if len(f) >= 4 {
			words[f] = true
		}
	}
	return words
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
