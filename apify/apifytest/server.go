package apifytest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/apifykit/logger"
)

const basePath = "/v2"

// Request is a recorded incoming request. Path is relative to the API
// root and still escaped, e.g. "/acts/user~actor/runs".
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Header   http.Header
	Body     []byte
}

// URI returns the path and query as sent.
func (r Request) URI() string {
	if r.RawQuery == "" {
		return r.Path
	}
	return r.Path + "?" + r.RawQuery
}

// Failure is a scripted error response.
type Failure struct {
	Status  int
	Type    string
	Message string
	// Times limits how often the failure is served. Zero serves it forever.
	Times int
}

// Server is a fake Apify API. It is safe for concurrent use.
type Server struct {
	srv   *httptest.Server
	token string
	user  string

	mu       sync.Mutex
	requests []Request
	datasets map[string][][]any
	served   map[string]int
	runs     map[string][]map[string]any
	started  map[string]map[string]any
	lastRuns map[string]map[string]any
	failing  map[string]Failure
}

// Option configures a Server.
type Option func(*Server)

// WithToken makes the server reject requests without "Bearer <token>".
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithUsername sets the user returned by /users/me.
func WithUsername(name string) Option {
	return func(s *Server) { s.user = name }
}

// New starts a fake server and closes it when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &Server{
		user:     "tester",
		datasets: make(map[string][][]any),
		served:   make(map[string]int),
		runs:     make(map[string][]map[string]any),
		started:  make(map[string]map[string]any),
		lastRuns: make(map[string]map[string]any),
		failing:  make(map[string]Failure),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(logger.NewNop()), requestID(), s.record(), s.authenticate(), s.failures())

	v2 := r.Group(basePath)
	v2.POST("/acts/:actorId/runs", s.runActor)
	v2.GET("/acts/:actorId/runs/last", s.lastRun)
	v2.GET("/actor-runs/:runId", s.getRun)
	v2.GET("/datasets/:datasetId/items", s.datasetItems)
	v2.GET("/users/me", s.me)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "page-not-found", "Page not found")
	})
	return r
}

// URL returns the API root to use as apify.Config.BaseURL.
func (s *Server) URL() string {
	return s.srv.URL + basePath
}

// Client returns an *http.Client bound to the server.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// SetDataset scripts the pages served for a dataset. Each request gets the
// next page; the last page repeats. A nil page is served as [].
func (s *Server) SetDataset(id string, pages ...[]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[id] = pages
	s.served[id] = 0
}

// SetRun scripts the states returned by GET /actor-runs/{id}. The last
// state repeats.
func (s *Server) SetRun(id string, states ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[id] = states
}

// SetStartedRun sets the run returned when the actor is started. Without
// it a READY run with a fresh ID is returned.
func (s *Server) SetStartedRun(actorID string, run map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[actorID] = run
}

// SetLastRun sets the run returned by GET /acts/{id}/runs/last.
func (s *Server) SetLastRun(actorID string, run map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRuns[actorID] = run
}

// Fail serves f for requests matching method and path, e.g.
// Fail("GET", "/datasets/ds1/items", ...).
func (s *Server) Fail(method, path string, f Failure) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[method+" "+path] = f
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent request. It panics when there is none.
func (s *Server) LastRequest() Request {
	reqs := s.Requests()
	return reqs[len(reqs)-1]
}

func (s *Server) runActor(c *gin.Context) {
	actorID := c.Param("actorId")

	var input map[string]any
	if c.Request.ContentLength != 0 {
		if err := json.NewDecoder(c.Request.Body).Decode(&input); err != nil {
			respondError(c, http.StatusBadRequest, "invalid-input", "Input is not valid JSON")
			return
		}
	}

	s.mu.Lock()
	run, ok := s.started[actorID]
	s.mu.Unlock()
	if !ok {
		run = map[string]any{
			"id":               uuid.NewString(),
			"actId":            actorID,
			"status":           "READY",
			"defaultDatasetId": uuid.NewString(),
		}
	}
	respondData(c, http.StatusCreated, run)
}

func (s *Server) lastRun(c *gin.Context) {
	s.mu.Lock()
	run, ok := s.lastRuns[c.Param("actorId")]
	s.mu.Unlock()
	if !ok {
		respondError(c, http.StatusNotFound, "record-not-found", "Actor run was not found")
		return
	}
	if status := c.Query("status"); status != "" && run["status"] != status {
		respondError(c, http.StatusNotFound, "record-not-found", "Actor run was not found")
		return
	}
	respondData(c, http.StatusOK, run)
}

func (s *Server) getRun(c *gin.Context) {
	id := c.Param("runId")
	s.mu.Lock()
	states := s.runs[id]
	var run map[string]any
	if len(states) > 0 {
		run = states[0]
		if len(states) > 1 {
			s.runs[id] = states[1:]
		}
	}
	s.mu.Unlock()
	if run == nil {
		respondError(c, http.StatusNotFound, "record-not-found", "Actor run was not found")
		return
	}
	respondData(c, http.StatusOK, run)
}

func (s *Server) me(c *gin.Context) {
	respondData(c, http.StatusOK, map[string]any{"id": "user-1", "username": s.user})
}

func (s *Server) datasetItems(c *gin.Context) {
	id := c.Param("datasetId")
	s.mu.Lock()
	pages, ok := s.datasets[id]
	var page []any
	if ok && len(pages) > 0 {
		n := s.served[id]
		if n >= len(pages) {
			n = len(pages) - 1
		}
		page = pages[n]
		s.served[id]++
	}
	s.mu.Unlock()
	if !ok {
		respondError(c, http.StatusNotFound, "record-not-found", "Dataset was not found")
		return
	}
	if page == nil {
		page = []any{}
	}

	switch format := c.DefaultQuery("format", "json"); format {
	case "json":
		c.JSON(http.StatusOK, page)
	case "jsonl":
		var buf bytes.Buffer
		for _, item := range page {
			line, _ := json.Marshal(item)
			buf.Write(line)
			buf.WriteByte('\n')
		}
		c.Data(http.StatusOK, "application/jsonl", buf.Bytes())
	case "csv":
		c.Data(http.StatusOK, "text/csv", encodeCSV(page, c.DefaultQuery("delimiter", ","), c.Query("skipHeaderRow") == "true"))
	default:
		respondError(c, http.StatusBadRequest, "invalid-parameter", fmt.Sprintf("Format %q is not supported", format))
	}
}

// encodeCSV writes object items with a sorted union of their keys as columns.
func encodeCSV(items []any, delimiter string, skipHeader bool) []byte {
	cols := map[string]struct{}{}
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			for k := range m {
				cols[k] = struct{}{}
			}
		}
	}
	header := make([]string, 0, len(cols))
	for k := range cols {
		header = append(header, k)
	}
	sort.Strings(header)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if r := []rune(delimiter); len(r) == 1 {
		w.Comma = r[0]
	}
	if !skipHeader {
		_ = w.Write(header)
	}
	for _, item := range items {
		m, _ := item.(map[string]any)
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = cellString(m[k])
		}
		_ = w.Write(row)
	}
	w.Flush()
	return buf.Bytes()
}

func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		b, _ := json.Marshal(x)
		return strings.TrimSpace(string(b))
	}
}
