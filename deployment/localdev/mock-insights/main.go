// mock-insights is a local stand-in for the log query service. It accepts
// query submissions and serves synthetic chronological rows, capped at the
// requested limit so the window splitter can be exercised end to end.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"
)

type startQueryRequest struct {
	LogGroup    string `json:"logGroup"`
	StartTime   int64  `json:"startTime"`
	EndTime     int64  `json:"endTime"`
	QueryString string `json:"queryString"`
	Limit       int    `json:"limit"`
}

type fieldValue struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type storedQuery struct {
	request   startQueryRequest
	submitted time.Time
}

type server struct {
	mu      sync.Mutex
	queries map[string]storedQuery
	nextID  int

	// recordsPerSecond controls synthetic density; raise it to force the
	// client into window bisection.
	recordsPerSecond float64
}

func main() {
	srv := &server{
		queries:          make(map[string]storedQuery),
		recordsPerSecond: 2.0,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/queries", srv.handleStartQuery)
	mux.HandleFunc("/v1/queries/", srv.handleQueryResults)

	log.Println("mock-insights listening on :8090")
	log.Fatal(http.ListenAndServe(":8090", mux))
}

func (s *server) handleStartQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req startQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	if strings.Contains(req.QueryString, "malformed") {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    "MalformedQueryException",
			"message": "query could not be parsed",
		})
		return
	}

	s.mu.Lock()
	s.nextID++
	id := fmt.Sprintf("q-%d", s.nextID)
	s.queries[id] = storedQuery{request: req, submitted: time.Now()}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"queryId": id})
}

func (s *server) handleQueryResults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/v1/queries/"), "/results")

	s.mu.Lock()
	stored, ok := s.queries[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"code":    "QueryNotFound",
			"message": "unknown query id",
		})
		return
	}

	// One poll cycle of simulated scheduling latency.
	if time.Since(stored.submitted) < 500*time.Millisecond {
		writeJSON(w, http.StatusOK, map[string]any{"status": "Running"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "Complete",
		"results": s.syntheticRows(stored.request),
	})
}

func (s *server) syntheticRows(req startQueryRequest) [][]fieldValue {
	seconds := req.EndTime - req.StartTime
	if seconds < 0 {
		seconds = 0
	}
	count := int(float64(seconds) * s.recordsPerSecond)
	if req.Limit > 0 && count > req.Limit {
		count = req.Limit
	}

	rows := make([][]fieldValue, 0, count)
	for i := 0; i < count; i++ {
		ts := time.Unix(req.StartTime, 0).UTC().Add(time.Duration(i) * time.Second / 2)
		severity := "INFO"
		message := fmt.Sprintf("request handled in %dms", 20+i%180)
		if i%97 == 0 {
			severity = "ERROR"
			message = "db connection pool exhausted: Timeout acquiring connection\n  at pool.acquire (pool.go:112)"
		}
		rows = append(rows, []fieldValue{
			{Field: "@timestamp", Value: ts.Format("2006-01-02 15:04:05.000")},
			{Field: "@message", Value: fmt.Sprintf("[%s] %s", severity, message)},
			{Field: "@ptr", Value: fmt.Sprintf("ptr-%s-%d", req.LogGroup, i)},
		})
	}
	return rows
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
