package services

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// roundTripper returns a canned response or error.
type roundTripper struct {
	resp *http.Response
	err  error
}

func (r roundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return r.resp, r.err
}

// failingBody fails every read.
type failingBody struct{}

func (failingBody) Read([]byte) (int, error) { return 0, fmt.Errorf("read failed") }
func (failingBody) Close() error             { return nil }

// fakeBackend is an in-memory stand-in for the data API, auth and storage endpoints.
// Rows are stored exactly as the embed-shaped JSON the real API would return.
type fakeBackend struct {
	t *testing.T

	mu       sync.Mutex
	tables   map[string][]map[string]any
	nextID   int
	requests []*http.Request
	uploads  map[string][]byte
	users    map[string]string // email -> password
	issued   int
	failPath string // requests whose path contains failPath get a 500
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		t:       t,
		tables:  map[string][]map[string]any{},
		uploads: map[string][]byte{},
		users:   map[string]string{},
	}
	srv := httptest.NewServer(http.HandlerFunc(fb.serve))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) seed(table string, rows ...map[string]any) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.tables[table] = append(fb.tables[table], rows...)
}

func (fb *fakeBackend) rows(table string) []map[string]any {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]map[string]any(nil), fb.tables[table]...)
}

func (fb *fakeBackend) lastRequest() *http.Request {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if len(fb.requests) == 0 {
		return nil
	}
	return fb.requests[len(fb.requests)-1]
}

func (fb *fakeBackend) serve(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.requests = append(fb.requests, r.Clone(r.Context()))
	fail := fb.failPath != "" && strings.Contains(r.URL.Path, fb.failPath)
	fb.mu.Unlock()

	if r.Header.Get("apikey") == "" {
		http.Error(w, `{"message":"no api key"}`, http.StatusUnauthorized)
		return
	}
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message":"boom"}`))
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, restPrefix):
		fb.serveRest(w, r, strings.TrimPrefix(r.URL.Path, restPrefix))
	case strings.HasPrefix(r.URL.Path, authPrefix):
		fb.serveAuth(w, r, strings.TrimPrefix(r.URL.Path, authPrefix))
	case strings.HasPrefix(r.URL.Path, storagePrefix):
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.uploads[strings.TrimPrefix(r.URL.Path, storagePrefix)] = body
		fb.mu.Unlock()
		w.Write([]byte(`{"Key":"ok"}`))
	default:
		http.NotFound(w, r)
	}
}

func filters(r *http.Request) map[string]string {
	out := map[string]string{}
	for k, vs := range r.URL.Query() {
		switch k {
		case "select", "order", "limit":
			continue
		}
		out[k] = strings.TrimPrefix(vs[0], "eq.")
	}
	return out
}

func matches(row map[string]any, f map[string]string) bool {
	for col, want := range f {
		if fmt.Sprint(row[col]) != want {
			return false
		}
	}
	return true
}

func (fb *fakeBackend) serveRest(w http.ResponseWriter, r *http.Request, table string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	f := filters(r)
	single := r.Header.Get("Accept") == singleObjectMediaType

	var matched []map[string]any
	for _, row := range fb.tables[table] {
		if matches(row, f) {
			matched = append(matched, row)
		}
	}
	if lim, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && lim < len(matched) {
		matched = matched[:lim]
	}

	switch r.Method {
	case http.MethodHead:
		w.Header().Set("Content-Range", fmt.Sprintf("*/%d", len(matched)))
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		writeRows(w, matched, single)
	case http.MethodPost:
		var rows []map[string]any
		if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
			http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
			return
		}
		for _, row := range rows {
			if _, ok := row["id"]; !ok {
				fb.nextID++
				row["id"] = fmt.Sprintf("gen-%d", fb.nextID)
			}
			row["created_at"] = time.Date(2025, 1, 1, 12, 0, fb.nextID, 0, time.UTC).Format(time.RFC3339)
			fb.tables[table] = append(fb.tables[table], row)
		}
		if strings.Contains(r.Header.Get("Prefer"), "return=representation") {
			w.WriteHeader(http.StatusCreated)
			writeRows(w, rows, single)
			return
		}
		w.WriteHeader(http.StatusCreated)
	case http.MethodPatch:
		var patch map[string]any
		json.NewDecoder(r.Body).Decode(&patch)
		for _, row := range matched {
			for k, v := range patch {
				row[k] = v
			}
		}
		w.WriteHeader(http.StatusNoContent)
	case http.MethodDelete:
		kept := fb.tables[table][:0]
		for _, row := range fb.tables[table] {
			if !matches(row, f) {
				kept = append(kept, row)
			}
		}
		fb.tables[table] = kept
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeRows(w http.ResponseWriter, rows []map[string]any, single bool) {
	w.Header().Set("Content-Type", "application/json")
	if !single {
		if rows == nil {
			rows = []map[string]any{}
		}
		json.NewEncoder(w).Encode(rows)
		return
	}
	if len(rows) != 1 {
		w.WriteHeader(http.StatusNotAcceptable)
		w.Write([]byte(`{"message":"JSON object requested, multiple (or no) rows returned"}`))
		return
	}
	json.NewEncoder(w).Encode(rows[0])
}

func (fb *fakeBackend) tokenPayload(email string, expiresIn int) map[string]any {
	fb.issued++
	return map[string]any{
		"access_token":  fmt.Sprintf("access-%d", fb.issued),
		"token_type":    "bearer",
		"expires_in":    expiresIn,
		"refresh_token": fmt.Sprintf("refresh-%d", fb.issued),
		"user":          map[string]any{"id": "user-" + email, "email": email},
	}
}

func (fb *fakeBackend) serveAuth(w http.ResponseWriter, r *http.Request, path string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case path == "/signup":
		email := body["email"].(string)
		fb.users[email] = body["password"].(string)
		json.NewEncoder(w).Encode(fb.tokenPayload(email, 3600))
	case path == "/logout":
		w.WriteHeader(http.StatusNoContent)
	case path == "/token":
		switch r.URL.Query().Get("grant_type") {
		case "password":
			email, _ := body["email"].(string)
			if pw, ok := fb.users[email]; !ok || pw != body["password"] {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant","error_description":"Invalid login credentials"}`))
				return
			}
			json.NewEncoder(w).Encode(fb.tokenPayload(email, 3600))
		case "refresh_token":
			if !strings.HasPrefix(fmt.Sprint(body["refresh_token"]), "refresh-") {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			json.NewEncoder(w).Encode(fb.tokenPayload("refreshed@example.com", 3600))
		case "pkce":
			if body["auth_code"] != "good-code" || body["code_verifier"] == "" {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":"invalid_grant"}`))
				return
			}
			json.NewEncoder(w).Encode(fb.tokenPayload("provider@example.com", 3600))
		}
	default:
		http.NotFound(w, r)
	}
}
