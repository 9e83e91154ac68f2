package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// MockJiraServer simulates the tracker's REST endpoints with realistic
// behavior: paginated JQL search, per-issue hydration, server info, plus
// error and throttle injection for failure-path tests.
type MockJiraServer struct {
	server             *httptest.Server
	searchRequests     int32
	issueRequests      int32
	serverInfoRequests int32
	rateLimitHits      int32
	rateLimitEvery     int32 // Every Nth search request is throttled; 0 disables
	seq                int32 // Issue ID sequence shared across projects

	mu             sync.RWMutex
	issues         map[string][]issueStub     // Ordered corpus per project key
	bodies         map[string]json.RawMessage // Full documents by issue key
	errorResponses map[string]int             // Map of URL paths to error codes
	searchStartAts []int                      // startAt of every served search page
}

// issueStub is the id/key pair the search endpoint pages through
type issueStub struct {
	id  string
	key string
}

// NewMockJiraServer creates a new mock tracker with an empty corpus
func NewMockJiraServer() *MockJiraServer {
	m := &MockJiraServer{
		issues:         make(map[string][]issueStub),
		bodies:         make(map[string]json.RawMessage),
		errorResponses: make(map[string]int),
	}

	mux := http.NewServeMux()

	// Paginated JQL search endpoint
	mux.HandleFunc("/rest/api/2/search", m.handleSearch)

	// Single issue hydration endpoint
	mux.HandleFunc("/rest/api/2/issue/", m.handleIssue)

	// Connectivity check endpoint
	mux.HandleFunc("/rest/api/2/serverInfo", m.handleServerInfo)

	m.server = httptest.NewServer(mux)
	return m
}

// SeedProject registers count generated issues for a project, keyed
// PROJECT-1 through PROJECT-count in creation order
func (m *MockJiraServer) SeedProject(project string, count int) {
	for i := 1; i <= count; i++ {
		key := fmt.Sprintf("%s-%d", project, i)
		id := strconv.Itoa(10000 + int(atomic.AddInt32(&m.seq, 1)))
		m.SeedIssue(project, key, id, m.issueDocument(project, key, id, i))
	}
}

// SeedIssue registers a single issue with a caller-supplied body. The
// body is served verbatim by the issue endpoint.
func (m *MockJiraServer) SeedIssue(project, key, id string, body []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[project] = append(m.issues[project], issueStub{id: id, key: key})
	m.bodies[key] = json.RawMessage(body)
}

// issueDocument builds a full issue body in the shape the tracker returns
func (m *MockJiraServer) issueDocument(project, key, id string, n int) []byte {
	doc := map[string]interface{}{
		"id":   id,
		"key":  key,
		"self": m.server.URL + "/rest/api/2/issue/" + id,
		"fields": map[string]interface{}{
			"summary":     fmt.Sprintf("Mock issue %d for %s", n, project),
			"description": fmt.Sprintf("Generated description for issue %d.", n),
			"project": map[string]interface{}{
				"id":   "12315420",
				"key":  project,
				"name": project,
			},
			"status":    map[string]interface{}{"name": "Open"},
			"priority":  map[string]interface{}{"name": "Major"},
			"issuetype": map[string]interface{}{"name": "Bug"},
			"labels":    []string{"integration"},
			"created":   "2024-03-01T10:00:00.000+0000",
			"updated":   "2024-03-02T10:00:00.000+0000",
			"comment": map[string]interface{}{
				"comments": []map[string]interface{}{
					{
						"id":      fmt.Sprintf("%s-c1", id),
						"body":    fmt.Sprintf("First comment on %s.", key),
						"author":  map[string]interface{}{"name": "tester", "displayName": "Test User"},
						"created": "2024-03-01T11:00:00.000+0000",
					},
				},
				"total": 1,
			},
		},
	}
	data, _ := json.Marshal(doc)
	return data
}

// handleSearch serves one page of issue stubs for the requested offset
func (m *MockJiraServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.searchRequests, 1)

	// Check for configured errors
	if code := m.getErrorResponse(r.URL.Path); code > 0 {
		m.sendError(w, code, "search")
		return
	}

	// Simulate rate limiting
	if m.shouldRateLimit() {
		atomic.AddInt32(&m.rateLimitHits, 1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errorMessages": []string{"Rate limit exceeded."},
			"errors":        map[string]string{},
		})
		return
	}

	project := projectFromJQL(r.URL.Query().Get("jql"))
	startAt, _ := strconv.Atoi(r.URL.Query().Get("startAt"))
	maxResults, _ := strconv.Atoi(r.URL.Query().Get("maxResults"))
	if startAt < 0 {
		startAt = 0
	}
	if maxResults <= 0 {
		maxResults = 50
	}

	m.mu.Lock()
	m.searchStartAts = append(m.searchStartAts, startAt)
	corpus := m.issues[project]
	m.mu.Unlock()

	low := startAt
	if low > len(corpus) {
		low = len(corpus)
	}
	high := startAt + maxResults
	if high > len(corpus) {
		high = len(corpus)
	}

	stubs := make([]map[string]interface{}, 0, high-low)
	for _, stub := range corpus[low:high] {
		stubs = append(stubs, map[string]interface{}{
			"id":   stub.id,
			"key":  stub.key,
			"self": m.server.URL + "/rest/api/2/issue/" + stub.id,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"expand":     "schema,names",
		"startAt":    startAt,
		"maxResults": maxResults,
		"total":      len(corpus),
		"issues":     stubs,
	})
}

// handleIssue serves the full document for one issue key
func (m *MockJiraServer) handleIssue(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.issueRequests, 1)

	// Check for configured errors
	if code := m.getErrorResponse(r.URL.Path); code > 0 {
		m.sendError(w, code, r.URL.Path)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/rest/api/2/issue/")

	m.mu.RLock()
	body, ok := m.bodies[key]
	m.mu.RUnlock()

	if !ok {
		m.sendError(w, http.StatusNotFound, key)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// handleServerInfo serves the connectivity check document
func (m *MockJiraServer) handleServerInfo(w http.ResponseWriter, r *http.Request) {
	atomic.AddInt32(&m.serverInfoRequests, 1)

	if code := m.getErrorResponse(r.URL.Path); code > 0 {
		m.sendError(w, code, "serverInfo")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"baseUrl":        m.server.URL,
		"version":        "9.12.15",
		"versionNumbers": []int{9, 12, 15},
		"deploymentType": "Server",
		"serverTitle":    "Mock Tracker",
	})
}

// sendError sends a tracker-shaped error response
func (m *MockJiraServer) sendError(w http.ResponseWriter, code int, context string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errorMessages": []string{"You do not have the permission to see the specified issue.", "Login Required"},
			"errors":        map[string]string{},
		})
	case http.StatusNotFound:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errorMessages": []string{fmt.Sprintf("Issue Does Not Exist: %s", context)},
			"errors":        map[string]string{},
		})
	default:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errorMessages": []string{fmt.Sprintf("Error %d", code)},
			"errors":        map[string]string{},
		})
	}
}

// projectFromJQL pulls the project key out of the fixed per-project query
func projectFromJQL(jql string) string {
	fields := strings.Fields(jql)
	if len(fields) >= 3 && fields[0] == "project" && fields[1] == "=" {
		return fields[2]
	}
	return ""
}

// SetErrorResponse configures a URL path to return a specific error code
func (m *MockJiraServer) SetErrorResponse(path string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorResponses[path] = code
}

// ClearErrorResponse removes error configuration for a URL path
func (m *MockJiraServer) ClearErrorResponse(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.errorResponses, path)
}

// getErrorResponse checks if an error is configured for the URL path
func (m *MockJiraServer) getErrorResponse(path string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errorResponses[path]
}

// EnableRateLimiting makes every Nth search request return 429. Zero
// turns throttling off.
func (m *MockJiraServer) EnableRateLimiting(every int) {
	atomic.StoreInt32(&m.rateLimitEvery, int32(every))
}

// shouldRateLimit determines if a search request should be throttled
func (m *MockJiraServer) shouldRateLimit() bool {
	every := atomic.LoadInt32(&m.rateLimitEvery)
	if every <= 0 {
		return false
	}
	return atomic.LoadInt32(&m.searchRequests)%every == 0
}

// GetURL returns the base URL of the mock server
func (m *MockJiraServer) GetURL() string {
	return m.server.URL
}

// GetSearchRequestCount returns the number of search requests seen
func (m *MockJiraServer) GetSearchRequestCount() int {
	return int(atomic.LoadInt32(&m.searchRequests))
}

// GetIssueRequestCount returns the number of issue hydration requests seen
func (m *MockJiraServer) GetIssueRequestCount() int {
	return int(atomic.LoadInt32(&m.issueRequests))
}

// GetServerInfoRequestCount returns the number of connectivity checks seen
func (m *MockJiraServer) GetServerInfoRequestCount() int {
	return int(atomic.LoadInt32(&m.serverInfoRequests))
}

// GetRateLimitHits returns the number of throttled responses served
func (m *MockJiraServer) GetRateLimitHits() int {
	return int(atomic.LoadInt32(&m.rateLimitHits))
}

// SearchStartAts returns the offset of every search page served so far,
// in request order
func (m *MockJiraServer) SearchStartAts() []int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]int, len(m.searchStartAts))
	copy(out, m.searchStartAts)
	return out
}

// ResetCounters resets all request counters and the recorded offsets
func (m *MockJiraServer) ResetCounters() {
	atomic.StoreInt32(&m.searchRequests, 0)
	atomic.StoreInt32(&m.issueRequests, 0)
	atomic.StoreInt32(&m.serverInfoRequests, 0)
	atomic.StoreInt32(&m.rateLimitHits, 0)
	m.mu.Lock()
	m.searchStartAts = nil
	m.mu.Unlock()
}

// Close shuts down the mock server
func (m *MockJiraServer) Close() {
	m.server.Close()
}
