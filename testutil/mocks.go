// Package testutil provides mock Twitch Helix and Discord webhook servers for
// tests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// RewriteTransport redirects every request to Host, so clients that talk to
// hardcoded production endpoints resolve to a local httptest server instead.
type RewriteTransport struct {
	Transport http.RoundTripper
	Host      string
}

func (t *RewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	u, err := url.Parse(t.Host)
	if err != nil {
		return nil, err
	}
	req.URL.Scheme = u.Scheme
	req.URL.Host = u.Host
	return t.Transport.RoundTrip(req)
}

// MockTwitchServer creates a test server that mocks Twitch Helix API
// responses, keyed by URL path.
type MockTwitchServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockTwitchServer creates a new mock Twitch API server.
func NewMockTwitchServer(t *testing.T) *MockTwitchServer {
	t.Helper()
	m := &MockTwitchServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// Client returns an HTTP client whose requests all resolve to this server,
// regardless of the host the caller dialed.
func (m *MockTwitchServer) Client() *http.Client {
	return &http.Client{Transport: &RewriteTransport{Transport: http.DefaultTransport, Host: m.URL}}
}

// MockOAuthTokenResponse adds a handler for the OAuth token endpoint.
func (m *MockTwitchServer) MockOAuthTokenResponse(accessToken string, expiresIn int) {
	m.Handlers["/oauth2/token"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, map[string]any{
			"access_token": accessToken,
			"expires_in":   expiresIn,
			"token_type":   "bearer",
		})
	}
}

// MockUsersResponse adds a handler for /helix/users.
func (m *MockTwitchServer) MockUsersResponse(users []map[string]any) {
	m.Handlers["/helix/users"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, map[string]any{"data": users})
	}
}

// MockVideosResponse adds a handler for /helix/videos.
func (m *MockTwitchServer) MockVideosResponse(videos []map[string]any) {
	m.Handlers["/helix/videos"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, map[string]any{"data": videos})
	}
}

// MockGamesResponse adds a handler for /helix/games.
func (m *MockTwitchServer) MockGamesResponse(games []map[string]any) {
	m.Handlers["/helix/games"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, map[string]any{"data": games})
	}
}

// MockClipsResponse adds a handler for /helix/clips.
func (m *MockTwitchServer) MockClipsResponse(clips []map[string]any) {
	m.Handlers["/helix/clips"] = func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, map[string]any{"data": clips})
	}
}

// WriteJSON writes v as a JSON response; custom Handlers entries use it to
// build response envelopes the convenience methods do not cover.
func WriteJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // test mock response
}

// MockWebhookServer mocks the Discord webhook endpoints: message creation and
// message edits. It records the request bodies it received.
type MockWebhookServer struct {
	*httptest.Server

	mu        sync.Mutex
	nextID    int
	Creates   []map[string]any
	Edits     []map[string]any
	EditPaths []string
}

// NewMockWebhookServer creates a webhook server issuing sequential message
// ids starting at startID.
func NewMockWebhookServer(t *testing.T, startID int) *MockWebhookServer {
	t.Helper()
	m := &MockWebhookServer{nextID: startID}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && strings.Contains(r.URL.Path, "/webhooks/"):
			id := m.nextID
			m.nextID++
			m.Creates = append(m.Creates, body)
			WriteJSON(w, map[string]any{"id": strconv.Itoa(id), "channel_id": "1", "content": body["content"]})
		case r.Method == http.MethodPatch && strings.Contains(r.URL.Path, "/messages/"):
			m.Edits = append(m.Edits, body)
			m.EditPaths = append(m.EditPaths, r.URL.Path)
			parts := strings.Split(r.URL.Path, "/")
			WriteJSON(w, map[string]any{"id": parts[len(parts)-1], "channel_id": "1", "content": body["content"]})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

// Client returns an HTTP client whose requests all resolve to this server.
func (m *MockWebhookServer) Client() *http.Client {
	return &http.Client{Transport: &RewriteTransport{Transport: http.DefaultTransport, Host: m.URL}}
}
