package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"task_tracker/internal/credentials"
	"task_tracker/internal/domain"
	"task_tracker/internal/middleware"
	"task_tracker/internal/repository"
	"task_tracker/internal/repository/memrepo"
	"task_tracker/internal/session"
	"task_tracker/internal/testutil"
)

type testEnv struct {
	srv     *httptest.Server
	storage *flakyStorage
	creds   *credentials.Cache
}

type envOption func(*envConfig)

type envConfig struct {
	creds  *credentials.Cache
	replay middleware.ResponseCache
}

func withCredentials(c *credentials.Cache) envOption {
	return func(cfg *envConfig) { cfg.creds = c }
}

func withReplayCache(c middleware.ResponseCache) envOption {
	return func(cfg *envConfig) { cfg.replay = c }
}

func newEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	cfg := envConfig{creds: credentials.New()}
	for _, opt := range opts {
		opt(&cfg)
	}
	clock := testutil.NewClock()
	storage := &flakyStorage{Storage: memrepo.New(memrepo.WithClock(clock.Now)), vanished: map[string]bool{}}
	sessions := session.NewManager(session.NewMemoryStore(), session.Options{Secret: "test-secret", TTL: time.Hour})
	h := NewHandlers(storage, sessions, cfg.creds)
	srv := httptest.NewServer(NewRouter(h, RouterOptions{ReplayCache: cfg.replay}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, storage: storage, creds: cfg.creds}
}

// flakyStorage lets tests make users vanish or make task listing fail.
type flakyStorage struct {
	repository.Storage
	mu        sync.Mutex
	vanished  map[string]bool
	failTasks bool
}

func (f *flakyStorage) vanish(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vanished[id] = true
}

func (f *flakyStorage) GetUser(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	gone := f.vanished[id]
	f.mu.Unlock()
	if gone {
		return nil, nil
	}
	return f.Storage.GetUser(ctx, id)
}

func (f *flakyStorage) GetTasks(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	fail := f.failTasks
	f.mu.Unlock()
	if fail {
		return nil, errStorageDown
	}
	return f.Storage.GetTasks(ctx)
}

var errStorageDown = errors.New("connection refused")

type client struct {
	t    *testing.T
	base string
	jar  *cookiejar.Jar
	http *http.Client
}

func newClient(t *testing.T, e *testEnv) *client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &client{t: t, base: e.srv.URL, jar: jar, http: &http.Client{Jar: jar}}
}

type response struct {
	status int
	body   []byte
	header http.Header
}

func (c *client) do(method, path string, body any, headers ...string) response {
	c.t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(c.t, err)
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, c.base+path, rdr)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	res, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(c.t, err)
	return response{status: res.StatusCode, body: raw, header: res.Header}
}

func (c *client) cookies() []*http.Cookie {
	u, _ := url.Parse(c.base)
	return c.jar.Cookies(u)
}

func (c *client) setCookies(cookies []*http.Cookie) {
	u, _ := url.Parse(c.base)
	c.jar.SetCookies(u, cookies)
}

func decode[T any](t *testing.T, r response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(r.body, &v), string(r.body))
	return v
}

func message(t *testing.T, r response) string {
	t.Helper()
	return decode[messageResponse](t, r).Message
}

type userEnvelope struct {
	User map[string]any `json:"user"`
}

func (c *client) register(name, email, password, role string) map[string]any {
	c.t.Helper()
	body := map[string]any{"name": name, "email": email, "password": password}
	if role != "" {
		body["role"] = role
	}
	res := c.do(http.MethodPost, "/api/auth/register", body)
	require.Equal(c.t, http.StatusOK, res.status, string(res.body))
	return decode[userEnvelope](c.t, res).User
}

func (c *client) login(email, password string) map[string]any {
	c.t.Helper()
	res := c.do(http.MethodPost, "/api/auth/login", map[string]any{"email": email, "password": password})
	require.Equal(c.t, http.StatusOK, res.status, string(res.body))
	return decode[userEnvelope](c.t, res).User
}
