package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eventix/ticketing/ticketing-service/activity"
	"github.com/eventix/ticketing/ticketing-service/cache"
	"github.com/eventix/ticketing/ticketing-service/config"
	"github.com/eventix/ticketing/ticketing-service/imagestore/local"
	"github.com/eventix/ticketing/ticketing-service/metrics"
	"github.com/eventix/ticketing/ticketing-service/model"
	"github.com/eventix/ticketing/ticketing-service/repository/memory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "Secret#123"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []activity.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg activity.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []activity.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]activity.Type, 0, len(p.msgs))
	for _, msg := range p.msgs {
		out = append(out, msg.Type)
	}
	return out
}

type testServer struct {
	t         *testing.T
	router    *gin.Engine
	store     *memory.Store
	jwt       *JWTService
	activity  *recordingPublisher
	metrics   *metrics.Metrics
	uploadDir string
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:        "0",
		Environment: "test",
		Log:         config.Log{Level: "error"},
		JWT: config.JWT{
			Secret:           "test-secret",
			AccessTTLMinutes: 15,
			RefreshTTLHours:  1,
			CookieName:       "jwt_token",
		},
		Database:  config.Database{Driver: config.DriverMemory},
		Redis:     config.Redis{CacheTTLMinutes: 1},
		Upload:    config.Upload{Backend: config.UploadLocal, Dir: t.TempDir(), MaxSizeMB: 1},
		RateLimit: config.RateLimit{Enabled: false, Requests: 10, WindowSeconds: 60},
		CORS:      config.CORS{AllowedOrigins: []string{"https://tickets.example.com"}},
	}
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, nil)
}

// newTestServerWith lets a test adjust the configuration and dependencies
// before the router is built.
func newTestServerWith(t *testing.T, customize func(*config.Config, *Dependencies)) *testServer {
	t.Helper()

	cfg := testConfig(t)
	images, err := local.NewStore(cfg.Upload.Dir, localUploadPrefix)
	require.NoError(t, err)

	store := memory.NewStore()
	publisher := &recordingPublisher{}
	deps := &Dependencies{
		Store:          store,
		Cache:          cache.Noop{},
		Limiter:        cache.Noop{},
		Images:         images,
		ImageURLPrefix: localUploadPrefix,
		Activity:       publisher,
		Metrics:        metrics.New("test"),
	}
	if customize != nil {
		customize(cfg, deps)
	}

	return &testServer{
		t:         t,
		router:    NewRouter(cfg, deps, zap.NewNop()),
		store:     store,
		jwt:       NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL()),
		activity:  publisher,
		metrics:   deps.Metrics,
		uploadDir: cfg.Upload.Dir,
	}
}

// seedUser stores an active user with testPassword and returns it with an
// access token.
func (s *testServer) seedUser(name string, role model.Role) (*model.User, string) {
	s.t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(s.t, err)

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	require.NoError(s.t, s.store.Users().CreateUser(context.Background(), user))

	token, err := s.jwt.GenerateAccessToken(user)
	require.NoError(s.t, err)
	return user, token
}

func (s *testServer) seedEvent(name string, categoryID *string) *model.Event {
	s.t.Helper()
	event := &model.Event{
		ID:         uuid.NewString(),
		Name:       name,
		CategoryID: categoryID,
		Date:       time.Date(2030, 5, 1, 20, 0, 0, 0, time.UTC),
		Venue:      "Main Hall",
		Price:      100,
	}
	require.NoError(s.t, s.store.Events().CreateEvent(context.Background(), event))
	return event
}

func (s *testServer) seedCategory(name string) *model.Category {
	s.t.Helper()
	category := &model.Category{ID: uuid.NewString(), Name: name}
	category.RefreshSlug()
	require.NoError(s.t, s.store.Categories().CreateCategory(context.Background(), category))
	return category
}

// do sends body as JSON when it is not nil.
func (s *testServer) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.send(req)
}

func newRequest(method, path string) *http.Request {
	return httptest.NewRequest(method, path, nil)
}

func (s *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
