package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	. "todoweb/pkg/test"

	"todoweb/internal/adapter/session"
	"todoweb/internal/core/model/response"
	"todoweb/internal/core/port"
	"todoweb/pkg/config"
	"todoweb/pkg/tracing"
)

type ServerTestSuite struct {
	suite.Suite
	container *Container
	router    http.Handler
	audit     *AuditRecorder
}

func testConfig(t *testing.T) *config.AppConfig {
	cfg, err := config.FromEnv(func(key string) (string, bool) {
		if key == "APP_ENV" {
			return config.EnvTesting, true
		}
		return "", false
	})
	require.NoError(t, err)

	return cfg
}

func newTestContainer(t *testing.T, cfg *config.AppConfig, audit port.AuditLogger) *Container {
	registry := prometheus.NewRegistry()
	logger := config.WrapLogger(zap.NewNop(), "todoweb")

	c, err := NewContainer(context.Background(), cfg, logger, tracing.NewAppMetrics(registry), registry, WithAuditLogger(audit))
	require.NoError(t, err)

	t.Cleanup(func() { _ = c.Close() })

	return c
}

func (s *ServerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.audit = NewAuditRecorder()
	s.container = newTestContainer(s.T(), testConfig(s.T()), s.audit)
	s.router = NewRouter(s.container)
}

func TestServerTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(ServerTestSuite))
}

func (s *ServerTestSuite) TestExampleScenario() {
	b := newBrowser(s.T(), s.router)

	b.register("alice", "secret1")

	rr := b.submit("/register", "/register", url.Values{
		"username":         {"Alice"},
		"password":         {"x"},
		"password_confirm": {"x"},
	})
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	Expect(rr.Body.String()).To(ContainSubstring("Username already exists"))

	rr = b.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	Expect(rr.Body.String()).To(ContainSubstring("Invalid username or password. Please try again."))

	b.login("alice", "secret1")

	rr = b.get("/")
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	Expect(rr.Body.String()).To(ContainSubstring("Welcome back, alice!"))
	Expect(rr.Body.String()).To(ContainSubstring("No todos yet!"))

	rr = b.submit("/", "/add", url.Values{"description": {"buy milk"}})
	assert.Equal(s.T(), "/", rr.Header().Get("Location"))

	page := b.follow(rr).Body.String()
	Expect(page).To(ContainSubstring("Todo added successfully!"))
	Expect(page).To(ContainSubstring("buy milk"))
	Expect(page).To(ContainSubstring("Complete"))

	id := firstTodoID(page)
	require.NotEmpty(s.T(), id)

	todoID, _ := strconv.Atoi(id)
	stored, err := s.container.TodoRepo.GetByID(context.Background(), todoID)
	require.NoError(s.T(), err)
	assert.False(s.T(), stored.Completed)

	page = b.follow(b.submit("/", "/toggle/"+id, nil)).Body.String()
	Expect(page).To(ContainSubstring("Todo marked as completed!"))
	Expect(page).To(ContainSubstring("text-decoration-line-through"))

	stored, err = s.container.TodoRepo.GetByID(context.Background(), todoID)
	require.NoError(s.T(), err)
	assert.True(s.T(), stored.Completed)

	page = b.follow(b.submit("/", "/delete/"+id, nil)).Body.String()
	Expect(page).To(ContainSubstring("Todo deleted successfully!"))
	Expect(page).To(ContainSubstring("No todos yet!"))
	Expect(page).NotTo(ContainSubstring("buy milk"))

	Expect(s.audit.Types()).To(ContainElements(
		port.EventRegistration,
		port.EventRegistrationRejected,
		port.EventLoginFailure,
		port.EventLoginSuccess,
	))
}

func (s *ServerTestSuite) TestGuardRedirectsAnonymous() {
	b := newBrowser(s.T(), s.router)

	rr := b.get("/")
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/login?next=%2F", rr.Header().Get("Location"))

	page := b.follow(rr).Body.String()
	Expect(page).To(ContainSubstring("Please log in to access this page."))
	Expect(page).To(ContainSubstring(`action="/login?next=%2f"`))
}

func (s *ServerTestSuite) TestLoginHonoursOnlySafeNext() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")

	rr := b.submit("/login", "/login?next="+url.QueryEscape("//evil.example"), url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/", rr.Header().Get("Location"))

	b.submit("/", "/logout", nil)

	rr = b.submit("/login", "/login?next="+url.QueryEscape("/?page=2"), url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/?page=2", rr.Header().Get("Location"))
}

func (s *ServerTestSuite) TestAuthenticatedUserSkipsAuthForms() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	for _, path := range []string{"/login", "/register"} {
		rr := b.get(path)
		assert.Equal(s.T(), http.StatusFound, rr.Code, path)
		assert.Equal(s.T(), "/", rr.Header().Get("Location"), path)
	}
}

func (s *ServerTestSuite) TestLogout() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	rr := b.submit("/", "/logout", nil)
	assert.Equal(s.T(), "/login", rr.Header().Get("Location"))
	Expect(b.follow(rr).Body.String()).To(ContainSubstring("You have been logged out, alice."))

	rr = b.get("/")
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	Expect(s.audit.Types()).To(ContainElement(port.EventLogout))
}

func (s *ServerTestSuite) TestLoginRotatesSessionCookie() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")

	before := b.csrfToken("/login")
	b.login("alice", "secret1")
	after := b.csrfToken("/")

	assert.NotEqual(s.T(), before, after)
}

func (s *ServerTestSuite) TestCSRFRejection() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	rr := b.post("/add", url.Values{"description": {"forged"}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/", rr.Header().Get("Location"))

	page := b.follow(rr).Body.String()
	Expect(page).To(ContainSubstring("Security token validation failed. Please try again."))
	Expect(page).NotTo(ContainSubstring("forged"))

	rr = b.post("/add", url.Values{"description": {"forged"}, "csrf_token": {"not-the-token"}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)

	todos, err := s.container.TodoRepo.ListByUser(context.Background(), 1)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), todos)

	Expect(s.audit.Types()).To(ContainElement(port.EventCSRFFailure))
}

func (s *ServerTestSuite) TestCSRFHeader() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	token := b.csrfToken("/")

	req, _ := http.NewRequest(http.MethodPost, "http://localhost/add", strings.NewReader(url.Values{"description": {"via header"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-CSRF-Token", token)

	rr := b.do(req)
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	Expect(b.follow(rr).Body.String()).To(ContainSubstring("via header"))
}

func (s *ServerTestSuite) TestAnonymousPostWithoutToken() {
	b := newBrowser(s.T(), s.router)

	rr := b.post("/login", url.Values{"username": {"alice"}, "password": {"secret1"}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/login", rr.Header().Get("Location"))
}

func (s *ServerTestSuite) TestAnonymousPostToProtectedRoute() {
	b := newBrowser(s.T(), s.router)

	rr := b.post("/add", url.Values{"description": {"buy milk"}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/login?next=%2Fadd", rr.Header().Get("Location"))

	Expect(s.audit.Types()).NotTo(ContainElement(port.EventCSRFFailure))
}

func (s *ServerTestSuite) TestExpiredSessionPostGoesToLogin() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	token := b.csrfToken("/")

	var sessionID string
	for _, cookie := range b.jar.Cookies(b.base) {
		if cookie.Name == session.CookieName {
			id, err := session.NewCookieCodec(s.container.Config.SecretKey).Decode(cookie.Value)
			require.NoError(s.T(), err)
			sessionID = id
		}
	}
	require.NotEmpty(s.T(), sessionID)
	require.NoError(s.T(), s.container.Sessions.Delete(context.Background(), sessionID))

	rr := b.post("/add", url.Values{"description": {"late"}, "csrf_token": {token}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/login?next=%2Fadd", rr.Header().Get("Location"))

	Expect(s.audit.Types()).NotTo(ContainElement(port.EventCSRFFailure))

	todos, err := s.container.TodoRepo.ListByUser(context.Background(), 1)
	require.NoError(s.T(), err)
	assert.Empty(s.T(), todos)
}

func (s *ServerTestSuite) TestIsolation() {
	alice := newBrowser(s.T(), s.router)
	alice.register("alice", "secret1")
	alice.login("alice", "secret1")
	page := alice.follow(alice.submit("/", "/add", url.Values{"description": {"alice secret"}})).Body.String()
	id := firstTodoID(page)
	require.NotEmpty(s.T(), id)

	bob := newBrowser(s.T(), s.router)
	bob.register("bob", "secret2")
	bob.login("bob", "secret2")

	Expect(bob.get("/").Body.String()).NotTo(ContainSubstring("alice secret"))

	page = bob.follow(bob.submit("/", "/toggle/"+id, nil)).Body.String()
	Expect(page).To(ContainSubstring("Todo not found or you don&#39;t have permission to modify it."))

	page = bob.follow(bob.submit("/", "/delete/"+id, nil)).Body.String()
	Expect(page).To(ContainSubstring("Todo not found or you don&#39;t have permission to delete it."))

	todoID, _ := strconv.Atoi(id)
	stored, err := s.container.TodoRepo.GetByID(context.Background(), todoID)
	require.NoError(s.T(), err)
	assert.False(s.T(), stored.Completed)

	Expect(s.audit.Types()).To(ContainElement(port.EventUnauthorizedAccess))
}

func (s *ServerTestSuite) TestAddValidation() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	page := b.follow(b.submit("/", "/add", url.Values{"description": {strings.Repeat("a", 201)}})).Body.String()
	Expect(page).To(ContainSubstring("Todo description must be no more than 200 characters long"))

	page = b.follow(b.submit("/", "/add", url.Values{"description": {"   "}})).Body.String()
	Expect(page).To(ContainSubstring("Todo description is required."))

	page = b.follow(b.submit("/", "/add", url.Values{"description": {"<script>alert(1)</script>tea"}})).Body.String()
	Expect(page).NotTo(ContainSubstring("<script>alert(1)</script>"))
	Expect(page).To(ContainSubstring("&lt;script&gt;alert(1)&lt;/script&gt;tea"))

	page = b.follow(b.submit("/", "/add", url.Values{"description": {"&lt;img src=x onerror=alert(1)&gt;"}})).Body.String()
	Expect(page).NotTo(ContainSubstring("<img"))
	Expect(page).NotTo(ContainSubstring("&amp;lt;"))
	Expect(page).To(ContainSubstring("&lt;img src=x onerror=alert(1)&gt;"))

	todos, err := s.container.TodoRepo.ListByUser(context.Background(), 1)
	require.NoError(s.T(), err)
	Expect(todos).To(HaveLen(2))
	Expect(todos[0].Description).To(Equal("&lt;img src=x onerror=alert(1)&gt;"))
}

func (s *ServerTestSuite) TestRequestTooLarge() {
	b := newBrowser(s.T(), s.router)
	b.register("alice", "secret1")
	b.login("alice", "secret1")

	rr := b.submit("/", "/add", url.Values{"description": {strings.Repeat("a", 20*1024)}})
	assert.Equal(s.T(), http.StatusFound, rr.Code)
	assert.Equal(s.T(), "/", rr.Header().Get("Location"))

	Expect(b.follow(rr).Body.String()).To(ContainSubstring("Request too large. Please try with less data."))
}

func (s *ServerTestSuite) TestRegisterValidationMessages() {
	b := newBrowser(s.T(), s.router)

	rr := b.submit("/register", "/register", url.Values{"username": {"alice"}, "password": {"secret1"}, "password_confirm": {"secret2"}})
	assert.Equal(s.T(), http.StatusOK, rr.Code)
	Expect(rr.Body.String()).To(ContainSubstring("Passwords do not match"))

	rr = b.submit("/register", "/register", url.Values{"username": {"al"}, "password": {"secret1"}, "password_confirm": {"secret1"}})
	Expect(rr.Body.String()).To(ContainSubstring("Username must be at least 3 characters long"))

	rr = b.submit("/register", "/register", url.Values{"username": {"alice"}, "password": {"123"}, "password_confirm": {"123"}})
	Expect(rr.Body.String()).To(ContainSubstring("Password must be at least 6 characters long"))

	rr = b.submit("/register", "/register", url.Values{"password": {"secret1"}, "password_confirm": {"secret1"}})
	Expect(rr.Body.String()).To(ContainSubstring("Username is required"))
}

func (s *ServerTestSuite) TestHealthz() {
	b := newBrowser(s.T(), s.router)

	rr := b.get("/healthz")
	assert.Equal(s.T(), http.StatusOK, rr.Code)

	var body response.HealthResponse
	require.NoError(s.T(), json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(s.T(), "ok", body.Status)
	assert.Equal(s.T(), 3, body.SchemaVersion)
	assert.Empty(s.T(), rr.Result().Cookies())
}

func (s *ServerTestSuite) TestNotFound() {
	b := newBrowser(s.T(), s.router)

	rr := b.get("/does-not-exist")
	assert.Equal(s.T(), http.StatusNotFound, rr.Code)
	Expect(rr.Body.String()).To(ContainSubstring("The page you are looking for does not exist."))
}

func (s *ServerTestSuite) TestSecurityHeaders() {
	rr := newBrowser(s.T(), s.router).get("/login")

	assert.Equal(s.T(), "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(s.T(), "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(s.T(), rr.Header().Get("X-Request-ID"))

	cookie := rr.Result().Cookies()
	require.NotEmpty(s.T(), cookie)
	assert.True(s.T(), cookie[0].HttpOnly)
	assert.Equal(s.T(), http.SameSiteLaxMode, cookie[0].SameSite)
}

func TestRateLimitedLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	cfg.RateLimitEnabled = true
	cfg.RateLimitConfigs = map[string]config.RateLimitConfig{
		"POST /login": {Requests: 2, Window: time.Minute},
	}

	recorder := NewAuditRecorder()
	b := newBrowser(t, NewRouter(newTestContainer(t, cfg, recorder)))

	for i := 0; i < 2; i++ {
		rr := b.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusOK, rr.Code)
	}

	rr := b.submit("/login", "/login", url.Values{"username": {"alice"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "Too many requests")
	assert.Contains(t, recorder.Types(), port.EventRateLimited)
}

func TestMemorySessionGauge(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := prometheus.NewRegistry()
	logger := config.WrapLogger(zap.NewNop(), "todoweb")

	c, err := NewContainer(context.Background(), testConfig(t), logger, tracing.NewAppMetrics(registry), registry, WithAuditLogger(NewAuditRecorder()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	b := newBrowser(t, NewRouter(c))
	b.get("/login")
	b.get("/healthz")

	families, err := registry.Gather()
	require.NoError(t, err)

	var sessions float64 = -1
	for _, family := range families {
		if family.GetName() == "todoweb_sessions_in_memory" {
			sessions = family.GetMetric()[0].GetGauge().GetValue()
		}
	}

	assert.Equal(t, float64(1), sessions)
}
