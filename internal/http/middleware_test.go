package httpx

import (
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/service"
	"github.com/pulsenet/sessiond/internal/testutil"
)

func newSessionFixture(t *testing.T) (*service.SessionService, *testutil.TestTimeProvider) {
	t.Helper()
	clock := testutil.NewTestTimeProvider(testutil.TestTime())
	sessions := service.NewSessionService(service.SessionServiceOptions{
		Logger: slog.New(slog.DiscardHandler),
		Now:    clock.Now,
	})
	return sessions, clock
}

func bindSession(t *testing.T, sessions *service.SessionService, role domainauth.Role) {
	t.Helper()
	identity := domainauth.Identity{
		ID:          "1",
		DisplayName: "Sarah Johnson",
		Email:       "sarah.johnson@hospital.com",
		Role:        role,
	}
	require.NoError(t, sessions.Bind(context.Background(), identity, time.Time{}))
}

func okHandler(t *testing.T, sawSession *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok := GetSessionFromContext(r.Context())
		*sawSession = ok
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth_NoSession(t *testing.T) {
	sessions, _ := newSessionFixture(t)
	var sawSession bool
	handler := RequireAuth(sessions)(okHandler(t, &sawSession))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, sawSession)
	assert.Contains(t, w.Body.String(), "authentication_required")
}

func TestRequireAuth_ActiveSession(t *testing.T) {
	sessions, _ := newSessionFixture(t)
	bindSession(t, sessions, domainauth.RoleWorker)

	var sawSession bool
	handler := RequireAuth(sessions)(okHandler(t, &sawSession))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawSession)
}

// A session whose deadline passed is cleared on first contact instead of
// serving the request.
func TestRequireAuth_OverdueSessionTerminated(t *testing.T) {
	sessions, clock := newSessionFixture(t)
	bindSession(t, sessions, domainauth.RoleWorker)
	clock.AddTime(30 * time.Minute)

	var sawSession bool
	handler := RequireAuth(sessions)(okHandler(t, &sawSession))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, sessions.IsAuthenticated())
}

func TestRequireRoles(t *testing.T) {
	tests := []struct {
		name     string
		bindRole domainauth.Role
		required []domainauth.Role
		want     int
	}{
		{"matching role", domainauth.RoleWorker, []domainauth.Role{domainauth.RoleWorker}, http.StatusOK},
		{"one of several", domainauth.RoleAdministrator,
			[]domainauth.Role{domainauth.RoleWorker, domainauth.RoleAdministrator}, http.StatusOK},
		{"wrong role", domainauth.RoleWorker, []domainauth.Role{domainauth.RoleExecutive}, http.StatusForbidden},
		{"empty set admits any", domainauth.RoleWorker, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions, _ := newSessionFixture(t)
			bindSession(t, sessions, tt.bindRole)

			var sawSession bool
			handler := RequireRoles(sessions, tt.required...)(okHandler(t, &sawSession))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireRoles_NoSession(t *testing.T) {
	sessions, _ := newSessionFixture(t)
	var sawSession bool
	handler := RequireRoles(sessions, domainauth.RoleWorker)(okHandler(t, &sawSession))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOptionalAuth(t *testing.T) {
	sessions, _ := newSessionFixture(t)
	var sawSession bool
	handler := OptionalAuth(sessions)(okHandler(t, &sawSession))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, sawSession)

	bindSession(t, sessions, domainauth.RoleWorker)
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/public", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, sawSession)
}

func TestLogging_RecordsStatus(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tea", nil))

	assert.Contains(t, buf.String(), `"status":418`)
	assert.Contains(t, buf.String(), `"path":"/tea"`)
}

func TestRecover_TurnsPanicInto500(t *testing.T) {
	handler := Recover(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCompression_GzipsJSON(t *testing.T) {
	handler := Compression(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"hello": strings.Repeat("x", 256)})
	}))

	req := httptest.NewRequest(http.MethodGet, "/data", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, "gzip", w.Header().Get("Content-Encoding"))
	gz, err := gzip.NewReader(w.Body)
	require.NoError(t, err)
	decoded, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(decoded), "hello")
}

func TestCompression_SkippedWithoutAcceptEncoding(t *testing.T) {
	handler := Compression(slog.New(slog.DiscardHandler))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"hello": "world"})
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/data", nil))
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}

func TestAcceptsGzip(t *testing.T) {
	assert.True(t, acceptsGzip("gzip"))
	assert.True(t, acceptsGzip("gzip, deflate, br"))
	assert.True(t, acceptsGzip("deflate, gzip;q=0.8"))
	assert.False(t, acceptsGzip(""))
	assert.False(t, acceptsGzip("deflate"))
	assert.False(t, acceptsGzip("gzip;q=0"))
}
