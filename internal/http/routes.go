package httpx

import (
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Flow     LoginFlowInterface // Required: authentication flow
	Sessions SessionSource      // Required: session state owner
	Activity ActivityReporter   // Required: activity signal intake
	Logger   *slog.Logger       // Optional: request and panic logging
	Now      func() time.Time   // Optional: clock override for tests
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	authHandlers := &AuthHandlers{
		Flow:     services.Flow,
		Sessions: services.Sessions,
		Activity: services.Activity,
		Logger:   logger,
	}
	registerAuthRoutes(mux, authHandlers)

	dashboards := &DashboardHandlers{Now: services.Now}
	registerDashboardRoutes(mux, dashboards, services.Sessions)

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return Recover(logger)(Logging(logger)(Compression(logger)(mux)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.LoginStatus)
	mux.HandleFunc("POST /auth/login/credentials", h.SubmitCredentials)
	mux.HandleFunc("POST /auth/login/biometric", h.SubmitBiometric)
	mux.HandleFunc("POST /auth/login/device", h.SubmitDeviceCode)
	mux.HandleFunc("POST /auth/login/device/skip", h.SkipDevice)
	mux.HandleFunc("POST /auth/login/cancel", h.CancelLogin)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.SessionStatus)
	mux.HandleFunc("POST /auth/activity", h.ReportActivity)
}

// registerDashboardRoutes wires the role-restricted dashboards. Each one is
// open to exactly its own role; the visitor notice board is public.
func registerDashboardRoutes(mux *http.ServeMux, h *DashboardHandlers, sessions SessionSource) {
	guard := func(roles ...domainauth.Role) func(http.Handler) http.Handler {
		return RequireRoles(sessions, roles...)
	}

	mux.Handle("GET /api/dashboard/worker",
		guard(domainauth.RoleWorker)(http.HandlerFunc(h.Worker)))
	mux.Handle("GET /api/dashboard/people-ops",
		guard(domainauth.RolePeopleOps)(http.HandlerFunc(h.PeopleOps)))
	mux.Handle("GET /api/dashboard/admin",
		guard(domainauth.RoleAdministrator)(http.HandlerFunc(h.Admin)))
	mux.Handle("GET /api/dashboard/executive",
		guard(domainauth.RoleExecutive)(http.HandlerFunc(h.Executive)))

	mux.Handle("GET /api/visitors/notices",
		OptionalAuth(sessions)(http.HandlerFunc(h.Notices)))
}
