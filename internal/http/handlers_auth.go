package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	"github.com/pulsenet/sessiond/internal/ports"
	"github.com/pulsenet/sessiond/internal/service"
)

// LoginFlowInterface defines the flow operations the handlers need.
// Implemented by service.LoginFlow.
type LoginFlowInterface interface {
	Submit(ctx context.Context, kind ports.StageKind, in ports.StageInputs) (service.AttemptStatus, error)
	SkipSecondaryDevice(ctx context.Context) (string, error)
	Cancel()
	Status() service.AttemptStatus
}

// ActivityReporter defines the activity operation the handlers need.
// Implemented by service.ActivityService.
type ActivityReporter interface {
	Report(ctx context.Context, sig service.Signal) bool
}

// AuthHandlers provides HTTP handlers for the authentication flow and the
// session lifecycle.
type AuthHandlers struct {
	Flow     LoginFlowInterface
	Sessions SessionSource
	Activity ActivityReporter
	Logger   *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// credentialsRequest is the body for the credentials stage.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SubmitCredentials runs the credentials stage, restarting the flow.
// POST /auth/login/credentials.
func (h *AuthHandlers) SubmitCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	status, err := h.Flow.Submit(r.Context(), ports.StageCredentials, ports.StageInputs{
		Email:  req.Email,
		Secret: req.Password,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// SubmitBiometric runs the biometric stage.
// POST /auth/login/biometric.
func (h *AuthHandlers) SubmitBiometric(w http.ResponseWriter, r *http.Request) {
	status, err := h.Flow.Submit(r.Context(), ports.StageBiometric, ports.StageInputs{})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// deviceRequest is the body for the secondary device stage.
type deviceRequest struct {
	Code string `json:"code"`
}

// SubmitDeviceCode runs the secondary device stage.
// POST /auth/login/device.
func (h *AuthHandlers) SubmitDeviceCode(w http.ResponseWriter, r *http.Request) {
	var req deviceRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	status, err := h.Flow.Submit(r.Context(), ports.StageSecondaryDevice, ports.StageInputs{
		Code: req.Code,
	})
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// SkipDevice parks the attempt instead of verifying the device code.
// POST /auth/login/device/skip.
func (h *AuthHandlers) SkipDevice(w http.ResponseWriter, r *http.Request) {
	message, err := h.Flow.SkipSecondaryDevice(r.Context())
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"status":  h.Flow.Status(),
	})
}

// CancelLogin abandons the in-flight attempt.
// POST /auth/login/cancel.
func (h *AuthHandlers) CancelLogin(w http.ResponseWriter, _ *http.Request) {
	h.Flow.Cancel()
	w.WriteHeader(http.StatusNoContent)
}

// LoginStatus reports the state of the authentication flow.
// GET /auth/login.
func (h *AuthHandlers) LoginStatus(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, h.Flow.Status())
}

// Logout terminates the active session. Logging out without a session is
// not an error.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Clear(r.Context(), service.LogoutReasonManual); err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

// sessionStatusResponse is the body for GET /auth/status.
type sessionStatusResponse struct {
	Authenticated    bool                 `json:"authenticated"`
	Identity         *domainauth.Identity `json:"identity,omitempty"`
	EstablishedAt    *time.Time           `json:"established_at,omitempty"`
	SecondsRemaining int                  `json:"seconds_remaining,omitempty"`
	ExpiryWarning    bool                 `json:"expiry_warning,omitempty"`
}

// SessionStatus returns the current session state, including the remaining
// time before the inactivity logout and whether the warning threshold has
// been crossed.
// GET /auth/status.
func (h *AuthHandlers) SessionStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := liveSession(r.Context(), h.Sessions)
	if !ok {
		WriteJSON(w, http.StatusOK, sessionStatusResponse{Authenticated: false})
		return
	}

	resp := sessionStatusResponse{
		Authenticated: true,
		Identity:      &session.Identity,
		EstablishedAt: &session.EstablishedAt,
	}
	if remaining, ok := h.Sessions.TimeRemaining(); ok {
		resp.SecondsRemaining = int(remaining.Seconds())
		resp.ExpiryWarning = remaining <= domainauth.WarningThreshold
	}
	WriteJSON(w, http.StatusOK, resp)
}

// activityRequest is the body for POST /auth/activity.
type activityRequest struct {
	Signal string `json:"signal"`
}

// ReportActivity records a user activity signal against the session.
// Signals without an active session are dropped, not rejected.
// POST /auth/activity.
func (h *AuthHandlers) ReportActivity(w http.ResponseWriter, r *http.Request) {
	var req activityRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	signal, err := service.ParseSignal(req.Signal)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	applied := h.Activity.Report(r.Context(), signal)
	WriteJSON(w, http.StatusOK, map[string]bool{"applied": applied})
}
