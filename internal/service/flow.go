package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/pulsenet/sessiond/internal/domain/auth"
	apperrors "github.com/pulsenet/sessiond/internal/errors"
	"github.com/pulsenet/sessiond/internal/observability/statsd"
	"github.com/pulsenet/sessiond/internal/ports"
)

// StageComplete is the Status stage reported once a session is established.
const StageComplete = "complete"

// LoginAuditor receives login notifications. Implemented by AuditService.
type LoginAuditor interface {
	RecordLogin(ctx context.Context, identityID, method string)
}

// LoginFlowOptions groups dependencies for LoginFlow.
type LoginFlowOptions struct {
	Stages   []ports.Stage      // Required: ordered verification stages
	Sessions *SessionService    // Required: session state owner
	Audit    LoginAuditor       // Optional: login audit trail
	Device   ports.PairedDevice // Optional: code countdown for status
	Logger   *slog.Logger       // Optional: structured logger
	Metrics  statsd.Sink        // Optional: metrics sink (StatsD-compatible)
	Now      func() time.Time   // Optional: clock override for tests
}

// LoginFlow drives one authentication attempt through its ordered stages.
// At most one attempt is in flight at a time: submitting credentials starts
// a fresh attempt and cancels any stage still running from the previous one,
// so an abandoned attempt can never bind a session later.
type LoginFlow struct {
	stages   []ports.Stage
	sessions *SessionService
	audit    LoginAuditor
	device   ports.PairedDevice
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time

	mu          sync.Mutex
	generation  uint64
	stageIdx    int
	identity    *domainauth.Identity
	method      string
	skipPending bool
	startedAt   time.Time
	cancelRun   context.CancelFunc
}

// NewLoginFlow constructs a new LoginFlow.
func NewLoginFlow(opts LoginFlowOptions) (*LoginFlow, error) {
	if len(opts.Stages) == 0 {
		return nil, errors.New("at least one stage is required")
	}
	if opts.Stages[0].Kind() != ports.StageCredentials {
		return nil, errors.New("the first stage must be the credentials stage")
	}
	if opts.Sessions == nil {
		return nil, errors.New("SessionService is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &LoginFlow{
		stages:   opts.Stages,
		sessions: opts.Sessions,
		audit:    opts.Audit,
		device:   opts.Device,
		logger:   logger.With("component", "login_flow"),
		metrics:  opts.Metrics,
		now:      now,
	}, nil
}

// AttemptStatus describes the state of the authentication flow.
type AttemptStatus struct {
	// Stage is the pending stage kind, or "complete" once authenticated.
	Stage string `json:"stage"`
	// Progress is the percentage of the flow completed, in steps.
	Progress int `json:"progress"`
	// ManualApprovalPending is set after the secondary device stage was
	// skipped. The attempt is parked until it is restarted.
	ManualApprovalPending bool `json:"manual_approval_pending"`
	// DeviceCodeExpiresInSeconds is the remaining validity of the current
	// device code. Zero outside the secondary device stage.
	DeviceCodeExpiresInSeconds int `json:"device_code_expires_in_seconds,omitempty"`
}

// Submit runs the stage identified by kind with the given inputs. Submitting
// the credentials stage always starts a fresh attempt; other stages must be
// submitted in flow order. On success the returned status reflects the next
// pending stage, or completion when the final stage passed.
func (f *LoginFlow) Submit(ctx context.Context, kind ports.StageKind, in ports.StageInputs) (AttemptStatus, error) {
	f.mu.Lock()

	if f.sessions.IsAuthenticated() && kind != ports.StageCredentials {
		status := f.statusLocked()
		f.mu.Unlock()
		return status, apperrors.Conflict("a session is already active")
	}

	if kind == ports.StageCredentials {
		f.restartLocked()
	} else {
		if f.skipPending {
			f.mu.Unlock()
			return AttemptStatus{}, apperrors.Conflict("manual approval is pending, restart the flow to try again")
		}
		if f.cancelRun != nil {
			// A stage run is already in flight. Letting a second one
			// through would advance the flow twice on one verification.
			f.mu.Unlock()
			return AttemptStatus{}, apperrors.Conflict("another submission is already being verified")
		}
		if f.identity == nil || f.stages[f.stageIdx].Kind() != kind {
			f.mu.Unlock()
			return AttemptStatus{}, apperrors.Conflict("the flow is not at this stage")
		}
	}

	stage := f.stages[f.stageIdx]
	gen := f.generation
	if f.identity != nil {
		in.BiometricRef = f.identity.BiometricRef
	}

	runCtx, cancel := context.WithCancel(ctx)
	f.cancelRun = cancel
	f.mu.Unlock()

	// The stage runs outside the lock: a biometric scan takes seconds and
	// must not block status reads or a restart.
	result, err := stage.Attempt(runCtx, in)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.generation != gen {
		// A newer attempt superseded this run while the stage was executing.
		return AttemptStatus{}, apperrors.Wrap(context.Canceled, apperrors.ErrCodeCanceled, "attempt superseded")
	}
	f.cancelRun = nil

	if err != nil {
		f.logger.InfoContext(ctx, "stage failed",
			"stage", string(stage.Kind()), "code", string(apperrors.GetCode(err)))
		if f.metrics != nil {
			f.metrics.Count("auth.login.stage_failures", 1, map[string]string{
				"stage": string(stage.Kind()),
				"code":  string(apperrors.GetCode(err)),
			})
		}
		return f.statusLocked(), err
	}

	if result.Identity != nil {
		f.identity = result.Identity
		f.method = methodForStage(result.Stage)
	}
	f.stageIdx++

	f.logger.InfoContext(ctx, "stage passed",
		"stage", string(stage.Kind()), "identity_id", f.identity.ID)

	if f.stageIdx < len(f.stages) {
		return f.statusLocked(), nil
	}
	return f.completeLocked(ctx)
}

// SkipSecondaryDevice parks the attempt instead of verifying the device
// code. The attempt cannot proceed afterwards: a supervisor has to approve
// the login out of band, or the user restarts with credentials.
func (f *LoginFlow) SkipSecondaryDevice(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.identity == nil || f.stages[f.stageIdx].Kind() != ports.StageSecondaryDevice {
		return "", apperrors.Conflict("the flow is not at the secondary device stage")
	}

	f.skipPending = true
	f.logger.InfoContext(ctx, "secondary device verification skipped",
		"identity_id", f.identity.ID)
	if f.metrics != nil {
		f.metrics.Count("auth.login.device_skips", 1, nil)
	}
	return "Device verification skipped. A supervisor must approve this login before access is granted.", nil
}

// Cancel abandons the in-flight attempt, if any.
func (f *LoginFlow) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.restartLocked()
}

// Status reports the current flow state.
func (f *LoginFlow) Status() AttemptStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusLocked()
}

// restartLocked resets attempt state and cancels any in-flight stage run.
func (f *LoginFlow) restartLocked() {
	if f.cancelRun != nil {
		f.cancelRun()
		f.cancelRun = nil
	}
	f.generation++
	f.stageIdx = 0
	f.identity = nil
	f.method = ""
	f.skipPending = false
	f.startedAt = f.now()
}

func (f *LoginFlow) completeLocked(ctx context.Context) (AttemptStatus, error) {
	identity := *f.identity
	method := f.method
	establishedAt := f.now()

	if err := f.sessions.Bind(ctx, identity, establishedAt); err != nil {
		return f.statusLocked(), apperrors.Wrap(err, apperrors.ErrCodeInternal, "failed to establish session")
	}
	if f.audit != nil {
		f.audit.RecordLogin(ctx, identity.ID, method)
	}
	if f.metrics != nil {
		f.metrics.Timing("auth.login.duration", establishedAt.Sub(f.startedAt), nil)
		f.metrics.Count("auth.login.completed", 1, map[string]string{"method": method})
	}

	f.stageIdx = 0
	f.identity = nil
	f.method = ""
	f.skipPending = false

	return AttemptStatus{Stage: StageComplete, Progress: 100}, nil
}

func (f *LoginFlow) statusLocked() AttemptStatus {
	if f.sessions.IsAuthenticated() {
		return AttemptStatus{Stage: StageComplete, Progress: 100}
	}

	kind := f.stages[f.stageIdx].Kind()
	status := AttemptStatus{
		Stage:                 string(kind),
		Progress:              (f.stageIdx + 1) * 100 / (len(f.stages) + 1),
		ManualApprovalPending: f.skipPending,
	}
	if kind == ports.StageSecondaryDevice && f.device != nil && !f.skipPending {
		status.DeviceCodeExpiresInSeconds = int(f.device.ExpiresIn(f.now()).Seconds())
	}
	return status
}

func methodForStage(kind ports.StageKind) string {
	if kind == ports.StageBiometric {
		return "biometric"
	}
	return "credentials"
}
