package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsenet/sessiond/internal/adapters/directory"
	"github.com/pulsenet/sessiond/internal/adapters/platform"
	apperrors "github.com/pulsenet/sessiond/internal/errors"
	mocksauth "github.com/pulsenet/sessiond/internal/mocks/auth"
	"github.com/pulsenet/sessiond/internal/ports"
)

const demoSecret = "demo123"

func newPasswordStage(t *testing.T) *PasswordStage {
	t.Helper()
	stage, err := NewPasswordStage(PasswordStageOptions{
		Directory: directory.NewDemo(),
		Secret:    demoSecret,
	})
	require.NoError(t, err)
	return stage
}

func TestPasswordStage_Success(t *testing.T) {
	stage := newPasswordStage(t)

	result, err := stage.Attempt(context.Background(), ports.StageInputs{
		Email:  "sarah.johnson@hospital.com",
		Secret: demoSecret,
	})
	require.NoError(t, err)
	assert.Equal(t, ports.StageCredentials, result.Stage)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "1", result.Identity.ID)
}

func TestPasswordStage_Failures(t *testing.T) {
	stage := newPasswordStage(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    ports.StageInputs
		check func(error) bool
	}{
		{
			name:  "unknown email",
			in:    ports.StageInputs{Email: "nobody@hospital.com", Secret: demoSecret},
			check: apperrors.IsInvalidCredentials,
		},
		{
			name:  "wrong secret",
			in:    ports.StageInputs{Email: "sarah.johnson@hospital.com", Secret: "wrong"},
			check: apperrors.IsInvalidCredentials,
		},
		{
			name:  "missing email",
			in:    ports.StageInputs{Secret: demoSecret},
			check: apperrors.IsValidation,
		},
		{
			name:  "missing secret",
			in:    ports.StageInputs{Email: "sarah.johnson@hospital.com"},
			check: apperrors.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := stage.Attempt(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Nil(t, result.Identity)
		})
	}
}

func newBiometricStage(t *testing.T, opts BiometricStageOptions) *BiometricStage {
	t.Helper()
	if opts.Directory == nil {
		opts.Directory = directory.NewDemo()
	}
	stage, err := NewBiometricStage(opts)
	require.NoError(t, err)
	return stage
}

func TestBiometricStage_ResolvesReference(t *testing.T) {
	stage := newBiometricStage(t, BiometricStageOptions{})

	result, err := stage.Attempt(context.Background(), ports.StageInputs{BiometricRef: "bio_002"})
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "michael.chen@hospital.com", result.Identity.Email)
}

func TestBiometricStage_DefaultReference(t *testing.T) {
	stage := newBiometricStage(t, BiometricStageOptions{DefaultRef: "bio_001"})

	result, err := stage.Attempt(context.Background(), ports.StageInputs{})
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "1", result.Identity.ID)
}

func TestBiometricStage_UnknownReference(t *testing.T) {
	stage := newBiometricStage(t, BiometricStageOptions{})

	_, err := stage.Attempt(context.Background(), ports.StageInputs{BiometricRef: "bio_999"})
	require.Error(t, err)
	assert.True(t, apperrors.IsBiometricFailure(err), "got %v", err)
}

func TestNewBiometricStage_ZeroScanDelay(t *testing.T) {
	stage, err := NewBiometricStage(BiometricStageOptions{
		Directory: directory.NewDemo(),
		ScanDelay: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), stage.scanDelay)

	stage, err = NewBiometricStage(BiometricStageOptions{
		Directory: directory.NewDemo(),
		ScanDelay: -time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), stage.scanDelay)
}

func TestBiometricStage_FallsBackWhenVerifierUnavailable(t *testing.T) {
	stage := newBiometricStage(t, BiometricStageOptions{
		Probe: platform.NewStaticProbe(false),
	})

	result, err := stage.Attempt(context.Background(), ports.StageInputs{BiometricRef: "bio_001"})
	require.NoError(t, err)
	require.NotNil(t, result.Identity)
	assert.Equal(t, "1", result.Identity.ID)
}

func TestBiometricStage_ScanHonorsCancellation(t *testing.T) {
	stage, err := NewBiometricStage(BiometricStageOptions{
		Directory: directory.NewDemo(),
		ScanDelay: time.Minute,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go cancel()

	done := make(chan error, 1)
	go func() {
		_, attemptErr := stage.Attempt(ctx, ports.StageInputs{BiometricRef: "bio_001"})
		done <- attemptErr
	}()

	select {
	case attemptErr := <-done:
		require.Error(t, attemptErr)
		assert.True(t, apperrors.IsCanceled(attemptErr), "got %v", attemptErr)
	case <-time.After(5 * time.Second):
		t.Fatal("scan did not honor cancellation")
	}
}

func TestDeviceStage_Success(t *testing.T) {
	device := &mocksauth.FakeDevice{Code: "123456"}
	stage, err := NewDeviceStage(DeviceStageOptions{Device: device})
	require.NoError(t, err)

	result, err := stage.Attempt(context.Background(), ports.StageInputs{Code: "123456"})
	require.NoError(t, err)
	assert.Equal(t, ports.StageSecondaryDevice, result.Stage)
	assert.Nil(t, result.Identity, "the device stage confirms, it does not resolve")
}

func TestDeviceStage_Failures(t *testing.T) {
	device := &mocksauth.FakeDevice{
		Code:        "123456",
		MismatchErr: apperrors.TokenMismatch("code does not match"),
	}
	stage, err := NewDeviceStage(DeviceStageOptions{Device: device})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = stage.Attempt(ctx, ports.StageInputs{Code: "000000"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenMismatch(err), "got %v", err)

	_, err = stage.Attempt(ctx, ports.StageInputs{})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err), "empty code is rejected before the device sees it")

	device.VerifyErr = apperrors.TokenExpired("code expired")
	_, err = stage.Attempt(ctx, ports.StageInputs{Code: "123456"})
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenExpired(err), "got %v", err)
}
