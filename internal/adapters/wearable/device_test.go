package wearable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pulsenet/sessiond/internal/errors"
)

// testSecret is a fixed base32 secret so codes are deterministic per instant.
const testSecret = "JBSWY3DPEHPK3PXP"

func newTestDevice(t *testing.T) *Device {
	t.Helper()
	dev, err := New(Options{ID: "wearable-test", Secret: testSecret})
	require.NoError(t, err)
	return dev
}

func TestDevice_CurrentCodeIsStableWithinWindow(t *testing.T) {
	dev := newTestDevice(t)
	// Window start, so the whole period lies ahead.
	start := time.Unix(1_700_000_400, 0)

	first, err := dev.CurrentCode(start)
	require.NoError(t, err)
	require.Len(t, first, 6)

	later, err := dev.CurrentCode(start.Add(119 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, first, later, "code must not change inside one window")

	next, err := dev.CurrentCode(start.Add(120 * time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, first, next, "code must roll over at the window boundary")
}

func TestDevice_VerifyCurrentCode(t *testing.T) {
	dev := newTestDevice(t)
	now := time.Unix(1_700_000_400, 0)

	code, err := dev.CurrentCode(now)
	require.NoError(t, err)

	assert.NoError(t, dev.Verify(now, code))
}

func TestDevice_VerifyPreviousWindowIsExpired(t *testing.T) {
	dev := newTestDevice(t)
	now := time.Unix(1_700_000_400, 0)

	stale, err := dev.CurrentCode(now.Add(-120 * time.Second))
	require.NoError(t, err)

	err = dev.Verify(now, stale)
	require.Error(t, err)
	assert.True(t, apperrors.IsTokenExpired(err), "previous window code should be expired, got %v", err)
}

func TestDevice_VerifyWrongCodeIsMismatch(t *testing.T) {
	dev := newTestDevice(t)
	now := time.Unix(1_700_000_400, 0)

	for _, code := range []string{"000000", "", "12345", "abcdef"} {
		err := dev.Verify(now, code)
		require.Error(t, err)
		assert.True(t, apperrors.IsTokenMismatch(err), "code %q should be a mismatch, got %v", code, err)
	}
}

func TestDevice_ExpiresIn(t *testing.T) {
	dev := newTestDevice(t)

	windowStart := time.Unix(1_700_000_400, 0)
	assert.Equal(t, 120*time.Second, dev.ExpiresIn(windowStart))
	assert.Equal(t, 90*time.Second, dev.ExpiresIn(windowStart.Add(30*time.Second)))
	assert.Equal(t, 1*time.Second, dev.ExpiresIn(windowStart.Add(119*time.Second)))
}

func TestNew_GeneratesSecretWhenEmpty(t *testing.T) {
	dev, err := New(Options{ID: "wearable-gen"})
	require.NoError(t, err)

	code, err := dev.CurrentCode(time.Now())
	require.NoError(t, err)
	assert.Len(t, code, 6)
}

func TestNew_Defaults(t *testing.T) {
	dev, err := New(Options{Secret: testSecret})
	require.NoError(t, err)
	assert.Equal(t, "WEARABLE_001", dev.ID())
	assert.Equal(t, DefaultPeriod, dev.period)
}
