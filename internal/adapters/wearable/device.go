// Package wearable models the paired secondary device that displays rolling
// one-time codes. Codes are time-based: each validity window has exactly one
// code, and opening a new window invalidates the previous one.
package wearable

import (
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	apperrors "github.com/pulsenet/sessiond/internal/errors"
)

// DefaultPeriod is the validity window of a single device code.
const DefaultPeriod = 120 * time.Second

// Device is a ports.PairedDevice producing six-digit TOTP codes. It is
// stateless between calls; the code shown at any instant is a pure function
// of the shared secret and the clock.
type Device struct {
	id     string
	secret string
	period time.Duration
}

// Options configures a Device.
type Options struct {
	// ID identifies the paired device in status payloads.
	ID string
	// Secret is the shared base32 TOTP secret. Generated when empty.
	Secret string
	// Period is the code validity window. Defaults to DefaultPeriod.
	Period time.Duration
}

// New creates a Device. A secret is generated when none is supplied.
func New(opts Options) (*Device, error) {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.ID == "" {
		opts.ID = "WEARABLE_001"
	}
	if opts.Secret == "" {
		key, err := totp.Generate(totp.GenerateOpts{
			Issuer:      "pulsenet",
			AccountName: opts.ID,
			Period:      uint(opts.Period / time.Second),
		})
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "generating device secret")
		}
		opts.Secret = key.Secret()
	}
	return &Device{
		id:     opts.ID,
		secret: opts.Secret,
		period: opts.Period,
	}, nil
}

// ID implements ports.PairedDevice.
func (d *Device) ID() string {
	return d.id
}

// CurrentCode returns the code valid at now.
func (d *Device) CurrentCode(now time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(d.secret, now, d.validateOpts())
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrCodeInternal, "generating device code")
	}
	return code, nil
}

// ExpiresIn returns how long the code current at now remains valid.
func (d *Device) ExpiresIn(now time.Time) time.Duration {
	elapsed := now.Unix() % int64(d.period/time.Second)
	return d.period - time.Duration(elapsed)*time.Second
}

// Verify checks an entered code at now. The current window's code verifies
// successfully. The previous window's code is classified as expired rather
// than mismatched: it was a real code once, the user was just too slow.
// Anything else is a mismatch.
func (d *Device) Verify(now time.Time, code string) error {
	current, err := d.CurrentCode(now)
	if err != nil {
		return err
	}
	if code == current {
		return nil
	}

	previous, err := totp.GenerateCodeCustom(d.secret, now.Add(-d.period), d.validateOpts())
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "generating device code")
	}
	if code == previous {
		return apperrors.TokenExpired("code expired, a new code is already active")
	}

	return apperrors.TokenMismatch("code does not match the paired device")
}

func (d *Device) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    uint(d.period / time.Second),
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}
