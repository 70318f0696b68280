// Package platform reports local platform capabilities that influence which
// authentication stages are offered.
package platform

import "context"

// StaticProbe is a ports.PlatformProbe with a fixed answer, configured at
// startup. The demo deployment has no real sensor hardware to interrogate.
type StaticProbe struct {
	available bool
}

// NewStaticProbe creates a probe that always reports the given availability.
func NewStaticProbe(available bool) *StaticProbe {
	return &StaticProbe{available: available}
}

// Available implements ports.PlatformProbe.
func (p *StaticProbe) Available(_ context.Context) (bool, error) {
	return p.available, nil
}

// ProbeFunc adapts a function to ports.PlatformProbe.
type ProbeFunc func(ctx context.Context) (bool, error)

// Available implements ports.PlatformProbe.
func (f ProbeFunc) Available(ctx context.Context) (bool, error) {
	return f(ctx)
}
