//go:build !linux && !windows

// File: transport/probes_other.go
// License: Apache-2.0
package transport

import "github.com/go-rpmsg/rpmsg/control"

// registerPlatformProbes is a no-op on platforms without a
// control.RegisterPlatformProbes implementation.
func registerPlatformProbes(dp *control.DebugProbes) {}
