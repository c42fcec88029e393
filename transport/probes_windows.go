//go:build windows

// File: transport/probes_windows.go
// License: Apache-2.0
package transport

import "github.com/go-rpmsg/rpmsg/control"

// registerPlatformProbes wires in the Windows-specific debug probes.
func registerPlatformProbes(dp *control.DebugProbes) {
	control.RegisterPlatformProbes(dp)
}
