//go:build linux

// File: transport/probes_linux.go
// License: Apache-2.0
package transport

import "github.com/go-rpmsg/rpmsg/control"

// registerPlatformProbes wires in the Linux-specific debug probes.
func registerPlatformProbes(dp *control.DebugProbes) {
	control.RegisterPlatformProbes(dp)
}
