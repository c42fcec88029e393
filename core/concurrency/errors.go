// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Error definitions for concurrency module.

package concurrency

import "errors"

// ErrAffinityNotSupported indicates CPU affinity is not supported on this
// platform; returned by affinity.SetAffinity's stub implementation and
// surfaced (non-fatally) into transport metrics by dispatch.Loop.Run.
var ErrAffinityNotSupported = errors.New("CPU affinity not supported")
