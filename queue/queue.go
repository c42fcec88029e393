// File: queue/queue.go
// Package queue implements the virtqueue-style descriptor/used-ring
// discipline shared by the receive and send queues: the host posts buffer
// indices, the remote (driven by the platform's doorbell/interrupt
// surface, out of scope per the transport design) drains and returns them
// on the used ring.
//
// Grounded on core/concurrency/ring.go's lock-free RingBuffer, used here to
// back both the posted-descriptor ring and the used-descriptor ring.
// License: Apache-2.0

package queue

import (
	"github.com/go-rpmsg/rpmsg/core/concurrency"
)

// Queue is one half of the transport's queue pair (receive or send). It is
// not internally synchronized: per the concurrency design, the receive
// queue is mutated only from the single receive-dispatch context and the
// send queue is mutated only while the transport's send-queue lock is
// held — callers, not Queue, own that discipline.
type Queue struct {
	name  string
	avail *concurrency.RingBuffer[uint32] // descriptor indices posted, awaiting the remote
	used  *concurrency.RingBuffer[uint32] // descriptor indices the remote has returned
	kick  func(deviceAddr uint64)
}

// New creates a queue with the given ring capacity (rounded up to a power
// of two by the underlying ring) and doorbell function. The doorbell
// receives the device-view address of the descriptor that triggered it
// (§3/§9's simulated-base translation), not the raw slot index.
func New(name string, capacity int, kick func(deviceAddr uint64)) *Queue {
	if capacity < 2 {
		capacity = 2
	}
	return &Queue{
		name:  name,
		avail: concurrency.NewRingBuffer[uint32](uint64(capacity)),
		used:  concurrency.NewRingBuffer[uint32](uint64(capacity)),
		kick:  kick,
	}
}

// Name returns the queue's diagnostic name ("recv" or "send").
func (q *Queue) Name() string { return q.name }

// Post makes buffer index idx available to the remote side. Returns false
// if the available ring is full (a queue fault — the caller should treat
// this as fatal per the error design).
func (q *Queue) Post(idx uint32) bool {
	return q.avail.Enqueue(idx)
}

// Kick fires the outbound doorbell with deviceAddr, if one was configured.
func (q *Queue) Kick(deviceAddr uint64) {
	if q.kick != nil {
		q.kick(deviceAddr)
	}
}

// NotifyUsed is invoked by the platform's inbound completion callback to
// hand a completed/filled buffer index back to the host. Returns false if
// the used ring is full — the caller must log and drop rather than block.
func (q *Queue) NotifyUsed(idx uint32) bool {
	return q.used.Enqueue(idx)
}

// TakeUsed removes and returns one completed buffer index, if any, and
// retires one entry from the available ring, since that descriptor is no
// longer posted to the remote.
func (q *Queue) TakeUsed() (uint32, bool) {
	idx, ok := q.used.Dequeue()
	if ok {
		q.avail.Dequeue()
	}
	return idx, ok
}

// Pending returns the number of descriptors currently posted to the
// remote and not yet reclaimed via TakeUsed.
func (q *Queue) Pending() int {
	return q.avail.Len()
}

// UsedLen returns the number of completed descriptors waiting to be taken.
func (q *Queue) UsedLen() int {
	return q.used.Len()
}
