// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import (
	"sync"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/ready/internal/poller"
)

// registrationInner is shared by a Registration/SetReadiness pair. Before
// the pair is registered, mu.registry is nil and SetReadiness only updates
// readiness in memory. Registering and calling SetReadiness concurrently
// are both serialised through mu, which plays the role the design
// describes as a None/Locked/Some state: None is registry == nil and the
// mutex free, Locked is the mutex held by whichever of Register or
// SetReadiness got there first, Some is registry != nil.
type registrationInner struct {
	mu         sync.Mutex
	registry   *Registry
	token      Token
	interest   Interest
	registered bool

	readiness atomic.Uint32
}

func (in *registrationInner) loadReadiness() poller.Readiness {
	return poller.Readiness(in.readiness.Load())
}

// Registration is a synthetic Source: a registerable handle for readiness
// application code raises itself, for event sources the core has no
// direct OS support for (bounded channels, completion callbacks, custom
// timers). It implements Source; the paired SetReadiness is the handle
// used to drive it.
type Registration struct {
	inner *registrationInner
}

// SetReadiness is a cheap, cloneable, thread-safe handle paired with one
// Registration. Calling SetReadiness atomically records new readiness
// and, if it intersects the registration's current Interest, arranges for
// the next Poll.Poll to observe an Event for it.
type SetReadiness struct {
	inner *registrationInner
}

// NewRegistration creates a Registration/SetReadiness pair. Neither is
// registered with any Selector until Register (typically via
// Registry.Register) is called on the Registration.
func NewRegistration() (*Registration, *SetReadiness) {
	inner := &registrationInner{}
	return &Registration{inner: inner}, &SetReadiness{inner: inner}
}

// Register implements Source. It stores (registry, token, interest) and,
// if the readiness already recorded by a prior SetReadiness intersects
// interest, immediately queues a notification.
func (r *Registration) Register(registry *Registry, token Token, interest Interest) error {
	in := r.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.registered {
		return ErrAlreadyExists
	}
	in.registry = registry
	in.token = token
	in.interest = interest
	in.registered = true
	if in.loadReadiness().Intersects(poller.FromInterest(poller.Interest(interest))) {
		return notifySynthetic(registry, token, in.loadReadiness())
	}
	return nil
}

// Reregister changes the token and/or interest this Registration reports
// under. If the (possibly new) interest now intersects the currently
// recorded readiness, it queues a notification just as Register does.
func (r *Registration) Reregister(registry *Registry, token Token, interest Interest) error {
	in := r.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.registered {
		return ErrNotFound
	}
	in.registry = registry
	in.token = token
	in.interest = interest
	if in.loadReadiness().Intersects(poller.FromInterest(poller.Interest(interest))) {
		return notifySynthetic(registry, token, in.loadReadiness())
	}
	return nil
}

// Deregister stops this Registration from reporting readiness. A
// SetReadiness call after Deregister only updates memory; it no longer
// reaches any Selector.
func (r *Registration) Deregister(registry *Registry) error {
	in := r.inner
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.registered {
		return ErrNotFound
	}
	in.registered = false
	in.registry = nil
	return nil
}

// Readiness represents the same bit positions as Interest, plus
// conditions Interest cannot request (error). SetReadiness accepts one of
// these to describe what the synthetic source should report.
type Readiness = poller.Readiness

// Synthetic readiness bits, mirroring the portable Interest bits plus
// Error, which only a synthetic source or a real Selector can report
// (never something a caller asks for).
const (
	ReadinessReadable    = poller.RReadable
	ReadinessWritable    = poller.RWritable
	ReadinessPriority    = poller.RPriority
	ReadinessAio         = poller.RAio
	ReadinessLio         = poller.RLio
	ReadinessReadClosed  = poller.RReadClosed
	ReadinessWriteClosed = poller.RWriteClosed
	ReadinessError       = poller.RError
)

// SetReadiness atomically records r as this pair's current readiness. If
// the Registration is currently registered and r intersects its Interest,
// the Selector is notified so the next Poll.Poll observes an Event. The
// readiness bits are updated regardless of whether the notification
// itself succeeds.
func (sr *SetReadiness) SetReadiness(r Readiness) error {
	in := sr.inner
	in.readiness.Store(uint32(r))
	in.mu.Lock()
	registry, token, interest, registered := in.registry, in.token, in.interest, in.registered
	in.mu.Unlock()
	if !registered || !r.Intersects(poller.FromInterest(poller.Interest(interest))) {
		return nil
	}
	return notifySynthetic(registry, token, r)
}

// Readiness returns the pair's currently recorded readiness bits.
func (sr *SetReadiness) Readiness() Readiness {
	return sr.inner.loadReadiness()
}
