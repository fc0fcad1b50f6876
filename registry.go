// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import (
	"sync"
	"time"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/ready/internal/poller"
	"trpc.group/trpc-go/ready/internal/rerrors"
	"trpc.group/trpc-go/ready/log"
	"trpc.group/trpc-go/ready/metrics"
)

// selectorHandle is the Selector's kernel object, shared and ref-counted
// across every Registry clone, mirroring the shared-ownership lifecycle
// described for Poll/Registry: the object closes only once the last clone
// is closed.
//
// It also owns the synthetic readiness queue that backs Registration /
// SetReadiness: the OS selectors have no notion of a user-space source, so
// a pending synthetic notification is recorded here and merged into the
// caller's Events on the next Select, alongside whatever the kernel
// itself reported.
type selectorHandle struct {
	sel  poller.Selector
	refs atomic.Int32

	synMu      sync.Mutex
	syntheticQ map[Token]poller.Readiness
}

func newSelectorHandle() (*selectorHandle, error) {
	sel, err := poller.New()
	if err != nil {
		return nil, err
	}
	h := &selectorHandle{sel: sel, syntheticQ: make(map[Token]poller.Readiness)}
	h.refs.Store(1)
	return h, nil
}

// pushSynthetic records readiness r as pending for token and wakes the
// Selector so a blocked or future Select observes it. Coalesces with any
// readiness already pending for the same token.
func (h *selectorHandle) pushSynthetic(token Token, r poller.Readiness) error {
	h.synMu.Lock()
	h.syntheticQ[token] |= r
	h.synMu.Unlock()
	metrics.Add(metrics.SyntheticNotifyCalls, 1)
	if err := h.sel.Wake(); err != nil {
		log.Default.Debugf("synthetic notify for token %v failed to wake selector: %v", token, err)
		return err
	}
	return nil
}

// drainSynthetic appends pending synthetic notifications into events,
// stopping once events is full; anything left over stays queued for the
// next Poll.Poll.
func (h *selectorHandle) drainSynthetic(events *Events) {
	h.synMu.Lock()
	defer h.synMu.Unlock()
	for token, r := range h.syntheticQ {
		if !events.list.Push(poller.Event{Token: poller.Token(token), Readiness: r}) {
			return
		}
		delete(h.syntheticQ, token)
	}
}

// notifySynthetic is the Registration/SetReadiness-facing entry point;
// Registry is the only thing that knows how to reach the shared handle.
func notifySynthetic(registry *Registry, token Token, r poller.Readiness) error {
	return registry.handle.pushSynthetic(token, r)
}

func (h *selectorHandle) clone() *selectorHandle {
	h.refs.Inc()
	return h
}

func (h *selectorHandle) release() error {
	if h.refs.Dec() > 0 {
		return nil
	}
	return h.sel.Close()
}

// Registry is a cloneable, thread-safe handle onto a Selector, exposing
// only registration operations. Background goroutines hold a Registry
// clone to add or remove sources concurrently with a reactor thread
// blocked in Poll.Poll on the same underlying Selector.
type Registry struct {
	handle *selectorHandle
	closed atomic.Bool
}

func newRegistry(h *selectorHandle) *Registry {
	return &Registry{handle: h}
}

// TryClone produces a second Registry handle sharing the same underlying
// Selector. Both the original and the clone must eventually be Closed;
// the Selector itself closes only once every clone has been.
func (r *Registry) TryClone() (*Registry, error) {
	if r.closed.Load() {
		return nil, rerrors.ErrClosed
	}
	return newRegistry(r.handle.clone()), nil
}

// Register starts monitoring src, reporting readiness against token for
// interest. It delegates to src.Register, which in turn calls back into
// the Registry's Selector using the source's underlying OS handle.
func (r *Registry) Register(src Source, token Token, interest Interest) error {
	if r.closed.Load() {
		return rerrors.ErrClosed
	}
	if interest.isEmpty() {
		return rerrors.ErrInvalidInput
	}
	return src.Register(r, token, interest)
}

// Reregister changes the token and/or interest for an already-registered
// source.
func (r *Registry) Reregister(src Source, token Token, interest Interest) error {
	if r.closed.Load() {
		return rerrors.ErrClosed
	}
	if interest.isEmpty() {
		return rerrors.ErrInvalidInput
	}
	return src.Reregister(r, token, interest)
}

// Deregister stops monitoring src. The caller must not close src's
// underlying handle until this returns.
func (r *Registry) Deregister(src Source) error {
	if r.closed.Load() {
		return rerrors.ErrClosed
	}
	return src.Deregister(r)
}

// selectRaw runs one Select pass against the shared Selector. Used by
// Poll.Poll; exported within the package only.
func (r *Registry) selectRaw(events *Events, timeout *time.Duration) error {
	return r.handle.sel.Select(events.list, timeout)
}

// rawRegister/rawReregister/rawDeregister/rawWake give Source
// implementations (the platform adapters, Waker, Registration) direct
// access to the underlying Selector without re-exporting poller.Selector
// from the package's public surface.
func (r *Registry) rawRegister(fd int, token Token, interest Interest) error {
	return r.handle.sel.Register(fd, poller.Token(token), poller.Interest(interest))
}

func (r *Registry) rawReregister(fd int, token Token, interest Interest) error {
	return r.handle.sel.Reregister(fd, poller.Token(token), poller.Interest(interest))
}

func (r *Registry) rawDeregister(fd int) error {
	return r.handle.sel.Deregister(fd)
}

func (r *Registry) rawWake() error {
	return r.handle.sel.Wake()
}

// RegisterFD, ReregisterFD and DeregisterFD let a Source implementation
// outside this package (a platform socket adapter) reach the Registry's
// Selector using a raw file descriptor, without this package exposing the
// internal/poller Selector type itself.
func (r *Registry) RegisterFD(fd int, token Token, interest Interest) error {
	if r.closed.Load() {
		return rerrors.ErrClosed
	}
	return r.rawRegister(fd, token, interest)
}

// ReregisterFD is the Reregister counterpart of RegisterFD.
func (r *Registry) ReregisterFD(fd int, token Token, interest Interest) error {
	if r.closed.Load() {
		return rerrors.ErrClosed
	}
	return r.rawReregister(fd, token, interest)
}

// DeregisterFD is the Deregister counterpart of RegisterFD.
func (r *Registry) DeregisterFD(fd int) error {
	if r.closed.Load() {
		return rerrors.ErrClosed
	}
	return r.rawDeregister(fd)
}

// Close releases this Registry clone's share of the underlying Selector.
// The kernel object itself is closed only when the last clone (including
// the one owned by the originating Poll) is closed.
func (r *Registry) Close() error {
	if !r.closed.CAS(false, true) {
		return nil
	}
	return r.handle.release()
}
