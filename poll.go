// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import (
	"time"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/ready/internal/rerrors"
)

// Poll owns a Selector (through its Registry) and drives it. Only one
// goroutine may call Poll at a time on a given Poll; Registry methods
// (obtained via Registry) are safe to call concurrently from any
// goroutine while Poll is blocked.
type Poll struct {
	registry *Registry
	closed   atomic.Bool
}

// NewPoll constructs a Poll with a freshly created Selector for the
// current platform.
func NewPoll() (*Poll, error) {
	handle, err := newSelectorHandle()
	if err != nil {
		return nil, wrapOp("new_poll", 0, err)
	}
	return &Poll{registry: newRegistry(handle)}, nil
}

// Registry returns the Registry sharing this Poll's Selector. Keep
// cloning it (TryClone) to hand registration rights to other goroutines;
// the original returned here is owned by the Poll and closes when the
// Poll does.
func (p *Poll) Registry() *Registry { return p.registry }

// Poll blocks until at least one Event is ready, the timeout elapses, or
// a Waker fires, then fills events (clearing it first). A nil timeout
// blocks indefinitely; a zero duration polls without blocking.
// Interrupted syscalls are retried transparently; the caller never sees
// ErrInterrupted from Poll itself.
func (p *Poll) Poll(events *Events, timeout *time.Duration) error {
	if p.closed.Load() {
		return rerrors.ErrClosed
	}
	if err := p.registry.selectRaw(events, timeout); err != nil {
		return wrapOp("poll", 0, err)
	}
	p.registry.handle.drainSynthetic(events)
	return nil
}

// Close releases the Poll's share of the underlying Selector.
func (p *Poll) Close() error {
	if !p.closed.CAS(false, true) {
		return nil
	}
	return p.registry.Close()
}
