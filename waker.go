// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import (
	"go.uber.org/atomic"
	"trpc.group/trpc-go/ready/internal/poller"
)

// Waker lets any goroutine cause a blocked or future Poll.Poll call on a
// given Registry's Selector to return promptly, observing one Event
// carrying the Waker's Token with Readable readiness. On epoll and kqueue,
// redundant Wake calls while one is already pending coalesce into a single
// Event; on Windows each Wake call is reported as its own Event.
//
// At most one Waker may exist per Selector; NewWaker on a Registry whose
// Selector already has one returns ErrAlreadyExists.
type Waker struct {
	registry *Registry
	token    Token
	closed   atomic.Bool
}

// NewWaker registers a Waker against registry's Selector, reporting token
// on Wake.
func NewWaker(registry *Registry, token Token) (*Waker, error) {
	if err := registry.handle.sel.SetWaker(poller.Token(token)); err != nil {
		return nil, wrapOp("new_waker", 0, err)
	}
	return &Waker{registry: registry, token: token}, nil
}

// Wake causes the next (or currently blocked) Poll.Poll call on this
// Waker's Selector to return an Event for this Waker's Token.
func (w *Waker) Wake() error {
	if w.closed.Load() {
		return ErrClosed
	}
	if err := w.registry.handle.sel.Wake(); err != nil {
		return wrapOp("wake", 0, err)
	}
	return nil
}

// Close marks the Waker unusable. It does not unregister the Selector's
// single wake channel, which is reclaimed only when the Selector itself
// closes; a Selector never gets a replacement Waker.
func (w *Waker) Close() error {
	w.closed.Store(true)
	return nil
}
