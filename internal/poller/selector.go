// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package poller

import "time"

// Selector is the one contract every platform backend (epoll, kqueue,
// AFD/IOCP) satisfies. A Selector owns exactly one kernel-level polling
// object and exactly one internal wake channel; callers needing more
// parallelism run several Selectors behind their own dispatch.
//
// All methods are safe to call from any goroutine except Select, which
// must only ever be called by the single goroutine driving this Selector's
// event loop; Register/Reregister/Deregister/Wake are safe to call
// concurrently with an in-flight Select.
type Selector interface {
	// Register starts monitoring fd for interest, reporting readiness
	// under token. Returns rerrors.ErrAlreadyExists if fd is already
	// registered with this Selector.
	Register(fd int, token Token, interest Interest) error

	// Reregister changes the interest set for an already-registered fd.
	// Returns rerrors.ErrNotFound if fd isn't registered.
	Reregister(fd int, token Token, interest Interest) error

	// Deregister stops monitoring fd. Returns rerrors.ErrNotFound if fd
	// isn't registered. It is the caller's responsibility to close fd only
	// after Deregister returns, to avoid a race against fd-number reuse.
	Deregister(fd int) error

	// Select blocks until at least one Event is ready, the timeout
	// elapses, or Wake is called, then appends observed Events to events
	// (clearing it first) and returns. A nil timeout blocks indefinitely;
	// a zero timeout polls without blocking. Select retries EINTR
	// internally and never returns it to the caller.
	Select(events *EventList, timeout *time.Duration) error

	// SetWaker records the Token that a subsequent Wake should surface as
	// an Event with Readable readiness. Only one Token may be set per
	// Selector; a second call returns rerrors.ErrAlreadyExists.
	SetWaker(token Token) error

	// Wake causes a blocked or future Select call to return promptly and
	// report an Event carrying the Token passed to SetWaker. On epoll and
	// kqueue, Wake calls that race a single Select coalesce into one
	// pending wakeup and one such Event. The Windows selector posts one
	// completion packet per call, so there each Wake is reported as its
	// own Event.
	Wake() error

	// Close releases the Selector's kernel object and wake channel. Select
	// must not be in flight when Close is called.
	Close() error
}

// New constructs the Selector for the current platform.
func New() (Selector, error) {
	return newSelector()
}
