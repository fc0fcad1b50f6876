// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import "trpc.group/trpc-go/ready/internal/poller"

// Event is a single readiness observation delivered by a Selector: a Token
// plus predicates describing what the kernel reported. Its accessors are
// hints — is_readable/is_writable may fire without the corresponding I/O
// actually succeeding (the spurious-event rule). A caller always attempts
// non-blocking I/O until it sees WouldBlock rather than trusting an event
// to guarantee data is present.
type Event struct {
	raw poller.Event
}

// Token returns the Token supplied at Register/Reregister time for this
// registration. On Linux the kernel stores the token itself, so a
// concurrent Reregister is always reflected; on kqueue the token recorded
// at Select time may still be the old one if a Reregister raced it.
func (e Event) Token() Token { return Token(e.raw.Token) }

// IsReadable reports whether the event indicates the source may be
// readable. Portable.
func (e Event) IsReadable() bool { return e.raw.Readiness.Has(poller.RReadable) }

// IsWritable reports whether the event indicates the source may be
// writable. Portable.
func (e Event) IsWritable() bool { return e.raw.Readiness.Has(poller.RWritable) }

// IsError reports whether the selector observed an error condition on the
// source. Platform hint.
func (e Event) IsError() bool { return e.raw.Readiness.Has(poller.RError) }

// IsReadClosed reports whether the peer (or local half) closed the read
// side. Platform hint.
func (e Event) IsReadClosed() bool { return e.raw.Readiness.Has(poller.RReadClosed) }

// IsWriteClosed reports whether the write side closed. Platform hint.
func (e Event) IsWriteClosed() bool { return e.raw.Readiness.Has(poller.RWriteClosed) }

// IsPriority reports out-of-band/priority readiness (EPOLLPRI on Linux).
// Platform hint.
func (e Event) IsPriority() bool { return e.raw.Readiness.Has(poller.RPriority) }

// IsAio reports AIO completion readiness (BSD/Darwin EVFILT_AIO only).
// Platform hint; always false on Linux and Windows.
func (e Event) IsAio() bool { return e.raw.Readiness.Has(poller.RAio) }

// IsLio reports list-IO completion readiness (BSD/Darwin EVFILT_LIO only).
// Platform hint; always false on Linux and Windows.
func (e Event) IsLio() bool { return e.raw.Readiness.Has(poller.RLio) }
