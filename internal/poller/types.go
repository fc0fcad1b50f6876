// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package poller implements the platform-specific readiness selectors
// (epoll, kqueue, AFD/IOCP) behind one identical Selector contract, plus
// the OS wake primitive used to unblock a blocked Selector.Select from any
// thread. It knows nothing about sockets: callers hand it a raw file
// descriptor (or, on Windows, a raw HANDLE) and a Token.
package poller

import "fmt"

// Token is a caller-chosen, machine-word-sized value echoed back in every
// Event produced for a registration. It mirrors ready.Token bit-for-bit;
// the two packages don't share a type to avoid an import cycle (poller
// cannot import the root package, which imports poller).
type Token uint64

// Interest mirrors ready.Interest bit-for-bit. See that type's doc comment
// for the meaning of each bit.
type Interest uint8

// Interest bits. Must stay numerically identical to the Interest
// constants in the root package.
const (
	Readable Interest = 1 << iota
	Writable
	Priority
	Aio
	Lio
	ReadClosed
	WriteClosed
)

// IsEmpty reports whether i carries no bits.
func (i Interest) IsEmpty() bool { return i == 0 }

// Readiness mirrors ready.Readiness bit-for-bit: the conditions a selector
// observed on a handle, reported through an Event's accessors. Unlike
// Interest, Readiness also carries Error, which is never something a
// caller registers for but can be observed.
type Readiness uint16

// Readiness bits.
const (
	RReadable Readiness = 1 << iota
	RWritable
	RPriority
	RAio
	RLio
	RReadClosed
	RWriteClosed
	RError
)

func (r Readiness) String() string {
	return fmt.Sprintf("Readiness(%08b)", uint16(r))
}

// Has reports whether r contains all bits in other.
func (r Readiness) Has(other Readiness) bool { return r&other == other }

// Intersects reports whether r and other share any bit.
func (r Readiness) Intersects(other Readiness) bool { return r&other != 0 }

// FromInterest converts an Interest into the Readiness bits a caller would
// accept seeing reported, used by SetReadiness's interest-intersection
// check (Registration/SetReadiness never reports Error on its own).
func FromInterest(i Interest) Readiness {
	var r Readiness
	if i&Readable != 0 {
		r |= RReadable
	}
	if i&Writable != 0 {
		r |= RWritable
	}
	if i&Priority != 0 {
		r |= RPriority
	}
	if i&Aio != 0 {
		r |= RAio
	}
	if i&Lio != 0 {
		r |= RLio
	}
	if i&ReadClosed != 0 {
		r |= RReadClosed
	}
	if i&WriteClosed != 0 {
		r |= RWriteClosed
	}
	return r
}

// Event is a readiness observation: a Token plus the Readiness bits the
// selector observed for it. Selectors coalesce multiple kernel
// notifications for the same registration into one Event per Select call.
type Event struct {
	Token     Token
	Readiness Readiness
}

// EventList is the caller-owned, reusable, bounded buffer Select fills.
// It is the poller-package counterpart of the root Events type; the root
// type is a thin wrapper around this one.
type EventList struct {
	events []Event
}

// NewEventList allocates an EventList with room for capacity Events.
func NewEventList(capacity int) *EventList {
	return &EventList{events: make([]Event, 0, capacity)}
}

// Cap returns the list's capacity.
func (l *EventList) Cap() int { return cap(l.events) }

// Len returns the number of Events currently held.
func (l *EventList) Len() int { return len(l.events) }

// Clear empties the list without releasing its backing array.
func (l *EventList) Clear() { l.events = l.events[:0] }

// At returns the Event at index i.
func (l *EventList) At(i int) Event { return l.events[i] }

// Push appends e if there is room, reporting whether it fit.
func (l *EventList) Push(e Event) bool {
	if len(l.events) >= cap(l.events) {
		return false
	}
	l.events = append(l.events, e)
	return true
}

// Remaining returns how many more Events the list can hold.
func (l *EventList) Remaining() int { return cap(l.events) - len(l.events) }

// raw returns the backing slice sized to capacity, for a selector to fill
// directly via a syscall and then re-slice with SetLen.
func (l *EventList) raw() []Event {
	return l.events[:cap(l.events)]
}

// SetLen re-slices the list to n after a selector filled its raw buffer
// directly.
func (l *EventList) SetLen(n int) { l.events = l.events[:n] }
