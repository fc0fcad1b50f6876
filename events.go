// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import "trpc.group/trpc-go/ready/internal/poller"

// Events is a caller-owned, bounded, reusable buffer of Event values.
// Poll.Poll clears it and fills it with up to Cap readiness notifications
// per call; extra kernel notifications are left for the next call.
// Between calls it is opaque except for Clear/Len/Cap/iteration.
type Events struct {
	list *poller.EventList
}

// NewEvents allocates an Events buffer with room for capacity
// notifications per Poll call. A small capacity (64-1024) is typical; it
// bounds how many notifications one Poll call can surface, not how many
// sources may be registered.
func NewEvents(capacity int) *Events {
	return &Events{list: poller.NewEventList(capacity)}
}

// Len returns the number of Events currently held.
func (e *Events) Len() int { return e.list.Len() }

// Cap returns the buffer's capacity.
func (e *Events) Cap() int { return e.list.Cap() }

// Clear empties the buffer without releasing its backing array. Poll.Poll
// calls this itself before filling; callers normally don't need to.
func (e *Events) Clear() { e.list.Clear() }

// Get returns the Event at index i, which must be in [0, Len()).
func (e *Events) Get(i int) Event { return Event{raw: e.list.At(i)} }

// ForEach calls fn once per currently-held Event, in the order the
// selector reported them (unordered across sources, per the core's
// contract). Events observed in one Poll call may coalesce multiple
// kernel notifications for the same Token into one Event.
func (e *Events) ForEach(fn func(Event)) {
	for i := 0; i < e.list.Len(); i++ {
		fn(Event{raw: e.list.At(i)})
	}
}
