// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package poller

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterestIsEmpty(t *testing.T) {
	assert.True(t, Interest(0).IsEmpty())
	assert.False(t, Readable.IsEmpty())
}

func TestReadinessHasAndIntersects(t *testing.T) {
	r := RReadable | RWritable
	assert.True(t, r.Has(RReadable))
	assert.False(t, r.Has(RError))
	assert.True(t, r.Intersects(RWritable))
	assert.False(t, r.Intersects(RError))
}

func TestFromInterestMapsEveryBit(t *testing.T) {
	in := Readable | Writable | Priority | Aio | Lio | ReadClosed | WriteClosed
	got := FromInterest(in)
	want := RReadable | RWritable | RPriority | RAio | RLio | RReadClosed | RWriteClosed
	assert.Equal(t, want, got)
	assert.False(t, got.Has(RError))
}

func TestEventListPushRespectsCapacity(t *testing.T) {
	l := NewEventList(2)
	assert.Equal(t, 2, l.Cap())
	assert.True(t, l.Push(Event{Token: 1, Readiness: RReadable}))
	assert.True(t, l.Push(Event{Token: 2, Readiness: RWritable}))
	assert.False(t, l.Push(Event{Token: 3, Readiness: RReadable}))
	assert.Equal(t, 2, l.Len())
	assert.Equal(t, 0, l.Remaining())
}

func TestEventListClearAndAt(t *testing.T) {
	l := NewEventList(4)
	l.Push(Event{Token: 9, Readiness: RReadable})
	assert.Equal(t, Token(9), l.At(0).Token)
	l.Clear()
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, 4, l.Cap())
}
