// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
)

func TestEventsNewEmpty(t *testing.T) {
	events := ready.NewEvents(4)
	require.Equal(t, 0, events.Len())
	require.Equal(t, 4, events.Cap())
}

func TestEventsClear(t *testing.T) {
	events := ready.NewEvents(4)
	events.Clear()
	require.Equal(t, 0, events.Len())
}

func TestEventsForEachVisitsNothingWhenEmpty(t *testing.T) {
	events := ready.NewEvents(4)
	called := false
	events.ForEach(func(ready.Event) { called = true })
	require.False(t, called)
}
