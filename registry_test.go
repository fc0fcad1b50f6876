// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package ready_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/adapters"
)

func TestRegistryTryCloneSharesSelector(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	clone, err := poll.Registry().TryClone()
	require.NoError(t, err)
	defer clone.Close()

	p, err := adapters.NewPipe()
	require.NoError(t, err)
	defer p.Reader.Close()
	defer p.Writer.Close()

	// Register through the clone, observe through the original Poll.
	const token ready.Token = 3
	require.NoError(t, clone.Register(p.Reader, token, ready.Readable))
	_, err = p.Writer.Write([]byte("y"))
	require.NoError(t, err)

	require.NoError(t, waitForToken(t, poll, events8(), token))
}

func TestRegistryDeregisterUnknownFails(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	p, err := adapters.NewPipe()
	require.NoError(t, err)
	defer p.Reader.Close()
	defer p.Writer.Close()

	require.Error(t, poll.Registry().Deregister(p.Reader))
}

func TestRegistryClosedRejectsOperations(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)

	registry := poll.Registry()
	require.NoError(t, registry.Close())

	p, err := adapters.NewPipe()
	require.NoError(t, err)
	defer p.Reader.Close()
	defer p.Writer.Close()

	require.ErrorIs(t, registry.Register(p.Reader, 1, ready.Readable), ready.ErrClosed)

	_, err = registry.TryClone()
	require.ErrorIs(t, err, ready.ErrClosed)
}

func TestRegistryRegisterThenDeregister(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	p, err := adapters.NewPipe()
	require.NoError(t, err)
	defer p.Reader.Close()
	defer p.Writer.Close()

	registry := poll.Registry()
	require.NoError(t, registry.Register(p.Reader, 5, ready.Readable))
	require.NoError(t, registry.Reregister(p.Reader, 6, ready.Readable))
	require.NoError(t, registry.Deregister(p.Reader))
}
