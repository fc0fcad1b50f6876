// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package adapters_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/adapters"
)

func TestUnixStreamRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ready-stream.sock")
	ln, err := adapters.NewUnixListener(path)
	require.NoError(t, err)
	defer ln.Close()

	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	const lnToken ready.Token = 1
	require.NoError(t, poll.Registry().Register(ln, lnToken, ready.Readable))

	client, err := adapters.DialUnix(path)
	require.NoError(t, err)
	defer client.Close()

	events := ready.NewEvents(8)
	require.NoError(t, waitForToken(t, poll, events, lnToken))

	server, err := ln.Accept()
	require.NoError(t, err)
	defer server.Close()

	const serverToken ready.Token = 2
	require.NoError(t, poll.Registry().Register(server, serverToken, ready.Readable))

	msg := []byte("unix stream payload")
	n, err := client.Write(msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	require.NoError(t, waitForToken(t, poll, events, serverToken))
	buf := make([]byte, 64)
	n, err = server.Read(buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf[:n])
}

func TestUnixDatagramRoundTrip(t *testing.T) {
	dir := t.TempDir()
	serverPath := filepath.Join(dir, "ready-server.sock")
	clientPath := filepath.Join(dir, "ready-client.sock")

	server, err := adapters.NewUnixDatagram(serverPath)
	require.NoError(t, err)
	defer server.Close()

	client, err := adapters.NewUnixDatagram(clientPath)
	require.NoError(t, err)
	defer client.Close()

	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()
	const serverToken ready.Token = 1
	require.NoError(t, poll.Registry().Register(server, serverToken, ready.Readable))

	msg := []byte("unix datagram payload")
	n, err := client.WriteTo(msg, server.LocalAddr())
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	events := ready.NewEvents(8)
	require.NoError(t, waitForToken(t, poll, events, serverToken))

	buf := make([]byte, 64)
	n, _, err = server.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf[:n])
}
