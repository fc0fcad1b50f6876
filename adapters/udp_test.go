// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package adapters_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/adapters"
)

func TestUDPSocketReadFromWouldBlock(t *testing.T) {
	sock, err := adapters.NewUDPSocket("127.0.0.1:0")
	require.NoError(t, err)
	defer sock.Close()

	buf := make([]byte, 64)
	_, _, err = sock.ReadFrom(buf)
	require.Error(t, err)
	require.True(t, errors.Is(err, ready.ErrWouldBlock))
}

func TestUDPSocketRoundTrip(t *testing.T) {
	server, err := adapters.NewUDPSocket("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := adapters.NewUDPSocket("127.0.0.1:0")
	require.NoError(t, err)
	defer client.Close()

	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	const serverToken ready.Token = 1
	require.NoError(t, poll.Registry().Register(server, serverToken, ready.Readable))

	msg := []byte("datagram payload")
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

func TestDialUDPConnectedRoundTrip(t *testing.T) {
	server, err := adapters.NewUDPSocket("127.0.0.1:0")
	require.NoError(t, err)
	defer server.Close()

	client, err := adapters.DialUDP(server.LocalAddr().String())
	require.NoError(t, err)
	defer client.Close()

	msg := []byte("connected datagram")
	n, err := client.Write(msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()
	const serverToken ready.Token = 1
	require.NoError(t, poll.Registry().Register(server, serverToken, ready.Readable))

	events := ready.NewEvents(8)
	require.NoError(t, waitForToken(t, poll, events, serverToken))

	buf := make([]byte, 64)
	n, _, err = server.ReadFrom(buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf[:n])
}
