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
	"time"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/adapters"
)

func TestTCPListenerAcceptWouldBlock(t *testing.T) {
	ln, err := adapters.NewTCPListener("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	_, err = ln.Accept()
	require.Error(t, err)
	require.True(t, errors.Is(err, ready.ErrWouldBlock))
}

func TestTCPStreamRoundTrip(t *testing.T) {
	ln, err := adapters.NewTCPListener("127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	const lnToken ready.Token = 1
	require.NoError(t, poll.Registry().Register(ln, lnToken, ready.Readable))

	client, err := adapters.DialTCP("tcp", ln.Addr().String(), time.Second)
	require.NoError(t, err)
	defer client.Close()

	events := ready.NewEvents(8)
	require.NoError(t, waitForToken(t, poll, events, lnToken))

	server, err := ln.Accept()
	require.NoError(t, err)
	defer server.Close()

	const serverToken ready.Token = 2
	require.NoError(t, poll.Registry().Register(server, serverToken, ready.Readable))

	msg := []byte("hello reactor")
	n, err := client.Write(msg)
	require.NoError(t, err)
	require.Equal(t, len(msg), n)

	require.NoError(t, waitForToken(t, poll, events, serverToken))
	buf := make([]byte, 64)
	n, err = server.Read(buf)
	require.NoError(t, err)
	require.Equal(t, msg, buf[:n])
}

func waitForToken(t *testing.T, poll *ready.Poll, events *ready.Events, want ready.Token) error {
	t.Helper()
	timeout := 2 * time.Second
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		d := 100 * time.Millisecond
		if err := poll.Poll(events, &d); err != nil {
			return err
		}
		for i := 0; i < events.Len(); i++ {
			if events.Get(i).Token() == want {
				return nil
			}
		}
	}
	t.Fatalf("timed out waiting for token %v", want)
	return nil
}
