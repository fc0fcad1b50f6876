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
	"time"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/adapters"
)

func TestPollZeroTimeoutNoEvents(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	events := ready.NewEvents(8)
	zero := time.Duration(0)
	require.NoError(t, poll.Poll(events, &zero))
	require.Equal(t, 0, events.Len())
}

func TestPollObservesPipeReadable(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	p, err := adapters.NewPipe()
	require.NoError(t, err)
	defer p.Reader.Close()
	defer p.Writer.Close()

	const token ready.Token = 7
	require.NoError(t, poll.Registry().Register(p.Reader, token, ready.Readable))

	_, err = p.Writer.Write([]byte("x"))
	require.NoError(t, err)

	require.NoError(t, waitForToken(t, poll, events8(), token))
}

func TestPollClosedReturnsErrClosed(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	require.NoError(t, poll.Close())

	events := ready.NewEvents(8)
	d := time.Duration(0)
	require.ErrorIs(t, poll.Poll(events, &d), ready.ErrClosed)
}

func events8() *ready.Events { return ready.NewEvents(8) }

func waitForToken(t *testing.T, poll *ready.Poll, events *ready.Events, want ready.Token) error {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
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
