// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package ready_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/adapters"
)

func TestErrInvalidInputOnEmptyInterest(t *testing.T) {
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	p, err := adapters.NewPipe()
	require.NoError(t, err)
	defer p.Reader.Close()
	defer p.Writer.Close()

	err = poll.Registry().Register(p.Reader, 1, ready.Interest(0))
	require.True(t, errors.Is(err, ready.ErrInvalidInput))
}

func TestErrNotFoundOnReregisterUnregistered(t *testing.T) {
	reg, _ := ready.NewRegistration()
	poll, err := ready.NewPoll()
	require.NoError(t, err)
	defer poll.Close()

	err = poll.Registry().Reregister(reg, 1, ready.Readable)
	require.True(t, errors.Is(err, ready.ErrNotFound))
}
