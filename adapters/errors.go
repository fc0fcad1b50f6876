// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package adapters

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/ready"
)

// wrapWouldBlock normalizes EAGAIN/EWOULDBLOCK from a raw syscall into
// ready.ErrWouldBlock and wraps any other error with "adapters" context
// (errors.Is still finds the original errno), mirroring the policy Poll
// and Registry apply to platform errnos (see errors.go).
func wrapWouldBlock(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
		return ready.ErrWouldBlock
	}
	return errors.Wrap(err, "adapters")
}
