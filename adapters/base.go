// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package adapters bridges plain OS sockets and handles into ready.Source:
// thin, non-owning wrappers that set a handle non-blocking and
// close-on-exec at construction and forward Register/Reregister/
// Deregister to a ready.Registry using the handle's raw fd. They never
// perform buffered I/O themselves and never close the wrapped handle
// while it is still registered. Once a readiness Event says to try,
// callers use the adapters' own Read/Write (or ReadFrom/WriteTo) methods,
// each of which issues one raw non-blocking syscall on the fd and reports
// ready.ErrWouldBlock when the kernel does.
package adapters

import (
	"sync"

	"go.uber.org/atomic"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/internal/netutil"
)

// base implements ready.Source for any wrapper that can report a raw fd:
// one small struct holding the fd plus a close-guard, shared by every
// concrete adapter through embedding.
type base struct {
	fd     int
	mu     sync.Mutex
	closed atomic.Bool
}

func newBase(fd int) base {
	return base{fd: fd}
}

// FD returns the wrapped handle's raw file descriptor.
func (b *base) FD() int { return b.fd }

// Register implements ready.Source.
func (b *base) Register(registry *ready.Registry, token ready.Token, interest ready.Interest) error {
	return registry.RegisterFD(b.fd, token, interest)
}

// Reregister implements ready.Source.
func (b *base) Reregister(registry *ready.Registry, token ready.Token, interest ready.Interest) error {
	return registry.ReregisterFD(b.fd, token, interest)
}

// Deregister implements ready.Source.
func (b *base) Deregister(registry *ready.Registry) error {
	return registry.DeregisterFD(b.fd)
}

// fdOf extracts the raw fd from a socket value (*net.TCPConn, *net.UDPConn,
// *net.UnixConn, *net.TCPListener, *net.UnixListener, or anything else
// implementing syscall.Conn).
func fdOf(sock interface{}) (int, error) {
	return netutil.GetFD(sock)
}
