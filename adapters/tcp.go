// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package adapters

import (
	"fmt"
	"net"
	"time"

	reuseport "github.com/kavu/go_reuseport"
	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/ready/internal/netutil"
)

// TCPListener adapts a listening TCP socket into a ready.Source:
// non-blocking at construction (inherited from net.Listener, which the Go
// runtime always puts in non-blocking mode), forwarding
// Register/Reregister/Deregister to the raw fd via base, and never
// closing the fd while still registered.
//
// It binds with SO_REUSEPORT (github.com/kavu/go_reuseport) so several
// independently Poll-bound listeners — one per reactor, as
// internal/reactorpool shards them — can share one port and let the
// kernel load-balance inbound connections across them, the way a
// multi-loop acceptor relies on one listener per loop.
type TCPListener struct {
	base
	ln net.Listener
}

// NewTCPListener binds and listens on address (host:port) using
// SO_REUSEPORT.
func NewTCPListener(address string) (*TCPListener, error) {
	ln, err := reuseport.Listen("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("reuseport listen: %w", err)
	}
	fd, err := fdOf(ln)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}
	return &TCPListener{base: newBase(fd), ln: ln}, nil
}

// Addr returns the listener's bound address.
func (l *TCPListener) Addr() net.Addr { return l.ln.Addr() }

// Accept accepts one pending connection without blocking. It returns
// ready.ErrWouldBlock if none is pending; the caller should wait for a
// readable Event on the listener's Token before retrying.
//
// The accepted fd comes straight from a raw accept() syscall, not from a
// net.Conn, so unlike DialTCP there is no Go-runtime object whose
// finalizer could race a live registration to close it — the returned
// TCPStream owns the fd outright.
func (l *TCPListener) Accept() (*TCPStream, error) {
	nfd, sa, err := netutil.Accept(l.FD())
	if err != nil {
		return nil, wrapWouldBlock(err)
	}
	local, err := unix.Getsockname(nfd)
	if err != nil {
		_ = unix.Close(nfd)
		return nil, err
	}
	return &TCPStream{
		base:   newBase(nfd),
		local:  netutil.SockaddrToTCPOrUnixAddr(local),
		remote: netutil.SockaddrToTCPOrUnixAddr(sa),
	}, nil
}

// Close closes the listening socket. The caller must Deregister first if
// it was registered.
func (l *TCPListener) Close() error { return l.ln.Close() }

// TCPStream adapts a connected TCP socket into a ready.Source. Read and
// Write perform exactly one raw, non-blocking syscall each and report
// ready.ErrWouldBlock exactly when the kernel does, rather than going
// through net.TCPConn's own Read/Write (whose blocking behavior is driven
// by the Go runtime's internal netpoller, not by this core's readiness
// events).
type TCPStream struct {
	base
	// conn is non-nil only for a dialed stream: net.DialTimeout hands back
	// a *net.TCPConn whose own finalizer would close the fd once the Go
	// object becomes unreachable, so it must stay alive (pinned here)
	// for as long as the fd is registered, exactly as with TCPListener.
	conn         *net.TCPConn
	local, remote net.Addr
}

// DialTCP connects to address within timeout and adapts the resulting
// socket. The connect itself is performed by net.DialTimeout, so by the
// time this returns the connection is already established; there is no
// separate "wait for writable to confirm connect" phase to emulate.
func DialTCP(network, address string, timeout time.Duration) (*TCPStream, error) {
	conn, err := net.DialTimeout(network, address, timeout)
	if err != nil {
		return nil, err
	}
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("dial network %s is not tcp: %T", network, conn)
	}
	fd, err := fdOf(tcpConn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &TCPStream{
		base:   newBase(fd),
		conn:   tcpConn,
		local:  tcpConn.LocalAddr(),
		remote: tcpConn.RemoteAddr(),
	}, nil
}

// LocalAddr returns the stream's local address.
func (s *TCPStream) LocalAddr() net.Addr { return s.local }

// RemoteAddr returns the stream's peer address.
func (s *TCPStream) RemoteAddr() net.Addr { return s.remote }

// Read performs one non-blocking read syscall, returning
// ready.ErrWouldBlock if no data is currently available.
func (s *TCPStream) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(s.FD(), b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return n, nil
	}
}

// Write performs one non-blocking write syscall, returning
// ready.ErrWouldBlock if the socket send buffer is currently full.
func (s *TCPStream) Write(b []byte) (int, error) {
	for {
		n, err := unix.Write(s.FD(), b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return n, nil
	}
}

// Close closes the stream. The caller must Deregister first if it was
// registered.
func (s *TCPStream) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return unix.Close(s.FD())
}
