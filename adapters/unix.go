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

	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/ready/internal/netutil"
)

// UnixListener adapts a Unix domain stream listener into a ready.Source.
// Unlike TCPListener it has no SO_REUSEPORT sharing: a Unix socket path is
// exclusive to one listener, so only one reactor owns it directly, fanning
// accepted UnixStreams out to the pool from there.
type UnixListener struct {
	base
	ln *net.UnixListener
}

// NewUnixListener binds and listens on a Unix domain socket path.
func NewUnixListener(path string) (*UnixListener, error) {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	unixLn, ok := ln.(*net.UnixListener)
	if !ok {
		_ = ln.Close()
		return nil, fmt.Errorf("listen unix returned %T", ln)
	}
	fd, err := fdOf(unixLn)
	if err != nil {
		_ = unixLn.Close()
		return nil, err
	}
	return &UnixListener{base: newBase(fd), ln: unixLn}, nil
}

// Addr returns the listener's bound path.
func (l *UnixListener) Addr() net.Addr { return l.ln.Addr() }

// Accept accepts one pending connection without blocking, returning
// ready.ErrWouldBlock if none is pending. As with TCPListener.Accept, the
// fd comes straight from accept(), so the returned UnixStream owns it
// outright; there is no net.Conn finalizer to guard against.
func (l *UnixListener) Accept() (*UnixStream, error) {
	nfd, sa, err := netutil.Accept(l.FD())
	if err != nil {
		return nil, wrapWouldBlock(err)
	}
	local, err := unix.Getsockname(nfd)
	if err != nil {
		_ = unix.Close(nfd)
		return nil, err
	}
	return &UnixStream{
		base:   newBase(nfd),
		local:  netutil.SockaddrToTCPOrUnixAddr(local),
		remote: netutil.SockaddrToTCPOrUnixAddr(sa),
	}, nil
}

// Close closes the listening socket.
func (l *UnixListener) Close() error { return l.ln.Close() }

// UnixStream adapts a connected Unix domain stream socket into a
// ready.Source, following TCPStream's raw-syscall Read/Write contract.
type UnixStream struct {
	base
	// conn is non-nil only for a dialed stream, pinned alive for the same
	// reason TCPStream pins its dialed net.TCPConn.
	conn          *net.UnixConn
	local, remote net.Addr
}

// DialUnix connects to a Unix domain socket path.
func DialUnix(path string) (*UnixStream, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, err
	}
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		_ = conn.Close()
		return nil, fmt.Errorf("dial unix returned %T", conn)
	}
	fd, err := fdOf(unixConn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &UnixStream{
		base:   newBase(fd),
		conn:   unixConn,
		local:  unixConn.LocalAddr(),
		remote: unixConn.RemoteAddr(),
	}, nil
}

// LocalAddr returns the stream's local path.
func (s *UnixStream) LocalAddr() net.Addr { return s.local }

// RemoteAddr returns the stream's peer path, if known.
func (s *UnixStream) RemoteAddr() net.Addr { return s.remote }

// Read performs one non-blocking read syscall.
func (s *UnixStream) Read(b []byte) (int, error) {
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

// Write performs one non-blocking write syscall.
func (s *UnixStream) Write(b []byte) (int, error) {
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

// Close closes the stream.
func (s *UnixStream) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return unix.Close(s.FD())
}

// UnixDatagram adapts a Unix domain datagram socket into a ready.Source,
// the SOCK_DGRAM counterpart of UnixStream, following UDPSocket's
// message-oriented Read/Write contract instead of a byte stream's.
type UnixDatagram struct {
	base
	conn *net.UnixConn
}

// NewUnixDatagram binds a Unix domain datagram socket at path.
func NewUnixDatagram(path string) (*UnixDatagram, error) {
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		return nil, err
	}
	fd, err := fdOf(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &UnixDatagram{base: newBase(fd), conn: conn}, nil
}

// LocalAddr returns the socket's bound path.
func (u *UnixDatagram) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// ReadFrom performs one non-blocking recvfrom.
func (u *UnixDatagram) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		n, sa, err := unix.Recvfrom(u.FD(), b, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, nil, wrapWouldBlock(err)
		}
		var addr net.Addr
		if sau, ok := sa.(*unix.SockaddrUnix); ok {
			addr = &net.UnixAddr{Name: sau.Name, Net: "unixgram"}
		}
		return n, addr, nil
	}
}

// WriteTo performs one non-blocking sendto to a peer path.
func (u *UnixDatagram) WriteTo(b []byte, addr net.Addr) (int, error) {
	unixAddr, ok := addr.(*net.UnixAddr)
	if !ok {
		return 0, fmt.Errorf("adapters: WriteTo expects *net.UnixAddr, got %T", addr)
	}
	sa := &unix.SockaddrUnix{Name: unixAddr.Name}
	for {
		err := unix.Sendto(u.FD(), b, 0, sa)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return len(b), nil
	}
}

// Close closes the socket.
func (u *UnixDatagram) Close() error { return u.conn.Close() }
