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

	reuseport "github.com/kavu/go_reuseport"
	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/ready/internal/netutil"
)

// UDPSocket adapts a bound UDP socket into a ready.Source. Unlike TCP,
// read and write readiness on a UDP socket doesn't imply a connection
// state machine: a single UDPSocket can both send and receive datagrams
// to/from arbitrary peers for its whole lifetime.
type UDPSocket struct {
	base
	conn *net.UDPConn
}

// NewUDPSocket binds address using SO_REUSEPORT, the same sharing model
// TCPListener uses, so a pool of reactors can each own one shard of the
// traffic to a single logical UDP endpoint.
func NewUDPSocket(address string) (*UDPSocket, error) {
	pc, err := reuseport.ListenPacket("udp", address)
	if err != nil {
		return nil, fmt.Errorf("reuseport listenpacket: %w", err)
	}
	udpConn, ok := pc.(*net.UDPConn)
	if !ok {
		_ = pc.Close()
		return nil, fmt.Errorf("reuseport listenpacket returned non-udp: %T", pc)
	}
	fd, err := fdOf(udpConn)
	if err != nil {
		_ = udpConn.Close()
		return nil, err
	}
	return &UDPSocket{base: newBase(fd), conn: udpConn}, nil
}

// DialUDP "connects" a UDP socket to a fixed peer, so later Read/Write
// calls no longer need to carry a per-datagram address.
func DialUDP(address string) (*UDPSocket, error) {
	raddr, err := net.ResolveUDPAddr("udp", address)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}
	fd, err := fdOf(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &UDPSocket{base: newBase(fd), conn: conn}, nil
}

// LocalAddr returns the socket's bound address.
func (u *UDPSocket) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// ReadFrom performs one non-blocking recvfrom, returning ready.ErrWouldBlock
// if no datagram is currently queued.
func (u *UDPSocket) ReadFrom(b []byte) (int, net.Addr, error) {
	for {
		n, sa, err := unix.Recvfrom(u.FD(), b, 0)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, nil, wrapWouldBlock(err)
		}
		return n, netutil.SockaddrToUDPAddr(sa), nil
	}
}

// Read performs one non-blocking read on a connected socket, returning
// ready.ErrWouldBlock if no datagram is currently queued.
func (u *UDPSocket) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(u.FD(), b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return n, nil
	}
}

// WriteTo performs one non-blocking sendto, returning ready.ErrWouldBlock
// if the socket send buffer is currently full.
func (u *UDPSocket) WriteTo(b []byte, addr net.Addr) (int, error) {
	udpAddr, ok := addr.(*net.UDPAddr)
	if !ok {
		return 0, fmt.Errorf("adapters: WriteTo expects *net.UDPAddr, got %T", addr)
	}
	sa, err := netutil.AddrToSockAddr(u.conn.LocalAddr(), udpAddr)
	if err != nil {
		return 0, err
	}
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

// Write performs one non-blocking write on a connected socket, returning
// ready.ErrWouldBlock if the socket send buffer is currently full.
func (u *UDPSocket) Write(b []byte) (int, error) {
	for {
		n, err := unix.Write(u.FD(), b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return n, nil
	}
}

// Close closes the socket. The caller must Deregister first if it was
// registered.
func (u *UDPSocket) Close() error { return u.conn.Close() }
