// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux
// +build linux

package poller

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
	"trpc.group/trpc-go/ready/internal/rerrors"
	"trpc.group/trpc-go/ready/log"
	"trpc.group/trpc-go/ready/metrics"
)

const (
	rflags = unix.EPOLLIN | unix.EPOLLRDHUP | unix.EPOLLHUP | unix.EPOLLERR | unix.EPOLLPRI
	wflags = unix.EPOLLOUT | unix.EPOLLHUP | unix.EPOLLERR
)

func newSelector() (Selector, error) {
	// Provide EPOLL_CLOEXEC for consistency with the Go runtime's own
	// netpoller.
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, os.NewSyscallError("epoll_create1", err)
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		_ = unix.Close(epfd)
		return nil, os.NewSyscallError("eventfd", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wfd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wfd, &ev); err != nil {
		_ = unix.Close(wfd)
		_ = unix.Close(epfd)
		return nil, os.NewSyscallError("epoll_ctl add", err)
	}
	return &epollSelector{
		epfd:   epfd,
		wfd:    wfd,
		tbl:    newTable(),
		raw:    make([]unix.EpollEvent, 128),
		wakeup: make([]byte, 8),
	}, nil
}

// epollSelector is the Linux Selector, built directly on
// golang.org/x/sys/unix's epoll bindings and an eventfd-based Wake.
type epollSelector struct {
	epfd      int
	wfd       int
	tbl       *table
	raw       []unix.EpollEvent
	wakeup    []byte
	notified  int32
	wakeToken Token
	wakerSet  int32
}

func (s *epollSelector) SetWaker(token Token) error {
	if !atomic.CompareAndSwapInt32(&s.wakerSet, 0, 1) {
		return rerrors.ErrAlreadyExists
	}
	s.wakeToken = token
	return nil
}

func interestToEpoll(i Interest) uint32 {
	var flags uint32 = unix.EPOLLET
	if i&(Readable|Priority|ReadClosed) != 0 {
		flags |= rflags
	}
	if i&(Writable|WriteClosed) != 0 {
		flags |= wflags
	}
	return flags
}

func (s *epollSelector) Register(fd int, token Token, interest Interest) error {
	metrics.Add(metrics.RegisterCalls, 1)
	if interest.IsEmpty() {
		return rerrors.ErrInvalidInput
	}
	if err := s.tbl.add(fd, token); err != nil {
		return err
	}
	ev := unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		_ = s.tbl.remove(fd)
		log.Default.Warnf("epoll_ctl add fd=%d: %v", fd, err)
		return errors.Wrap(os.NewSyscallError("epoll_ctl add", err), "register")
	}
	return nil
}

func (s *epollSelector) Reregister(fd int, token Token, interest Interest) error {
	metrics.Add(metrics.ReregisterCalls, 1)
	if interest.IsEmpty() {
		return rerrors.ErrInvalidInput
	}
	if err := s.tbl.update(fd, token); err != nil {
		return err
	}
	ev := unix.EpollEvent{Events: interestToEpoll(interest), Fd: int32(fd)}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		log.Default.Warnf("epoll_ctl mod fd=%d: %v", fd, err)
		return errors.Wrap(os.NewSyscallError("epoll_ctl mod", err), "reregister")
	}
	return nil
}

func (s *epollSelector) Deregister(fd int) error {
	metrics.Add(metrics.DeregisterCalls, 1)
	if err := s.tbl.remove(fd); err != nil {
		return err
	}
	if err := unix.EpollCtl(s.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		log.Default.Warnf("epoll_ctl del fd=%d: %v", fd, err)
		return errors.Wrap(os.NewSyscallError("epoll_ctl del", err), "deregister")
	}
	return nil
}

func (s *epollSelector) Select(events *EventList, timeout *time.Duration) error {
	events.Clear()
	metrics.Add(metrics.SelectCalls, 1)
	msec := -1
	if timeout != nil {
		msec = int(timeout.Milliseconds())
		if msec == 0 {
			metrics.Add(metrics.SelectZeroTimeout, 1)
		}
	}
	// Fetch no more than events can hold: with edge-triggered
	// registrations, readiness not fetched stays on the kernel's ready
	// list for the next call instead of being lost.
	raw := s.raw
	if c := events.Cap(); c > 0 && c < len(raw) {
		raw = raw[:c]
	}
	n, err := unix.EpollWait(s.epfd, raw, msec)
	for err == unix.EINTR {
		log.Default.Debugf("epoll_wait interrupted, retrying")
		n, err = unix.EpollWait(s.epfd, raw, msec)
	}
	if err != nil {
		return os.NewSyscallError("epoll_wait", err)
	}
	for i := 0; i < n; i++ {
		raw := s.raw[i]
		fd := int(raw.Fd)
		if fd == s.wfd {
			s.drainWake()
			if atomic.LoadInt32(&s.wakerSet) == 1 {
				events.Push(Event{Token: s.wakeToken, Readiness: RReadable})
			}
			continue
		}
		token, ok := s.tbl.lookup(fd)
		if !ok {
			// Deregistered between Select returning from the kernel and
			// this loop running; drop the stale event.
			continue
		}
		events.Push(Event{Token: token, Readiness: epollToReadiness(raw.Events)})
	}
	metrics.Add(metrics.EventsTotal, uint64(events.Len()))
	return nil
}

func epollToReadiness(flags uint32) Readiness {
	var r Readiness
	if flags&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		r |= RReadable
	}
	if flags&unix.EPOLLOUT != 0 {
		r |= RWritable
	}
	if flags&unix.EPOLLPRI != 0 {
		r |= RPriority
	}
	if flags&unix.EPOLLRDHUP != 0 {
		r |= RReadClosed
	}
	if flags&unix.EPOLLHUP != 0 {
		r |= RReadClosed | RWriteClosed
	}
	if flags&unix.EPOLLERR != 0 {
		r |= RError
	}
	return r
}

func (s *epollSelector) drainWake() {
	for {
		_, err := unix.Read(s.wfd, s.wakeup)
		if err != unix.EINTR {
			break
		}
	}
	atomic.StoreInt32(&s.notified, 0)
}

func (s *epollSelector) Wake() error {
	metrics.Add(metrics.WakeCalls, 1)
	if !atomic.CompareAndSwapInt32(&s.notified, 0, 1) {
		return nil
	}
	buf := make([]byte, 8)
	buf[0] = 1
	for {
		_, err := unix.Write(s.wfd, buf)
		if err == unix.EINTR {
			continue
		}
		if err != nil && err != unix.EAGAIN {
			return os.NewSyscallError("write", err)
		}
		return nil
	}
}

func (s *epollSelector) Close() error {
	if err := unix.Close(s.wfd); err != nil {
		return os.NewSyscallError("close", err)
	}
	if err := unix.Close(s.epfd); err != nil {
		return os.NewSyscallError("close", err)
	}
	return nil
}
