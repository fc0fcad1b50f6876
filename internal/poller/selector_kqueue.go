// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build freebsd || dragonfly || darwin
// +build freebsd dragonfly darwin

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

func newSelector() (Selector, error) {
	fd, err := unix.Kqueue()
	if err != nil {
		return nil, os.NewSyscallError("kqueue", err)
	}
	if _, err := unix.FcntlInt(uintptr(fd), unix.F_SETFD, unix.FD_CLOEXEC); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	if _, err := unix.Kevent(fd, []unix.Kevent_t{{
		Ident:  0,
		Filter: unix.EVFILT_USER,
		Flags:  unix.EV_ADD | unix.EV_CLEAR,
	}}, nil, nil); err != nil {
		_ = unix.Close(fd)
		return nil, os.NewSyscallError("kevent add|clear", err)
	}
	return &kqueueSelector{
		fd:  fd,
		tbl: newTable(),
		raw: make([]unix.Kevent_t, 128),
	}, nil
}

// kqueueSelector is the BSD/Darwin Selector. kqueue reports read, write,
// aio and lio readiness as independent events sharing one ident (the fd);
// Select merges them into a single Event per Token per call, matching the
// rest of the package's one-Event-per-registration-per-Select contract.
type kqueueSelector struct {
	fd        int
	tbl       *table
	raw       []unix.Kevent_t
	wakeToken Token
	wakerSet  int32
}

func (s *kqueueSelector) SetWaker(token Token) error {
	if !atomic.CompareAndSwapInt32(&s.wakerSet, 0, 1) {
		return rerrors.ErrAlreadyExists
	}
	s.wakeToken = token
	return nil
}

func (s *kqueueSelector) changelistFor(fd int, interest Interest, flags uint16) []unix.Kevent_t {
	var cl []unix.Kevent_t
	readFlags := unix.EV_DELETE
	writeFlags := unix.EV_DELETE
	aioFlags := unix.EV_DELETE
	lioFlags := unix.EV_DELETE
	if interest&(Readable|Priority|ReadClosed) != 0 {
		readFlags = int(flags)
	}
	if interest&(Writable|WriteClosed) != 0 {
		writeFlags = int(flags)
	}
	if interest&Aio != 0 {
		aioFlags = int(flags)
	}
	if interest&Lio != 0 {
		lioFlags = int(flags)
	}
	cl = append(cl, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_READ,
		Flags:  uint16(readFlags) | unix.EV_RECEIPT,
	})
	cl = append(cl, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_WRITE,
		Flags:  uint16(writeFlags) | unix.EV_RECEIPT,
	})
	cl = append(cl, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_AIO,
		Flags:  uint16(aioFlags) | unix.EV_RECEIPT,
	})
	cl = append(cl, unix.Kevent_t{
		Ident:  uint64(fd),
		Filter: unix.EVFILT_LIO,
		Flags:  uint16(lioFlags) | unix.EV_RECEIPT,
	})
	return cl
}

func (s *kqueueSelector) Register(fd int, token Token, interest Interest) error {
	metrics.Add(metrics.RegisterCalls, 1)
	if interest.IsEmpty() {
		return rerrors.ErrInvalidInput
	}
	if err := s.tbl.add(fd, token); err != nil {
		return err
	}
	cl := s.changelistFor(fd, interest, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
	if _, err := unix.Kevent(s.fd, cl, nil, nil); err != nil {
		_ = s.tbl.remove(fd)
		log.Default.Warnf("kevent add fd=%d: %v", fd, err)
		return errors.Wrap(os.NewSyscallError("kevent", err), "register")
	}
	return nil
}

func (s *kqueueSelector) Reregister(fd int, token Token, interest Interest) error {
	metrics.Add(metrics.ReregisterCalls, 1)
	if interest.IsEmpty() {
		return rerrors.ErrInvalidInput
	}
	if err := s.tbl.update(fd, token); err != nil {
		return err
	}
	cl := s.changelistFor(fd, interest, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR)
	if _, err := unix.Kevent(s.fd, cl, nil, nil); err != nil {
		log.Default.Warnf("kevent mod fd=%d: %v", fd, err)
		return errors.Wrap(os.NewSyscallError("kevent", err), "reregister")
	}
	return nil
}

func (s *kqueueSelector) Deregister(fd int) error {
	metrics.Add(metrics.DeregisterCalls, 1)
	if err := s.tbl.remove(fd); err != nil {
		return err
	}
	cl := []unix.Kevent_t{
		{Ident: uint64(fd), Filter: unix.EVFILT_READ, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_WRITE, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_AIO, Flags: unix.EV_DELETE},
		{Ident: uint64(fd), Filter: unix.EVFILT_LIO, Flags: unix.EV_DELETE},
	}
	// Any of these filters may legitimately be absent (interest only
	// covered a subset of read/write/aio/lio); ENOENT for a single
	// changelist entry isn't surfaced distinctly by unix.Kevent, so
	// errors here are ignored.
	_, _ = unix.Kevent(s.fd, cl, nil, nil)
	return nil
}

func (s *kqueueSelector) Select(events *EventList, timeout *time.Duration) error {
	events.Clear()
	metrics.Add(metrics.SelectCalls, 1)
	var ts *unix.Timespec
	if timeout != nil {
		t := unix.NsecToTimespec(timeout.Nanoseconds())
		ts = &t
		if *timeout == 0 {
			metrics.Add(metrics.SelectZeroTimeout, 1)
		}
	}
	// Fetch no more kevents than events can hold; with EV_CLEAR, anything
	// not fetched stays queued in the kernel for the next call.
	raw := s.raw
	if c := events.Cap(); c > 0 && c < len(raw) {
		raw = raw[:c]
	}
	n, err := unix.Kevent(s.fd, nil, raw, ts)
	for err == unix.EINTR {
		log.Default.Debugf("kevent interrupted, retrying")
		n, err = unix.Kevent(s.fd, nil, raw, ts)
	}
	if err != nil {
		return os.NewSyscallError("kevent", err)
	}
	merged := make(map[Token]Readiness, n)
	var order []Token
	for i := 0; i < n; i++ {
		kev := s.raw[i]
		if kev.Ident == 0 && kev.Filter == unix.EVFILT_USER {
			if atomic.LoadInt32(&s.wakerSet) == 1 {
				events.Push(Event{Token: s.wakeToken, Readiness: RReadable})
			}
			continue
		}
		fd := int(kev.Ident)
		token, ok := s.tbl.lookup(fd)
		if !ok {
			continue
		}
		r, seen := merged[token]
		if !seen {
			order = append(order, token)
		}
		r |= kqueueToReadiness(kev)
		merged[token] = r
	}
	for _, token := range order {
		events.Push(Event{Token: token, Readiness: merged[token]})
	}
	metrics.Add(metrics.EventsTotal, uint64(events.Len()))
	return nil
}

func kqueueToReadiness(kev unix.Kevent_t) Readiness {
	var r Readiness
	switch kev.Filter {
	case unix.EVFILT_READ:
		r |= RReadable
	case unix.EVFILT_WRITE:
		r |= RWritable
	case unix.EVFILT_AIO:
		r |= RAio
	case unix.EVFILT_LIO:
		r |= RLio
	}
	if kev.Flags&unix.EV_EOF != 0 {
		switch kev.Filter {
		case unix.EVFILT_READ:
			r |= RReadClosed
		case unix.EVFILT_WRITE:
			r |= RWriteClosed
		}
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		r |= RError
	}
	return r
}

func (s *kqueueSelector) Wake() error {
	metrics.Add(metrics.WakeCalls, 1)
	for {
		_, err := unix.Kevent(s.fd, []unix.Kevent_t{{
			Ident:  0,
			Filter: unix.EVFILT_USER,
			Fflags: unix.NOTE_TRIGGER,
		}}, nil, nil)
		if err != unix.EINTR && err != unix.EAGAIN {
			if err != nil {
				return os.NewSyscallError("kevent", err)
			}
			return nil
		}
	}
}

func (s *kqueueSelector) Close() error {
	return os.NewSyscallError("close", unix.Close(s.fd))
}
