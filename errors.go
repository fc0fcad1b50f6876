// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import (
	"fmt"

	"trpc.group/trpc-go/ready/internal/rerrors"
)

// Canonical error kinds. The core reports ErrAlreadyExists, ErrNotFound,
// ErrInvalidInput and ErrClosed from its own checks, made before any
// platform call; an error from the platform call itself is returned
// wrapped with operation context (errors.Wrap, os.NewSyscallError) rather
// than mapped to one of these, so %v still shows the underlying errno.
// Callers compare with errors.Is.
var (
	// ErrWouldBlock is returned by a wrapped handle's own Read/Write/Accept,
	// never by Poll or Registry: it means the attempted I/O isn't currently
	// possible and the caller should wait for the next readiness event.
	ErrWouldBlock = rerrors.ErrWouldBlock

	// ErrInterrupted is surfaced only when the caller performs its own
	// blocking I/O on a wrapped handle; the core itself retries EINTR
	// transparently inside Poll.Poll.
	ErrInterrupted = rerrors.ErrInterrupted

	// ErrAlreadyExists is returned by Register when the handle is already
	// registered with this Selector.
	ErrAlreadyExists = rerrors.ErrAlreadyExists

	// ErrNotFound is returned by Reregister/Deregister when the handle is
	// not currently registered.
	ErrNotFound = rerrors.ErrNotFound

	// ErrInvalidInput is returned for an empty Interest, a malformed Unix
	// socket path, or an invalid timeout.
	ErrInvalidInput = rerrors.ErrInvalidInput

	// ErrClosed is returned by any operation performed on a Poll, Registry
	// or Waker after it has been closed.
	ErrClosed = rerrors.ErrClosed
)

// opError wraps a canonical sentinel with the failing operation, attaching
// "connection may be closed"-style context without discarding the
// sentinel for errors.Is.
type opError struct {
	op  string
	fd  int
	err error
}

func (e *opError) Error() string {
	if e.fd != 0 {
		return fmt.Sprintf("ready: %s(fd=%d): %v", e.op, e.fd, e.err)
	}
	return fmt.Sprintf("ready: %s: %v", e.op, e.err)
}

func (e *opError) Unwrap() error { return e.err }

func wrapOp(op string, fd int, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, fd: fd, err: err}
}
