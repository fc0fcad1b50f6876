// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

//go:build linux || freebsd || dragonfly || darwin
// +build linux freebsd dragonfly darwin

package adapters

import "golang.org/x/sys/unix"

// Pipe is an anonymous pipe's non-blocking, registerable read and write
// ends, useful for waking or feeding a Poll loop from ordinary byte I/O
// without a socket, e.g. a child process's stdout or a self-pipe.
type Pipe struct {
	Reader *PipeReader
	Writer *PipeWriter
}

// NewPipe creates an anonymous pipe and sets both ends non-blocking and
// close-on-exec.
func NewPipe() (*Pipe, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, err
	}
	return &Pipe{
		Reader: &PipeReader{base: newBase(fds[0])},
		Writer: &PipeWriter{base: newBase(fds[1])},
	}, nil
}

// PipeReader is the read end of a Pipe, adapted into a ready.Source.
type PipeReader struct{ base }

// Read performs one non-blocking read syscall.
func (r *PipeReader) Read(b []byte) (int, error) {
	for {
		n, err := unix.Read(r.FD(), b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return n, nil
	}
}

// Close closes the read end.
func (r *PipeReader) Close() error { return unix.Close(r.FD()) }

// PipeWriter is the write end of a Pipe, adapted into a ready.Source.
type PipeWriter struct{ base }

// Write performs one non-blocking write syscall.
func (w *PipeWriter) Write(b []byte) (int, error) {
	for {
		n, err := unix.Write(w.FD(), b)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, wrapWouldBlock(err)
		}
		return n, nil
	}
}

// Close closes the write end.
func (w *PipeWriter) Close() error { return unix.Close(w.FD()) }
