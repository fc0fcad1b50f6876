// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import "strings"

// Interest is a non-empty bitset describing which readiness conditions a
// registration wants to be notified about. Interest values are combined
// with Add; there is deliberately no exported zero value, so a caller can
// never construct an empty Interest directly — Register/Reregister reject
// an empty combination with ErrInvalidInput regardless.
type Interest uint8

// Portable interests, guaranteed on every platform.
const (
	Readable Interest = 1 << iota
	Writable

	// Priority, Aio and Lio are platform hints: requesting them is only
	// meaningful on platforms that support the corresponding filter
	// (EPOLLPRI on Linux, EVFILT_AIO/EVFILT_LIO on BSD/Darwin). Selectors
	// that don't support a bit simply never set it on delivered Events.
	Priority
	Aio
	Lio

	// ReadClosed and WriteClosed let a caller opt into the half-close
	// hints without also asking for Readable/Writable.
	ReadClosed
	WriteClosed
)

// Add returns the union of i and other.
func (i Interest) Add(other Interest) Interest {
	return i | other
}

// IsReadable reports whether i includes Readable.
func (i Interest) IsReadable() bool { return i&Readable != 0 }

// IsWritable reports whether i includes Writable.
func (i Interest) IsWritable() bool { return i&Writable != 0 }

// IsPriority reports whether i includes Priority.
func (i Interest) IsPriority() bool { return i&Priority != 0 }

// IsAio reports whether i includes Aio.
func (i Interest) IsAio() bool { return i&Aio != 0 }

// IsLio reports whether i includes Lio.
func (i Interest) IsLio() bool { return i&Lio != 0 }

// IsReadClosed reports whether i includes ReadClosed.
func (i Interest) IsReadClosed() bool { return i&ReadClosed != 0 }

// IsWriteClosed reports whether i includes WriteClosed.
func (i Interest) IsWriteClosed() bool { return i&WriteClosed != 0 }

// isEmpty reports whether i carries no bits at all. Registration paths
// must reject this with ErrInvalidInput; it can only arise from an
// explicit Interest(0), which no exported constant produces.
func (i Interest) isEmpty() bool { return i == 0 }

// String implements fmt.Stringer.
func (i Interest) String() string {
	if i.isEmpty() {
		return "Interest(none)"
	}
	var parts []string
	if i.IsReadable() {
		parts = append(parts, "Readable")
	}
	if i.IsWritable() {
		parts = append(parts, "Writable")
	}
	if i.IsPriority() {
		parts = append(parts, "Priority")
	}
	if i.IsAio() {
		parts = append(parts, "Aio")
	}
	if i.IsLio() {
		parts = append(parts, "Lio")
	}
	if i.IsReadClosed() {
		parts = append(parts, "ReadClosed")
	}
	if i.IsWriteClosed() {
		parts = append(parts, "WriteClosed")
	}
	return strings.Join(parts, "|")
}
