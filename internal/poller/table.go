// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package poller

import (
	"trpc.group/trpc-go/ready/internal/locker"
	"trpc.group/trpc-go/ready/internal/rerrors"
)

// table maps a registered fd to the Token it should report, and lets
// Register/Reregister/Deregister report ErrAlreadyExists/ErrNotFound
// instead of relying on the platform call's own (less consistent) error
// for that distinction.
//
// A GC-pointer payload stashed inside the kernel event's opaque data field
// would need a non-moving slab allocator and, on Linux, a hand-built,
// per-architecture struct layout to get the padding right. A Token is a
// plain uint64 value, not a GC pointer needing non-moving storage, so a
// selector can always key off the real fd (which every platform's event
// structure already carries) and look the Token up here instead.
type table struct {
	mu     locker.Locker
	tokens map[int]Token
}

func newTable() *table {
	return &table{tokens: make(map[int]Token)}
}

// add records fd as registered under token. Returns rerrors.ErrAlreadyExists
// if it already was.
func (t *table) add(fd int, token Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tokens[fd]; ok {
		return rerrors.ErrAlreadyExists
	}
	t.tokens[fd] = token
	return nil
}

// update changes the Token recorded for fd. Returns rerrors.ErrNotFound if
// fd isn't registered.
func (t *table) update(fd int, token Token) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tokens[fd]; !ok {
		return rerrors.ErrNotFound
	}
	t.tokens[fd] = token
	return nil
}

// lookup returns the Token recorded for fd and whether fd is registered.
func (t *table) lookup(fd int) (Token, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	tok, ok := t.tokens[fd]
	return tok, ok
}

// remove forgets fd. Returns rerrors.ErrNotFound if it wasn't registered.
func (t *table) remove(fd int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.tokens[fd]; !ok {
		return rerrors.ErrNotFound
	}
	delete(t.tokens, fd)
	return nil
}
