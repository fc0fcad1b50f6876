// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package rerrors holds the canonical error kinds shared by the public
// ready package and the internal selector implementations, so a selector
// can normalize a platform errno without importing the root package (which
// imports the selectors).
package rerrors

import "errors"

// Canonical kinds. See the ready package's doc comments on the aliases of
// these for the normative meaning of each.
var (
	ErrWouldBlock    = errors.New("ready: operation would block")
	ErrInterrupted   = errors.New("ready: interrupted")
	ErrAlreadyExists = errors.New("ready: source already registered")
	ErrNotFound      = errors.New("ready: source not registered")
	ErrInvalidInput  = errors.New("ready: invalid input")
	ErrClosed        = errors.New("ready: already closed")
)
