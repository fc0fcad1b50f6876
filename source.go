// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

// Source is the contract every registerable object implements: a platform
// socket adapter, a Waker, or a Registration. A Registry calls these in
// exactly one of three phases over a Source's lifetime: Register once,
// Reregister any number of times, Deregister once. Implementations
// typically delegate to the Registry's Selector using their underlying OS
// handle; Registration instead services the call itself, since it has no
// real kernel handle.
type Source interface {
	// Register starts monitoring the source under registry, reporting
	// readiness against token for the given interest.
	Register(registry *Registry, token Token, interest Interest) error

	// Reregister changes the token and/or interest for a source already
	// registered with registry.
	Reregister(registry *Registry, token Token, interest Interest) error

	// Deregister stops monitoring the source. The caller must not close
	// the underlying handle until this returns.
	Deregister(registry *Registry) error
}
