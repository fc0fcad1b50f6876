//
//
// Tencent is pleased to support the open source community by making tRPC available.
//
// Copyright (C) 2023 THL A29 Limited, a Tencent company.
// All rights reserved.
//
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the  Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.
//
//

// Package ready is a cross-platform, edge-triggered I/O readiness core.
//
// It lets a single goroutine wait on thousands of heterogeneous handles
// (TCP/UDP/Unix sockets, pipes, user-defined synthetic sources) and receive,
// in one batch, readiness events telling it which handles can be read,
// written, or have closed. ready does not perform buffered I/O, does not
// own the handles it watches, and does not schedule tasks: it is the
// readiness-detection primitive that such things are built on top of.
//
// Delivery is edge-triggered on the epoll and kqueue selectors. The Windows
// AFD selector resubmits each socket's poll request as soon as it handles
// its completion, so there readiness is reported level-triggered.
package ready
