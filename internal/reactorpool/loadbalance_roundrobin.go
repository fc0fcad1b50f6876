// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package reactorpool

import "sync/atomic"

// RoundRobin is the name RegisterBalanceBuilder uses for roundRobinLB.
const RoundRobin = "RoundRobinLB"

func init() {
	RegisterBalanceBuilder(RoundRobin, func() LoadBalance { return &roundRobinLB{} })
}

type roundRobinLB struct {
	reactors []*Reactor
	accepted uint64
}

func (r *roundRobinLB) Name() string { return RoundRobin }

func (r *roundRobinLB) Register(reactor *Reactor) {
	r.reactors = append(r.reactors, reactor)
}

func (r *roundRobinLB) Pick() *Reactor {
	idx := int(atomic.AddUint64(&r.accepted, 1)) % len(r.reactors)
	return r.reactors[idx]
}

func (r *roundRobinLB) Len() int { return len(r.reactors) }

func (r *roundRobinLB) Iterate(f func(int, *Reactor) bool) {
	for i, reactor := range r.reactors {
		if !f(i, reactor) {
			break
		}
	}
}
