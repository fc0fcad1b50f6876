// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package reactorpool

import "fmt"

type options struct {
	eventsCap  int
	hupWorkers int
}

// Option configures NewPool via the functional-options pattern.
type Option func(*options)

// WithEventsCapacity sets the Events buffer capacity each Reactor polls
// with. Default 256.
func WithEventsCapacity(n int) Option {
	return func(o *options) { o.eventsCap = n }
}

// WithHupWorkers bounds how many read/write-closed callbacks may run
// concurrently per Reactor. 0 (the default) means ants' own unbounded pool
// size.
func WithHupWorkers(n int) Option {
	return func(o *options) { o.hupWorkers = n }
}

// Pool owns a fixed-size set of Reactors and a LoadBalance to pick among
// them.
type Pool struct {
	lb LoadBalance
	o  options
}

// NewPool constructs a Pool with n Reactors, each running its own Selector,
// balanced by the named LoadBalance (RoundRobin is always registered).
func NewPool(balance string, n int, opts ...Option) (*Pool, error) {
	if n <= 0 {
		return nil, fmt.Errorf("reactorpool: n must be positive, got %d", n)
	}
	builder := GetBalanceBuilder(balance)
	if builder == nil {
		return nil, fmt.Errorf("reactorpool: loadbalance %q is not registered", balance)
	}
	o := options{eventsCap: 256}
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pool{lb: builder(), o: o}
	for i := 0; i < n; i++ {
		reactor, err := NewReactor(o.eventsCap, o.hupWorkers)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("reactorpool: new reactor %d/%d: %w", i+1, n, err)
		}
		p.lb.Register(reactor)
		go func() {
			if err := reactor.Wait(); err != nil {
				_ = err // logged inside Reactor.Wait; Pool has no further recovery action
			}
		}()
	}
	return p, nil
}

// Len returns how many Reactors the Pool manages.
func (p *Pool) Len() int { return p.lb.Len() }

// Pick returns the next Reactor to register a new source against,
// according to the Pool's LoadBalance.
func (p *Pool) Pick() *Reactor { return p.lb.Pick() }

// Close stops and releases every Reactor in the Pool.
func (p *Pool) Close() error {
	var first error
	p.lb.Iterate(func(_ int, r *Reactor) bool {
		if err := r.Close(); err != nil && first == nil {
			first = err
		}
		return true
	})
	return first
}
