// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

// Package reactorpool is not part of the normative readiness-core
// contract: a readiness core leaves sharding reactors across goroutines
// entirely to the caller, one Poll per thread. This package fills that
// caller role with a small, self-contained convenience: in-tree
// supporting infrastructure, not promoted to the public API.
package reactorpool

import (
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/atomic"
	"trpc.group/trpc-go/ready"
	"trpc.group/trpc-go/ready/internal/safejob"
	"trpc.group/trpc-go/ready/log"
	"trpc.group/trpc-go/ready/metrics"
)

// Handler processes one Event observed by a Reactor's own Poll.Poll loop.
type Handler func(ready.Event)

// Reactor pairs one ready.Poll with its own goroutine driving Poll.Poll in
// a loop and a per-token Handler table: Wait runs the loop, Close stops
// it, Handle/Forget install or remove a Token's Handler.
type Reactor struct {
	poll     *ready.Poll
	events   *ready.Events
	waker    *ready.Waker
	hupPool  *ants.PoolWithFunc
	job      safejob.ExclusiveBlockJob
	closeSig chan struct{}
	closing  atomic.Bool

	mu       sync.RWMutex
	handlers map[ready.Token]Handler
}

// closeToken is the Token the Reactor's own internal Waker reports under;
// chosen at the far end of the Token space so it never collides with a
// caller-assigned Token in ordinary use.
const closeToken ready.Token = ^ready.Token(0)

// hupTask is what's submitted to the bounded dispatcher for a read- or
// write-closed Event: a fixed-size ants.PoolWithFunc caps how many hangup
// callbacks run concurrently, instead of spawning one goroutine per hangup.
type hupTask struct {
	handler Handler
	ev      ready.Event
}

func runHupTask(v any) {
	t, ok := v.(hupTask)
	if !ok {
		return
	}
	t.handler(t.ev)
}

// NewReactor constructs a Reactor with its own Selector (via ready.NewPoll),
// an Events buffer sized eventsCap, and a bounded hangup dispatcher capped
// at hupWorkers concurrent callbacks (0 means ants' own unbounded default).
func NewReactor(eventsCap, hupWorkers int) (*Reactor, error) {
	poll, err := ready.NewPoll()
	if err != nil {
		return nil, err
	}
	hupPool, err := ants.NewPoolWithFunc(hupWorkers, runHupTask)
	if err != nil {
		_ = poll.Close()
		return nil, err
	}
	waker, err := ready.NewWaker(poll.Registry(), closeToken)
	if err != nil {
		hupPool.Release()
		_ = poll.Close()
		return nil, err
	}
	return &Reactor{
		poll:     poll,
		events:   ready.NewEvents(eventsCap),
		waker:    waker,
		hupPool:  hupPool,
		closeSig: make(chan struct{}),
		handlers: make(map[ready.Token]Handler),
	}, nil
}

// Registry returns the Registry backing this Reactor's Selector, for
// registering sources against it from any goroutine.
func (r *Reactor) Registry() *ready.Registry { return r.poll.Registry() }

// Handle installs (or replaces) the Handler invoked for Events carrying
// token. Safe to call while Wait is running.
func (r *Reactor) Handle(token ready.Token, h Handler) {
	r.mu.Lock()
	r.handlers[token] = h
	r.mu.Unlock()
}

// Forget removes token's Handler. Events that arrive for it afterward
// (a race against in-flight kernel notifications) are silently dropped.
func (r *Reactor) Forget(token ready.Token) {
	r.mu.Lock()
	delete(r.handlers, token)
	r.mu.Unlock()
}

func (r *Reactor) handlerFor(token ready.Token) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[token]
	return h, ok
}

// Wait drives Poll.Poll in a loop until Close is called, dispatching each
// Event to its registered Handler. Read-closed/write-closed Events run
// through the bounded hangup dispatcher; everything else runs inline on
// this goroutine, in delivery order.
func (r *Reactor) Wait() error {
	if !r.job.Begin() {
		return ready.ErrClosed
	}
	defer r.job.End()
	for {
		select {
		case <-r.closeSig:
			return nil
		default:
		}
		if err := r.poll.Poll(r.events, nil); err != nil {
			log.Default.Errorf("reactor poll error: %v", err)
			return err
		}
		r.events.ForEach(r.dispatch)
	}
}

func (r *Reactor) dispatch(ev ready.Event) {
	if ev.Token() == closeToken {
		return
	}
	h, ok := r.handlerFor(ev.Token())
	if !ok {
		return
	}
	if ev.IsReadClosed() || ev.IsWriteClosed() {
		metrics.Add(metrics.TaskAssigned, 1)
		if err := r.hupPool.Invoke(hupTask{handler: h, ev: ev}); err != nil {
			log.Default.Warnf("reactor hangup dispatch for token %v: %v", ev.Token(), err)
			h(ev)
		}
		return
	}
	h(ev)
}

// Close stops this Reactor's Wait loop and releases its Poll and hangup
// dispatcher. Safe to call concurrently with Wait; blocks until any
// in-flight Wait call has observed the close signal and returned.
func (r *Reactor) Close() error {
	if r.closing.CAS(false, true) {
		close(r.closeSig)
	}
	_ = r.waker.Wake()
	r.job.Close()
	r.hupPool.Release()
	return r.poll.Close()
}
