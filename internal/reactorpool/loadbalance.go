// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package reactorpool

import (
	"reflect"
	"sync"
)

// BalanceBuilder constructs a LoadBalance implementation.
type BalanceBuilder func() LoadBalance

// LoadBalance picks a Reactor from a growing set to hand a new
// registration to.
type LoadBalance interface {
	// Name returns the LoadBalance's registered name.
	Name() string
	// Register adds r to the set this LoadBalance picks from.
	Register(r *Reactor)
	// Pick returns one Reactor according to the balancing algorithm.
	Pick() *Reactor
	// Iterate calls f once per registered Reactor in registration order,
	// stopping early if f returns false.
	Iterate(f func(int, *Reactor) bool)
	// Len returns how many Reactors are registered.
	Len() int
}

var (
	balancersMu sync.RWMutex
	balancers   = make(map[string]BalanceBuilder)
)

// RegisterBalanceBuilder makes a BalanceBuilder available to NewPool under
// name. Panics on a nil builder or empty name.
func RegisterBalanceBuilder(name string, builder BalanceBuilder) {
	v := reflect.ValueOf(builder)
	if builder == nil || (v.Kind() == reflect.Ptr && v.IsNil()) {
		panic("reactorpool: register nil loadbalance")
	}
	if name == "" {
		panic("reactorpool: register empty name of loadbalance")
	}
	balancersMu.Lock()
	balancers[name] = builder
	balancersMu.Unlock()
}

// GetBalanceBuilder looks up a previously registered BalanceBuilder.
func GetBalanceBuilder(name string) BalanceBuilder {
	balancersMu.RLock()
	defer balancersMu.RUnlock()
	return balancers[name]
}
