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

// Package metrics provides counters over the readiness core's own hot
// paths (selector waits, registrations, wakeups), useful for tuning how
// many sources a single Selector is carrying and how often it is waking
// for nothing.
package metrics

import (
	"fmt"
	"time"

	"go.uber.org/atomic"
)

// All metrics definitions.
const (
	// Selector.Select calls.
	SelectCalls = iota
	// SelectZeroTimeout counts Select calls made with a zero timeout
	// (poll-and-return, never blocking).
	SelectZeroTimeout
	// EventsTotal is the cumulative number of Events produced across every
	// Select call, counting post-merge Events (one per Token per call).
	EventsTotal

	// RegisterCalls, ReregisterCalls and DeregisterCalls count calls into a
	// Selector's corresponding method, independent of success or failure.
	RegisterCalls
	ReregisterCalls
	DeregisterCalls

	// WakeCalls counts calls to Selector.Wake, including ones that
	// coalesced with an already-pending wakeup.
	WakeCalls
	// SyntheticNotifyCalls counts SetReadiness calls that intersected
	// their Registration's Interest and so pushed a notification.
	SyntheticNotifyCalls

	// TaskAssigned counts tasks handed to the reactor pool's bounded
	// dispatcher (internal/reactorpool).
	TaskAssigned

	// Max is the number of defined metrics; also usable as an
	// out-of-range sentinel for Add/Get.
	Max
)

var allMetrics [Max]atomic.Uint64

// Add adds delta to the named counter. Out-of-range names are ignored.
func Add(name int, delta uint64) {
	if name < 0 || name >= Max {
		return
	}
	allMetrics[name].Add(delta)
}

// Get returns the named counter's current value. Out-of-range names
// return 0.
func Get(name int) uint64 {
	if name < 0 || name >= Max {
		return 0
	}
	return allMetrics[name].Load()
}

// GetAll returns every counter's current value.
func GetAll() [Max]uint64 {
	var m [Max]uint64
	for i := range allMetrics {
		m[i] = allMetrics[i].Load()
	}
	return m
}

// ShowMetricsOfPeriod blocks for d and then prints the delta of every
// counter observed over that period.
func ShowMetricsOfPeriod(d time.Duration) {
	old := GetAll()
	<-time.After(d)
	cur := GetAll()
	var m [Max]uint64
	for i := range allMetrics {
		m[i] = cur[i] - old[i]
	}
	showAll(m)
}

// ShowMetrics prints every counter's current value.
func ShowMetrics() {
	showAll(GetAll())
}

func showAll(m [Max]uint64) {
	fmt.Println("######### ready metrics (", time.Now().Format("2006-01-02 15:04:05"), ") ###########")
	fmt.Printf("%-59s: %d\n", "# number of Select calls", m[SelectCalls])
	fmt.Printf("%-59s: %d\n", "# number of Select calls with a zero timeout", m[SelectZeroTimeout])
	fmt.Printf("%-59s: %d\n", "# number of Events produced", m[EventsTotal])
	if m[SelectCalls] > 0 {
		fmt.Printf("%-59s: %.2f\n", "# average Events per Select", float64(m[EventsTotal])/float64(m[SelectCalls]))
	}
	fmt.Printf("%-59s: %d\n", "# number of Register calls", m[RegisterCalls])
	fmt.Printf("%-59s: %d\n", "# number of Reregister calls", m[ReregisterCalls])
	fmt.Printf("%-59s: %d\n", "# number of Deregister calls", m[DeregisterCalls])
	fmt.Printf("%-59s: %d\n", "# number of Wake calls", m[WakeCalls])
	fmt.Printf("%-59s: %d\n", "# number of synthetic SetReadiness notifications", m[SyntheticNotifyCalls])
	fmt.Printf("%-59s: %d\n", "# number of tasks assigned to the reactor pool", m[TaskAssigned])
	fmt.Printf("\n")
}
