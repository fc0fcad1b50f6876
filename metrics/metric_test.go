// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package metrics_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"trpc.group/trpc-go/ready/metrics"
)

func TestMetrics(t *testing.T) {
	metrics.Add(metrics.SelectCalls, 1)
	assert.Equal(t, uint64(1), metrics.Get(metrics.SelectCalls))
	metrics.Add(metrics.SelectCalls, 1)
	assert.Equal(t, uint64(2), metrics.Get(metrics.SelectCalls))
	metrics.Add(metrics.Max+1, 1)
	assert.Equal(t, uint64(0), metrics.Get(metrics.Max+1))
	metrics.Add(-1, 1)
	assert.Equal(t, uint64(0), metrics.Get(-1))

	metrics.Add(metrics.SelectZeroTimeout, 8)
	metrics.Add(metrics.EventsTotal, 99)
	metrics.Add(metrics.RegisterCalls, 191)
	metrics.Add(metrics.ReregisterCalls, 12)
	metrics.Add(metrics.DeregisterCalls, 7)
	metrics.Add(metrics.WakeCalls, 1191)
	metrics.Add(metrics.SyntheticNotifyCalls, 3)
	metrics.Add(metrics.TaskAssigned, 5)

	metrics.ShowMetrics()
	metrics.ShowMetricsOfPeriod(time.Millisecond)
}
