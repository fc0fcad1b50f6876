// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"trpc.group/trpc-go/ready"
)

func TestInterestAdd(t *testing.T) {
	i := ready.Readable.Add(ready.Writable)
	assert.True(t, i.IsReadable())
	assert.True(t, i.IsWritable())
	assert.False(t, i.IsPriority())
}

func TestInterestPredicates(t *testing.T) {
	i := ready.Priority.Add(ready.Aio).Add(ready.Lio).Add(ready.ReadClosed).Add(ready.WriteClosed)
	assert.True(t, i.IsPriority())
	assert.True(t, i.IsAio())
	assert.True(t, i.IsLio())
	assert.True(t, i.IsReadClosed())
	assert.True(t, i.IsWriteClosed())
	assert.False(t, i.IsReadable())
}

func TestInterestString(t *testing.T) {
	i := ready.Readable.Add(ready.Writable)
	assert.Equal(t, "Readable|Writable", i.String())
	assert.Equal(t, "Interest(none)", ready.Interest(0).String())
}
