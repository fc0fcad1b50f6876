// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/ready"
)

func TestTokenString(t *testing.T) {
	require.Equal(t, "Token(42)", ready.Token(42).String())
	require.Equal(t, "Token(0)", ready.Token(0).String())
}
