// Tencent is pleased to support the open source community by making tRPC available.
// Copyright (C) 2023 THL A29 Limited, a Tencent company. All rights reserved.
// If you have downloaded a copy of the tRPC source code from Tencent,
// please note that tRPC source code is licensed under the Apache 2.0 License,
// A copy of the Apache 2.0 License is included in this file.

package ready

import "fmt"

// Token is an opaque, caller-chosen identifier associated with one
// registration. It is echoed back verbatim in every Event produced for
// that registration; the core never interprets its value.
//
// Token uniqueness per Selector is the caller's responsibility. Colliding
// tokens merely merge dispatch: both registrations' readiness is reported
// under the same value.
type Token uint64

// String implements fmt.Stringer.
func (t Token) String() string {
	return fmt.Sprintf("Token(%d)", uint64(t))
}
