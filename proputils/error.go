// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proputils

import "fmt"

var (
	ErrAmbiguousAccessor    = fmt.Errorf("ambiguous accessor override")
	ErrNoDefaultConstructor = fmt.Errorf("no default constructor")
	ErrPropertyNotFound     = fmt.Errorf("property not found")
	ErrUnsupportedType      = fmt.Errorf("unsupported type")
	ErrNilTarget            = fmt.Errorf("nil target")
	ErrTypeMismatch         = fmt.Errorf("type mismatch")
	ErrNotAddressable       = fmt.Errorf("target is not addressable")
	ErrNilEmbedded          = fmt.Errorf("nil embedded value on access path")
	ErrInvalidFactory       = fmt.Errorf("invalid factory function")
	ErrInvalidFilter        = fmt.Errorf("invalid property filter")
)
