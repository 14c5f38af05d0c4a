// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"fmt"
	"reflect"

	"github.com/pk910/dynamic-props/proputils"
)

// AccessorKind distinguishes read and write accessors in errors and summaries.
type AccessorKind uint8

const (
	AccessorGetter AccessorKind = iota
	AccessorSetter
)

func (k AccessorKind) String() string {
	if k == AccessorSetter {
		return "setter"
	}
	return "getter"
}

// AmbiguousAccessorError is returned when two accessor candidates for the same
// property cannot be ordered. The descriptor for Type is never built.
type AmbiguousAccessorError struct {
	Type       reflect.Type
	Property   string
	Kind       AccessorKind
	First      reflect.Type // declaring type of the current winner
	Second     reflect.Type // declaring type of the rejected challenger
	FirstType  reflect.Type
	SecondType reflect.Type
}

func (e *AmbiguousAccessorError) Error() string {
	if e.Kind == AccessorSetter {
		return fmt.Sprintf("ambiguous setters defined for property '%v' in type '%v': '%v' (%v) and '%v' (%v)",
			e.Property, e.Type, typeName(e.First), typeName(e.FirstType), typeName(e.Second), typeName(e.SecondType))
	}
	return fmt.Sprintf("illegal overloaded getter with ambiguous type for property '%v' in type '%v': '%v' (%v) and '%v' (%v)",
		e.Property, e.Type, typeName(e.First), typeName(e.FirstType), typeName(e.Second), typeName(e.SecondType))
}

func (e *AmbiguousAccessorError) Unwrap() error {
	return proputils.ErrAmbiguousAccessor
}

// PropertyNotFoundError is returned by per-property queries for unknown names.
type PropertyNotFoundError struct {
	Type     reflect.Type
	Property string
	Kind     AccessorKind
}

func (e *PropertyNotFoundError) Error() string {
	return fmt.Sprintf("there is no %v for property named '%v' in '%v'", e.Kind, e.Property, e.Type)
}

func (e *PropertyNotFoundError) Unwrap() error {
	return proputils.ErrPropertyNotFound
}
