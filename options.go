// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

// Package dynprops provides cached, reflection-based property access for Go types.
package dynprops

import (
	"go.uber.org/zap"
)

type DynPropsOption func(*DynPropsOptions)

type DynPropsOptions struct {
	Logger        *zap.Logger
	Verbose       bool
	TagKey        string
	NoPrivate     bool
	ReservedNames []string
	Factories     []any
	Filter        string
}

func WithLogger(logger *zap.Logger) DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.Logger = logger
	}
}

func WithVerbose() DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.Verbose = true
	}
}

// WithTagKey changes the struct tag consulted for field properties (default "prop").
func WithTagKey(tagKey string) DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.TagKey = tagKey
	}
}

// WithoutPrivateAccess omits unexported fields and members of unexported
// embedded types instead of accessing them through unsafe.
func WithoutPrivateAccess() DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.NoPrivate = true
	}
}

// WithReservedNames excludes additional property names from all descriptors.
func WithReservedNames(names ...string) DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.ReservedNames = append(opts.ReservedNames, names...)
	}
}

// WithFactory registers a zero-argument function returning T or *T as the
// default constructor of T.
//
// Example:
//
//	dp, err := dynprops.NewDynProps(dynprops.WithFactory(func() *Account {
//	    return &Account{Status: "new"}
//	}))
func WithFactory(fn any) DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.Factories = append(opts.Factories, fn)
	}
}

// WithPropertyFilter restricts the exposed properties to those for which the
// boolean expression evaluates to true.
//
// The expression can reference these parameters:
//   - name: property name
//   - type: package-qualified value type
//   - kind: reflect kind of the value type
//   - source: "method" or "field"
//   - access: "getter" or "setter"
//   - member: Go method or field name
//   - exported: false for members that require private access
//   - declaring: package-qualified type declaring the member
//
// Example:
//
//	dynprops.WithPropertyFilter("source == 'method' || exported")
func WithPropertyFilter(expr string) DynPropsOption {
	return func(opts *DynPropsOptions) {
		opts.Filter = expr
	}
}
