// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TypeCache manages cached type descriptors
type TypeCache struct {
	opts        BuildOptions
	logger      *zap.Logger
	mutex       sync.RWMutex
	descriptors map[reflect.Type]*Descriptor
	failures    map[reflect.Type]error
	group       singleflight.Group
	builds      atomic.Uint64
}

// NewTypeCache creates a new type cache
func NewTypeCache(opts BuildOptions) *TypeCache {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.TagKey == "" {
		opts.TagKey = DefaultTagKey
	}

	return &TypeCache{
		opts:        opts,
		logger:      opts.Logger,
		descriptors: make(map[reflect.Type]*Descriptor),
		failures:    make(map[reflect.Type]error),
	}
}

// GetTypeDescriptor returns a cached type descriptor for the given type, computing it if necessary.
//
// This method is the primary interface for obtaining descriptors. Pointer types are
// mapped onto the type they point to, so *T and T share one descriptor.
//
// The method is thread-safe. Concurrent first requests for the same type share a
// single build, and no caller ever observes a partially built descriptor. A type
// that failed to build (for example due to ambiguous accessors) keeps failing with
// the same error until it is removed from the cache.
//
// Example:
//
//	desc, err := cache.GetTypeDescriptor(reflect.TypeOf(&User{}))
//	if err != nil {
//	    log.Fatal("Failed to get type descriptor:", err)
//	}
//	fmt.Printf("readable: %v\n", desc.ReadablePropertyNames())
func (tc *TypeCache) GetTypeDescriptor(t reflect.Type) (*Descriptor, error) {
	t, err := normalizeType(t)
	if err != nil {
		return nil, err
	}

	// Check cache first (read lock)
	if desc, exists, err := tc.lookup(t); exists {
		return desc, err
	}

	result, err, _ := tc.group.Do(cacheKey(t), func() (any, error) {
		// a build for t may have completed since the fast path
		if desc, exists, err := tc.lookup(t); exists {
			return desc, err
		}

		desc, err := tc.buildTypeDescriptor(t)

		tc.mutex.Lock()
		if err != nil {
			tc.failures[t] = err
		} else {
			tc.descriptors[t] = desc
		}
		tc.mutex.Unlock()

		return desc, err
	})
	if err != nil {
		return nil, err
	}

	return result.(*Descriptor), nil
}

func (tc *TypeCache) lookup(t reflect.Type) (*Descriptor, bool, error) {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	if desc, exists := tc.descriptors[t]; exists {
		return desc, true, nil
	}
	if err, failed := tc.failures[t]; failed {
		return nil, true, err
	}
	return nil, false, nil
}

func (tc *TypeCache) buildTypeDescriptor(t reflect.Type) (*Descriptor, error) {
	tc.builds.Add(1)
	start := time.Now()

	desc, err := BuildDescriptor(t, &tc.opts)
	if err != nil {
		tc.logger.Warn("failed to build type descriptor", zap.String("type", typeName(t)), zap.Error(err))
		return nil, err
	}

	tc.logger.Debug("built type descriptor",
		zap.String("type", typeName(t)),
		zap.Int("readable", len(desc.readable)),
		zap.Int("writable", len(desc.writable)),
		zap.Duration("took", time.Since(start)),
	)
	return desc, nil
}

// cacheKey identifies t for singleflight. Type names alone are not unique
// (function-local types share them), so the runtime type pointer is included.
func cacheKey(t reflect.Type) string {
	return fmt.Sprintf("%v@%p", t, t)
}

// BuildCount returns how many descriptor builds the cache has started.
func (tc *TypeCache) BuildCount() uint64 {
	return tc.builds.Load()
}

// GetAllTypes returns a slice of all types currently cached in the TypeCache.
//
// Types whose build failed are not included. The returned slice is in no particular order.
func (tc *TypeCache) GetAllTypes() []reflect.Type {
	tc.mutex.RLock()
	defer tc.mutex.RUnlock()

	types := make([]reflect.Type, 0, len(tc.descriptors))
	for t := range tc.descriptors {
		types = append(types, t)
	}

	return types
}

// RemoveType removes a specific type from the cache, including a cached build failure.
//
// The next call to GetTypeDescriptor for the type rebuilds its descriptor.
// Descriptors already handed out stay valid.
func (tc *TypeCache) RemoveType(t reflect.Type) {
	t, err := normalizeType(t)
	if err != nil {
		return
	}

	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	delete(tc.descriptors, t)
	delete(tc.failures, t)
}

// RemoveAllTypes clears all cached type descriptors from the cache.
func (tc *TypeCache) RemoveAllTypes() {
	tc.mutex.Lock()
	defer tc.mutex.Unlock()

	// Create new maps to clear all references
	tc.descriptors = make(map[reflect.Type]*Descriptor)
	tc.failures = make(map[reflect.Type]error)
}
