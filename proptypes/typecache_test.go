// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/pk910/dynamic-props/proputils"
)

func TestTypeCache_GetTypeDescriptor(t *testing.T) {
	cache := NewTypeCache(DefaultBuildOptions())

	desc1, err := cache.GetTypeDescriptor(typeOf[Dog]())
	require.NoError(t, err)

	desc2, err := cache.GetTypeDescriptor(reflect.TypeOf(&Dog{}))
	require.NoError(t, err)

	assert.Same(t, desc1, desc2)
	assert.Equal(t, uint64(1), cache.BuildCount())

	_, err = cache.GetTypeDescriptor(nil)
	assert.ErrorIs(t, err, proputils.ErrUnsupportedType)
}

func TestTypeCache_ConcurrentBuild(t *testing.T) {
	cache := NewTypeCache(DefaultBuildOptions())

	const workers = 32
	results := make([]*Descriptor, workers)
	errs := make([]error, workers)

	var start, done sync.WaitGroup
	start.Add(1)
	for i := 0; i < workers; i++ {
		done.Add(1)
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], errs[i] = cache.GetTypeDescriptor(typeOf[Dog]())
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, uint64(1), cache.BuildCount())
}

func TestTypeCache_CachedFailures(t *testing.T) {
	cache := NewTypeCache(DefaultBuildOptions())

	_, err1 := cache.GetTypeDescriptor(typeOf[Both]())
	require.ErrorIs(t, err1, proputils.ErrAmbiguousAccessor)

	_, err2 := cache.GetTypeDescriptor(typeOf[Both]())
	assert.Equal(t, err1, err2)
	assert.Equal(t, uint64(1), cache.BuildCount())
	assert.Empty(t, cache.GetAllTypes())

	cache.RemoveType(typeOf[Both]())
	_, err3 := cache.GetTypeDescriptor(typeOf[Both]())
	assert.ErrorIs(t, err3, proputils.ErrAmbiguousAccessor)
	assert.Equal(t, uint64(2), cache.BuildCount())
}

func TestTypeCache_RemoveTypes(t *testing.T) {
	cache := NewTypeCache(DefaultBuildOptions())

	dogDesc, err := cache.GetTypeDescriptor(typeOf[Dog]())
	require.NoError(t, err)
	_, err = cache.GetTypeDescriptor(typeOf[Flags]())
	require.NoError(t, err)

	assert.ElementsMatch(t, []reflect.Type{typeOf[Dog](), typeOf[Flags]()}, cache.GetAllTypes())

	cache.RemoveType(reflect.TypeOf(&Dog{}))
	assert.Equal(t, []reflect.Type{typeOf[Flags]()}, cache.GetAllTypes())

	rebuilt, err := cache.GetTypeDescriptor(typeOf[Dog]())
	require.NoError(t, err)
	assert.NotSame(t, dogDesc, rebuilt)
	assert.Equal(t, dogDesc.ReadablePropertyNames(), rebuilt.ReadablePropertyNames())

	cache.RemoveType(nil)
	cache.RemoveAllTypes()
	assert.Empty(t, cache.GetAllTypes())
	assert.Equal(t, uint64(3), cache.BuildCount())
}

func TestTypeCache_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	opts := DefaultBuildOptions()
	opts.Logger = zap.New(core)
	cache := NewTypeCache(opts)

	_, err := cache.GetTypeDescriptor(typeOf[Dog]())
	require.NoError(t, err)
	_, err = cache.GetTypeDescriptor(typeOf[Both]())
	require.Error(t, err)

	built := logs.FilterMessage("built type descriptor").All()
	require.Len(t, built, 1)
	assert.Equal(t, "github.com/pk910/dynamic-props/proptypes.Dog", built[0].ContextMap()["type"])

	failed := logs.FilterMessage("failed to build type descriptor").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zap.WarnLevel, failed[0].Level)
}
