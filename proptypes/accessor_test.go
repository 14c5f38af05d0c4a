// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"math"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pk910/dynamic-props/proputils"
)

func TestAssignValue(t *testing.T) {
	var nilNumber Number

	tests := []struct {
		name     string
		value    reflect.Value
		to       reflect.Type
		expected any
		err      error
	}{
		{"invalid becomes zero", reflect.Value{}, reflect.TypeOf(""), "", nil},
		{"assignable", reflect.ValueOf("x"), reflect.TypeOf(""), "x", nil},
		{"implements interface", reflect.ValueOf(Integer(4)), typeOf[Number](), Integer(4), nil},
		{"numeric conversion", reflect.ValueOf(int32(7)), reflect.TypeOf(uint64(0)), uint64(7), nil},
		{"float conversion", reflect.ValueOf(2), reflect.TypeOf(float64(0)), float64(2), nil},
		{"interface unwrap", reflect.ValueOf(&[]any{"y"}).Elem().Index(0), reflect.TypeOf(""), "y", nil},
		{"nil interface", reflect.ValueOf(&nilNumber).Elem(), reflect.TypeOf(0), 0, nil},
		{"string to int", reflect.ValueOf("1"), reflect.TypeOf(0), nil, proputils.ErrTypeMismatch},
		{"int to string", reflect.ValueOf(65), reflect.TypeOf(""), nil, proputils.ErrTypeMismatch},
		{"int8 upper bound", reflect.ValueOf(127), reflect.TypeOf(int8(0)), int8(127), nil},
		{"int8 overflow", reflect.ValueOf(300), reflect.TypeOf(int8(0)), nil, proputils.ErrTypeMismatch},
		{"int8 underflow", reflect.ValueOf(-129), reflect.TypeOf(int8(0)), nil, proputils.ErrTypeMismatch},
		{"negative to unsigned", reflect.ValueOf(-1), reflect.TypeOf(uint8(0)), nil, proputils.ErrTypeMismatch},
		{"uint64 max to int64", reflect.ValueOf(uint64(math.MaxUint64)), reflect.TypeOf(int64(0)), nil, proputils.ErrTypeMismatch},
		{"whole float to int", reflect.ValueOf(3.0), reflect.TypeOf(0), 3, nil},
		{"fractional float to int", reflect.ValueOf(2.5), reflect.TypeOf(0), nil, proputils.ErrTypeMismatch},
		{"NaN to int", reflect.ValueOf(math.NaN()), reflect.TypeOf(0), nil, proputils.ErrTypeMismatch},
		{"float32 overflow", reflect.ValueOf(1e40), reflect.TypeOf(float32(0)), nil, proputils.ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := assignValue(tt.value, tt.to)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result.Interface())
		})
	}
}

func TestAccessPath(t *testing.T) {
	t.Run("extend does not alias", func(t *testing.T) {
		base := make(accessPath, 1, 4)
		a := base.extend(1)
		b := base.extend(2)
		assert.Equal(t, accessPath{0, 1}, a)
		assert.Equal(t, accessPath{0, 2}, b)
	})

	t.Run("walk exposes unexported fields", func(t *testing.T) {
		dog := &Dog{breed: "husky"}
		v, err := accessPath{1}.walk(reflect.ValueOf(dog).Elem(), false)
		require.NoError(t, err)
		require.True(t, v.CanInterface())
		assert.Equal(t, "husky", v.Interface())
	})

	t.Run("receiver of nil embedded pointer", func(t *testing.T) {
		outer := &Outer{}
		_, err := accessPath{0}.receiver(reflect.ValueOf(outer).Elem(), false)
		assert.ErrorIs(t, err, proputils.ErrNilEmbedded)

		recv, err := accessPath{0}.receiver(reflect.ValueOf(outer).Elem(), true)
		require.NoError(t, err)
		assert.Equal(t, typeOf[Inner](), recv.Type())
		assert.NotNil(t, outer.Inner)
	})

	t.Run("receiver of nil embedded interface", func(t *testing.T) {
		service := &Service{}
		_, err := accessPath{0}.receiver(reflect.ValueOf(service).Elem(), true)
		assert.ErrorIs(t, err, proputils.ErrNilEmbedded)
	})
}
