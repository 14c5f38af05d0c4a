// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"fmt"
	"math"
	"reflect"
	"unsafe"

	"github.com/pk910/dynamic-props/proputils"
)

var (
	anyType   = reflect.TypeOf((*any)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// Getter reads one property from a root value.
//
// The root passed to Get must be an addressable value of the descriptor's type;
// Descriptor.GetValue takes care of that for arbitrary targets.
type Getter interface {
	Get(root reflect.Value) (reflect.Value, error)
	Type() reflect.Type
}

// Setter writes one property on an addressable root value.
type Setter interface {
	Set(root reflect.Value, value reflect.Value) error
	Type() reflect.Type
}

// accessorInfo is implemented by all accessor variants and feeds descriptor summaries.
type accessorInfo interface {
	Source() PropertySource
	Member() string
	DeclaringType() reflect.Type
}

// accessPath is a chain of struct field indexes leading from the root value
// to an embedded level or to a field.
type accessPath []int

func (p accessPath) extend(index int) accessPath {
	path := make(accessPath, len(p), len(p)+1)
	copy(path, p)
	return append(path, index)
}

// exposeValue strips the read-only flag reflect sets on values reached through
// unexported fields. Only used for members the builder admitted with private access.
func exposeValue(v reflect.Value) reflect.Value {
	if v.CanInterface() || !v.CanAddr() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// walk follows the path from root, dereferencing embedded pointers on the way.
// With alloc set, nil pointers are allocated instead of failing.
func (p accessPath) walk(root reflect.Value, alloc bool) (reflect.Value, error) {
	v := root
	for _, idx := range p {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !alloc {
					return reflect.Value{}, proputils.ErrNilEmbedded
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = exposeValue(v.Field(idx))
	}
	return v, nil
}

// receiver resolves the value methods of a level are invoked on.
func (p accessPath) receiver(root reflect.Value, alloc bool) (reflect.Value, error) {
	v, err := p.walk(root, alloc)
	if err != nil {
		return reflect.Value{}, err
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			if !alloc || len(p) == 0 {
				return reflect.Value{}, proputils.ErrNilEmbedded
			}
			v.Set(reflect.New(v.Type().Elem()))
		}
		v = v.Elem()
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Value{}, proputils.ErrNilEmbedded
		}
	}
	return v, nil
}

// methodRef identifies a method on one level of the embedding walk.
type methodRef struct {
	method    reflect.Method
	path      accessPath
	iface     bool
	declaring reflect.Type
}

func (m *methodRef) bind(root reflect.Value, alloc bool) (reflect.Value, error) {
	recv, err := m.path.receiver(root, alloc)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot reach %v.%v: %w", typeName(m.declaring), m.method.Name, err)
	}

	if !m.iface {
		return recv.Addr().Method(m.method.Index), nil
	}

	// interface levels are bound by name on whatever concrete value backs them
	if recv.Kind() != reflect.Interface && recv.CanAddr() {
		if fn := recv.Addr().MethodByName(m.method.Name); fn.IsValid() {
			return fn, nil
		}
	}
	fn := recv.MethodByName(m.method.Name)
	if !fn.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %v does not implement %v", proputils.ErrTypeMismatch, recv.Type(), m.method.Name)
	}
	return fn, nil
}

func (m *methodRef) Source() PropertySource { return SourceMethod }
func (m *methodRef) Member() string { return m.method.Name }
func (m *methodRef) DeclaringType() reflect.Type { return m.declaring }

// MethodName returns the Go method backing the accessor.
func (m *methodRef) MethodName() string { return m.method.Name }

// MethodGetter reads a property through a GetX/IsX method.
type MethodGetter struct {
	methodRef
	valueType reflect.Type
	withError bool
}

func (g *MethodGetter) Get(root reflect.Value) (reflect.Value, error) {
	fn, err := g.bind(root, false)
	if err != nil {
		return reflect.Value{}, err
	}

	out := fn.Call(nil)
	if g.withError && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

func (g *MethodGetter) Type() reflect.Type {
	return g.valueType
}

// MethodSetter writes a property through a SetX method.
type MethodSetter struct {
	methodRef
	valueType reflect.Type
	errResult bool
}

func (s *MethodSetter) Set(root reflect.Value, value reflect.Value) error {
	arg, err := assignValue(value, s.valueType)
	if err != nil {
		return err
	}

	fn, err := s.bind(root, true)
	if err != nil {
		return err
	}

	out := fn.Call([]reflect.Value{arg})
	if s.errResult {
		if res := out[len(out)-1]; !res.IsNil() {
			return res.Interface().(error)
		}
	}
	return nil
}

func (s *MethodSetter) Type() reflect.Type {
	return s.valueType
}

// fieldRef identifies a struct field, possibly promoted from an embedded struct.
type fieldRef struct {
	field     reflect.StructField
	path      accessPath
	declaring reflect.Type
}

func (f *fieldRef) Source() PropertySource { return SourceField }
func (f *fieldRef) Member() string { return f.field.Name }
func (f *fieldRef) DeclaringType() reflect.Type { return f.declaring }

// FieldName returns the Go struct field backing the accessor.
func (f *fieldRef) FieldName() string { return f.field.Name }

// FieldGetter reads a property directly from a struct field.
type FieldGetter struct {
	fieldRef
}

func (g *FieldGetter) Get(root reflect.Value) (reflect.Value, error) {
	v, err := g.path.walk(root, false)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("cannot reach field %v: %w", g.field.Name, err)
	}
	return v, nil
}

func (g *FieldGetter) Type() reflect.Type {
	return g.field.Type
}

// FieldSetter writes a property directly into a struct field.
type FieldSetter struct {
	fieldRef
}

func (s *FieldSetter) Set(root reflect.Value, value reflect.Value) error {
	arg, err := assignValue(value, s.field.Type)
	if err != nil {
		return err
	}

	v, err := s.path.walk(root, true)
	if err != nil {
		return fmt.Errorf("cannot reach field %v: %w", s.field.Name, err)
	}
	v.Set(arg)
	return nil
}

func (s *FieldSetter) Type() reflect.Type {
	return s.field.Type
}

// assignValue prepares value for assignment to a slot of type to.
// Nil becomes the zero value and numeric kinds convert into each other.
func assignValue(value reflect.Value, to reflect.Type) (reflect.Value, error) {
	if !value.IsValid() {
		return reflect.Zero(to), nil
	}
	if value.Kind() == reflect.Interface && !value.Type().AssignableTo(to) {
		if value.IsNil() {
			return reflect.Zero(to), nil
		}
		value = value.Elem()
	}

	valueType := value.Type()
	switch {
	case valueType.AssignableTo(to):
		return value, nil
	case isNumericKind(valueType.Kind()) && isNumericKind(to.Kind()) && valueType.ConvertibleTo(to):
		if !numericFits(value, to) {
			return reflect.Value{}, fmt.Errorf("%w: %v does not fit into %v", proputils.ErrTypeMismatch, value, to)
		}
		return value.Convert(to), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: cannot assign %v to %v", proputils.ErrTypeMismatch, valueType, to)
}

func isIntKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUintKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isFloatKind(kind reflect.Kind) bool {
	return kind == reflect.Float32 || kind == reflect.Float64
}

func isNumericKind(kind reflect.Kind) bool {
	return isIntKind(kind) || isUintKind(kind) || isFloatKind(kind)
}

// numericFits reports whether the numeric value converts into to without
// overflow or, for float to integer conversions, without losing a fraction.
func numericFits(value reflect.Value, to reflect.Type) bool {
	target := reflect.Zero(to)

	switch kind := value.Kind(); {
	case isIntKind(kind):
		n := value.Int()
		switch {
		case isIntKind(to.Kind()):
			return !target.OverflowInt(n)
		case isUintKind(to.Kind()):
			return n >= 0 && !target.OverflowUint(uint64(n))
		}
		return !target.OverflowFloat(float64(n))

	case isUintKind(kind):
		u := value.Uint()
		switch {
		case isIntKind(to.Kind()):
			return u <= math.MaxInt64 && !target.OverflowInt(int64(u))
		case isUintKind(to.Kind()):
			return !target.OverflowUint(u)
		}
		return !target.OverflowFloat(float64(u))
	}

	f := value.Float()
	if isFloatKind(to.Kind()) {
		return !target.OverflowFloat(f)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	if isIntKind(to.Kind()) {
		return f >= math.MinInt64 && f < math.MaxInt64 && !target.OverflowInt(int64(f))
	}
	return f >= 0 && f < math.MaxUint64 && !target.OverflowUint(uint64(f))
}

// rawType resolves the declared value type reported by accessors.
func rawType(t reflect.Type) reflect.Type {
	if t == nil {
		return anyType
	}
	return t
}
