// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"crypto/sha256"
	"fmt"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/pk910/dynamic-props/proputils"
)

// Descriptor is the cached, immutable property summary of one type.
//
// A descriptor is never modified after it has been built, so it can be shared
// freely between goroutines. Thread safety of the target instances passed to
// its accessors remains the caller's concern.
type Descriptor struct {
	Type reflect.Type // Described type (never a pointer type)

	getters     map[string]Getter
	setters     map[string]Setter
	getTypes    map[string]reflect.Type
	setTypes    map[string]reflect.Type
	constructor Constructor
	readable    []string
	writable    []string
	index       *NameIndex
}

func newDescriptor(t reflect.Type, getters map[string]Getter, setters map[string]Setter, getTypes, setTypes map[string]reflect.Type, constructor Constructor) *Descriptor {
	desc := &Descriptor{
		Type:        t,
		getters:     getters,
		setters:     setters,
		getTypes:    getTypes,
		setTypes:    setTypes,
		constructor: constructor,
		readable:    sortedKeys(getters),
		writable:    sortedKeys(setters),
	}
	desc.index = newNameIndex(desc.readable, desc.writable)
	return desc
}

// HasGetter reports whether the property can be read.
func (d *Descriptor) HasGetter(name string) bool {
	_, ok := d.getters[name]
	return ok
}

// HasSetter reports whether the property can be written.
func (d *Descriptor) HasSetter(name string) bool {
	_, ok := d.setters[name]
	return ok
}

// GetterType returns the type produced by the property's getter.
func (d *Descriptor) GetterType(name string) (reflect.Type, error) {
	t, ok := d.getTypes[name]
	if !ok {
		return nil, &PropertyNotFoundError{Type: d.Type, Property: name, Kind: AccessorGetter}
	}
	return t, nil
}

// SetterType returns the type accepted by the property's setter.
func (d *Descriptor) SetterType(name string) (reflect.Type, error) {
	t, ok := d.setTypes[name]
	if !ok {
		return nil, &PropertyNotFoundError{Type: d.Type, Property: name, Kind: AccessorSetter}
	}
	return t, nil
}

// GetInvoker returns the accessor reading the property.
func (d *Descriptor) GetInvoker(name string) (Getter, error) {
	getter, ok := d.getters[name]
	if !ok {
		return nil, &PropertyNotFoundError{Type: d.Type, Property: name, Kind: AccessorGetter}
	}
	return getter, nil
}

// SetInvoker returns the accessor writing the property.
func (d *Descriptor) SetInvoker(name string) (Setter, error) {
	setter, ok := d.setters[name]
	if !ok {
		return nil, &PropertyNotFoundError{Type: d.Type, Property: name, Kind: AccessorSetter}
	}
	return setter, nil
}

// ReadablePropertyNames returns the sorted names of all readable properties.
func (d *Descriptor) ReadablePropertyNames() []string {
	return append([]string(nil), d.readable...)
}

// WritablePropertyNames returns the sorted names of all writable properties.
func (d *Descriptor) WritablePropertyNames() []string {
	return append([]string(nil), d.writable...)
}

// FindPropertyName resolves name case-insensitively to the canonical property name.
// Unlike the other queries, an unknown name is reported through the boolean only.
func (d *Descriptor) FindPropertyName(name string) (string, bool) {
	return d.index.Find(name)
}

// HasDefaultConstructor reports whether NewInstance can create instances of the type.
func (d *Descriptor) HasDefaultConstructor() bool {
	return d.constructor != nil
}

// DefaultConstructor returns the constructor for the described type.
func (d *Descriptor) DefaultConstructor() (Constructor, error) {
	if d.constructor == nil {
		return nil, fmt.Errorf("%w for %v", proputils.ErrNoDefaultConstructor, d.Type)
	}
	return d.constructor, nil
}

// NewInstance creates a new instance and returns a pointer to it.
func (d *Descriptor) NewInstance() (reflect.Value, error) {
	constructor, err := d.DefaultConstructor()
	if err != nil {
		return reflect.Value{}, err
	}
	return constructor(), nil
}

// GetValue reads a property from target, which may be a value or pointer of the
// described type (or a reflect.Value holding one).
func (d *Descriptor) GetValue(target any, name string) (any, error) {
	getter, err := d.GetInvoker(name)
	if err != nil {
		return nil, err
	}

	root, err := d.resolveTarget(target, false)
	if err != nil {
		return nil, err
	}

	value, err := getter.Get(root)
	if err != nil {
		return nil, err
	}
	if !value.IsValid() {
		return nil, nil
	}
	return value.Interface(), nil
}

// SetValue writes a property on target. Target must be a pointer (or an
// addressable reflect.Value) so the write is visible to the caller.
func (d *Descriptor) SetValue(target any, name string, value any) error {
	setter, err := d.SetInvoker(name)
	if err != nil {
		return err
	}

	root, err := d.resolveTarget(target, true)
	if err != nil {
		return err
	}

	var v reflect.Value
	if rv, ok := value.(reflect.Value); ok {
		v = rv
	} else {
		v = reflect.ValueOf(value)
	}
	return setter.Set(root, v)
}

// resolveTarget turns target into an addressable value of the described type.
func (d *Descriptor) resolveTarget(target any, write bool) (reflect.Value, error) {
	var v reflect.Value
	if rv, ok := target.(reflect.Value); ok {
		v = rv
	} else {
		v = reflect.ValueOf(target)
	}
	if !v.IsValid() {
		return reflect.Value{}, proputils.ErrNilTarget
	}

	if d.Type.Kind() == reflect.Interface {
		for v.Kind() == reflect.Interface {
			if v.IsNil() {
				return reflect.Value{}, proputils.ErrNilTarget
			}
			v = v.Elem()
		}
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return reflect.Value{}, proputils.ErrNilTarget
		}
		if !v.Type().Implements(d.Type) && !(v.CanAddr() && reflect.PointerTo(v.Type()).Implements(d.Type)) {
			return reflect.Value{}, fmt.Errorf("%w: %v does not implement %v", proputils.ErrTypeMismatch, v.Type(), d.Type)
		}
		return v, nil
	}

	for v.Type() != d.Type {
		switch v.Kind() {
		case reflect.Pointer, reflect.Interface:
			if v.IsNil() {
				return reflect.Value{}, proputils.ErrNilTarget
			}
			v = v.Elem()
		default:
			return reflect.Value{}, fmt.Errorf("%w: expected %v, got %v", proputils.ErrTypeMismatch, d.Type, v.Type())
		}
	}

	if !v.CanAddr() {
		if write {
			return reflect.Value{}, fmt.Errorf("%w: pass a pointer to %v", proputils.ErrNotAddressable, d.Type)
		}
		copied := reflect.New(d.Type).Elem()
		copied.Set(v)
		v = copied
	}
	return v, nil
}

// DescriptorSummary is a serializable view of a descriptor.
type DescriptorSummary struct {
	Type               string            `yaml:"type"`
	DefaultConstructor bool              `yaml:"defaultConstructor"`
	Properties         []PropertySummary `yaml:"properties"`
}

// PropertySummary describes the accessors of a single property.
type PropertySummary struct {
	Name   string           `yaml:"name"`
	Getter *AccessorSummary `yaml:"getter,omitempty"`
	Setter *AccessorSummary `yaml:"setter,omitempty"`
}

// AccessorSummary describes one accessor.
type AccessorSummary struct {
	Type      string `yaml:"type"`
	Source    string `yaml:"source"`
	Member    string `yaml:"member"`
	Declaring string `yaml:"declaring"`
}

func summarizeAccessor(accessor any, t reflect.Type) *AccessorSummary {
	summary := &AccessorSummary{
		Type: typeName(t),
	}
	if info, ok := accessor.(accessorInfo); ok {
		summary.Source = info.Source().String()
		summary.Member = info.Member()
		summary.Declaring = typeName(info.DeclaringType())
	}
	return summary
}

// Summary returns a serializable view of the descriptor, with properties in sorted order.
func (d *Descriptor) Summary() *DescriptorSummary {
	summary := &DescriptorSummary{
		Type:               typeName(d.Type),
		DefaultConstructor: d.HasDefaultConstructor(),
	}

	names := map[string]bool{}
	for _, name := range d.readable {
		names[name] = true
	}
	for _, name := range d.writable {
		names[name] = true
	}

	for _, name := range sortedKeys(names) {
		property := PropertySummary{Name: name}
		if getter, ok := d.getters[name]; ok {
			property.Getter = summarizeAccessor(getter, d.getTypes[name])
		}
		if setter, ok := d.setters[name]; ok {
			property.Setter = summarizeAccessor(setter, d.setTypes[name])
		}
		summary.Properties = append(summary.Properties, property)
	}

	return summary
}

// GetTypeHash returns a fingerprint of the descriptor's property layout.
func (d *Descriptor) GetTypeHash() ([32]byte, error) {
	yamlDesc, err := yaml.Marshal(d.Summary())
	if err != nil {
		return [32]byte{}, err
	}

	hash := sha256.Sum256(yamlDesc)
	return hash, nil
}
