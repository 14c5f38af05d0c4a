// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"errors"
	"reflect"
)

var errBoom = errors.New("boom")

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Animal / Dog: identical getter override on an embedding type.
type Animal struct {
	name string
}

func (a *Animal) GetName() string { return a.name }
func (a *Animal) SetName(n string) { a.name = n }

type Dog struct {
	Animal
	breed string
}

func (d *Dog) GetName() string { return "dog:" + d.Animal.name }

// Named is implemented by *Animal and *Dog.
type Named interface {
	GetName() string
	SetName(name string)
}

// Flags has both bool getter forms for one property.
type Flags struct {
	active bool
}

func (f *Flags) GetActive() bool { return f.active }
func (f *Flags) IsActive() bool { return f.active }
func (f *Flags) SetActive(a bool) { f.active = a }

// Number / Integer: covariant getter override.
type Number interface {
	Value() int
}

type Integer int

func (i Integer) Value() int { return int(i) }

type BaseValue struct{}

func (b *BaseValue) GetValue() Number { return Integer(1) }

type DerivedValue struct {
	BaseValue
}

func (d *DerivedValue) GetValue() Integer { return Integer(2) }

// Left / Right: sibling getters with unrelated result types.
type Left struct{}

func (Left) GetValue() int { return 1 }

type Right struct{}

func (Right) GetValue() string { return "right" }

type Both struct {
	Left
	Right
}

// BaseHolder / IntHolder: setter overloads, one matching the getter type.
type BaseHolder struct {
	item Number
}

func (b *BaseHolder) GetItem() Number { return b.item }
func (b *BaseHolder) SetItem(n Number) { b.item = n }

type IntHolder struct {
	BaseHolder
}

func (h *IntHolder) SetItem(i Integer) { h.BaseHolder.item = i * 10 }

// Sink / IntSink: setter overloads without a getter.
type Sink struct {
	last any
}

func (s *Sink) SetData(v any) { s.last = v }

type IntSink struct {
	Sink
}

func (s *IntSink) SetData(v int) { s.Sink.last = v + 1 }

// IntWriter / StrWriter: sibling setters with unrelated parameter types.
type IntWriter struct{}

func (IntWriter) SetData(int) {}

type StrWriter struct{}

func (StrWriter) SetData(string) {}

type MultiWriter struct {
	IntWriter
	StrWriter
}

type ReadableMultiWriter struct {
	IntWriter
	StrWriter
}

func (ReadableMultiWriter) GetData() string { return "data" }

// Inner / Outer: field promoted through an embedded pointer.
type Inner struct {
	Count int
}

type Outer struct {
	*Inner
}

// Tagged exercises the property tag options.
type Tagged struct {
	ID      string `prop:"identifier"`
	Skipped int    `prop:"-"`
	Version int    `prop:",readonly"`
	Plain   string
}

type BadTag struct {
	Value int `prop:",bogus"`
}

// Mixed has exported, unexported and unexported-embedded members.
type Mixed struct {
	Public  string
	private string
	hidden
}

type hidden struct {
	Deep int
}

func (h *hidden) GetSecret() string { return "secret" }

// Sealed has a private read-only field.
type Sealed struct {
	token string `prop:",readonly"`
}

// Checked has accessors that can fail.
type Checked struct {
	fail   bool
	status string
}

func (c *Checked) GetStatus() (string, error) {
	if c.fail {
		return "", errBoom
	}
	return c.status, nil
}

func (c *Checked) SetStatus(s string) error {
	if s == "" {
		return errBoom
	}
	c.status = s
	return nil
}

// Reserved only has members with reserved property names.
type Reserved struct {
	Class string
	_     int
	Kept  int
}

// Service embeds an interface level.
type Service struct {
	Named
	id int
}

// Acronyms keeps upper-case prefixes untouched.
type Acronyms struct {
	url string
}

func (a *Acronyms) GetURL() string { return a.url }
func (a *Acronyms) SetURL(u string) { a.url = u }

// PtrOuter promotes the Animal accessors through a nil-able pointer.
type PtrOuter struct {
	*Animal
}

// FieldRoot reaches X at two embedding depths.
type FieldInner struct {
	X string
}

type FieldA struct {
	FieldInner
}

type FieldB struct {
	X string
}

type FieldRoot struct {
	FieldA
	FieldB
}

// Narrow holds a small integer.
type Narrow struct {
	Small int8
}

// Dashed names a field "-" through the tag.
type Dashed struct {
	Dash string `prop:"-,"`
}
