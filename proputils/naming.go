// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proputils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	getterPrefix     = "Get"
	boolGetterPrefix = "Is"
	setterPrefix     = "Set"
)

// defaultReservedNames are never exposed as properties, regardless of configuration.
var defaultReservedNames = map[string]struct{}{
	"-":                {},
	"_":                {},
	"class":            {},
	"serialVersionUID": {},
}

// GetterProperty returns the property name for a getter-style method name
// (GetX or IsX). The second return value is false if the name is not getter-shaped.
func GetterProperty(methodName string) (string, bool) {
	switch {
	case strings.HasPrefix(methodName, getterPrefix) && len(methodName) > len(getterPrefix):
		return Decapitalize(methodName[len(getterPrefix):]), true
	case strings.HasPrefix(methodName, boolGetterPrefix) && len(methodName) > len(boolGetterPrefix):
		return Decapitalize(methodName[len(boolGetterPrefix):]), true
	}
	return "", false
}

// SetterProperty returns the property name for a SetX method name.
func SetterProperty(methodName string) (string, bool) {
	if strings.HasPrefix(methodName, setterPrefix) && len(methodName) > len(setterPrefix) {
		return Decapitalize(methodName[len(setterPrefix):]), true
	}
	return "", false
}

// IsBoolGetterName reports whether the method name uses the IsX form.
func IsBoolGetterName(methodName string) bool {
	return strings.HasPrefix(methodName, boolGetterPrefix)
}

// Decapitalize lowercases the first letter of name, unless the first two
// letters are both upper case (acronyms like URL or ID stay untouched).
func Decapitalize(name string) string {
	first, size := utf8.DecodeRuneInString(name)
	if first == utf8.RuneError || !unicode.IsUpper(first) {
		return name
	}
	if second, _ := utf8.DecodeRuneInString(name[size:]); unicode.IsUpper(second) {
		return name
	}
	return string(unicode.ToLower(first)) + name[size:]
}

// IsReservedName reports whether name may not be used as a property name.
// Names beginning with '$', the blank identifier, "-" and a small fixed set
// are always reserved; extra adds caller-configured names.
func IsReservedName(name string, extra map[string]struct{}) bool {
	if name == "" || strings.HasPrefix(name, "$") {
		return true
	}
	if _, ok := defaultReservedNames[name]; ok {
		return true
	}
	_, ok := extra[name]
	return ok
}

// IndexKey returns the case-insensitive lookup key for a property name.
func IndexKey(name string) string {
	return strings.ToUpper(name)
}
