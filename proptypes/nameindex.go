// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import "github.com/pk910/dynamic-props/proputils"

// NameIndex resolves property names case-insensitively to their canonical form.
type NameIndex struct {
	names map[string]string
}

// newNameIndex indexes the given name lists in order. When two names only
// differ in case, the first one seen stays canonical.
func newNameIndex(lists ...[]string) *NameIndex {
	index := &NameIndex{
		names: map[string]string{},
	}
	for _, list := range lists {
		for _, name := range list {
			key := proputils.IndexKey(name)
			if _, exists := index.names[key]; !exists {
				index.names[key] = name
			}
		}
	}
	return index
}

// Find returns the canonical property name for name in any case.
func (ni *NameIndex) Find(name string) (string, bool) {
	canonical, ok := ni.names[proputils.IndexKey(name)]
	return canonical, ok
}

// Len returns the number of distinct case-insensitive keys.
func (ni *NameIndex) Len() int {
	return len(ni.names)
}
