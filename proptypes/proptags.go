// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"fmt"
	"reflect"
	"strings"
)

// DefaultTagKey is the struct tag consulted for field properties.
const DefaultTagKey = "prop"

// PropTag holds the parsed property tag of a struct field.
//
// The tag format is `prop:"name,option,..."`. An empty name keeps the derived
// property name; a name of "-" excludes the field. Supported options:
//   - readonly: the field gets a getter but never a setter
type PropTag struct {
	Name     string
	Skip     bool
	ReadOnly bool
	HasName  bool
}

func getPropTag(field *reflect.StructField, tagKey string) (PropTag, error) {
	tag := PropTag{}

	tagStr, hasTag := field.Tag.Lookup(tagKey)
	if !hasTag {
		return tag, nil
	}

	parts := strings.Split(tagStr, ",")
	switch name := strings.TrimSpace(parts[0]); name {
	case "-":
		if len(parts) == 1 {
			tag.Skip = true
			return tag, nil
		}
		// "-," names the property "-", which IsReservedName rejects
		tag.Name = name
		tag.HasName = true
	case "":
	default:
		tag.Name = name
		tag.HasName = true
	}

	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "readonly":
			tag.ReadOnly = true
		case "":
		default:
			return tag, fmt.Errorf("invalid %v tag option '%v' on field %v", tagKey, opt, field.Name)
		}
	}

	return tag, nil
}
