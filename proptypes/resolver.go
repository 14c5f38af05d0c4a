// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"fmt"
	"reflect"

	"github.com/pk910/dynamic-props/proputils"
)

// accessorCandidate is an unresolved method accessor for one property.
// Candidates of a property are kept in walk order, outermost level first.
type accessorCandidate struct {
	property  string
	method    *methodCandidate
	valueType reflect.Type // getter result or setter parameter
	withError bool
}

func (c *accessorCandidate) declaring() reflect.Type {
	return c.method.level.typ
}

func (c *accessorCandidate) methodRef() methodRef {
	return methodRef{
		method:    c.method.method,
		path:      c.method.level.path,
		iface:     c.method.level.iface,
		declaring: c.method.level.typ,
	}
}

func (c *accessorCandidate) String() string {
	return fmt.Sprintf("%v.%v (%v, depth %d)", typeName(c.declaring()), c.method.method.Name, typeName(c.valueType), c.method.level.depth)
}

// resolveGetterConflicts picks one getter per property.
//
// Identical result types are only tolerated for booleans, where an IsX method
// beats GetX. Otherwise the candidate with the narrower (assignable) result type
// wins; unrelated result types are fatal.
func resolveGetterConflicts(root reflect.Type, conflictingGetters map[string][]*accessorCandidate) (map[string]*accessorCandidate, error) {
	winners := make(map[string]*accessorCandidate, len(conflictingGetters))

	for _, name := range sortedKeys(conflictingGetters) {
		var winner *accessorCandidate
		for _, candidate := range conflictingGetters[name] {
			if winner == nil {
				winner = candidate
				continue
			}

			winnerType := winner.valueType
			candidateType := candidate.valueType
			switch {
			case candidateType == winnerType:
				if candidateType.Kind() != reflect.Bool {
					return nil, newAmbiguousGetterError(root, name, winner, candidate)
				}
				if proputils.IsBoolGetterName(candidate.method.method.Name) {
					winner = candidate
				}
			case winnerType.AssignableTo(candidateType):
				// winner already returns the narrower type
			case candidateType.AssignableTo(winnerType):
				winner = candidate
			default:
				return nil, newAmbiguousGetterError(root, name, winner, candidate)
			}
		}
		winners[name] = winner
	}

	return winners, nil
}

// resolveSetterConflicts picks one setter per property.
//
// A setter whose parameter type equals the resolved getter type wins outright.
// Otherwise the narrower parameter type wins; an unresolvable pair is only fatal
// if no exact getter-type match shows up later in the candidate list.
func resolveSetterConflicts(root reflect.Type, conflictingSetters map[string][]*accessorCandidate, getTypes map[string]reflect.Type) (map[string]*accessorCandidate, error) {
	winners := make(map[string]*accessorCandidate, len(conflictingSetters))

	for _, name := range sortedKeys(conflictingSetters) {
		getterType := getTypes[name]

		var match *accessorCandidate
		var ambiguity error
		for _, setter := range conflictingSetters[name] {
			if getterType != nil && setter.valueType == getterType {
				match = setter
				break
			}
			if ambiguity != nil {
				continue
			}

			better, err := pickBetterSetter(root, name, match, setter)
			if err != nil {
				match = nil
				ambiguity = err
				continue
			}
			match = better
		}

		if match == nil {
			return nil, ambiguity
		}
		winners[name] = match
	}

	return winners, nil
}

func pickBetterSetter(root reflect.Type, name string, setter1, setter2 *accessorCandidate) (*accessorCandidate, error) {
	if setter1 == nil {
		return setter2, nil
	}

	paramType1 := setter1.valueType
	paramType2 := setter2.valueType
	switch {
	case paramType1 == paramType2:
		// same parameter on a deeper level: the outer declaration overrides it
		return setter1, nil
	case paramType2.AssignableTo(paramType1):
		return setter2, nil
	case paramType1.AssignableTo(paramType2):
		return setter1, nil
	}

	return nil, &AmbiguousAccessorError{
		Type:       root,
		Property:   name,
		Kind:       AccessorSetter,
		First:      setter1.declaring(),
		Second:     setter2.declaring(),
		FirstType:  paramType1,
		SecondType: paramType2,
	}
}

func newAmbiguousGetterError(root reflect.Type, name string, winner, candidate *accessorCandidate) error {
	return &AmbiguousAccessorError{
		Type:       root,
		Property:   name,
		Kind:       AccessorGetter,
		First:      winner.declaring(),
		Second:     candidate.declaring(),
		FirstType:  winner.valueType,
		SecondType: candidate.valueType,
	}
}
