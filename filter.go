// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package dynprops

import (
	"fmt"
	"sync"

	"github.com/casbin/govaluate"

	"github.com/pk910/dynamic-props/proptypes"
	"github.com/pk910/dynamic-props/proputils"
)

type cachedFilterResult struct {
	include bool
	err     error
}

// propertyFilter evaluates a filter expression against property candidates.
// Results are cached per parameter set, since the same member is offered once
// per accessor kind and embedded types recur across many descriptors.
type propertyFilter struct {
	expression *govaluate.EvaluableExpression
	mutex      sync.Mutex
	cache      map[string]*cachedFilterResult
}

func newPropertyFilter(expr string) (*propertyFilter, error) {
	expression, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: error parsing filter expression: %v", proputils.ErrInvalidFilter, err)
	}

	return &propertyFilter{
		expression: expression,
		cache:      map[string]*cachedFilterResult{},
	}, nil
}

func filterParameters(info *proptypes.PropertyInfo) map[string]any {
	params := map[string]any{
		"name":      info.Name,
		"type":      "",
		"kind":      "",
		"source":    info.Source.String(),
		"access":    info.Access.String(),
		"member":    info.Member,
		"exported":  info.Exported,
		"declaring": "",
	}
	if info.Type != nil {
		params["type"] = qualifiedName(info.Type.PkgPath(), info.Type.Name(), info.Type.String())
		params["kind"] = info.Type.Kind().String()
	}
	if info.Declaring != nil {
		params["declaring"] = qualifiedName(info.Declaring.PkgPath(), info.Declaring.Name(), info.Declaring.String())
	}
	return params
}

func qualifiedName(pkgPath, name, fallback string) string {
	if pkgPath != "" && name != "" {
		return pkgPath + "." + name
	}
	return fallback
}

// Include implements proptypes.PropertyFilter.
func (f *propertyFilter) Include(info *proptypes.PropertyInfo) (bool, error) {
	params := filterParameters(info)
	key := fmt.Sprintf("%v|%v|%v|%v|%v|%v|%v|%v", params["name"], params["type"], params["kind"],
		params["source"], params["access"], params["member"], params["exported"], params["declaring"])

	f.mutex.Lock()
	defer f.mutex.Unlock()

	if cached := f.cache[key]; cached != nil {
		return cached.include, cached.err
	}

	cached := &cachedFilterResult{}
	result, err := f.expression.Evaluate(params)
	if err != nil {
		cached.err = err
	} else if include, ok := result.(bool); ok {
		cached.include = include
	} else {
		cached.err = fmt.Errorf("filter expression returned %T, expected bool", result)
	}

	f.cache[key] = cached
	return cached.include, cached.err
}
