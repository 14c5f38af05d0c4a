// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package dynprops

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pk910/dynamic-props/proptypes"
	"github.com/pk910/dynamic-props/proputils"
)

// DynProps provides reflective property access for arbitrary Go types.
//
// Properties are derived from GetX/IsX/SetX methods of a type and its embedded
// types, with struct fields filling in whatever the methods leave out. The
// result for each type is computed once and cached in a TypeCache.
//
// A DynProps instance is safe for concurrent use. It's recommended to reuse the
// same instance across operations to benefit from caching.
//
// Example usage:
//
//	dp, err := dynprops.NewDynProps()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	name, err := dp.GetProperty(user, "name")
//	err = dp.SetProperty(user, "email", "a@example.com")
type DynProps struct {
	typeCache *proptypes.TypeCache
	logger    *zap.Logger
	options   DynPropsOptions
}

// NewDynProps creates a new DynProps instance.
//
// Invalid options (a malformed filter expression or factory) are reported here,
// not at the first descriptor build.
func NewDynProps(opts ...DynPropsOption) (*DynProps, error) {
	options := DynPropsOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	buildOpts := proptypes.DefaultBuildOptions()
	buildOpts.PrivateAccess = !options.NoPrivate
	buildOpts.Verbose = options.Verbose
	if options.TagKey != "" {
		buildOpts.TagKey = options.TagKey
	}

	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	buildOpts.Logger = logger.Named("dynprops")

	if len(options.ReservedNames) > 0 {
		buildOpts.ReservedNames = make(map[string]struct{}, len(options.ReservedNames))
		for _, name := range options.ReservedNames {
			buildOpts.ReservedNames[name] = struct{}{}
		}
	}

	if len(options.Factories) > 0 {
		buildOpts.Factories = make(map[reflect.Type]reflect.Value, len(options.Factories))
		for _, fn := range options.Factories {
			t, factory, err := proptypes.NewFactory(fn)
			if err != nil {
				return nil, err
			}
			buildOpts.Factories[t] = factory
		}
	}

	if options.Filter != "" {
		filter, err := newPropertyFilter(options.Filter)
		if err != nil {
			return nil, err
		}
		buildOpts.Filter = filter.Include
	}

	return &DynProps{
		typeCache: proptypes.NewTypeCache(buildOpts),
		logger:    buildOpts.Logger,
		options:   options,
	}, nil
}

// GetTypeCache returns the type cache for the DynProps instance.
//
// This method is primarily useful for debugging or advanced use cases where you
// need to inspect or manage the cached type information.
func (d *DynProps) GetTypeCache() *proptypes.TypeCache {
	return d.typeCache
}

// GetDescriptor returns the descriptor of t. Pointer types share the descriptor
// of the type they point to.
func (d *DynProps) GetDescriptor(t reflect.Type) (*proptypes.Descriptor, error) {
	return d.typeCache.GetTypeDescriptor(t)
}

// DescriptorOf returns the descriptor of the dynamic type of v.
func (d *DynProps) DescriptorOf(v any) (*proptypes.Descriptor, error) {
	if rv, ok := v.(reflect.Value); ok {
		if !rv.IsValid() {
			return nil, proputils.ErrNilTarget
		}
		return d.GetDescriptor(rv.Type())
	}
	if v == nil {
		return nil, proputils.ErrNilTarget
	}
	return d.GetDescriptor(reflect.TypeOf(v))
}

// GetProperty reads the named property from target.
//
// When the exact name is unknown, it is resolved case-insensitively, so
// "Name" and "NAME" both find a property named "name".
func (d *DynProps) GetProperty(target any, name string) (any, error) {
	desc, err := d.DescriptorOf(target)
	if err != nil {
		return nil, err
	}

	if !desc.HasGetter(name) {
		if canonical, ok := desc.FindPropertyName(name); ok {
			name = canonical
		}
	}

	return desc.GetValue(target, name)
}

// SetProperty writes the named property on target, which must be a pointer.
//
// The property name is resolved the same way as in GetProperty.
func (d *DynProps) SetProperty(target any, name string, value any) error {
	desc, err := d.DescriptorOf(target)
	if err != nil {
		return err
	}

	if !desc.HasSetter(name) {
		if canonical, ok := desc.FindPropertyName(name); ok {
			name = canonical
		}
	}

	return desc.SetValue(target, name, value)
}

// NewInstance creates a new instance of t through its default constructor and
// returns a pointer to it.
func (d *DynProps) NewInstance(t reflect.Type) (any, error) {
	desc, err := d.GetDescriptor(t)
	if err != nil {
		return nil, err
	}

	instance, err := desc.NewInstance()
	if err != nil {
		return nil, err
	}
	return instance.Interface(), nil
}

// Properties reads all readable properties of target into a map.
// Properties whose getter fails are skipped and reported in the joined error.
func (d *DynProps) Properties(target any) (map[string]any, error) {
	desc, err := d.DescriptorOf(target)
	if err != nil {
		return nil, err
	}

	names := desc.ReadablePropertyNames()
	values := make(map[string]any, len(names))
	var errs []error
	for _, name := range names {
		value, err := desc.GetValue(target, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("property %v: %w", name, err))
			continue
		}
		values[name] = value
	}

	return values, errors.Join(errs...)
}

// DumpDescriptors writes the summaries of all cached descriptors as a YAML
// document list, ordered by type name.
func (d *DynProps) DumpDescriptors(w io.Writer) error {
	types := d.typeCache.GetAllTypes()
	summaries := make([]*proptypes.DescriptorSummary, 0, len(types))
	for _, t := range types {
		desc, err := d.typeCache.GetTypeDescriptor(t)
		if err != nil {
			// removed concurrently and failed to rebuild
			continue
		}
		summaries = append(summaries, desc.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Type < summaries[j].Type
	})

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	for _, summary := range summaries {
		if err := encoder.Encode(summary); err != nil {
			return err
		}
	}
	return encoder.Close()
}
