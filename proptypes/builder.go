// Copyright (c) 2025 pk910
// SPDX-License-Identifier: Apache-2.0
// This file is part of the dynamic-props library.

package proptypes

import (
	"fmt"
	"reflect"
	"runtime"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pk910/dynamic-props/proputils"
)

// PropertySource tells whether a property accessor is backed by a method or a field.
type PropertySource uint8

const (
	SourceMethod PropertySource = iota
	SourceField
)

func (s PropertySource) String() string {
	if s == SourceField {
		return "field"
	}
	return "method"
}

// PropertyInfo describes an accessor about to be added to a descriptor.
// It is handed to the PropertyFilter, if one is configured.
type PropertyInfo struct {
	Name      string
	Type      reflect.Type
	Source    PropertySource
	Access    AccessorKind
	Member    string
	Exported  bool
	Declaring reflect.Type
}

// PropertyFilter decides whether an accessor is exposed. Returning an error aborts the build.
type PropertyFilter func(info *PropertyInfo) (bool, error)

// Constructor creates a new instance of a described type and returns a pointer to it.
// Factories of interface types return the implementation they create.
type Constructor func() reflect.Value

// BuildOptions controls how descriptors are built.
type BuildOptions struct {
	// TagKey is the struct tag consulted for field properties (default "prop").
	TagKey string
	// PrivateAccess admits unexported fields and members reached through
	// unexported embedded types. When false, they are omitted from descriptors.
	PrivateAccess bool
	// ReservedNames are excluded in addition to the built-in reserved names.
	ReservedNames map[string]struct{}
	// Factories maps a type to a zero-argument function returning T or *T.
	Factories map[reflect.Type]reflect.Value
	// Filter optionally restricts which accessors are exposed.
	Filter PropertyFilter
	// Logger receives build diagnostics. Nil disables logging.
	Logger *zap.Logger
	// Verbose enables per-member debug logging during builds.
	Verbose bool
}

// DefaultBuildOptions returns the options used when none are given.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		TagKey:        DefaultTagKey,
		PrivateAccess: true,
		Logger:        zap.NewNop(),
	}
}

// NewFactory validates a factory function and returns the type it constructs.
func NewFactory(fn any) (reflect.Type, reflect.Value, error) {
	fnValue := reflect.ValueOf(fn)
	if !fnValue.IsValid() || fnValue.Kind() != reflect.Func || fnValue.IsNil() {
		return nil, reflect.Value{}, fmt.Errorf("%w: expected a function, got %T", proputils.ErrInvalidFactory, fn)
	}

	fnType := fnValue.Type()
	if fnType.NumIn() != 0 || fnType.NumOut() != 1 || fnType.IsVariadic() {
		return nil, reflect.Value{}, fmt.Errorf("%w: %v must take no arguments and return exactly one value", proputils.ErrInvalidFactory, fnType)
	}

	target := fnType.Out(0)
	if target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	return target, fnValue, nil
}

// typeLevel is one type visited by the embedding walk.
type typeLevel struct {
	typ     reflect.Type
	path    accessPath
	depth   int
	order   int
	iface   bool
	private bool
}

// descriptorBuilder holds the working state of a single descriptor build.
type descriptorBuilder struct {
	root     reflect.Type
	opts     *BuildOptions
	tagKey   string
	logger   *zap.Logger
	levels   []*typeLevel
	getters  map[string]Getter
	setters  map[string]Setter
	getTypes map[string]reflect.Type
	setTypes map[string]reflect.Type
}

// normalizeType maps pointer types onto the type they point to.
func normalizeType(t reflect.Type) (reflect.Type, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", proputils.ErrUnsupportedType)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Pointer {
		return nil, fmt.Errorf("%w: pointer to pointer %v", proputils.ErrUnsupportedType, t)
	}
	return t, nil
}

// BuildDescriptor introspects t and its embedded types and returns a complete descriptor.
//
// Building never returns a partially populated descriptor: any ambiguity between
// accessor candidates aborts the build with an *AmbiguousAccessorError.
// Most callers should go through TypeCache instead, which builds each type once.
func BuildDescriptor(t reflect.Type, opts *BuildOptions) (*Descriptor, error) {
	t, err := normalizeType(t)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		defaults := DefaultBuildOptions()
		opts = &defaults
	}

	b := &descriptorBuilder{
		root:     t,
		opts:     opts,
		tagKey:   opts.TagKey,
		logger:   opts.Logger,
		getters:  map[string]Getter{},
		setters:  map[string]Setter{},
		getTypes: map[string]reflect.Type{},
		setTypes: map[string]reflect.Type{},
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	if b.tagKey == "" {
		b.tagKey = DefaultTagKey
	}

	b.collectLevels()
	constructor := b.resolveConstructor()

	methods := b.collectMethods()
	if err := b.addGetMethods(methods); err != nil {
		return nil, err
	}
	if err := b.addSetMethods(methods); err != nil {
		return nil, err
	}
	if err := b.addFields(); err != nil {
		return nil, err
	}

	return newDescriptor(t, b.getters, b.setters, b.getTypes, b.setTypes, constructor), nil
}

func (b *descriptorBuilder) debug(msg string, fields ...zap.Field) {
	if b.opts.Verbose {
		b.logger.Debug(msg, append(fields, zap.String("type", typeName(b.root)))...)
	}
}

func (b *descriptorBuilder) resolveConstructor() Constructor {
	t := b.root
	if factory, ok := b.opts.Factories[t]; ok {
		return func() reflect.Value {
			out := factory.Call(nil)[0]
			if out.Type() == t && t.Kind() != reflect.Interface {
				ptr := reflect.New(t)
				ptr.Elem().Set(out)
				return ptr
			}
			return out
		}
	}

	if t.Kind() == reflect.Interface {
		return nil
	}
	return func() reflect.Value {
		return reflect.New(t)
	}
}

// collectLevels walks the root type and its embedded types breadth-first.
// Embedded interfaces are visited right after the level embedding them.
func (b *descriptorBuilder) collectLevels() {
	visited := map[reflect.Type]bool{}
	queue := []*typeLevel{{
		typ:   b.root,
		iface: b.root.Kind() == reflect.Interface,
	}}

	addLevel := func(level *typeLevel) bool {
		if visited[level.typ] {
			return false
		}
		visited[level.typ] = true
		if level.private && !b.opts.PrivateAccess {
			b.debug("accessibility denied", zap.String("level", typeName(level.typ)))
			return false
		}
		level.order = len(b.levels)
		b.levels = append(b.levels, level)
		return true
	}

	for len(queue) > 0 {
		level := queue[0]
		queue = queue[1:]

		if !addLevel(level) || level.typ.Kind() != reflect.Struct {
			continue
		}

		for i := 0; i < level.typ.NumField(); i++ {
			field := level.typ.Field(i)
			if !field.Anonymous {
				continue
			}

			fieldType := field.Type
			if fieldType.Kind() == reflect.Pointer {
				fieldType = fieldType.Elem()
			}

			child := &typeLevel{
				typ:     fieldType,
				path:    level.path.extend(i),
				depth:   level.depth + 1,
				iface:   fieldType.Kind() == reflect.Interface,
				private: level.private || !field.IsExported(),
			}
			if child.iface {
				addLevel(child)
			} else {
				queue = append(queue, child)
			}
		}
	}
}

// methodCandidate is a deduplicated method found on one level.
type methodCandidate struct {
	method reflect.Method
	level  *typeLevel
	ins    []reflect.Type
	outs   []reflect.Type
}

// collectMethods returns all methods of all levels, keeping only the first
// occurrence of each signature. Levels are ordered outermost first, so an
// outer declaration shadows the embedded one it overrides. Methods a struct
// level only promotes from an embedded field are left to that field's level,
// so they are invoked along its path and nil embedded values are detected.
func (b *descriptorBuilder) collectMethods() []*methodCandidate {
	unique := map[string]bool{}
	methods := []*methodCandidate{}

	for _, level := range b.levels {
		methodSet := level.typ
		if !level.iface {
			methodSet = reflect.PointerTo(level.typ)
		}
		promotable := embeddedSignatures(level.typ)

		for i := 0; i < methodSet.NumMethod(); i++ {
			method := methodSet.Method(i)
			candidate := &methodCandidate{
				method: method,
				level:  level,
			}

			firstIn := 1
			if level.iface {
				firstIn = 0
			}
			for j := firstIn; j < method.Type.NumIn(); j++ {
				candidate.ins = append(candidate.ins, method.Type.In(j))
			}
			for j := 0; j < method.Type.NumOut(); j++ {
				candidate.outs = append(candidate.outs, method.Type.Out(j))
			}

			signature := methodSignature(method.Name, candidate.ins, candidate.outs)
			if unique[signature] {
				continue
			}
			if !level.iface && promotable[signature] && isPromotedMethod(level.typ, method) {
				continue
			}
			unique[signature] = true
			methods = append(methods, candidate)
		}
	}

	return methods
}

// embeddedSignatures returns the signatures of all methods the embedded
// fields of a struct type provide to it.
func embeddedSignatures(t reflect.Type) map[string]bool {
	signatures := map[string]bool{}
	if t.Kind() != reflect.Struct {
		return signatures
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.Anonymous {
			continue
		}

		fieldType := field.Type
		if fieldType.Kind() == reflect.Pointer {
			fieldType = fieldType.Elem()
		}

		methodSet := fieldType
		firstIn := 0
		if fieldType.Kind() != reflect.Interface {
			methodSet = reflect.PointerTo(fieldType)
			firstIn = 1
		}

		for j := 0; j < methodSet.NumMethod(); j++ {
			method := methodSet.Method(j)
			ins := []reflect.Type{}
			outs := []reflect.Type{}
			for k := firstIn; k < method.Type.NumIn(); k++ {
				ins = append(ins, method.Type.In(k))
			}
			for k := 0; k < method.Type.NumOut(); k++ {
				outs = append(outs, method.Type.Out(k))
			}
			signatures[methodSignature(method.Name, ins, outs)] = true
		}
	}

	return signatures
}

// isPromotedMethod reports whether the method of t is a compiler-generated
// promotion wrapper rather than a method declared on t or *t.
// Pointer method sets wrap value receivers too, so a method also present in
// the value method set is judged by that entry. A wrapper either carries no
// source position or begins inside the inlined method it forwards to.
func isPromotedMethod(t reflect.Type, method reflect.Method) bool {
	fn := method.Func
	if valueMethod, ok := t.MethodByName(method.Name); ok {
		fn = valueMethod.Func
	}

	f := runtime.FuncForPC(fn.Pointer())
	if f == nil {
		return false
	}
	if file, _ := f.FileLine(f.Entry()); file == "<autogenerated>" {
		return true
	}

	name := f.Name()
	return !strings.HasSuffix(name, "."+t.Name()+"."+method.Name) &&
		!strings.HasSuffix(name, ".(*"+t.Name()+")."+method.Name)
}

func (b *descriptorBuilder) addGetMethods(methods []*methodCandidate) error {
	conflictingGetters := map[string][]*accessorCandidate{}

	for _, method := range methods {
		if len(method.ins) != 0 || method.method.Type.IsVariadic() {
			continue
		}
		withError := false
		switch {
		case len(method.outs) == 1:
		case len(method.outs) == 2 && method.outs[1] == errorType:
			withError = true
		default:
			continue
		}

		name, ok := proputils.GetterProperty(method.method.Name)
		if !ok {
			continue
		}

		conflictingGetters[name] = append(conflictingGetters[name], &accessorCandidate{
			property:  name,
			method:    method,
			valueType: method.outs[0],
			withError: withError,
		})
	}

	winners, err := resolveGetterConflicts(b.root, conflictingGetters)
	if err != nil {
		return err
	}

	for _, name := range sortedKeys(winners) {
		winner := winners[name]
		if len(conflictingGetters[name]) > 1 {
			b.debug("resolved getter conflict", zap.String("property", name), zap.String("winner", winner.String()))
		}
		if err := b.addGetMethod(name, winner); err != nil {
			return err
		}
	}
	return nil
}

func (b *descriptorBuilder) addGetMethod(name string, winner *accessorCandidate) error {
	if !b.isValidPropertyName(name) {
		return nil
	}

	getter := &MethodGetter{
		methodRef: winner.methodRef(),
		valueType: rawType(winner.valueType),
		withError: winner.withError,
	}

	ok, err := b.filter(name, getter.valueType, SourceMethod, AccessorGetter, winner.method.method.Name, !winner.method.level.private, winner.method.level.typ)
	if err != nil || !ok {
		return err
	}

	b.getters[name] = getter
	b.getTypes[name] = getter.valueType
	return nil
}

func (b *descriptorBuilder) addSetMethods(methods []*methodCandidate) error {
	conflictingSetters := map[string][]*accessorCandidate{}

	for _, method := range methods {
		if len(method.ins) != 1 || method.method.Type.IsVariadic() {
			continue
		}

		name, ok := proputils.SetterProperty(method.method.Name)
		if !ok {
			continue
		}

		conflictingSetters[name] = append(conflictingSetters[name], &accessorCandidate{
			property:  name,
			method:    method,
			valueType: method.ins[0],
			withError: len(method.outs) > 0 && method.outs[len(method.outs)-1] == errorType,
		})
	}

	winners, err := resolveSetterConflicts(b.root, conflictingSetters, b.getTypes)
	if err != nil {
		return err
	}

	for _, name := range sortedKeys(winners) {
		winner := winners[name]
		if len(conflictingSetters[name]) > 1 {
			b.debug("resolved setter conflict", zap.String("property", name), zap.String("winner", winner.String()))
		}
		if err := b.addSetMethod(name, winner); err != nil {
			return err
		}
	}
	return nil
}

func (b *descriptorBuilder) addSetMethod(name string, winner *accessorCandidate) error {
	if !b.isValidPropertyName(name) {
		return nil
	}

	setter := &MethodSetter{
		methodRef: winner.methodRef(),
		valueType: rawType(winner.valueType),
		errResult: winner.withError,
	}

	ok, err := b.filter(name, setter.valueType, SourceMethod, AccessorSetter, winner.method.method.Name, !winner.method.level.private, winner.method.level.typ)
	if err != nil || !ok {
		return err
	}

	b.setters[name] = setter
	b.setTypes[name] = setter.valueType
	return nil
}

// fieldLevel is a struct whose declared fields are candidates for field accessors.
type fieldLevel struct {
	typ     reflect.Type
	path    accessPath
	private bool
}

// addFields exposes struct fields not already claimed by method accessors.
// Struct levels are visited breadth-first like the method walk, so a field
// declared closer to the root claims its property before a deeper one.
func (b *descriptorBuilder) addFields() error {
	visited := map[reflect.Type]bool{}
	queue := []fieldLevel{{typ: b.root}}

	for len(queue) > 0 {
		level := queue[0]
		queue = queue[1:]

		if level.typ.Kind() != reflect.Struct || visited[level.typ] {
			continue
		}
		visited[level.typ] = true

		if level.private && !b.opts.PrivateAccess {
			b.debug("accessibility denied", zap.String("level", typeName(level.typ)))
			continue
		}

		embedded, err := b.addLevelFields(level)
		if err != nil {
			return err
		}
		queue = append(queue, embedded...)
	}

	return nil
}

// addLevelFields adds the fields declared on one struct level and returns its
// embedded structs for the next round of the walk.
func (b *descriptorBuilder) addLevelFields(level fieldLevel) ([]fieldLevel, error) {
	t := level.typ
	embedded := []fieldLevel{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		tag, err := getPropTag(&field, b.tagKey)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %v tag for field %v of %v: %w", b.tagKey, field.Name, typeName(t), err)
		}
		if tag.Skip {
			continue
		}

		fieldPath := level.path.extend(i)
		fieldPrivate := level.private || !field.IsExported()

		if field.Anonymous && !tag.HasName {
			fieldType := field.Type
			if fieldType.Kind() == reflect.Pointer {
				fieldType = fieldType.Elem()
			}
			if fieldType.Kind() == reflect.Interface {
				continue
			}
			if fieldType.Kind() == reflect.Struct {
				embedded = append(embedded, fieldLevel{
					typ:     fieldType,
					path:    fieldPath,
					private: fieldPrivate,
				})
				continue
			}
		}

		if fieldPrivate && !b.opts.PrivateAccess {
			b.debug("accessibility denied", zap.String("field", field.Name))
			continue
		}

		name := tag.Name
		if !tag.HasName {
			name = proputils.Decapitalize(field.Name)
		}
		if !b.isValidPropertyName(name) {
			continue
		}

		ref := fieldRef{
			field:     field,
			path:      fieldPath,
			declaring: t,
		}

		if _, claimed := b.setters[name]; !claimed && !tag.ReadOnly {
			ok, err := b.filter(name, field.Type, SourceField, AccessorSetter, field.Name, !fieldPrivate, t)
			if err != nil {
				return nil, err
			}
			if ok {
				b.setters[name] = &FieldSetter{fieldRef: ref}
				b.setTypes[name] = rawType(field.Type)
			}
		}

		if _, claimed := b.getters[name]; !claimed {
			ok, err := b.filter(name, field.Type, SourceField, AccessorGetter, field.Name, !fieldPrivate, t)
			if err != nil {
				return nil, err
			}
			if ok {
				b.getters[name] = &FieldGetter{fieldRef: ref}
				b.getTypes[name] = rawType(field.Type)
			}
		}
	}

	return embedded, nil
}

func (b *descriptorBuilder) isValidPropertyName(name string) bool {
	return !proputils.IsReservedName(name, b.opts.ReservedNames)
}

func (b *descriptorBuilder) filter(name string, t reflect.Type, source PropertySource, access AccessorKind, member string, exported bool, declaring reflect.Type) (bool, error) {
	if b.opts.Filter == nil {
		return true, nil
	}

	ok, err := b.opts.Filter(&PropertyInfo{
		Name:      name,
		Type:      t,
		Source:    source,
		Access:    access,
		Member:    member,
		Exported:  exported,
		Declaring: declaring,
	})
	if err != nil {
		return false, fmt.Errorf("%w: property %v of %v: %v", proputils.ErrInvalidFilter, name, typeName(b.root), err)
	}
	if !ok {
		b.debug("property filtered", zap.String("property", name), zap.Stringer("access", access))
	}
	return ok, nil
}

// methodSignature builds the dedup key "results#Name:param1,param2".
func methodSignature(name string, ins, outs []reflect.Type) string {
	sb := strings.Builder{}
	for i, out := range outs {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(typeName(out))
	}
	sb.WriteByte('#')
	sb.WriteString(name)
	for i, in := range ins {
		if i == 0 {
			sb.WriteByte(':')
		} else {
			sb.WriteByte(',')
		}
		sb.WriteString(typeName(in))
	}
	return sb.String()
}

// typeName returns a package-qualified name for t.
func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
