package orm

import (
	"fmt"
	"reflect"
)

// Snapshot holds an entity's persistable values: the identifier first, then
// every field in declaration order.
type Snapshot []any

// FieldDef declares one persistable field of T. Accessors are closures written
// next to the entity type, so unexported fields are reachable.
type FieldDef[T any] struct {
	name string
	ref  bool
	get  func(*T) any
}

// Value declares a field compared by value. Containers are compared by contents.
func Value[T any](name string, get func(*T) any) FieldDef[T] {
	return FieldDef[T]{name: name, get: get}
}

// Ref declares a field holding another entity (or a slice of entities). It is
// compared by identity and never inspected further.
func Ref[T any](name string, get func(*T) any) FieldDef[T] {
	return FieldDef[T]{name: name, ref: true, get: get}
}

type field struct {
	name string
	ref  bool
	get  func(Entity) any
}

type typeMapping struct {
	fields []field
	getID  func(Entity) any
	setID  func(Entity, any) error
}

// Mapping is the type -> field accessor table used for snapshots and
// identifier assignment.
type Mapping struct {
	types map[reflect.Type]*typeMapping
}

func NewMapping() *Mapping {
	return &Mapping{types: map[reflect.Type]*typeMapping{}}
}

// Describe registers the field table of *T. id points at the identifier field.
func Describe[T any, ID comparable](m *Mapping, id func(*T) *ID, fields ...FieldDef[T]) {
	idType := reflect.TypeFor[ID]()
	tm := &typeMapping{
		getID: func(e Entity) any { return *id(e.(*T)) },
		setID: func(e Entity, v any) error {
			p := id(e.(*T))
			if v == nil {
				var zero ID
				*p = zero
				return nil
			}
			if typed, ok := v.(ID); ok {
				*p = typed
				return nil
			}
			rv := reflect.ValueOf(v)
			if isNumeric(rv.Kind()) && isNumeric(idType.Kind()) {
				*p = rv.Convert(idType).Interface().(ID)
				return nil
			}
			return fmt.Errorf("%w: %T into %s", ErrIdentifierType, v, idType)
		},
	}
	for _, f := range fields {
		get := f.get
		tm.fields = append(tm.fields, field{
			name: f.name,
			ref:  f.ref,
			get:  func(e Entity) any { return get(e.(*T)) },
		})
	}
	m.types[reflect.TypeFor[*T]()] = tm
}

func (m *Mapping) lookup(e Entity) *typeMapping {
	return m.types[reflect.TypeOf(e)]
}

// Mapped reports whether e's type has a field table.
func (m *Mapping) Mapped(e Entity) bool { return m.lookup(e) != nil }

// FieldNames lists the declared fields of e's type, identifier excluded.
func (m *Mapping) FieldNames(e Entity) []string {
	tm := m.lookup(e)
	if tm == nil {
		return nil
	}
	names := make([]string, len(tm.fields))
	for i, f := range tm.fields {
		names[i] = f.name
	}
	return names
}

// ID returns e's business identifier.
func (m *Mapping) ID(e Entity) (any, bool) {
	tm := m.lookup(e)
	if tm == nil {
		return nil, false
	}
	return tm.getID(e), true
}

// SetID assigns e's business identifier. Numeric values are converted to the
// identifier's type; nil resets it to the zero value.
func (m *Mapping) SetID(e Entity, v any) error {
	tm := m.lookup(e)
	if tm == nil {
		return fmt.Errorf("%w: %T", ErrUnmappedType, e)
	}
	return tm.setID(e, v)
}

func (m *Mapping) capture(e Entity) (Snapshot, bool) {
	tm := m.lookup(e)
	if tm == nil {
		return nil, false
	}
	snap := make(Snapshot, 0, len(tm.fields)+1)
	snap = append(snap, tm.getID(e))
	for _, f := range tm.fields {
		v := f.get(e)
		if f.ref {
			snap = append(snap, cloneRef(v))
			continue
		}
		snap = append(snap, cloneAny(v))
	}
	return snap, true
}

func (m *Mapping) changed(e Entity, snap Snapshot) bool {
	tm := m.lookup(e)
	if tm == nil || len(snap) != len(tm.fields)+1 {
		return false
	}
	if tm.getID(e) != snap[0] {
		return true
	}
	for i, f := range tm.fields {
		v := f.get(e)
		if f.ref {
			if !sameRef(v, snap[i+1]) {
				return true
			}
			continue
		}
		if !reflect.DeepEqual(v, snap[i+1]) {
			return true
		}
	}
	return false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
