package orm

import (
	"fmt"
	"reflect"
)

// Entity is any persisted domain object. Entities are tracked by instance
// identity, so every Entity handed to this package must be a non-nil pointer
// to a struct with at least one field.
type Entity = any

// ObjectHashID identifies one live entity instance. It is unrelated to the
// entity's business identifier, which is usually unset until insertion.
type ObjectHashID uintptr

// HashID returns the identity token of e. It panics when e is not a pointer.
func HashID(e Entity) ObjectHashID {
	v := reflect.ValueOf(e)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		panic(fmt.Sprintf("orm: entity %T must be a non-nil pointer", e))
	}
	return ObjectHashID(v.Pointer())
}

// TypeOf returns the runtime type mappers and generators are keyed by,
// e.g. TypeOf[*domain.Book]().
func TypeOf[T any]() reflect.Type { return reflect.TypeFor[T]() }

func typeName(e Entity) string {
	t := reflect.TypeOf(e)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
