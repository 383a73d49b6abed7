// Package storage holds helpers shared by the PostgreSQL and SQLite adapters.
package storage

import (
	"reflect"
	"sync"
)

// Columns returns the "db" tags of T in field order.
// Anonymous embedded structs are flattened, so numerator.Counter yields its
// Settings columns inline.
//
//	cols := storage.Columns[numerator.Counter]()
//	// ["id", "tenant_id", "entity", "sub_scope_id", "prefix", ...]
func Columns[T any]() []string {
	var zero T
	return columnsOf(reflect.TypeOf(zero))
}

func columnsOf(t reflect.Type) []string {
	var cols []string
	for _, f := range fieldsOf(t) {
		cols = append(cols, f.column)
	}
	return cols
}

// ValueMap returns the column values of v keyed by "db" tag.
// v may be a struct or a pointer to one; anything else yields nil.
func ValueMap(v any) map[string]any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}

	fields := fieldsOf(rv.Type())
	res := make(map[string]any, len(fields))
	for _, f := range fields {
		res[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return res
}

// field is a tagged struct field, possibly reached through embedded structs.
type field struct {
	column string
	index  []int
}

// fieldCache maps reflect.Type to []field. Entries are computed once per type.
var fieldCache sync.Map

func fieldsOf(t reflect.Type) []field {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]field)
	}

	var fields []field
	if t.Kind() == reflect.Struct {
		fields = collect(t, nil)
	}
	fieldCache.Store(t, fields)
	return fields
}

func collect(t reflect.Type, prefix []int) []field {
	var fields []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			fields = append(fields, collect(sf.Type, index)...)
			continue
		}

		tag := sf.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		fields = append(fields, field{column: tag, index: index})
	}
	return fields
}
