package postgres

import (
	"reflect"
	"sync"
)

// ExtractDBColumns returns the "db" tag names of T in field order,
// descending into embedded structs (entity.BaseDocument). Fields tagged
// "-" or untagged are skipped.
//
//	cols := ExtractDBColumns[product.Product]()
//	// ["id", "name", "sku", "base_price", ...]
func ExtractDBColumns[T any]() []string {
	var zero T
	fields := fieldsOf(reflect.TypeOf(zero))
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.column
	}
	return cols
}

// StructToMap converts a struct (or pointer to one) into column → value
// using its "db" tags. Non-struct input yields nil.
func StructToMap(v any) map[string]any {
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
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.column] = rv.FieldByIndex(f.index).Interface()
	}
	return out
}

// PickColumns keeps the entries of data named in cols, skipping any in exclude.
func PickColumns(data map[string]any, cols []string, exclude ...string) map[string]any {
	skip := make(map[string]struct{}, len(exclude))
	for _, c := range exclude {
		skip[c] = struct{}{}
	}
	out := make(map[string]any, len(cols))
	for _, c := range cols {
		if _, ok := skip[c]; ok {
			continue
		}
		if v, ok := data[c]; ok {
			out[c] = v
		}
	}
	return out
}

type dbField struct {
	column string
	index  []int
}

// fieldCache memoizes the flattened field list per struct type.
var fieldCache sync.Map // map[reflect.Type][]dbField

func fieldsOf(t reflect.Type) []dbField {
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]dbField)
	}

	var fields []dbField
	if t.Kind() == reflect.Struct {
		fields = collectFields(t, nil)
	}
	fieldCache.Store(t, fields)
	return fields
}

func collectFields(t reflect.Type, prefix []int) []dbField {
	var out []dbField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int{}, prefix...), i)

		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			out = append(out, collectFields(f.Type, index)...)
			continue
		}

		tag := f.Tag.Get("db")
		if tag == "" || tag == "-" {
			continue
		}
		out = append(out, dbField{column: tag, index: index})
	}
	return out
}
