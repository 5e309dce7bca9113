package storeinfra

import (
	"fmt"
	"reflect"
)

// RecordID extracts the primary key of a record using reflection.
// It looks for the usual ID field names and formats the value as a string,
// which is what go-repository-bun expects for GetByID.
func RecordID(record any) (string, error) {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return "", fmt.Errorf("nil record")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return "", fmt.Errorf("record of kind %s has no ID field", v.Kind())
	}

	for _, fieldName := range []string{"ID", "Id", "id"} {
		field := v.FieldByName(fieldName)
		if field.IsValid() && field.CanInterface() {
			return fmt.Sprintf("%v", field.Interface()), nil
		}
	}
	return "", fmt.Errorf("no ID field found in record")
}

// CopyInto overwrites the struct dst points to with the struct src points to.
// Both must be non-nil pointers to the same struct type.
func CopyInto(dst, src any) error {
	dv := reflect.ValueOf(dst)
	sv := reflect.ValueOf(src)
	if dv.Kind() != reflect.Ptr || sv.Kind() != reflect.Ptr || dv.IsNil() || sv.IsNil() {
		return fmt.Errorf("copy requires non-nil pointers, got %T and %T", dst, src)
	}
	if dv.Type() != sv.Type() {
		return fmt.Errorf("copy type mismatch: %T vs %T", dst, src)
	}
	dv.Elem().Set(sv.Elem())
	return nil
}

// Clone returns a pointer to a shallow copy of the struct record points to.
func Clone(record any) (any, error) {
	v := reflect.ValueOf(record)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return nil, fmt.Errorf("clone requires a non-nil pointer, got %T", record)
	}
	c := reflect.New(v.Elem().Type())
	c.Elem().Set(v.Elem())
	return c.Interface(), nil
}
