package evaluator

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// renderValue formats an interpreted Go value as a literal: strings quoted,
// slices and arrays as [a, b], maps and structs as {k: v}. A missing value
// renders as nil.
func renderValue(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}

	if v.Type().Implements(errorType) && v.CanInterface() {
		if v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return "nil"
			}
		}
		if err, ok := v.Interface().(error); ok {
			return strconv.Quote(err.Error())
		}
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return "nil"
		}
		return renderValue(v.Elem())
	case reflect.String:
		return strconv.Quote(v.String())
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'g', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, 64)
	case reflect.Complex64, reflect.Complex128:
		return fmt.Sprint(v.Complex())
	case reflect.Slice:
		if v.IsNil() {
			return "[]"
		}
		fallthrough
	case reflect.Array:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = renderValue(v.Index(i))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case reflect.Map:
		if v.IsNil() {
			return "{}"
		}
		entries := make([]string, 0, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			entries = append(entries, renderKey(iter.Key())+": "+renderValue(iter.Value()))
		}
		sort.Strings(entries)
		return "{" + strings.Join(entries, ", ") + "}"
	case reflect.Struct:
		t := v.Type()
		fields := make([]string, 0, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			fields = append(fields, t.Field(i).Name+": "+renderValue(v.Field(i)))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if v.IsNil() {
			return "nil"
		}
		return v.Type().String()
	default:
		return fmt.Sprint(v)
	}
}

// renderKey renders map keys without quotes so they compare like object keys
func renderKey(v reflect.Value) string {
	for v.Kind() == reflect.Interface && !v.IsNil() {
		v = v.Elem()
	}
	if v.Kind() == reflect.String {
		return v.String()
	}
	return renderValue(v)
}
