package reportctx

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Sanitize reduces v to a Value tree. Primitives pass through, slices and
// maps are converted element-wise (map keys by their display form), and
// anything else is replaced by its display string.
//
// Sanitize is idempotent: Sanitize(Sanitize(x).Native()) equals Sanitize(x).
func Sanitize(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case Value:
		return t.clone()
	case Context:
		return Map(SanitizeContext(t))
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Int(int64(t))
	case int8:
		return Int(int64(t))
	case int16:
		return Int(int64(t))
	case int32:
		return Int(int64(t))
	case int64:
		return Int(t)
	case uint:
		return uintValue(uint64(t))
	case uint8:
		return Int(int64(t))
	case uint16:
		return Int(int64(t))
	case uint32:
		return Int(int64(t))
	case uint64:
		return uintValue(t)
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case []byte:
		return String(string(t))
	case []any:
		out := make([]Value, len(t))
		for i, e := range t {
			out[i] = Sanitize(e)
		}
		return List(out...)
	case map[string]any:
		out := make(map[string]Value, len(t))
		for k, e := range t {
			out[k] = Sanitize(e)
		}
		return Map(out)
	case error:
		return String(t.Error())
	case fmt.Stringer:
		return String(t.String())
	}
	return sanitizeReflect(reflect.ValueOf(v))
}

// uintValue keeps values above MaxInt64 exact as their decimal string.
func uintValue(u uint64) Value {
	if u > math.MaxInt64 {
		return String(strconv.FormatUint(u, 10))
	}
	return Int(int64(u))
}

func sanitizeReflect(rv reflect.Value) Value {
	switch rv.Kind() {
	case reflect.String:
		return String(rv.String())
	case reflect.Bool:
		return Bool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return uintValue(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float())
	case reflect.Slice:
		if rv.IsNil() {
			return List()
		}
		fallthrough
	case reflect.Array:
		out := make([]Value, rv.Len())
		for i := range out {
			out[i] = Sanitize(rv.Index(i).Interface())
		}
		return List(out...)
	case reflect.Map:
		out := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[displayKey(iter.Key())] = Sanitize(iter.Value().Interface())
		}
		return Map(out)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null()
		}
		elem := rv.Elem()
		if elem.Kind() == reflect.Struct {
			return String(fmt.Sprint(rv.Interface()))
		}
		return Sanitize(elem.Interface())
	case reflect.Invalid:
		return Null()
	}
	// structs, funcs, channels
	return String(fmt.Sprint(rv.Interface()))
}

func displayKey(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	return fmt.Sprint(k.Interface())
}

// SanitizeContext deep-copies c through Sanitize.
func SanitizeContext(c Context) Context {
	return c.Clone()
}

// SanitizeMap converts an arbitrary top-level mapping into a Context.
func SanitizeMap(m map[string]any) Context {
	out := make(Context, len(m))
	for k, v := range m {
		out[k] = Sanitize(v)
	}
	return out
}
