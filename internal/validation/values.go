package validation

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/lacquerai/contracts/internal/schema"
)

// shape is the runtime representation class of a decoded value.
type shape int

const (
	shapeOther shape = iota
	shapeNull
	shapeString
	shapeNumber
	shapeBoolean
	shapeArray
	shapeObject
)

// numeric matches number literals such as json.Number that keep their
// textual form.
type numeric interface {
	Float64() (float64, error)
	String() string
}

func shapeOf(v any) shape {
	switch v.(type) {
	case nil:
		return shapeNull
	case string:
		return shapeString
	case bool:
		return shapeBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return shapeNumber
	case []any:
		return shapeArray
	case map[string]any:
		return shapeObject
	case numeric:
		return shapeNumber
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return shapeString
	case reflect.Bool:
		return shapeBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return shapeNumber
	case reflect.Slice, reflect.Array:
		return shapeArray
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return shapeObject
		}
	}
	return shapeOther
}

func shapeFor(t schema.Type) shape {
	switch t {
	case schema.TypeNumber:
		return shapeNumber
	case schema.TypeBoolean:
		return shapeBoolean
	case schema.TypeArray:
		return shapeArray
	case schema.TypeObject:
		return shapeObject
	default:
		return shapeString
	}
}

// asMap returns the keyed entries of a mapping value.
func asMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	if shapeOf(v) != shapeObject {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

// asSlice returns the elements of a sequence value.
func asSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	if shapeOf(v) != shapeArray {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	s := make([]any, rv.Len())
	for i := range s {
		s[i] = rv.Index(i).Interface()
	}
	return s, true
}

// equalValues compares two decoded values by value. Numbers compare
// numerically whatever their Go representation; booleans never equal numbers.
func equalValues(a, b any) bool {
	sa, sb := shapeOf(a), shapeOf(b)
	if sa != sb {
		return false
	}

	switch sa {
	case shapeNull:
		return true
	case shapeString:
		return reflect.ValueOf(a).String() == reflect.ValueOf(b).String()
	case shapeBoolean:
		return reflect.ValueOf(a).Bool() == reflect.ValueOf(b).Bool()
	case shapeNumber:
		return equalNumbers(a, b)
	case shapeArray:
		as, _ := asSlice(a)
		bs, _ := asSlice(b)
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if !equalValues(as[i], bs[i]) {
				return false
			}
		}
		return true
	case shapeObject:
		am, _ := asMap(a)
		bm, _ := asMap(b)
		if len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !equalValues(av, bv) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

func equalNumbers(a, b any) bool {
	ai, aInt := toInt(a)
	bi, bInt := toInt(b)
	if aInt && bInt {
		return ai == bi
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toInt(v any) (int64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	if n, ok := v.(numeric); ok {
		f, err := n.Float64()
		return f, err == nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func containsValue(values []any, v any) bool {
	for _, candidate := range values {
		if equalValues(candidate, v) {
			return true
		}
	}
	return false
}

// formatEnum renders enum members as a bracketed list, e.g. [18, 21] or
// ['draft', 'published'].
func formatEnum(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatLiteral(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatLiteral(v any) string {
	switch shapeOf(v) {
	case shapeNull:
		return "null"
	case shapeString:
		return "'" + reflect.ValueOf(v).String() + "'"
	case shapeBoolean:
		return strconv.FormatBool(reflect.ValueOf(v).Bool())
	case shapeNumber:
		if n, ok := v.(numeric); ok {
			return n.String()
		}
		if i, ok := toInt(v); ok {
			return strconv.FormatInt(i, 10)
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64 {
			return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
		}
		return strconv.FormatUint(rv.Uint(), 10)
	case shapeObject:
		m, _ := asMap(v)
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = "'" + k + "': " + formatLiteral(m[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case shapeArray:
		s, _ := asSlice(v)
		return formatEnum(s)
	}

	out, err := json.Marshal(v)
	if err != nil {
		return reflect.ValueOf(v).String()
	}
	return string(out)
}
