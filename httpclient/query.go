package httpclient

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// ListSeparator joins list-valued query parameters into a single value.
const ListSeparator = ","

// QueryParams maps query parameter names to values.
//
// Supported values are strings, booleans, integers, floats, string
// slices, types whose underlying kind is one of those, pointers to any
// of them and fmt.Stringer. Nil values, nil pointers, empty lists and
// values of any other kind are omitted from the encoded query.
type QueryParams map[string]any

// Set stores value under name and returns the receiver for chaining.
func (p QueryParams) Set(name string, value any) QueryParams {
	p[name] = value
	return p
}

// SetIf stores value under name only when cond is true.
func (p QueryParams) SetIf(cond bool, name string, value any) QueryParams {
	if cond {
		p[name] = value
	}
	return p
}

// Encode is shorthand for EncodeQuery(p).
func (p QueryParams) Encode() string {
	return EncodeQuery(p)
}

// EncodeQuery renders params as a canonical query string without the
// leading '?'. Names are sorted lexicographically so identical inputs
// always produce byte-identical output. Values use form encoding: space
// becomes '+', reserved characters are percent-encoded as UTF-8 bytes.
func EncodeQuery(params QueryParams) string {
	if len(params) == 0 {
		return ""
	}

	values := make(map[string]string, len(params))
	names := make([]string, 0, len(params))
	for name, v := range params {
		s, ok := formatValue(v)
		if !ok {
			continue
		}
		values[name] = s
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[name]))
	}
	return b.String()
}

// AppendQuery appends the encoded params to path. It starts the query
// with '?' when path has none yet and continues with '&' otherwise, so
// separately sorted groups can be appended one after another. An empty
// encoding leaves path unchanged.
func AppendQuery(path string, params QueryParams) string {
	encoded := EncodeQuery(params)
	if encoded == "" {
		return path
	}
	if strings.Contains(path, "?") {
		return path + "&" + encoded
	}
	return path + "?" + encoded
}

// formatValue converts a parameter value into its query representation.
// The boolean result is false when the parameter should be omitted.
func formatValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case []string:
		if len(x) == 0 {
			return "", false
		}
		return strings.Join(x, ListSeparator), true
	}
	return formatReflect(reflect.ValueOf(v))
}

// formatReflect handles pointers, fmt.Stringer and named scalar types.
// Anything else is omitted so an unsupported value never leaks its
// address or Go syntax into a URL.
func formatReflect(rv reflect.Value) (string, bool) {
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		if s, ok := rv.Interface().(fmt.Stringer); ok {
			return s.String(), true
		}
		return formatValue(rv.Elem().Interface())
	}
	if s, ok := rv.Interface().(fmt.Stringer); ok {
		return s.String(), true
	}

	switch rv.Kind() {
	case reflect.String:
		return rv.String(), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Slice:
		if rv.Type().Elem().Kind() != reflect.String || rv.Len() == 0 {
			return "", false
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = rv.Index(i).String()
		}
		return strings.Join(parts, ListSeparator), true
	default:
		return "", false
	}
}
