package assertions

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"

	"github.com/abdul-hamid-achik/timecheck/packages/http"
	"github.com/google/go-cmp/cmp"
)

var ratComparer = cmp.Comparer(func(x, y *big.Rat) bool {
	return x.Cmp(y) == 0
})

// equal compares decoded JSON values structurally. Numbers of any Go type
// are compared as exact rationals, so 2026 equals 2026.0 but never "2026".
func equal(expected, actual any) bool {
	return cmp.Equal(normalize(expected), normalize(actual), ratComparer)
}

func diff(expected, actual any) string {
	return cmp.Diff(normalize(expected), normalize(actual), ratComparer)
}

func normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case json.Number:
		if r, ok := new(big.Rat).SetString(string(x)); ok {
			return r
		}
		return string(x)
	case *big.Rat:
		return x
	case *http.Body:
		m := make(map[string]any, x.Len())
		for _, k := range x.Keys() {
			val, _ := x.Get(k)
			m[k] = normalize(val)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[k] = normalize(val)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, val := range x {
			s[i] = normalize(val)
		}
		return s
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return new(big.Rat).SetInt64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return new(big.Rat).SetUint64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		// The shortest decimal form, so 0.1 equals the JSON text 0.1.
		bits := 64
		if rv.Kind() == reflect.Float32 {
			bits = 32
		}
		if r, ok := new(big.Rat).SetString(strconv.FormatFloat(rv.Float(), 'g', -1, bits)); ok {
			return r
		}
	}
	return v
}
