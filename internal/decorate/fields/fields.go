// Package fields reads typed values out of loosely typed tool arguments and
// results. Every lookup tolerates absent keys, alternate key spellings and
// string-encoded scalars, and none of them fail.
package fields

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Bag is a decoded JSON object.
type Bag = map[string]any

// AsRecord returns v as a Bag when it is a non-nil object, otherwise an empty
// Bag. Arrays, scalars and nil all yield an empty Bag.
func AsRecord(v any) Bag {
	switch t := v.(type) {
	case nil:
		return Bag{}
	case map[string]any:
		if t == nil {
			return Bag{}
		}
		return t
	case json.RawMessage:
		return decodeObject(t)
	case []byte:
		return decodeObject(t)
	}
	// typed string-keyed maps such as map[string]string
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String && !rv.IsNil() {
		out := make(Bag, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out
	}
	return Bag{}
}

func decodeObject(raw []byte) Bag {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return Bag{}
	}
	return m
}

// ReadString returns the first value among keys that is a string with
// non-whitespace content. The original, untrimmed string is returned.
func ReadString(bag Bag, keys ...string) string {
	for _, k := range keys {
		if s, ok := bag[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// ReadNumber returns the first value among keys that is a finite number or a
// string that parses to one.
func ReadNumber(bag Bag, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := toNumber(bag[k]); ok {
			return n, true
		}
	}
	return 0, false
}

func toNumber(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		return parseFinite(string(t))
	case string:
		return parseFinite(t)
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ReadBoolean returns the first value among keys that reads as a boolean: a
// native bool, the numbers 1 and 0, or the strings "true", "1", "false" and
// "0" (trimmed, case-insensitive). Absence reads as false.
func ReadBoolean(bag Bag, keys ...string) bool {
	for _, k := range keys {
		if b, ok := toBool(bag[k]); ok {
			return b
		}
	}
	return false
}

func toBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1":
			return true, true
		case "false", "0":
			return false, true
		}
		return false, false
	}
	if n, ok := toNumber(v); ok {
		switch n {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	}
	return false, false
}
