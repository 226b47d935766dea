package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/buger/jsonparser"
)

type kind int

const (
	kindMissing kind = iota
	kindObject
	kindArray
	kindString
	kindNumber
	kindBoolean
	kindNull
)

// value is a JSON value classified once after parsing. raw always holds valid
// JSON text for the value, so it can be handed to another validator as is.
type value struct {
	kind kind
	raw  []byte
}

type member struct {
	key string
	val value
}

// typeOf names the kind the way JavaScript's typeof operator would for the
// equivalent parsed value.
func (v value) typeOf() string {
	switch v.kind {
	case kindString:
		return "string"
	case kindNumber:
		return "number"
	case kindBoolean:
		return "boolean"
	case kindMissing:
		return "undefined"
	default:
		return "object"
	}
}

// isObject reports whether typeof would answer "object": objects, arrays and null.
func (v value) isObject() bool {
	return v.kind == kindObject || v.kind == kindArray || v.kind == kindNull
}

// parse classifies text. ok is false when text is not a single valid JSON value.
func parse(text string) (value, bool) {
	data := []byte(text)
	if !json.Valid(data) {
		return value{}, false
	}
	raw, dataType, _, err := jsonparser.Get(data)
	if err != nil {
		return value{}, false
	}
	return classify(raw, dataType), true
}

func classify(raw []byte, dataType jsonparser.ValueType) value {
	switch dataType {
	case jsonparser.Object:
		return value{kind: kindObject, raw: raw}
	case jsonparser.Array:
		return value{kind: kindArray, raw: raw}
	case jsonparser.String:
		// jsonparser strips the quotes but leaves escapes intact.
		quoted := make([]byte, 0, len(raw)+2)
		quoted = append(quoted, '"')
		quoted = append(quoted, raw...)
		quoted = append(quoted, '"')
		return value{kind: kindString, raw: quoted}
	case jsonparser.Number:
		return value{kind: kindNumber, raw: raw}
	case jsonparser.Boolean:
		return value{kind: kindBoolean, raw: raw}
	case jsonparser.Null:
		return value{kind: kindNull, raw: raw}
	default:
		return value{}
	}
}

// members lists the enumerable keys of v in the order a JavaScript for...in
// walk would visit them. Objects yield their properties, array-index-like keys
// first in ascending order and then the rest in document order. Arrays yield
// their indexes; every other kind has none. A key repeated in an object keeps
// its first position and its last value.
func (v value) members() []member {
	var out []member
	switch v.kind {
	case kindObject:
		index := make(map[string]int)
		_ = jsonparser.ObjectEach(v.raw, func(key []byte, raw []byte, dataType jsonparser.ValueType, _ int) error {
			name := string(key)
			val := classify(raw, dataType)
			if i, ok := index[name]; ok {
				out[i].val = val
				return nil
			}
			index[name] = len(out)
			out = append(out, member{key: name, val: val})
			return nil
		})
		sort.SliceStable(out, func(i, j int) bool {
			a, aIndex := arrayIndex(out[i].key)
			b, bIndex := arrayIndex(out[j].key)
			if aIndex && bIndex {
				return a < b
			}
			return aIndex && !bIndex
		})
	case kindArray:
		i := 0
		_, _ = jsonparser.ArrayEach(v.raw, func(raw []byte, dataType jsonparser.ValueType, _ int, _ error) {
			out = append(out, member{key: strconv.Itoa(i), val: classify(raw, dataType)})
			i++
		})
	}
	return out
}

// arrayIndex reports whether key is the canonical decimal form of an integer
// below 2^32-1, the keys JavaScript orders ahead of all others.
func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}

// get returns the member named key, or a missing value.
func (v value) get(key string) value {
	for _, m := range v.members() {
		if m.key == key {
			return m.val
		}
	}
	return value{}
}

func (v value) has(key string) bool {
	return v.get(key).kind != kindMissing
}

// compact renders raw without insignificant whitespace.
func (v value) compact() string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, v.raw); err != nil {
		return string(v.raw)
	}
	return buf.String()
}

// decode turns raw into plain Go values (map[string]any, []any, ...).
func (v value) decode() any {
	var out any
	if err := json.Unmarshal(v.raw, &out); err != nil {
		return nil
	}
	return out
}
