// Package document holds the parsed source report. Objects keep the key order
// of the input file so that categories and graphs render in the order the
// analyst wrote them.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	hjson "github.com/hjson/hjson-go/v4"
)

// ErrNotObject is returned when the document root is not a JSON object.
var ErrNotObject = errors.New("document root is not an object")

var decodeOptions = hjson.DecoderOptions{UseJSONNumber: true}

// Object is a JSON object with insertion order preserved.
type Object struct {
	om *hjson.OrderedMap
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{om: hjson.NewOrderedMap()}
}

// Set stores a value, appending the key if it is new.
func (o *Object) Set(key string, v any) {
	o.om.Set(key, v)
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	return o.om.AtKey(key)
}

// Keys returns the keys in source order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.om.Keys))
	copy(out, o.om.Keys)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return o.om.Len()
}

// Lookup resolves a dot-separated path. The path is present only when every
// intermediate value is an object that contains the next key.
func (o *Object) Lookup(path string) (any, bool) {
	cur := o
	parts := strings.Split(path, ".")
	for i, part := range parts {
		v, ok := cur.Get(part)
		if !ok {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		next, isObj := v.(*Object)
		if !isObj {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

// Decode parses strict JSON. The root must be an object.
//
// encoding/json validates the input; hjson then builds the ordered tree, which
// for valid JSON is the same tree with numbers kept as json.Number.
func Decode(data []byte) (*Object, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return decodeOrdered(data)
}

// DecodeHjson parses Hjson (comments, unquoted keys and strings, optional
// commas). Plain JSON is valid Hjson.
func DecodeHjson(data []byte) (*Object, error) {
	return decodeOrdered(data)
}

func decodeOrdered(data []byte) (*Object, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '"') {
		return nil, ErrNotObject
	}

	om := hjson.NewOrderedMap()
	if err := hjson.UnmarshalWithOptions(data, om, decodeOptions); err != nil {
		if len(trimmed) == 0 || trimmed[0] != '{' {
			// hjson reads a bare scalar as a root value, not an object
			return nil, fmt.Errorf("%w: %v", ErrNotObject, err)
		}
		return nil, err
	}
	return wrap(om).(*Object), nil
}

// wrap replaces every nested *hjson.OrderedMap with an *Object in place.
func wrap(v any) any {
	switch t := v.(type) {
	case *hjson.OrderedMap:
		for _, k := range t.Keys {
			t.Map[k] = wrap(t.Map[k])
		}
		return &Object{om: t}
	case []any:
		for i, child := range t {
			t[i] = wrap(child)
		}
		return t
	default:
		return v
	}
}

// ToPlain converts ordered objects to plain maps so the tree can be handed to
// templates or encoders that know nothing about Object.
func ToPlain(v any) any {
	switch t := v.(type) {
	case *Object:
		out := make(map[string]any, t.Len())
		for _, k := range t.om.Keys {
			out[k] = ToPlain(t.om.Map[k])
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = ToPlain(child)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON writes the object with its keys in source order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return o.om.MarshalJSON()
}

// TypeName describes a decoded value for error messages.
func TypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case *Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
