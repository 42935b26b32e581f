package json

import (
	"bytes"

	json "github.com/goccy/go-json"
)

type RawMessage = json.RawMessage
type Object map[string]RawMessage
type Array []RawMessage

func Compact(dst *bytes.Buffer, src []byte) error {
	return json.Compact(dst, src)
}

func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func MarshalIndent(v any, prefix string, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}

func Valid(data []byte) bool {
	return json.Valid(data)
}

func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Normalize validates the input and strips insignificant whitespace.
//
// All raw JSON entering the processor goes through here, so the rest of the
// code can rely on byte-wise comparisons and the first byte for [KindOf].
func Normalize(data []byte) (RawMessage, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, bytes.TrimSpace(data)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Kind is the type of a JSON value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// KindOf returns the kind of a compacted JSON value.
func KindOf(in RawMessage) Kind {
	if len(in) == 0 {
		return KindInvalid
	}

	switch in[0] {
	case beginArray:
		return KindArray
	case beginObject:
		return KindObject
	case beginString:
		return KindString
	case 't', 'f':
		return KindBool
	case 'n':
		return KindNull
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return KindNumber
	default:
		return KindInvalid
	}
}

var (
	beginArray  = byte('[')
	beginObject = byte('{')
	beginString = byte('"')
	null        = RawMessage(`null`)
	emptyArray  = RawMessage(`[]`)
	emptyObject = RawMessage(`{}`)
)

func IsNull(in RawMessage) bool {
	return bytes.Equal(in, null)
}

func IsArray(in RawMessage) bool {
	return KindOf(in) == KindArray
}

func IsEmptyArray(in RawMessage) bool {
	return bytes.Equal(in, emptyArray)
}

func IsEmptyObject(in RawMessage) bool {
	return bytes.Equal(in, emptyObject)
}

func IsMap(in RawMessage) bool {
	return KindOf(in) == KindObject
}

func IsString(in RawMessage) bool {
	return KindOf(in) == KindString
}

func IsScalar(in RawMessage) bool {
	switch KindOf(in) {
	case KindBool, KindNumber, KindString:
		return true
	default:
		return false
	}
}

func MakeArray(in RawMessage) RawMessage {
	if len(in) == 0 {
		return RawMessage(`[]`)
	}

	if IsArray(in) {
		return in
	}

	return bytes.Join([][]byte{
		[]byte(`[`),
		in,
		[]byte(`]`),
	}, nil)
}

// String decodes a JSON string, reporting false for anything else.
func String(in RawMessage) (string, bool) {
	if !IsString(in) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(in, &s); err != nil {
		return "", false
	}
	return s, true
}

// Bool decodes a JSON boolean, reporting false for anything else.
func Bool(in RawMessage) (value bool, ok bool) {
	switch {
	case bytes.Equal(in, []byte(`true`)):
		return true, true
	case bytes.Equal(in, []byte(`false`)):
		return false, true
	default:
		return false, false
	}
}

// Quote encodes s as a JSON string.
func Quote(s string) RawMessage {
	data, _ := json.Marshal(s)
	return data
}

// Canonical re-encodes a JSON value with sorted object keys, no insignificant
// whitespace and without HTML escaping.
func Canonical(in RawMessage) (RawMessage, error) {
	var v any
	if err := json.Unmarshal(in, &v); err != nil {
		return nil, err
	}
	return json.MarshalNoEscape(v)
}
