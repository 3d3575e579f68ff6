package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrNotObject is returned when a JSON value that must be an object is not one
var ErrNotObject = errors.New("not a JSON object")

// Object is a JSON object that keeps its keys in document order.
// Keys and values are kept as raw JSON so untouched fields are written back
// verbatim.
type Object struct {
	fields []field
	index  map[string]int
}

type field struct {
	name  string
	key   json.RawMessage
	value json.RawMessage
}

// Keys returns the decoded keys in document order
func (o *Object) Keys() []string {
	keys := make([]string, 0, len(o.fields))
	for _, f := range o.fields {
		keys = append(keys, f.name)
	}
	return keys
}

// Get returns the raw value stored under key
func (o *Object) Get(key string) (json.RawMessage, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}
	return o.fields[i].value, true
}

// Set stores value under key. An existing key keeps its position,
// a new key is appended.
func (o *Object) Set(key string, value json.RawMessage) error {
	if i, ok := o.index[key]; ok {
		o.fields[i].value = value
		return nil
	}
	raw, err := marshalString(key)
	if err != nil {
		return err
	}
	o.add(key, field{name: key, key: raw, value: value})
	return nil
}

// SetString stores s as a JSON string under key
func (o *Object) SetString(key, s string) error {
	raw, err := marshalString(s)
	if err != nil {
		return err
	}
	return o.Set(key, raw)
}

// GetString returns the value under key if it is present and a JSON string
func (o *Object) GetString(key string) (string, bool) {
	raw, ok := o.Get(key)
	if !ok || firstByte(raw) != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (o *Object) add(id string, f field) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	o.index[id] = len(o.fields)
	o.fields = append(o.fields, f)
}

// UnmarshalJSON decodes a JSON object, keeping the first position and the
// last value of a repeated key.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return ErrNotObject
	}

	o.fields = nil
	o.index = make(map[string]int)
	for dec.More() {
		start := dec.InputOffset()
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected object key %v", tok)
		}
		// the span may start with the separating comma
		rawKey := bytes.TrimLeft(data[start:dec.InputOffset()], " \t\r\n,")

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding %q: %w", name, err)
		}

		id := name
		if hasLoneSurrogate(rawKey) {
			id = rawKeyID(rawKey)
		}
		if i, ok := o.index[id]; ok {
			o.fields[i].value = value
			continue
		}
		o.add(id, field{name: name, key: append(json.RawMessage(nil), rawKey...), value: value})
	}

	// closing brace
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the object with keys in document order
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(f.key)
		buf.WriteByte(':')
		buf.Write(f.value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// rawKeyID identifies a key whose decoded form is lossy by its raw text.
// Decoded keys are always valid UTF-8, so the 0xff prefix cannot collide.
func rawKeyID(raw []byte) string {
	return "\xff" + string(raw)
}

// hasLoneSurrogate reports whether a raw JSON string holds a \u escape in
// the surrogate range that is not part of a valid pair. Such escapes decode
// to U+FFFD, so distinct keys would otherwise collapse.
func hasLoneSurrogate(raw []byte) bool {
	pendingHigh := false
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' {
			if pendingHigh {
				return true
			}
			continue
		}
		if i+1 >= len(raw) {
			break
		}
		if raw[i+1] != 'u' || i+6 > len(raw) {
			if pendingHigh {
				return true
			}
			i++
			continue
		}
		r, err := strconv.ParseUint(string(raw[i+2:i+6]), 16, 16)
		if err != nil {
			return false
		}
		i += 5
		switch {
		case r >= 0xD800 && r <= 0xDBFF:
			if pendingHigh {
				return true
			}
			pendingHigh = true
		case r >= 0xDC00 && r <= 0xDFFF:
			if !pendingHigh {
				return true
			}
			pendingHigh = false
		default:
			if pendingHigh {
				return true
			}
		}
	}
	return pendingHigh
}

// marshalString encodes s without HTML escaping
func marshalString(s string) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// firstByte returns the first non-whitespace byte of a raw JSON value, or 0
func firstByte(raw []byte) byte {
	for _, c := range raw {
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return c
	}
	return 0
}
