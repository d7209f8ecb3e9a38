package entity

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// KeyOrder records the member order of every object in a decoded JSON value, keyed by
// JSON Pointer: "" is the root, "/rows/0" the first element of the root's "rows".
type KeyOrder map[string][]string

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// Pointer appends one reference token to a JSON Pointer.
func Pointer(parent, token string) string {
	return parent + "/" + pointerEscaper.Replace(token)
}

// Index appends an array index to a JSON Pointer.
func Index(parent string, i int) string {
	return parent + "/" + strconv.Itoa(i)
}

// Keys returns the keys of m in the order they were decoded at path.
// Objects with no usable record (built in code, or changed since decoding) fall back to sorted order.
func (o KeyOrder) Keys(path string, m map[string]any) []string {
	if recorded, ok := o[path]; ok && len(recorded) == len(m) {
		complete := true
		for _, k := range recorded {
			if _, ok := m[k]; !ok {
				complete = false
				break
			}
		}
		if complete {
			return recorded
		}
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Marshal encodes v with every object's members in recorded order.
func (o KeyOrder) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.encode(&buf, v, ""); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o KeyOrder) encode(buf *bytes.Buffer, v any, path string) error {
	switch t := v.(type) {
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range o.Keys(path, t) {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := o.encode(buf, t[k], Pointer(path, k)); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')
		for i, it := range t {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := o.encode(buf, it, Index(path, i)); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return err
		}
		buf.Write(b)
	}
	return nil
}

// DecodeOrdered decodes a single JSON value the way json.Unmarshal into an any does,
// and also returns the member order of each object in it.
// A repeated key keeps its first position and its last value.
func DecodeOrdered(b []byte) (any, KeyOrder, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	order := KeyOrder{}
	v, err := decodeValue(dec, "", order)
	if err != nil {
		return nil, nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, nil, err
	}
	return v, order, nil
}

func decodeValue(dec *json.Decoder, path string, order KeyOrder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	delim, isDelim := tok.(json.Delim)
	if !isDelim {
		return tok, nil
	}
	switch delim {
	case '{':
		m := map[string]any{}
		var keys []string
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("object key at %q is %T", path, kt)
			}
			v, err := decodeValue(dec, Pointer(path, key), order)
			if err != nil {
				return nil, err
			}
			if _, dup := m[key]; !dup {
				keys = append(keys, key)
			}
			m[key] = v
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		order[path] = keys
		return m, nil
	case '[':
		items := []any{}
		for i := 0; dec.More(); i++ {
			v, err := decodeValue(dec, Index(path, i), order)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return items, nil
	default:
		return nil, fmt.Errorf("unexpected %q at %q", delim, path)
	}
}
