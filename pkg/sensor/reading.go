package sensor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Field is a single key/value pair of a reading.
type Field struct {
	Key   string
	Value any
}

// Reading is one sensor record as published by the latest-readings endpoint.
// Field order is preserved from the wire so rendered output is stable.
type Reading struct {
	Fields []Field
}

// NewReading builds a reading from alternating key/value pairs.
func NewReading(kv ...any) Reading {
	var r Reading
	for i := 0; i+1 < len(kv); i += 2 {
		r.Set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return r
}

// Get returns the raw value stored under key.
func (r Reading) Get(key string) (any, bool) {
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set stores value under key, keeping the original position of an existing key.
func (r *Reading) Set(key string, value any) {
	for i := range r.Fields {
		if r.Fields[i].Key == key {
			r.Fields[i].Value = value
			return
		}
	}
	r.Fields = append(r.Fields, Field{Key: key, Value: value})
}

// NodeID returns the node_id field as a string.
func (r Reading) NodeID() string {
	v, ok := r.Get("node_id")
	if !ok || v == nil {
		return ""
	}
	return FormatValue(v)
}

// Keys returns the field keys in order.
func (r Reading) Keys() []string {
	keys := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		keys[i] = f.Key
	}
	return keys
}

// FormatValue renders a raw JSON value the way it is shown in chat.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// UnmarshalJSON decodes a JSON object keeping key order.
func (r *Reading) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("reading: expected object, got %v", tok)
	}
	r.Fields = r.Fields[:0]
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("reading: expected key, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("reading: field %q: %w", key, err)
		}
		r.Set(key, v)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the reading as a JSON object in field order.
func (r Reading) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeLatest flattens the latest-readings payload, an object whose values are
// arrays of readings, into a list indexed by node_id. Readings without a node_id
// are dropped. When a node appears twice the later reading wins but keeps the
// position of the first.
func DecodeLatest(data []byte) ([]Reading, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode latest: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("decode latest: expected object, got %v", tok)
	}

	var out []Reading
	index := make(map[string]int)
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode latest: %w", err)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode latest: %w", err)
		}
		group, err := decodeGroup(raw)
		if err != nil {
			return nil, err
		}
		for _, r := range group {
			id := r.NodeID()
			if id == "" {
				continue
			}
			if i, ok := index[id]; ok {
				out[i] = r
				continue
			}
			index[id] = len(out)
			out = append(out, r)
		}
	}
	return out, nil
}

// decodeGroup decodes one array of readings. Non-array groups and non-object
// elements carry no readings and are skipped.
func decodeGroup(raw json.RawMessage) ([]Reading, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, nil
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, fmt.Errorf("decode latest: %w", err)
	}
	group := make([]Reading, 0, len(elems))
	for _, e := range elems {
		e = bytes.TrimSpace(e)
		if len(e) == 0 || e[0] != '{' {
			continue
		}
		var r Reading
		if err := json.Unmarshal(e, &r); err != nil {
			return nil, fmt.Errorf("decode latest: %w", err)
		}
		group = append(group, r)
	}
	return group, nil
}
