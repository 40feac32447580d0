package identity

import (
	"bytes"
	"encoding/json"
)

// Ref is an identifier as it arrived in a JSON request body: a string such
// as "42" or a bare number such as 42. It stays undecoded until Parse, so
// errors name the request field rather than a generic "id".
type Ref []byte

// RefOf encodes v the way a client would send it. It is meant for tests and
// for building requests in code.
func RefOf(v any) Ref {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Ref(data)
}

// Refs is RefOf applied to each element of vs.
func Refs[T any](vs ...T) []Ref {
	refs := make([]Ref, len(vs))
	for i, v := range vs {
		refs[i] = RefOf(v)
	}
	return refs
}

// UnmarshalJSON keeps data as is.
func (r *Ref) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// MarshalJSON writes the ref back unchanged; an empty ref is null.
func (r Ref) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// Empty reports whether the ref is absent, null or a blank string.
func (r Ref) Empty() bool {
	trimmed := bytes.TrimSpace(r)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return true
	}
	var s string
	if json.Unmarshal(trimmed, &s) == nil {
		return len(bytes.TrimSpace([]byte(s))) == 0
	}
	return false
}

// decode turns the raw JSON into a string or json.Number for Parse. ok is
// false when it holds neither.
func (r Ref) decode() (value any, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(r))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, false
	}
	switch value.(type) {
	case nil, string, json.Number:
		return value, true
	}
	return nil, false
}
