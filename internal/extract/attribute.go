package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"braces.dev/errtrace"
)

// AttributeValue is the value of an event attribute:
// either a single scalar or a list of scalars.
type AttributeValue struct {
	values []string
	list   bool
	raw    json.RawMessage
}

var (
	_ json.Marshaler   = AttributeValue{}
	_ json.Unmarshaler = (*AttributeValue)(nil)
)

// Scalar builds a single-valued attribute.
func Scalar(v string) AttributeValue {
	return AttributeValue{values: []string{v}}
}

// List builds a list-valued attribute.
func List(vs ...string) AttributeValue {
	return AttributeValue{values: vs, list: true}
}

// Values returns the scalars held by this attribute.
func (a AttributeValue) Values() []string { return a.values }

// IsList reports whether the attribute was a list.
func (a AttributeValue) IsList() bool { return a.list }

// Empty reports whether the attribute holds nothing worth showing:
// an empty list, or a blank, null, false or zero scalar.
func (a AttributeValue) Empty() bool {
	for _, v := range a.values {
		switch v {
		case "", "null", "false", "0":
		default:
			return false
		}
	}
	return true
}

// String joins list values with ", ".
func (a AttributeValue) String() string {
	return strings.Join(a.values, ", ")
}

// MarshalJSON reproduces the value as it was received,
// or builds it from the held scalars.
func (a AttributeValue) MarshalJSON() ([]byte, error) {
	if a.raw != nil {
		return a.raw, nil
	}
	if a.list {
		return errtrace.Wrap2(json.Marshal(a.values))
	}
	if len(a.values) == 0 {
		return []byte("null"), nil
	}
	return errtrace.Wrap2(json.Marshal(a.values[0]))
}

// UnmarshalJSON accepts a scalar or an array of scalars.
func (a *AttributeValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	var items []json.RawMessage
	if len(b) > 0 && b[0] == '[' {
		if err := json.Unmarshal(b, &items); err != nil {
			return errtrace.Wrap(err)
		}
		a.list = true
	} else {
		items = []json.RawMessage{b}
	}

	values := make([]string, 0, len(items))
	for _, item := range items {
		v, err := scalarString(item)
		if err != nil {
			return err
		}
		values = append(values, v)
	}

	a.values = values
	a.raw = append(json.RawMessage(nil), b...)
	return nil
}

// scalarString renders a JSON scalar as text.
// Strings lose their quotes; everything else is kept verbatim.
func scalarString(item json.RawMessage) (string, error) {
	if len(item) > 0 && item[0] == '"' {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			return "", errtrace.Wrap(err)
		}
		return s, nil
	}
	return string(bytes.TrimSpace(item)), nil
}
