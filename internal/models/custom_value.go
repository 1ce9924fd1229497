package models

import "encoding/json"

// CustomValueKind tags the decoded shape of a loosely-typed JSON value.
type CustomValueKind string

const (
	CustomString       CustomValueKind = "string"
	CustomStringList   CustomValueKind = "stringList"
	CustomStructured   CustomValueKind = "structured"
	CustomUnrecognized CustomValueKind = "unrecognized"
)

// CustomValue is a tagged union over the JSON shapes user-supplied custom
// fields and AI output are known to take: a plain string, a list of
// strings, an object with a "summary" field, or anything else. Unknown
// shapes are kept verbatim under Raw instead of being stringified.
type CustomValue struct {
	Kind    CustomValueKind
	Str     string
	List    []string
	Summary string
	Fields  map[string]json.RawMessage
	Raw     json.RawMessage
}

// UnmarshalJSON decodes data into the closest known variant.
func (v *CustomValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = CustomValue{Kind: CustomString, Str: s}
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*v = CustomValue{Kind: CustomStringList, List: list}
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if raw, ok := fields["summary"]; ok {
			var summary string
			if err := json.Unmarshal(raw, &summary); err == nil {
				*v = CustomValue{Kind: CustomStructured, Summary: summary, Fields: fields}
				return nil
			}
		}
		*v = CustomValue{Kind: CustomUnrecognized, Fields: fields, Raw: append(json.RawMessage(nil), data...)}
		return nil
	}

	*v = CustomValue{Kind: CustomUnrecognized, Raw: append(json.RawMessage(nil), data...)}
	return nil
}

// MarshalJSON writes the variant back out in its original shape.
func (v CustomValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case CustomString:
		return json.Marshal(v.Str)
	case CustomStringList:
		return json.Marshal(v.List)
	case CustomStructured:
		return json.Marshal(v.Fields)
	default:
		if v.Raw != nil {
			return v.Raw, nil
		}
		return []byte("null"), nil
	}
}

// Display returns a human-readable rendering of the value. Unrecognized
// shapes render as their raw JSON so nothing is lost.
func (v CustomValue) Display() string {
	switch v.Kind {
	case CustomString:
		return v.Str
	case CustomStringList:
		out := ""
		for i, item := range v.List {
			if i > 0 {
				out += ", "
			}
			out += item
		}
		return out
	case CustomStructured:
		return v.Summary
	default:
		return string(v.Raw)
	}
}
