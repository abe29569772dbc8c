package casedata

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a string field that also accepts numbers, booleans, arrays of strings and null.
type Text string

// UnmarshalJSON never fails: unknown shapes decode to the empty text.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			*t = Text(s)
			return nil
		}
	case '[':
		var list TextList
		if err := json.Unmarshal(b, &list); err == nil {
			*t = Text(strings.Join(list, "\n"))
			return nil
		}
	case '{':
		*t = ""
		return nil
	default:
		*t = Text(string(b))
		return nil
	}
	*t = ""
	return nil
}

// String returns the raw text.
func (t Text) String() string { return string(t) }

// Trim returns the text without surrounding whitespace.
func (t Text) Trim() string { return strings.TrimSpace(string(t)) }

// IsBlank reports whether the text has no visible content once markup is removed.
func (t Text) IsBlank() bool { return strings.TrimSpace(PlainText(string(t))) == "" }

// Plain returns the text with rich-text markup removed and surrounding whitespace trimmed.
func (t Text) Plain() string { return strings.TrimSpace(PlainText(string(t))) }

// TextList is a list of strings that also accepts a single newline-separated string.
type TextList []string

// UnmarshalJSON accepts an array of strings or objects with a name/title/description key, or a string.
func (l *TextList) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*l = nil
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		for _, line := range strings.Split(PlainText(s), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				*l = append(*l, line)
			}
		}
	case '[':
		var raws []json.RawMessage
		if err := json.Unmarshal(b, &raws); err != nil {
			return nil
		}
		for _, raw := range raws {
			var item Text
			if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
				var obj struct {
					Name        Text `json:"name"`
					Title       Text `json:"title"`
					Description Text `json:"description"`
				}
				if json.Unmarshal(raw, &obj) != nil {
					continue
				}
				item = firstNonBlank(obj.Name, obj.Title, obj.Description)
			} else if json.Unmarshal(raw, &item) != nil {
				continue
			}
			if s := item.Trim(); s != "" {
				*l = append(*l, s)
			}
		}
	}
	return nil
}

func firstNonBlank(values ...Text) Text {
	for _, v := range values {
		if !v.IsBlank() {
			return v
		}
	}
	return ""
}

// Bool accepts true/false, "true"/"false"/"sim"/"não", and 0/1.
type Bool bool

// UnmarshalJSON never fails: unknown shapes decode to false.
func (v *Bool) UnmarshalJSON(b []byte) error {
	ok, set := parseBool(b)
	*v = Bool(ok && set)
	return nil
}

// OptBool is a tri-state boolean: unset, true or false.
type OptBool struct {
	Set   bool
	Value bool
}

// UnmarshalJSON never fails: null and unknown shapes decode to unset.
func (v *OptBool) UnmarshalJSON(b []byte) error {
	val, set := parseBool(b)
	*v = OptBool{Set: set, Value: val}
	return nil
}

// MarshalJSON writes null for the unset state.
func (v OptBool) MarshalJSON() ([]byte, error) {
	if !v.Set {
		return []byte("null"), nil
	}
	return json.Marshal(v.Value)
}

// True reports whether the value is set and true.
func (v OptBool) True() bool { return v.Set && v.Value }

// False reports whether the value is set and false.
func (v OptBool) False() bool { return v.Set && !v.Value }

// Yes returns an OptBool set to true.
func Yes() OptBool { return OptBool{Set: true, Value: true} }

// No returns an OptBool set to false.
func No() OptBool { return OptBool{Set: true, Value: false} }

func parseBool(b []byte) (value bool, set bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return false, false
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return false, false
		}
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "sim", "s", "yes", "on":
		return true, true
	case "false", "0", "não", "nao", "n", "no", "off":
		return false, true
	}
	return false, false
}

// Number accepts JSON numbers and numeric strings, including a decimal comma.
type Number float64

// UnmarshalJSON never fails: unknown shapes decode to zero.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = 0
	if len(b) == 0 {
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*n = Number(f)
	}
	return nil
}

// List decodes an array element by element, dropping elements that do not decode.
// Anything other than an array decodes to an empty list.
type List[T any] []T

// UnmarshalJSON never fails.
func (l *List[T]) UnmarshalJSON(b []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(b, &raws); err != nil {
		*l = nil
		return nil
	}
	out := make(List[T], 0, len(raws))
	for _, raw := range raws {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	*l = out
	return nil
}
