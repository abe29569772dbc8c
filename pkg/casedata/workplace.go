package casedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WorkplaceKind tells which shape workplace_characteristics arrived in.
type WorkplaceKind int

const (
	WorkplaceNone       WorkplaceKind = iota // field missing or empty
	WorkplaceStructured                      // object with the named fields below
	WorkplaceText                            // free text
	WorkplaceRecords                         // array of ad-hoc records
)

// Workplace is the polymorphic workplace-characteristics field.
type Workplace struct {
	Kind    WorkplaceKind
	Fields  WorkplaceFields
	Text    string
	Records []Record
}

// WorkplaceFields is the structured form of the workplace characteristics.
type WorkplaceFields struct {
	Area                        Text `json:"area"`
	CeilingHeight               Text `json:"ceiling_height"`
	Floor                       Text `json:"floor"`
	Walls                       Text `json:"walls"`
	Roof                        Text `json:"roof"`
	Lighting                    Text `json:"lighting"`
	Ventilation                 Text `json:"ventilation"`
	Description                 Text `json:"description"`
	SpecialCondition            Text `json:"special_condition"`
	SpecialConditionDescription Text `json:"special_condition_description"`
}

// Record is an ad-hoc object whose keys keep their original order.
type Record []Field

// Field is one key/value pair of a Record.
type Field struct {
	Key   string
	Value string
}

// UnmarshalJSON never fails: unknown shapes decode to WorkplaceNone.
func (w *Workplace) UnmarshalJSON(b []byte) error {
	*w = Workplace{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil
	}
	switch b[0] {
	case '"':
		var s string
		if json.Unmarshal(b, &s) == nil && strings.TrimSpace(PlainText(s)) != "" {
			*w = Workplace{Kind: WorkplaceText, Text: s}
		}
	case '{':
		var f WorkplaceFields
		if json.Unmarshal(b, &f) == nil {
			*w = Workplace{Kind: WorkplaceStructured, Fields: f}
		}
	case '[':
		var raws []json.RawMessage
		if json.Unmarshal(b, &raws) != nil {
			return nil
		}
		var records []Record
		for _, raw := range raws {
			rec, err := decodeRecord(raw)
			if err != nil || len(rec) == 0 {
				continue
			}
			records = append(records, rec)
		}
		if len(records) > 0 {
			*w = Workplace{Kind: WorkplaceRecords, Records: records}
		}
	}
	return nil
}

// decodeRecord reads a flat JSON object preserving key order. Nested values are
// flattened to their compact JSON text.
func decodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("record is not an object")
	}
	var rec Record
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := keyTok.(string)
		var value Text
		var rawValue json.RawMessage
		if err := dec.Decode(&rawValue); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(rawValue, &value)
		if value == "" && len(rawValue) > 0 && (rawValue[0] == '{' || rawValue[0] == '[') {
			value = Text(rawValue)
		}
		rec = append(rec, Field{Key: key, Value: value.Trim()})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return rec, nil
}

// IsEmpty reports whether no workplace information was supplied.
func (w Workplace) IsEmpty() bool {
	switch w.Kind {
	case WorkplaceStructured:
		f := w.Fields
		for _, t := range []Text{f.Area, f.CeilingHeight, f.Floor, f.Walls, f.Roof, f.Lighting,
			f.Ventilation, f.Description, f.SpecialCondition, f.SpecialConditionDescription} {
			if !t.IsBlank() {
				return false
			}
		}
		return true
	case WorkplaceText:
		return strings.TrimSpace(PlainText(w.Text)) == ""
	case WorkplaceRecords:
		return len(w.Records) == 0
	}
	return true
}
