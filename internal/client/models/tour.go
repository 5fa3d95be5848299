package models

import (
	"bytes"
	"encoding/json"
)

// TourMeta is the descriptive part of a tour. It travels with the document
// but is not needed for sync correctness.
type TourMeta struct {
	Code    string `json:"code"`
	Agency  string `json:"agency"`
	Group   string `json:"group"`
	DateKey string `json:"dateKey"`
	TS      int64  `json:"ts"`
}

// Title renders "agency / group", falling back to the code.
func (m TourMeta) Title() string {
	switch {
	case m.Agency != "" && m.Group != "":
		return m.Agency + " / " + m.Group
	case m.Agency != "":
		return m.Agency
	case m.Group != "":
		return m.Group
	default:
		return m.Code
	}
}

// Document is the JSON body stored at tours/{code} on the remote endpoint and
// the shape of a local snapshot. TS is the logical timestamp in Unix ms.
type Document struct {
	Meta       *TourMeta   `json:"meta,omitempty"`
	Passengers []Passenger `json:"passengers"`
	TS         int64       `json:"ts"`
}

// DecodeDocument parses b and reports whether it is a well-formed tour
// document: ts must be a number and passengers, when present, an array.
//
// A missing passengers key is read as an empty list, because the realtime
// database drops empty arrays on write.
func DecodeDocument(b []byte) (*Document, bool) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '{' {
		return nil, false
	}

	var raw struct {
		Meta       json.RawMessage `json:"meta"`
		Passengers json.RawMessage `json:"passengers"`
		TS         json.RawMessage `json:"ts"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, false
	}

	var ts json.Number
	if len(raw.TS) == 0 || raw.TS[0] == '"' || json.Unmarshal(raw.TS, &ts) != nil {
		return nil, false
	}
	tsValue, err := ts.Float64()
	if err != nil {
		return nil, false
	}

	doc := &Document{TS: int64(tsValue)}

	p := bytes.TrimSpace(raw.Passengers)
	switch {
	case len(p) == 0 || bytes.Equal(p, []byte("null")):
		doc.Passengers = []Passenger{}
	case p[0] == '[':
		if err := json.Unmarshal(p, &doc.Passengers); err != nil {
			return nil, false
		}
	default:
		return nil, false
	}

	if m := bytes.TrimSpace(raw.Meta); len(m) > 0 && m[0] == '{' {
		var meta TourMeta
		if err := json.Unmarshal(m, &meta); err == nil {
			doc.Meta = &meta
		}
	}
	return doc, true
}
