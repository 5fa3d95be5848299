// Package models defines client-side data models used by the tourcheck CLI:
// passengers, tour metadata, the remote document and raw import candidates.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PassengerID is an opaque identifier, unique within a tour for the whole
// lifetime of the record.
type PassengerID string

// NewPassengerID returns a time-ordered UUID (v7): a millisecond timestamp
// followed by random bits, so rapid successive inserts never collide.
func NewPassengerID() PassengerID {
	id, err := uuid.NewV7()
	if err != nil {
		return PassengerID(uuid.NewString())
	}
	return PassengerID(id.String())
}

// UnmarshalJSON accepts both strings and numbers. Documents written by the
// browser client carry numeric ids (Date.now()+Math.random()).
func (id *PassengerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = PassengerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("passenger id: %w", err)
	}
	*id = PassengerID(n.String())
	return nil
}

// Passenger is a single row of the checklist.
//
// Name is the base name as entered; it is never suffixed. DisplayName, DupOf
// and DupIndex are derived by the normalizer and recomputed on every
// mutation, so they must not be edited by hand.
type Passenger struct {
	ID       PassengerID `json:"id"`
	Name     string      `json:"name"`
	Passport string      `json:"passport"`
	Phone    string      `json:"phone"`
	Checked  bool        `json:"checked"`
	VisaFlag bool        `json:"visaFlag"`
	List     string      `json:"list,omitempty"`

	DisplayName string `json:"displayName,omitempty"`
	DupOf       string `json:"dupOf,omitempty"`
	DupIndex    int    `json:"dupIndex,omitempty"`
}

// Label is the name to show to the user.
func (p Passenger) Label() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Name
}

// IsDuplicate reports whether the normalizer marked p as a repeated name.
func (p Passenger) IsDuplicate() bool {
	return p.DupIndex > 1
}

// Candidate is a raw record produced by the bulk import adapter. It becomes a
// Passenger only after validation on the engine's add path.
type Candidate struct {
	Name     string `json:"name"`
	Passport string `json:"passport"`
	Phone    string `json:"phone"`
}

// ClonePassengers returns a shallow copy of list (Passenger has no pointers).
func ClonePassengers(list []Passenger) []Passenger {
	out := make([]Passenger, len(list))
	copy(out, list)
	return out
}
