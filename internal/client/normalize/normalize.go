// Package normalize puts a passenger list into canonical order and annotates
// repeated names. The output is a pure function of the input.
package normalize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Passengers returns a new, sorted and annotated copy of list.
//
// Order: surname (last whitespace token, lower-cased) by code point, then the
// full lower-cased name under Turkish collation. The sort is stable, so equal
// keys keep their input order.
//
// Annotation walks the sorted list with a counter per lower-cased name: the
// first occurrence is left alone, occurrence n >= 2 is shown as "first (n)",
// where first is the spelling of the first occurrence.
// Keys are always taken from the stored base Name, which makes the function
// idempotent.
func Passengers(list []models.Passenger) []models.Passenger {
	type keyed struct {
		p       models.Passenger
		surname string
		full    string
	}

	items := make([]keyed, len(list))
	for i, p := range list {
		p = repairLegacy(p)
		full := strings.ToLower(strings.TrimSpace(p.Name))
		items[i] = keyed{p: p, surname: Surname(p.Name), full: full}
	}

	// Collator keeps internal buffers; one per call.
	col := collate.New(language.Turkish)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.surname != b.surname {
			return a.surname < b.surname
		}
		return col.CompareString(a.full, b.full) < 0
	})

	seen := make(map[string]int, len(items))
	// spelling of the first occurrence; later ones are shown under it
	first := make(map[string]string, len(items))
	out := make([]models.Passenger, len(items))
	for i, it := range items {
		p := it.p
		seen[it.full]++
		if seen[it.full] == 1 {
			first[it.full] = strings.TrimSpace(p.Name)
		}
		if n := seen[it.full]; n > 1 {
			base := first[it.full]
			p.DisplayName = fmt.Sprintf("%s (%d)", base, n)
			p.DupOf = base
			p.DupIndex = n
		} else {
			p.DisplayName = p.Name
			p.DupOf = ""
			p.DupIndex = 0
		}
		out[i] = p
	}
	return out
}

// Surname is the sort key: last whitespace-delimited token, lower-cased.
func Surname(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[len(fields)-1])
}

// repairLegacy undoes the inline suffix written by older clients, which kept
// "X (2)" in name and the base in dupOf without a displayName.
func repairLegacy(p models.Passenger) models.Passenger {
	if p.DupOf != "" && p.DisplayName == "" {
		p.Name = p.DupOf
	}
	return p
}

// Filter returns passengers whose name contains query, ignoring case.
// An empty query matches everything.
func Filter(list []models.Passenger, query string) []models.Passenger {
	query = strings.TrimSpace(query)
	if query == "" {
		return models.ClonePassengers(list)
	}

	fold := cases.Fold()
	q := fold.String(query)
	out := make([]models.Passenger, 0, len(list))
	for _, p := range list {
		if strings.Contains(fold.String(p.Label()), q) {
			out = append(out, p)
		}
	}
	return out
}

// Stats are the summary counters shown above the list.
type Stats struct {
	Total     int
	Checked   int
	Remaining int
	Visa      int
}

func Count(list []models.Passenger) Stats {
	var s Stats
	for _, p := range list {
		s.Total++
		if p.Checked {
			s.Checked++
		}
		if p.VisaFlag {
			s.Visa++
		}
	}
	s.Remaining = s.Total - s.Checked
	return s
}
