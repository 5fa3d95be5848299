// Package importer turns pasted text, CSV files and spreadsheets into raw
// passenger candidates, and writes a tour back out as a spreadsheet.
//
// Candidates are not validated here beyond dropping rows without a name;
// the engine validates them on its normal add path.
package importer

import (
	"strings"
	"unicode"

	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/common"
)

type column int

const (
	colUnknown column = iota
	colName
	colFirstName
	colLastName
	colPassport
	colPhone
)

// headerWords maps lower-cased header cells to columns. Turkish and English
// captions are both common in agency exports.
var headerWords = map[string]column{
	"name":        colName,
	"full name":   colName,
	"fullname":    colName,
	"passenger":   colName,
	"ad soyad":    colName,
	"adı soyadı":  colName,
	"ad-soyad":    colName,
	"isim":        colName,
	"yolcu":       colName,
	"first name":  colFirstName,
	"firstname":   colFirstName,
	"ad":          colFirstName,
	"adı":         colFirstName,
	"last name":   colLastName,
	"lastname":    colLastName,
	"surname":     colLastName,
	"soyad":       colLastName,
	"soyadı":      colLastName,
	"passport":    colPassport,
	"passport no": colPassport,
	"pasaport":    colPassport,
	"pasaport no": colPassport,
	"phone":       colPhone,
	"tel":         colPhone,
	"telefon":     colPhone,
	"gsm":         colPhone,
	"mobile":      colPhone,
}

// ParseText reads one candidate per line. Fields may be separated by tabs,
// semicolons, commas or pipes; passport and phone are recognized by shape.
func ParseText(text string) ([]models.Candidate, error) {
	var rows [][]string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, splitLine(line))
	}
	return ParseRows(rows)
}

func splitLine(line string) []string {
	for _, sep := range []string{"\t", ";", "|", ","} {
		if strings.Contains(line, sep) {
			return strings.Split(line, sep)
		}
	}
	return splitByShape(line)
}

// splitByShape handles "Ali Veli U1234567 +90 532 000 00 00": tokens that
// look like a passport are peeled off the name, and everything from the first
// phone-like token on is the phone.
func splitByShape(line string) []string {
	tokens := strings.Fields(line)
	var nameParts, passports []string
	phone := ""
	for i, tok := range tokens {
		if i > 0 && (strings.HasPrefix(tok, "+") || isDigits(tok)) {
			phone = strings.Join(tokens[i:], " ")
			break
		}
		if looksLikePassport(tok) {
			passports = append(passports, tok)
			continue
		}
		nameParts = append(nameParts, tok)
	}
	out := []string{strings.Join(nameParts, " ")}
	out = append(out, passports...)
	if phone != "" {
		out = append(out, phone)
	}
	return out
}

// ParseRows maps tabular rows to candidates. When the first non-empty row is
// a header its captions select the columns; otherwise the first column is the
// name and the remaining cells are classified by shape.
func ParseRows(rows [][]string) ([]models.Candidate, error) {
	var header map[column]int
	var out []models.Candidate

	for _, row := range rows {
		row = trimRow(row)
		if len(row) == 0 {
			continue
		}
		if header == nil && out == nil {
			if h, ok := detectHeader(row); ok {
				header = h
				continue
			}
		}

		var c models.Candidate
		if header != nil {
			c = fromHeader(row, header)
		} else {
			c = fromShape(row)
		}
		if c.Name == "" {
			continue
		}
		out = append(out, c)
	}

	if len(out) == 0 {
		return nil, common.ErrNothingExtracted
	}
	return out, nil
}

func trimRow(row []string) []string {
	out := make([]string, len(row))
	last := -1
	for i, cell := range row {
		out[i] = strings.Join(strings.Fields(cell), " ")
		if out[i] != "" {
			last = i
		}
	}
	return out[:last+1]
}

func detectHeader(row []string) (map[column]int, bool) {
	h := make(map[column]int)
	for i, cell := range row {
		col, ok := headerWords[strings.ToLower(strings.Trim(cell, " .:#"))]
		if !ok {
			continue
		}
		if _, dup := h[col]; !dup {
			h[col] = i
		}
	}
	_, hasName := h[colName]
	_, hasFirst := h[colFirstName]
	_, hasLast := h[colLastName]
	return h, hasName || hasFirst || hasLast
}

func cell(row []string, h map[column]int, col column) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

func fromHeader(row []string, h map[column]int) models.Candidate {
	name := cell(row, h, colName)
	if name == "" {
		name = strings.TrimSpace(cell(row, h, colFirstName) + " " + cell(row, h, colLastName))
	}
	return models.Candidate{
		Name:     name,
		Passport: cell(row, h, colPassport),
		Phone:    cell(row, h, colPhone),
	}
}

func fromShape(row []string) models.Candidate {
	c := models.Candidate{Name: row[0]}
	for _, v := range row[1:] {
		switch {
		case v == "":
		case c.Passport == "" && looksLikePassport(v):
			c.Passport = v
		case c.Phone == "" && looksLikePhone(v):
			c.Phone = v
		}
	}
	return c
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// looksLikePassport: 6 to 12 ASCII letters and digits, with at least one of
// each.
func looksLikePassport(s string) bool {
	if len(s) < 6 || len(s) > 12 {
		return false
	}
	var letters, digits int
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
			letters++
		default:
			return false
		}
	}
	return letters > 0 && digits > 0
}

// looksLikePhone: optional leading +, common separators, at least 7 digits.
func looksLikePhone(s string) bool {
	digits := 0
	for i, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' && i == 0:
		case r == ' ', r == '-', r == '(', r == ')', r == '.':
		default:
			return false
		}
	}
	return digits >= 7
}
