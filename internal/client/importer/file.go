package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dmitrijs2005/tourcheck/internal/client/models"
	"github.com/dmitrijs2005/tourcheck/internal/common"
	"github.com/xuri/excelize/v2"
)

// ParseCSV reads comma or semicolon separated rows. The delimiter is picked
// from the first line.
func ParseCSV(r io.Reader) ([]models.Candidate, error) {
	br := bufio.NewReader(r)
	first, err := br.Peek(4096)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if i := bytes.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	if bytes.Count(first, []byte{';'}) > bytes.Count(first, []byte{','}) {
		cr.Comma = ';'
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return ParseRows(rows)
}

// ParseXLSX reads the first sheet of a workbook that yields candidates.
func ParseXLSX(r io.Reader) ([]models.Candidate, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var lastErr error
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
		}
		candidates, err := ParseRows(rows)
		if err == nil {
			return candidates, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = common.ErrNothingExtracted
	}
	return nil, lastErr
}
