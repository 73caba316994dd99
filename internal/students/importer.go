package students

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// RowError reports a rejected import line. Row numbers are 1-based and count
// the header.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarizes one CSV import run.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"errors"`
}

// Importer loads students from CSV files with columns nis,name,class. Each
// row is validated independently; valid rows are imported even when others
// fail, and every imported student gets a paired SISWA account with the NIS
// as the initial password.
type Importer struct {
	service *Service
}

// NewImporter builds an Importer on top of the student service.
func NewImporter(service *Service) *Importer {
	return &Importer{service: service}
}

// Import reads the CSV stream and registers each valid row.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	result := &ImportResult{Errors: []RowError{}}
	seen := make(map[string]int)

	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: "malformed csv line"})
			continue
		}
		if row == 1 && isHeader(record) {
			continue
		}
		if len(record) < 3 {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: "expected columns nis,name,class"})
			continue
		}

		nis := strings.TrimSpace(record[0])
		name := strings.TrimSpace(record[1])
		class := strings.TrimSpace(record[2])
		if nis == "" || name == "" || class == "" {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: "nis, name and class are required"})
			continue
		}
		if first, ok := seen[nis]; ok {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{
				Row:     row,
				Message: fmt.Sprintf("nis %s repeats row %d", nis, first),
			})
			continue
		}
		seen[nis] = row

		_, err = im.service.Create(ctx, CreateRequest{
			NIS:         nis,
			Name:        name,
			ClassName:   class,
			WithAccount: true,
		})
		if err != nil {
			msg, known := importMessage(err)
			if !known {
				return nil, err
			}
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: row, Message: msg})
			continue
		}
		result.Imported++
	}
	return result, nil
}

func importMessage(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrDuplicateNIS):
		return "nis already registered", true
	case errors.Is(err, ErrDuplicateUsername):
		return "generated username already taken", true
	case errors.Is(err, ErrUnknownClass):
		return "class not found", true
	case errors.Is(err, ErrMissingField):
		return "nis, name and class are required", true
	default:
		return "", false
	}
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "nis")
}
