// Package ledger appends produced videos to a per-customer CSV manifest.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"versereel/internal/model"
)

// Header is the first row of every ledger file.
var Header = []string{"File Name", "Reference", "Verse"}

// PathFor returns the ledger location for a customer folder: <dir>/<customer>.csv.
func PathFor(dir, customer string) string {
	return filepath.Join(dir, customer+".csv")
}

// Append adds rows to the ledger at path, writing the header when the file is new.
// Existing rows are never rewritten.
func Append(path string, rows []model.LedgerRow) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("stat ledger: %w", err)
	}
	w := csv.NewWriter(f)
	if fi.Size() == 0 {
		_ = w.Write(Header)
	}
	for _, r := range rows {
		_ = w.Write([]string{r.FileName, r.Reference, r.Verse})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write ledger: %w", err)
	}
	return f.Close()
}

// Read returns all rows of a ledger, without the header.
func Read(path string) ([]model.LedgerRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(Header)
	var rows []model.LedgerRow
	for first := true; ; first = false {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		if first && rec[0] == Header[0] {
			continue
		}
		rows = append(rows, model.LedgerRow{FileName: rec[0], Reference: rec[1], Verse: rec[2]})
	}
}
