package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteCSV serializes a result as CSV: header first, then the ordered
// rows. Field quoting and escaping are encoding/csv's concern.
func WriteCSV(w io.Writer, res *Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(res.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range res.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes a result to path, creating or truncating the file.
func WriteFile(path string, res *Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteCSV(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
