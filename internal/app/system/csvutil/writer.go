// internal/app/system/csvutil/writer.go
package csvutil

import (
	"encoding/csv"
	"io"
)

// Write writes header followed by rows and flushes.
func Write(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}
