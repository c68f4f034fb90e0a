package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"reelops/models"
)

const (
	CSVFilename = "reel_operations.csv"
	PDFFilename = "reel_operations.pdf"
)

// WriteCSV writes the export header and one row per record, in the order given.
func WriteCSV(w io.Writer, records []models.OperationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.CSVHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV renders the export in memory.
func CSV(records []models.OperationRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
