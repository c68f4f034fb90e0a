package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"reelops/models"
)

var columnWidths = []float64{24, 20, 26, 40, 42, 24}

// PDF renders the log as a table with a QR code carrying payload.
func PDF(records []models.OperationRecord, generatedAt time.Time, payload string) ([]byte, error) {
	qrPNG, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("generate QR code: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Reel Technical Operations Log")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generatedAt.Format("02/01/2006 15:04:05 MST")))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Records: %d", len(records)))
	pdf.Ln(6)

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 165, 8, 32, 32, false, imageOpts, 0, "")
	pdf.SetY(44)

	header := func() {
		pdf.SetFont("Arial", "B", 9)
		pdf.SetFillColor(230, 230, 230)
		for i, h := range models.CSVHeader {
			pdf.CellFormat(columnWidths[i], 7, h, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	header()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, r := range records {
		if pdf.GetY()+7 > pageHeight-bottom-15 {
			pdf.AddPage()
			header()
		}
		for i, cell := range r.Row() {
			pdf.CellFormat(columnWidths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render PDF: %w", err)
	}
	return buf.Bytes(), nil
}
