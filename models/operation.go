package models

import (
	"strings"
	"time"
)

// Layouts used to stamp a saved batch.
const (
	DateLayout = "02/01/2006"
	TimeLayout = "15:04:05"
)

// CSVHeader is the header row of every log export.
var CSVHeader = []string{"Date", "Time", "Timeslot", "Technician Name", "Button Name", "Status"}

// OperationRecord is one equipment status line in the operation log.
type OperationRecord struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty"`
	BatchID        string    `json:"batchId,omitempty" bson:"batch_id"`
	Position       int       `json:"-" bson:"position"`
	Date           string    `json:"date" bson:"date"`
	Time           string    `json:"time" bson:"time"`
	Timeslot       string    `json:"timeslot" bson:"timeslot"`
	TechnicianName string    `json:"technicianName" bson:"technician_name"`
	ButtonName     string    `json:"buttonName" bson:"button_name"`
	Status         string    `json:"status" bson:"status"`
	CreatedAt      time.Time `json:"createdAt" bson:"created_at"`
}

// Row returns the record in CSV column order.
func (o OperationRecord) Row() []string {
	return []string{o.Date, o.Time, o.Timeslot, o.TechnicianName, o.ButtonName, o.Status}
}

// ButtonState is a named piece of equipment and its reported status.
type ButtonState struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// SaveRequest is the body of POST /api/save.
type SaveRequest struct {
	ButtonStates   []ButtonState `json:"buttonStates"`
	Timeslot       string        `json:"timeslot"`
	TechnicianName string        `json:"technicianName"`
}

// NewBatch expands a save request into one record per button, all stamped
// with the same instant.
func NewBatch(batchID string, req SaveRequest, now time.Time) []OperationRecord {
	date := now.Format(DateLayout)
	clock := now.Format(TimeLayout)

	records := make([]OperationRecord, 0, len(req.ButtonStates))
	for i, b := range req.ButtonStates {
		records = append(records, OperationRecord{
			BatchID:        batchID,
			Position:       i,
			Date:           date,
			Time:           clock,
			Timeslot:       normalizeNewlines(req.Timeslot),
			TechnicianName: normalizeNewlines(req.TechnicianName),
			ButtonName:     normalizeNewlines(b.Name),
			Status:         normalizeNewlines(b.Status),
			CreatedAt:      now,
		})
	}
	return records
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeNewlines folds CR and CRLF to LF, the only line break every store
// returns unchanged.
func normalizeNewlines(s string) string {
	return newlineReplacer.Replace(s)
}
