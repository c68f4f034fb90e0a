package operations

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"

	"reelops/live"
	"reelops/middleware"
	"reelops/models"
	"reelops/report"
	"reelops/store"
	"reelops/utils"
)

const storeTimeout = 10 * time.Second

// Notifier receives an event after the log changes.
type Notifier interface {
	Publish(ev live.Event)
}

type Handler struct {
	Store    store.OperationStore
	Location *time.Location
	Signer   *report.Signer
	Notifier Notifier
	Now      func() time.Time
}

func NewHandler(s store.OperationStore, loc *time.Location, signer *report.Signer, n Notifier) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{Store: s, Location: loc, Signer: signer, Notifier: n, Now: time.Now}
}

func (h *Handler) now() time.Time {
	return h.Now().In(h.Location)
}

func (h *Handler) notify(ev live.Event) {
	if h.Notifier != nil {
		h.Notifier.Publish(ev)
	}
}

// Save handles POST /api/save
func (h *Handler) Save(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req models.SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithJSON(w, http.StatusBadRequest, utils.M{"success": false, "error": "Invalid input"})
		return
	}

	records := models.NewBatch(uuid.NewString(), req, h.now())

	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()
	if err := h.Store.Append(ctx, records); err != nil {
		log.Printf("save %d records: %v", len(records), err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "error": err.Error()})
		return
	}

	sess, _ := middleware.SessionFromContext(r.Context())
	if len(records) > 0 {
		h.notify(live.Event{
			Action:         "save",
			Timeslot:       req.Timeslot,
			TechnicianName: req.TechnicianName,
			Date:           records[0].Date,
			Time:           records[0].Time,
			Records:        len(records),
			By:             sess.Role,
		})
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Data saved successfully"})
}

// loadRecords returns the whole log, or models.ErrNoData when it is empty.
func (h *Handler) loadRecords(ctx context.Context) ([]models.OperationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	records, err := h.Store.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, models.ErrNoData
	}
	return records, nil
}

// records loads the log for an export, answering 404 or 500 itself when
// there is nothing to send.
func (h *Handler) records(w http.ResponseWriter, r *http.Request) ([]models.OperationRecord, bool) {
	records, err := h.loadRecords(r.Context())
	switch {
	case errors.Is(err, models.ErrNoData):
		utils.RespondWithError(w, http.StatusNotFound, "No data available")
		return nil, false
	case err != nil:
		log.Printf("list operations: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return records, true
}

// Download handles GET /api/download
func (h *Handler) Download(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	body, err := report.CSV(records)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondWithAttachment(w, "text/csv", report.CSVFilename, body)
}

// DownloadPDF handles GET /api/download/pdf
func (h *Handler) DownloadPDF(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	csvBody, err := report.CSV(records)
	if err != nil {
		utils.RespondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	generatedAt := h.now()
	body, err := report.PDF(records, generatedAt, h.Signer.Payload(len(records), generatedAt, csvBody))
	if err != nil {
		log.Printf("render pdf: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}
	utils.RespondWithAttachment(w, "application/pdf", report.PDFFilename, body)
}

// VerifyReport handles POST /api/report/verify
func (h *Handler) VerifyReport(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input struct {
		Payload string `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Payload == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	summary, valid := h.Signer.Verify(input.Payload)
	if !valid {
		utils.RespondWithJSON(w, http.StatusOK, utils.M{"valid": false})
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"valid": true, "summary": summary})
}

// Delete handles POST /api/delete
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), storeTimeout)
	defer cancel()

	if err := h.Store.Clear(ctx); err != nil {
		log.Printf("delete logs: %v", err)
		utils.RespondWithJSON(w, http.StatusInternalServerError, utils.M{"success": false, "error": err.Error()})
		return
	}
	sess, _ := middleware.SessionFromContext(r.Context())
	log.Printf("operation log cleared by %s", sess.Role)
	h.notify(live.Event{Action: "delete", By: sess.Role})
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"success": true, "message": "Logs deleted successfully"})
}
