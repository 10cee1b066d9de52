package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sawaliram/sawaliram/internal/database"
	"github.com/sawaliram/sawaliram/internal/importer"
	"github.com/sawaliram/sawaliram/internal/pipeline"
	"github.com/sawaliram/sawaliram/internal/schema"
	"github.com/sawaliram/sawaliram/internal/sheet"
	"github.com/sawaliram/sawaliram/internal/storage"
	"github.com/sawaliram/sawaliram/internal/validate"
)

type errorResponse struct {
	Error string `json:"error"`
}

// validationResponse carries the row errors both keyed by row label and as a
// list in sheet order, since JSON objects do not keep key order.
type validationResponse struct {
	Errors map[string][]string  `json:"errors"`
	Rows   []validate.RowErrors `json:"rows"`
}

func newValidationResponse(errs validate.Errors) validationResponse {
	return validationResponse{Errors: errs.Map(), Rows: errs}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps a pipeline error to its HTTP status.
func statusFor(err error) int {
	var verr *validate.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schema.ErrUnknownColumn),
		errors.Is(err, pipeline.ErrUnreadableSheet),
		errors.Is(err, sheet.ErrInvalidCell),
		errors.Is(err, importer.ErrDuplicateID),
		errors.Is(err, pipeline.ErrEmptyAnswer),
		errors.Is(err, pipeline.ErrNoCaller):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrMissingReference),
		errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pipeline.ErrAlreadyCurated):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeError reports err to the client. Validation failures carry the per-row
// messages; server faults are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)

	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, status, newValidationResponse(verr.Errors))
		return
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeErrorMessage(w, status, "internal server error")
		return
	}
	writeErrorMessage(w, status, err.Error())
}
