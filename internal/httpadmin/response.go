// Package httpadmin provides framework-agnostic http.Handler scaffolds
// for fulmen-go's admin surface: triggering a signal (Windows fallback
// and general remote-control use), requesting a config reload, and
// discovering what a given build/platform supports.
package httpadmin

import (
	"encoding/json"
	"net/http"

	"github.com/fulmenhq/fulmen-go/internal/fulmenerrors"
)

// ErrorResponse is the standard JSON error envelope every handler in
// this package writes on failure.
type ErrorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

// WriteJSON writes data as status with a JSON content type.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes err as a JSON ErrorResponse, using its
// fulmenerrors.Code/CorrelationID when err carries one.
func WriteError(w http.ResponseWriter, status int, err error) {
	resp := ErrorResponse{Code: "error", Message: err.Error()}
	if fe, ok := fulmenerrors.As(err); ok {
		resp.Code = string(fe.Code)
		resp.CorrelationID = fe.CorrelationID
		if status == 0 {
			status = statusForCode(fe.Code)
		}
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteJSON(w, status, resp)
}

func statusForCode(code fulmenerrors.Code) int {
	switch code {
	case fulmenerrors.CodeDataInvalid, fulmenerrors.CodeConfigInvalid:
		return http.StatusBadRequest
	case fulmenerrors.CodeHTTPAuthFailed:
		return http.StatusUnauthorized
	case fulmenerrors.CodeHTTPRateLimited:
		return http.StatusTooManyRequests
	case fulmenerrors.CodeFileNotFound, fulmenerrors.CodeSchemaNotFound, fulmenerrors.CodeCatalogMissing:
		return http.StatusNotFound
	case fulmenerrors.CodeExportFileExists:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
