package httpapi

import (
	"encoding/json"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"jobmate/board-service/internal/apperr"
	"jobmate/board-service/internal/domain"
)

// envelope is the uniform response body. Page fields are only set on
// list responses.
type envelope struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Object     any      `json:"object"`
	PageNumber *int     `json:"pageNumber,omitempty"`
	PageSize   *int     `json:"pageSize,omitempty"`
	TotalSize  *int     `json:"totalSize,omitempty"`
	Errors     []string `json:"errors"`
}

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func jsonOK(w http.ResponseWriter, code int, message string, v any) {
	writeJSON(w, code, envelope{Success: true, Message: message, Object: v})
}

func jsonList[T any](w http.ResponseWriter, list domain.List[T]) {
	writeJSON(w, http.StatusOK, envelope{
		Success:    true,
		Message:    "Data retrieved successfully.",
		Object:     list.Items,
		PageNumber: &list.Page.Number,
		PageSize:   &list.Page.Size,
		TotalSize:  &list.Total,
	})
}

// jsonError renders err in the envelope. Internal errors are logged with
// their stack and reported generically.
func jsonError(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	code := apperr.HTTPStatus(kind)
	msg := apperr.PublicMessage(err)

	if code >= http.StatusInternalServerError {
		fields := []zap.Field{zap.String("kind", string(kind)), zap.Error(err)}
		if e, ok := apperr.As(err); ok && len(e.Stack) > 0 {
			fields = append(fields, zap.ByteString("stack", e.Stack))
		}
		logger.Error("request failed", fields...)
	}

	writeJSON(w, code, envelope{Success: false, Message: msg, Errors: errorList(err, msg)})
}

// errorList flattens field errors into "field: message" lines.
func errorList(err error, fallback string) []string {
	e, ok := apperr.As(err)
	if !ok || len(e.Fields) == 0 {
		return []string{fallback}
	}
	out := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		out = append(out, field+": "+msg)
	}
	sort.Strings(out)
	return out
}
