package api

import (
	"encoding/json"
	"net/http"

	"github.com/jbweber/lvmpool/internal/lvm"
)

// ErrorPayload is the body of every error response:
// {"error": {"code":"...","message":"..."}}
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error ErrorPayload `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: ErrorPayload{Code: code, Message: message}})
}

// writeLVMError maps an lvm error kind to an HTTP status.
func writeLVMError(w http.ResponseWriter, err error) {
	kind := lvm.Kind(err)
	writeError(w, statusForKind(kind), kind, err.Error())
}

func statusForKind(kind string) int {
	switch kind {
	case lvm.KindNotFound:
		return http.StatusNotFound
	case lvm.KindInvalidRequest:
		return http.StatusBadRequest
	case lvm.KindFailedExec, lvm.KindFailedParsing:
		return http.StatusBadGateway
	case lvm.KindEnvironment:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
