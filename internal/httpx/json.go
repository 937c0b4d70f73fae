package httpx

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope every endpoint returns. The HTTP status always
// mirrors Code so clients can rely on either.
type Response struct {
	Code    int    `json:"code"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	write(w, Response{Code: code, Success: true, Message: message, Data: data})
}

func WriteError(w http.ResponseWriter, code int, message string) {
	write(w, Response{Code: code, Success: false, Message: message, Data: nil})
}

// WriteErrorDetails is WriteError with machine-readable details (e.g.
// field validation errors) in the data slot.
func WriteErrorDetails(w http.ResponseWriter, code int, message string, details any) {
	write(w, Response{Code: code, Success: false, Message: message, Data: details})
}

func write(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(resp.Code)
	_ = json.NewEncoder(w).Encode(resp)
}
