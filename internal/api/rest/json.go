// Package rest exposes the FreshCart HTTP/JSON API.
package rest

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
)

// maxBodyBytes bounds request payload size.
const maxBodyBytes = 1 << 20

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON encodes payload with the given status.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}

// writeError maps a domain error to its HTTP status and JSON body.
// Unclassified errors are logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	message := "internal error"

	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		message = domainErr.Message
	} else {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}

	writeJSON(w, code.HTTPStatus(), errorBody{Error: errorDetail{
		Code:    string(code),
		Message: message,
	}})
}

// readJSON decodes the request body into target.
func readJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return apperrors.New(apperrors.CodeInvalidArgument, "request body is not valid JSON")
	}
	return nil
}
