// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"go.astrophena.name/adhoc/logger"
)

type contextKey string

var trustedRequestKey = contextKey("trusted-request")

type trustedRequest struct{}

// IsTrustedRequest reports whether r is a trusted request.
// A trusted request, when resulting in an error handled by [RespondError], will
// have its underlying error message exposed to the client in the HTML response.
func IsTrustedRequest(r *http.Request) bool {
	_, ok := r.Context().Value(trustedRequestKey).(trustedRequest)
	return ok
}

// TrustRequest marks r as a trusted request and returns a new request
// with the trusted status embedded in its context.
// [BasicAuth] marks every authenticated request as trusted.
func TrustRequest(r *http.Request) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), trustedRequestKey, trustedRequest{}))
}

// StatusErr is a sentinel error type used to represent HTTP status code errors.
type StatusErr int

// Error implements the error interface.
// It returns a lowercase representation of the HTTP status text for the wrapped code.
func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

const (
	// ErrBadRequest represents a bad request error (HTTP 400).
	ErrBadRequest StatusErr = http.StatusBadRequest
	// ErrUnauthorized represents an unauthorized access error (HTTP 401).
	ErrUnauthorized StatusErr = http.StatusUnauthorized
	// ErrForbidden represents a forbidden access error (HTTP 403).
	ErrForbidden StatusErr = http.StatusForbidden
	// ErrNotFound represents a not found error (HTTP 404).
	ErrNotFound StatusErr = http.StatusNotFound
	// ErrMethodNotAllowed represents a method not allowed error (HTTP 405).
	ErrMethodNotAllowed StatusErr = http.StatusMethodNotAllowed
	// ErrRequestEntityTooLarge represents a request body that is too large (HTTP 413).
	ErrRequestEntityTooLarge StatusErr = http.StatusRequestEntityTooLarge
	// ErrInternalServerError represents an internal server error (HTTP 500).
	ErrInternalServerError StatusErr = http.StatusInternalServerError
	// ErrBadGateway represents a failed upstream request (HTTP 502).
	ErrBadGateway StatusErr = http.StatusBadGateway
)

// StatusCode returns the HTTP status code for err: the code of the
// [StatusErr] it wraps, or 500.
func StatusCode(err error) int {
	var se StatusErr
	if errors.As(err, &se) {
		return int(se)
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return int(ErrRequestEntityTooLarge)
	}
	return int(ErrInternalServerError)
}

type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RespondJSON marshals the provided response object as JSON and writes it to
// the [http.ResponseWriter].
// In case of marshalling errors, it writes an internal server error with the error message.
func RespondJSON(w http.ResponseWriter, response any) { respondJSON(w, response, false) }

func respondJSON(w http.ResponseWriter, response any, wroteStatus bool) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		if !wroteStatus {
			w.WriteHeader(http.StatusInternalServerError)
		}
		b, _ = json.MarshalIndent(&errorResponse{Status: "error", Error: "JSON marshal error: " + err.Error()}, "", "  ")
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

// RespondError writes an error response in HTML format to w and logs the
// error if it is an internal server error.
//
// The status code is derived with [StatusCode]. You can wrap any error with
// [fmt.Errorf] to set a specific HTTP status code:
//
//	// This will set the status code to 404 (Not Found).
//	web.RespondError(w, r, fmt.Errorf("resource %w", web.ErrNotFound))
//
// If the request is trusted (see [TrustRequest]), the error message is
// included in the page.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(false, w, r, err)
}

// RespondJSONError is like [RespondError], but writes a JSON response. The
// error message is always included.
func RespondJSONError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(true, w, r, err)
}

func respondError(json bool, w http.ResponseWriter, r *http.Request, err error) {
	code := StatusCode(err)
	if code == http.StatusInternalServerError {
		logger.Error(r.Context(), "internal server error",
			slog.String("method", r.Method),
			slog.String("url", r.URL.Path),
			slog.Any("err", err),
		)
	}

	if json {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		respondJSON(w, &errorResponse{Status: "error", Error: err.Error()}, true)
		return
	}

	data := errorData{
		StatusCode: code,
		StatusText: http.StatusText(code),
	}
	if IsTrustedRequest(r) {
		data.Error = err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := errorPage(data).Render(r.Context(), w); err != nil {
		logger.Error(r.Context(), "rendering error page failed", slog.Any("err", err))
		fmt.Fprintf(w, "%d: %s", data.StatusCode, data.StatusText)
	}
}
