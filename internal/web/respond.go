// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package web is a collection of functions and types for building web services.
package web

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"go.astrophena.name/moodbot/internal/cli"
)

// StatusErr is a sentinel error type that carries an HTTP status code.
type StatusErr int

// Error implements the error interface. It returns the lowercased status text
// for the carried code.
func (se StatusErr) Error() string { return strings.ToLower(http.StatusText(int(se))) }

// Sentinel errors for common HTTP status codes. Wrap them with [fmt.Errorf]
// to attach a message:
//
//	return fmt.Errorf("%w: invalid secret", web.ErrUnauthorized)
const (
	ErrBadRequest          StatusErr = http.StatusBadRequest
	ErrUnauthorized        StatusErr = http.StatusUnauthorized
	ErrForbidden           StatusErr = http.StatusForbidden
	ErrNotFound            StatusErr = http.StatusNotFound
	ErrMethodNotAllowed    StatusErr = http.StatusMethodNotAllowed
	ErrInternalServerError StatusErr = http.StatusInternalServerError
)

// errorResponse is the JSON shape of error responses.
type errorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

// RespondJSON writes response to w as indented JSON, setting the Content-Type
// header to application/json. If response can't be marshaled, it writes an
// internal server error instead.
func RespondJSON(w http.ResponseWriter, response any) { respondJSON(w, response, false) }

func respondJSON(w http.ResponseWriter, response any, wroteStatus bool) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		if !wroteStatus {
			w.WriteHeader(http.StatusInternalServerError)
		}
		// Marshaling a plain string never fails, so the fallback body is
		// always valid JSON.
		msg, _ := json.Marshal("JSON marshal error: " + err.Error())
		fmt.Fprintf(w, "{\n  \"status\": \"error\",\n  \"error\": %s\n}\n", msg)
		return
	}
	w.Write(b)
	w.Write([]byte("\n"))
}

// RespondError writes err to w as an HTML error page. The response status
// code is taken from the [StatusErr] in err's chain, defaulting to 500.
// Internal server errors are logged to the [cli.Env] carried by the request
// context.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(false, w, r, err)
}

// RespondJSONError is like [RespondError], but writes err as JSON.
func RespondJSONError(w http.ResponseWriter, r *http.Request, err error) {
	respondError(true, w, r, err)
}

var (
	//go:embed templates/error.html
	errorTemplateStr string
	errorTemplate    = template.Must(template.New("error").Funcs(template.FuncMap{
		"static": StaticFS.HashName,
	}).Parse(errorTemplateStr))
)

func respondError(asJSON bool, w http.ResponseWriter, r *http.Request, err error) {
	var se StatusErr
	if !errors.As(err, &se) {
		se = ErrInternalServerError
	}
	if asJSON {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(int(se))
	if se == ErrInternalServerError {
		cli.GetEnv(r.Context()).Logf("Error %d (%s): %v", se, http.StatusText(int(se)), err)
	}
	if asJSON {
		respondJSON(w, &errorResponse{Status: "error", Error: err.Error()}, true)
		return
	}

	data := struct {
		StatusCode int
		StatusText string
	}{
		StatusCode: int(se),
		StatusText: http.StatusText(int(se)),
	}
	var buf bytes.Buffer
	if err := errorTemplate.Execute(&buf, data); err != nil {
		// Fallback, if template execution fails.
		fmt.Fprintf(w, "%d: %s", data.StatusCode, data.StatusText)
		return
	}
	buf.WriteTo(w)
}
