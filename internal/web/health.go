// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"net/http"
	"net/url"

	"go.astrophena.name/moodbot/internal/util/syncx"
)

// HealthFunc reports the state of a single subsystem. It must be safe for
// concurrent use.
type HealthFunc func() (status string, ok bool)

// HealthHandler serves /health: it runs every registered check and reports
// the combined result as JSON.
type HealthHandler struct {
	checks *syncx.Protected[map[string]HealthFunc]
}

// HealthResponse is the body of a /health response.
type HealthResponse struct {
	OK     bool                     `json:"ok"`
	Checks map[string]CheckResponse `json:"checks"`
}

// CheckResponse is the result of a single health check.
type CheckResponse struct {
	Status string `json:"status"`
	OK     bool   `json:"ok"`
}

// Health returns the [HealthHandler] serving /health on mux, registering one
// if mux doesn't have it yet. Calling it twice with the same mux returns the
// same handler.
func Health(mux *http.ServeMux) *HealthHandler {
	if h, pat := mux.Handler(&http.Request{URL: &url.URL{Path: "/health"}}); pat == "/health" {
		if hh, ok := h.(*HealthHandler); ok {
			return hh
		}
	}
	hh := &HealthHandler{checks: syncx.Protect(make(map[string]HealthFunc))}
	mux.Handle("/health", hh)
	return hh
}

// RegisterFunc adds a named health check. It panics if a check with the same
// name is already registered.
func (h *HealthHandler) RegisterFunc(name string, f HealthFunc) {
	h.checks.Access(func(checks map[string]HealthFunc) {
		if _, dup := checks[name]; dup {
			panic("web: health check " + name + " registered twice")
		}
		checks[name] = f
	})
}

// ServeHTTP implements the [http.Handler] interface.
//
// The response status is 200 if every check passed and 500 otherwise, so
// load balancer probes don't need to parse the body.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := &HealthResponse{
		OK:     true,
		Checks: make(map[string]CheckResponse),
	}
	h.checks.RAccess(func(checks map[string]HealthFunc) {
		for name, f := range checks {
			status, ok := f()
			resp.Checks[name] = CheckResponse{Status: status, OK: ok}
			resp.OK = resp.OK && ok
		}
	})

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if !resp.OK {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	RespondJSON(w, resp)
}
