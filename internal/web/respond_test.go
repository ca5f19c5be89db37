// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/moodbot/internal/cli"
	"go.astrophena.name/moodbot/internal/testutil"
)

func TestStatusErr(t *testing.T) {
	testutil.AssertEqual(t, ErrNotFound.Error(), "not found")
	testutil.AssertEqual(t, ErrBadRequest.Error(), "bad request")

	wrapped := fmt.Errorf("%w: no such chat", ErrNotFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Error("wrapped sentinel doesn't match with errors.Is")
	}
}

// recordingRequest returns a request whose context carries a [cli.Env]
// logging to the returned buffer.
func recordingRequest(t *testing.T) (*http.Request, *bytes.Buffer) {
	var stderr bytes.Buffer
	ctx := cli.WithEnv(t.Context(), &cli.Env{Stderr: &stderr})
	return httptest.NewRequestWithContext(ctx, http.MethodGet, "/", nil), &stderr
}

func TestRespondError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantInBody string
	}{
		{
			name:       "sentinel",
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantInBody: "404 Not Found",
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("looking up chat: %w", ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantInBody: "404 Not Found",
		},
		{
			name:       "unwrapped error defaults to 500",
			err:        io.EOF,
			wantStatus: http.StatusInternalServerError,
			wantInBody: "500 Internal Server Error",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, stderr := recordingRequest(t)
			w := httptest.NewRecorder()

			RespondError(w, r, tc.err)

			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			if !strings.Contains(w.Body.String(), tc.wantInBody) {
				t.Errorf("want body to contain %q, got %q", tc.wantInBody, w.Body.String())
			}

			// Only internal server errors are logged.
			if tc.wantStatus == http.StatusInternalServerError {
				if !strings.Contains(stderr.String(), "Error 500") {
					t.Errorf("want a log line about the error, got %q", stderr.String())
				}
			} else if stderr.Len() > 0 {
				t.Errorf("unexpected log output: %q", stderr.String())
			}
		})
	}
}

func TestRespondJSONError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "sentinel",
			err:        ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantBody: `{
  "status": "error",
  "error": "not found"
}
`,
		},
		{
			name:       "wrapped sentinel",
			err:        fmt.Errorf("%w: unknown action", ErrBadRequest),
			wantStatus: http.StatusBadRequest,
			wantBody: `{
  "status": "error",
  "error": "bad request: unknown action"
}
`,
		},
		{
			name:       "internal server error",
			err:        fmt.Errorf("%w: spreadsheet unreachable", ErrInternalServerError),
			wantStatus: http.StatusInternalServerError,
			wantBody: `{
  "status": "error",
  "error": "internal server error: spreadsheet unreachable"
}
`,
		},
		{
			name:       "unwrapped error defaults to 500",
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantBody: `{
  "status": "error",
  "error": "unexpected EOF"
}
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, stderr := recordingRequest(t)
			w := httptest.NewRecorder()

			RespondJSONError(w, r, tc.err)

			testutil.AssertEqual(t, w.Code, tc.wantStatus)
			testutil.AssertEqual(t, w.Header().Get("Content-Type"), "application/json")
			testutil.AssertEqual(t, w.Body.String(), tc.wantBody)

			if tc.wantStatus == http.StatusInternalServerError && stderr.Len() == 0 {
				t.Error("internal server error was not logged")
			}
		})
	}
}

func TestRespondJSON(t *testing.T) {
	w := httptest.NewRecorder()
	RespondJSON(w, struct {
		Mood  string `json:"mood"`
		Score int    `json:"score"`
	}{Mood: "meh", Score: 3})

	testutil.AssertEqual(t, w.Code, http.StatusOK)
	testutil.AssertEqual(t, w.Header().Get("Content-Type"), "application/json")
	testutil.AssertEqual(t, w.Body.String(), `{
  "mood": "meh",
  "score": 3
}
`)
}

func TestRespondJSONUnmarshalable(t *testing.T) {
	// A value the JSON encoder rejects: a cycle.
	type ring struct {
		Next *ring `json:"next"`
	}
	a, b := new(ring), new(ring)
	a.Next, b.Next = b, a

	w := httptest.NewRecorder()
	RespondJSON(w, a)

	testutil.AssertEqual(t, w.Code, http.StatusInternalServerError)

	resp := testutil.UnmarshalJSON[errorResponse](t, w.Body.Bytes())
	testutil.AssertEqual(t, resp.Status, "error")
	if !strings.Contains(resp.Error, "encountered a cycle") {
		t.Errorf("want a cycle error, got %q", resp.Error)
	}
}

func send(t testing.TB, h http.Handler, method, path string, wantStatus int) string {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	if rec.Code != wantStatus {
		t.Fatalf("%s %s: want status %d, got %d", method, path, wantStatus, rec.Code)
	}
	return rec.Body.String()
}
