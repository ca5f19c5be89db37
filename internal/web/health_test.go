// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"encoding/json"
	"net/http"
	"testing"

	"go.astrophena.name/moodbot/internal/testutil"
)

func TestHealth(t *testing.T) {
	okCheck := func() (string, bool) { return "all good", true }
	badCheck := func() (string, bool) { return "on fire", false }

	cases := map[string]struct {
		checks     map[string]HealthFunc
		wantStatus int
		want       HealthResponse
	}{
		"no checks": {
			checks:     nil,
			wantStatus: http.StatusOK,
			want: HealthResponse{
				OK:     true,
				Checks: map[string]CheckResponse{},
			},
		},
		"passing check": {
			checks:     map[string]HealthFunc{"db": okCheck},
			wantStatus: http.StatusOK,
			want: HealthResponse{
				OK: true,
				Checks: map[string]CheckResponse{
					"db": {Status: "all good", OK: true},
				},
			},
		},
		"failing check": {
			checks:     map[string]HealthFunc{"db": badCheck},
			wantStatus: http.StatusInternalServerError,
			want: HealthResponse{
				OK: false,
				Checks: map[string]CheckResponse{
					"db": {Status: "on fire", OK: false},
				},
			},
		},
		"one failure fails the whole response": {
			checks:     map[string]HealthFunc{"db": okCheck, "queue": badCheck},
			wantStatus: http.StatusInternalServerError,
			want: HealthResponse{
				OK: false,
				Checks: map[string]CheckResponse{
					"db":    {Status: "all good", OK: true},
					"queue": {Status: "on fire", OK: false},
				},
			},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			mux := http.NewServeMux()
			h := Health(mux)
			for name, f := range tc.checks {
				h.RegisterFunc(name, f)
			}

			body := send(t, mux, http.MethodGet, "/health", tc.wantStatus)

			var got HealthResponse
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestHealthIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	if h1, h2 := Health(mux), Health(mux); h1 != h2 {
		t.Fatal("Health returned different handlers for the same mux")
	}
}

func TestHealthDuplicateCheck(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("registering the same check twice did not panic")
		}
	}()

	h := Health(http.NewServeMux())
	h.RegisterFunc("db", func() (string, bool) { return "ok", true })
	h.RegisterFunc("db", func() (string, bool) { return "ok", true })
}
