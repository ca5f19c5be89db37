// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/moodbot/internal/request"
	"go.astrophena.name/moodbot/internal/testutil"
)

func newConnsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	s := httptest.NewUnstartedServer(mux)
	mux.Handle("/", Conns(s.Config))
	s.Start()
	t.Cleanup(s.Close)
	return s
}

func TestConnsHTML(t *testing.T) {
	s := newConnsServer(t)

	resp, err := http.Get(s.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	testutil.AssertEqual(t, resp.StatusCode, http.StatusOK)

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), "Active connections") {
		t.Errorf("connections page is missing its heading: %q", b)
	}
}

func TestConnsJSON(t *testing.T) {
	s := newConnsServer(t)

	// The request below is itself the sole connection we expect to see.
	conns, err := request.Make[ConnMap](t.Context(), request.Params{
		Method: http.MethodGet,
		URL:    s.URL + "?format=json",
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(conns) != 1 {
		t.Fatalf("want a single connection, got %d", len(conns))
	}
	for addr, conn := range conns {
		testutil.AssertEqual(t, conn.Network, "tcp")
		testutil.AssertEqual(t, conn.Addr, addr)
		if !strings.HasPrefix(addr, "127.0.0.1") {
			t.Errorf("remote address should be loopback, got %s", addr)
		}
	}
}
