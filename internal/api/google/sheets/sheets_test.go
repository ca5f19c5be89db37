// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package sheets

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"go.astrophena.name/moodbot/internal/api/google/serviceaccount"
	"go.astrophena.name/moodbot/internal/testutil"
)

func TestAppendRow(t *testing.T) {
	var (
		gotBody  valueRange
		gotQuery url.Values
		gotAuth  string
	)
	mux := testMux(t)
	mux.HandleFunc("POST sheets.googleapis.com/v4/spreadsheets/{id}/values/{target}", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.PathValue("id"), "sheet1")
		testutil.AssertEqual(t, r.PathValue("target"), "Log:append")
		gotQuery = r.URL.Query()
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, "{}")
	})

	c := New(Config{
		SpreadsheetID: "sheet1",
		Range:         "Log",
		Key:           testKey(t),
		HTTPClient:    testutil.MockHTTPClient(mux),
	})

	if err := c.AppendRow(t.Context(), []string{"2026-02-14 10:03", "joyful"}); err != nil {
		t.Fatal(err)
	}

	testutil.AssertEqual(t, gotAuth, "Bearer tok")
	testutil.AssertEqual(t, gotQuery.Get("valueInputOption"), "USER_ENTERED")
	testutil.AssertEqual(t, gotBody, valueRange{
		Range:          "Log",
		MajorDimension: "ROWS",
		Values:         [][]string{{"2026-02-14 10:03", "joyful"}},
	})
}

func TestReadRows(t *testing.T) {
	mux := testMux(t)
	mux.HandleFunc("GET sheets.googleapis.com/v4/spreadsheets/{id}/values/{target}", func(w http.ResponseWriter, r *http.Request) {
		testutil.AssertEqual(t, r.PathValue("target"), "Log")
		fmt.Fprint(w, `{"range": "Log!A1:B3", "values": [["1", "a"], ["2", "b"], ["3", "c"]]}`)
	})

	c := New(Config{
		SpreadsheetID: "sheet1",
		Range:         "Log",
		Key:           testKey(t),
		HTTPClient:    testutil.MockHTTPClient(mux),
	})

	rows, err := c.ReadRows(t.Context(), 2)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, rows, [][]string{{"2", "b"}, {"3", "c"}})

	all, err := c.ReadRows(t.Context(), 0)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, len(all), 3)
}

// testMux returns a mux that already handles the OAuth token exchange.
func testMux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST oauth2.googleapis.com/token", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token": "tok"}`)
	})
	return mux
}

func testKey(t *testing.T) *serviceaccount.Key {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(priv),
	})

	return &serviceaccount.Key{
		Type:        "service_account",
		PrivateKey:  string(pemKey),
		ClientEmail: "moodbot@example.iam.gserviceaccount.com",
		TokenURI:    "https://oauth2.googleapis.com/token",
	}
}
