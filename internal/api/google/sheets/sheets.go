// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package sheets provides a client for appending to and reading from Google
// Sheets.
//
// See https://developers.google.com/sheets/api/reference/rest.
package sheets

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.astrophena.name/moodbot/internal/api/google/serviceaccount"
	"go.astrophena.name/moodbot/internal/request"
	"go.astrophena.name/moodbot/internal/version"
)

const (
	sheetsAPI = "https://sheets.googleapis.com"
	scope     = "https://www.googleapis.com/auth/spreadsheets"
)

// Config configures a [Client].
type Config struct {
	// SpreadsheetID identifies the target spreadsheet.
	SpreadsheetID string
	// Range is the A1 notation range rows are appended to, for example "Log".
	Range string
	// Key is the service account key used for authentication.
	Key *serviceaccount.Key
	// HTTPClient is an optional HTTP client.
	HTTPClient *http.Client
	// Scrubber removes secrets from logs and error messages.
	Scrubber *strings.Replacer
}

// Client appends rows to and reads rows from a single range of a Google
// spreadsheet.
type Client struct {
	spreadsheetID string
	rng           string
	tokens        *serviceaccount.TokenSource
	httpc         *http.Client
	scrubber      *strings.Replacer
}

// New returns a sheets client.
func New(cfg Config) *Client {
	c := &Client{
		spreadsheetID: cfg.SpreadsheetID,
		rng:           cfg.Range,
		httpc:         cfg.HTTPClient,
		scrubber:      cfg.Scrubber,
	}
	if c.httpc == nil {
		c.httpc = request.DefaultClient
	}
	if c.rng == "" {
		c.rng = "Log"
	}
	c.tokens = serviceaccount.NewTokenSource(cfg.Key, c.httpc, scope)
	return c
}

type valueRange struct {
	Range          string     `json:"range,omitempty"`
	MajorDimension string     `json:"majorDimension,omitempty"`
	Values         [][]string `json:"values"`
}

// AppendRow appends a single row after the last row of the configured range.
func (c *Client) AppendRow(ctx context.Context, row []string) error {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	_, err = request.Make[request.IgnoreResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    c.valuesURL(c.rng+":append") + "?valueInputOption=USER_ENTERED",
		Body: valueRange{
			Range:          c.rng,
			MajorDimension: "ROWS",
			Values:         [][]string{row},
		},
		Headers:    c.headers(tok),
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	return err
}

// ReadRows returns up to n trailing rows of the configured range. If n <= 0,
// all rows are returned.
func (c *Client) ReadRows(ctx context.Context, n int) ([][]string, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	vr, err := request.Make[valueRange](ctx, request.Params{
		Method:     http.MethodGet,
		URL:        c.valuesURL(c.rng),
		Headers:    c.headers(tok),
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return nil, err
	}
	rows := vr.Values
	if n > 0 && len(rows) > n {
		rows = rows[len(rows)-n:]
	}
	return rows, nil
}

func (c *Client) valuesURL(target string) string {
	return sheetsAPI + "/v4/spreadsheets/" + url.PathEscape(c.spreadsheetID) + "/values/" + url.PathEscape(target)
}

func (c *Client) headers(tok string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + tok,
		"User-Agent":    version.UserAgent(),
	}
}
