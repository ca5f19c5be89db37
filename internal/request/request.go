// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package request provides utilities for making HTTP requests.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.astrophena.name/moodbot/internal/version"
)

// DefaultClient is a [http.Client] with nice defaults.
var DefaultClient = &http.Client{
	Timeout: 10 * time.Second,
}

// Params defines the parameters needed for making an HTTP request.
type Params struct {
	// Method is the HTTP method (GET, POST, etc.) for the request.
	Method string
	// URL is the target URL of the request.
	URL string
	// Headers is a map of key-value pairs for additional request headers.
	Headers map[string]string
	// Body is any data to be sent in the request body. [url.Values] are
	// form-encoded, json.RawMessage and []byte are sent as is, everything else
	// is marshaled to JSON.
	Body any
	// WantStatusCode is the status code expected in the response. If zero,
	// [http.StatusOK] is expected.
	WantStatusCode int
	// HTTPClient is an optional custom HTTP client object to use for the request.
	// If not provided, DefaultClient will be used.
	HTTPClient *http.Client
	// Scrubber is an optional strings.Replacer that scrubs unwanted data from
	// error messages.
	Scrubber *strings.Replacer
}

// IgnoreResponse is a sentinel type used as a type parameter of [Make] when
// the caller doesn't care about the response body.
type IgnoreResponse struct{}

// Bytes is used as a type parameter of [Make] to obtain the raw response body.
type Bytes []byte

// StatusError is returned when the response status code doesn't match the
// expected one.
type StatusError struct {
	// StatusCode is the status code of the response.
	StatusCode int
	// Body is the raw response body.
	Body []byte

	method     string
	url        string
	wantStatus int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %q: want %d, got %d: %s", e.method, e.url, e.wantStatus, e.StatusCode, e.Body)
}

type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (se *scrubbedError) Error() string {
	if se.scrubber != nil {
		return se.scrubber.Replace(se.err.Error())
	}
	return se.err.Error()
}

func (se *scrubbedError) Unwrap() error { return se.err }

func scrubErr(err error, scrubber *strings.Replacer) error {
	return &scrubbedError{err: err, scrubber: scrubber}
}

// Make makes an HTTP request with the provided parameters and unmarshals the
// JSON response body into the specified type. Use [IgnoreResponse] to skip
// response decoding and [Bytes] to obtain the raw response body.
//
// If the response status code doesn't match the expected one, Make returns a
// [StatusError] that wraps the status code and response body.
func Make[Response any](ctx context.Context, p Params) (Response, error) {
	var resp Response

	var (
		data        []byte
		contentType string
	)
	if p.Body != nil {
		switch b := p.Body.(type) {
		case url.Values:
			data = []byte(b.Encode())
			contentType = "application/x-www-form-urlencoded"
		case json.RawMessage:
			data = b
			contentType = "application/json"
		case []byte:
			data = b
		default:
			var err error
			data, err = json.Marshal(p.Body)
			if err != nil {
				return resp, scrubErr(err, p.Scrubber)
			}
			contentType = "application/json"
		}
	}

	var br io.Reader
	if data != nil {
		br = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, br)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}

	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", version.UserAgent())
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	httpc := DefaultClient
	if p.HTTPClient != nil {
		httpc = p.HTTPClient
	}

	res, err := httpc.Do(req)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}
	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}

	wantStatus := p.WantStatusCode
	if wantStatus == 0 {
		wantStatus = http.StatusOK
	}
	if res.StatusCode != wantStatus {
		return resp, scrubErr(&StatusError{
			StatusCode: res.StatusCode,
			Body:       b,
			method:     p.Method,
			url:        p.URL,
			wantStatus: wantStatus,
		}, p.Scrubber)
	}

	if _, ok := any(resp).(IgnoreResponse); ok {
		return resp, nil
	}
	if raw, ok := any(&resp).(*Bytes); ok {
		*raw = b
		return resp, nil
	}

	if err := json.Unmarshal(b, &resp); err != nil {
		return resp, scrubErr(err, p.Scrubber)
	}

	return resp, nil
}
