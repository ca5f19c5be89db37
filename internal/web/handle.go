// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// HandleJSON returns an [http.Handler] that decodes the JSON request body
// into In, calls f and responds with the JSON encoding of its result.
//
// Requests without a body (for example, GET requests) are passed to f with
// the zero value of In. Errors returned by f are written with
// [RespondJSONError], so the usual [StatusErr] wrapping rules apply.
func HandleJSON[In, Out any](f func(r *http.Request, in In) (Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in In
		if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
				RespondJSONError(w, r, fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err))
				return
			}
		}
		out, err := f(r, in)
		if err != nil {
			RespondJSONError(w, r, err)
			return
		}
		RespondJSON(w, out)
	})
}
