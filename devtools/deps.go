// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build tools

// Package devtools pins build-time tool dependencies, so go mod tidy
// doesn't prune them.
package devtools

import (
	_ "honnef.co/go/tools/cmd/staticcheck"
)
