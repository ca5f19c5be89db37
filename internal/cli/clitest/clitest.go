// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package clitest runs [cli.App] implementations in tests.
package clitest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"go.astrophena.name/moodbot/internal/cli"
)

// Case describes a single invocation of the application under test.
type Case[App cli.App] struct {
	// Args is the command line passed to the application.
	Args []string
	// Env holds the environment variables visible to the application.
	Env map[string]string
	// Stdin is the application's standard input, empty if nil.
	Stdin io.Reader
	// WantErr, if set, is matched against the returned error with [errors.Is].
	// If nil, the returned error is ignored, so cases can assert on output
	// alone.
	WantErr error
	// WantInStdout and WantInStderr are substrings that must appear in the
	// respective output stream.
	WantInStdout, WantInStderr string
	// WantNothingPrinted asserts that both output streams stay empty.
	WantNothingPrinted bool
	// CheckFunc runs extra assertions after the application has finished.
	CheckFunc func(*testing.T, App)
}

// Run runs each case as a parallel subtest. setup constructs a fresh
// application for every case.
func Run[App cli.App](t *testing.T, setup func(*testing.T) App, cases map[string]Case[App]) {
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			tc.run(t, setup(t))
		})
	}
}

func (tc Case[App]) run(t *testing.T, app App) {
	stdin := tc.Stdin
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	env := &cli.Env{
		Args:   tc.Args,
		Getenv: func(name string) string { return tc.Env[name] },
		Stdin:  stdin,
		Stdout: &stdout,
		Stderr: &stderr,
	}

	err := cli.Run(cli.WithEnv(t.Context(), env), app)
	if tc.WantErr != nil {
		if err == nil {
			t.Fatalf("want error %v, got nil", tc.WantErr)
		}
		if !errors.Is(err, tc.WantErr) {
			t.Fatalf("want error %v, got: %v", tc.WantErr, err)
		}
	}

	if tc.WantNothingPrinted {
		if stdout.Len() > 0 {
			t.Errorf("stdout should be empty, got: %q", stdout.String())
		}
		if stderr.Len() > 0 {
			t.Errorf("stderr should be empty, got: %q", stderr.String())
		}
	}
	if tc.WantInStdout != "" && !strings.Contains(stdout.String(), tc.WantInStdout) {
		t.Errorf("stdout should contain %q, got: %q", tc.WantInStdout, stdout.String())
	}
	if tc.WantInStderr != "" && !strings.Contains(stderr.String(), tc.WantInStderr) {
		t.Errorf("stderr should contain %q, got: %q", tc.WantInStderr, stderr.String())
	}

	if tc.CheckFunc != nil {
		tc.CheckFunc(t, app)
	}
}
