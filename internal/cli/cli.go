// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package cli is the shared startup path of command-line applications: it
// plumbs the application environment through the context, parses flags and
// handles the -version, -cpuprofile and -memprofile flags every application
// gets for free.
package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"

	"go.astrophena.name/moodbot/internal/logger"
	"go.astrophena.name/moodbot/internal/util/syncx"
	"go.astrophena.name/moodbot/internal/version"
)

// App represents a command-line application.
type App interface {
	// Run runs the application. The application environment is carried by
	// ctx and can be retrieved with [GetEnv].
	Run(ctx context.Context) error
}

// HasFlags is an [App] that defines its own flags.
type HasFlags interface {
	App

	// Flags adds flags to the flag set.
	Flags(*flag.FlagSet)
}

// AppFunc adapts a function to the [App] interface. It has no flags.
type AppFunc func(context.Context) error

// Run calls f(ctx).
func (f AppFunc) Run(ctx context.Context) error { return f(ctx) }

// Env is the environment an application runs in: its command line, its
// environment variables and its standard streams. Tests substitute their own
// Env to run applications hermetically.
type Env struct {
	Args   []string
	Getenv func(string) string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	logf syncx.Lazy[logger.Logf]
}

// Logf writes a formatted line to the environment's standard error.
func (e *Env) Logf(format string, args ...any) {
	e.logf.Get(func() logger.Logf {
		return log.New(e.Stderr, "", 0).Printf
	})(format, args...)
}

// OSEnv returns the environment of the current process.
func OSEnv() *Env {
	return &Env{
		Args:   os.Args[1:],
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

type envKey struct{}

// WithEnv returns a new context based on ctx that carries env.
func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// GetEnv returns the [Env] carried by ctx, or [OSEnv] if ctx carries none.
func GetEnv(ctx context.Context) *Env {
	if env, ok := ctx.Value(envKey{}).(*Env); ok {
		return env
	}
	return OSEnv()
}

// Main runs app with the environment of the current process and exits when
// it finishes. The context passed to the application is canceled on
// interrupt, so the application can shut down cleanly on Ctrl-C.
func Main(app App) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := Run(ctx, app); err != nil {
		if shouldPrint(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// silentError wraps errors whose message was already shown to the user, so
// [Main] exits without printing them again.
type silentError struct{ err error }

func (e *silentError) Error() string { return e.err.Error() }
func (e *silentError) Unwrap() error { return e.err }

func shouldPrint(err error) bool {
	if errors.Is(err, flag.ErrHelp) {
		return false
	}
	var se *silentError
	return !errors.As(err, &se)
}

// ErrExitVersion is returned when the application exits after printing its
// version.
var ErrExitVersion = &silentError{errors.New("version flag exit")}

// ErrInvalidArgs indicates that the command-line arguments passed to the
// application are invalid or insufficient. Wrap it with [fmt.Errorf] to say
// what exactly is wrong:
//
//	return fmt.Errorf("%w: missing required argument 'filename'", cli.ErrInvalidArgs)
var ErrInvalidArgs = errors.New("invalid arguments")

// Run executes app within the environment carried by ctx, attaching the
// process environment if ctx carries none.
func Run(ctx context.Context, app App) error {
	env, ok := ctx.Value(envKey{}).(*Env)
	if !ok {
		env = OSEnv()
		ctx = WithEnv(ctx, env)
	}

	flags := flag.NewFlagSet(version.CmdName(), flag.ContinueOnError)
	if fa, ok := app.(HasFlags); ok {
		fa.Flags(flags)
	}

	var (
		cpuProfile = flags.String("cpuprofile", "", "Write CPU profile to `file`.")
		memProfile = flags.String("memprofile", "", "Write memory profile to `file`.")

		showVersion bool
	)
	if flags.Lookup("version") == nil {
		flags.BoolVar(&showVersion, "version", false, "Show version.")
	}

	flags.Usage = usage(flags, env.Stderr)
	flags.SetOutput(env.Stderr)
	if err := flags.Parse(env.Args); err != nil {
		// The flag package has already reported the problem to stderr.
		return &silentError{err}
	}
	if showVersion {
		fmt.Fprint(env.Stderr, version.Version())
		return ErrExitVersion
	}
	env.Args = flags.Args()

	if *cpuProfile != "" {
		stop, err := profileCPU(*cpuProfile)
		if err != nil {
			return err
		}
		defer stop()
	}

	ctx = logger.With(ctx, logger.New(env.Stderr))
	if err := app.Run(ctx); err != nil {
		return err
	}

	if *memProfile != "" {
		return profileHeap(*memProfile)
	}
	return nil
}

func profileCPU(path string) (stop func(), err error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("starting CPU profile: %w", err)
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func profileHeap(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating memory profile: %w", err)
	}
	defer f.Close()
	runtime.GC() // up-to-date allocation statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("writing memory profile: %w", err)
	}
	return nil
}

func usage(flags *flag.FlagSet, stderr io.Writer) func() {
	return func() {
		if docSrc != nil {
			fmt.Fprintf(stderr, "%s\n", doc.Get(parseDocComment))
		}
		fmt.Fprint(stderr, "Available flags:\n\n")
		flags.PrintDefaults()
	}
}

var (
	docSrc []byte
	doc    syncx.Lazy[string]
)

// SetDocComment stores src as the source of the application's documentation,
// shown at the top of the help message.
//
// src is expected to be a Go file whose first /* ... */ block comment is the
// documentation, the way package documentation of a main package is usually
// written. Embed the file and pass it from an init function:
//
//	/*
//	Frobnicator frobnicates flim-flams.
//
//	# Usage
//
//		$ frobnicator [flags...]
//	*/
//	package main
//
//	import (
//		_ "embed"
//
//		"go.astrophena.name/moodbot/internal/cli"
//	)
//
//	//go:embed doc.go
//	var doc []byte
//
//	func init() { cli.SetDocComment(doc) }
func SetDocComment(src []byte) { docSrc = src }

func parseDocComment() string {
	var (
		sb        strings.Builder
		inComment bool
	)
	s := bufio.NewScanner(bytes.NewReader(docSrc))
	for s.Scan() {
		switch line := s.Text(); {
		case line == "/*":
			inComment = true
		case line == "*/":
			// The doc comment is the first block comment; stop at its end.
			return sb.String()
		case inComment:
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
	}
	if err := s.Err(); err != nil {
		panic(err)
	}
	return sb.String()
}
