// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/moodbot/internal/cli"
	"go.astrophena.name/moodbot/internal/logger"

	"github.com/benbjohnson/hashfs"
)

//go:generate curl --fail-with-body -s -o static/css/main.css https://astrophena.name/css/main.css

// Middleware is a function that wraps an [http.Handler] with additional
// functionality.
type Middleware func(http.Handler) http.Handler

// Server is an HTTP server that serves a [http.ServeMux] together with
// static resources, a health check endpoint and, optionally, debug handlers.
//
// All fields of Server can't be modified after [Server.ListenAndServe] or
// [Server.ServeHTTP] is called for the first time.
type Server struct {
	// Addr is a network address to listen on (in the form of "host:port").
	Addr string
	// Mux is a http.ServeMux to serve.
	Mux *http.ServeMux
	// Debuggable specifies whether to register debug handlers at /debug/.
	Debuggable bool
	// DebugAuth specifies an optional function that's invoked on every request to
	// debug handlers at /debug/ to allow or deny access to them. If not provided,
	// all access is allowed.
	DebugAuth func(r *http.Request) bool
	// Ready specifies an optional function to be called when the server is ready
	// to serve requests.
	Ready func()
	// StaticFS is an optional fs.FS with additional static resources served on
	// the /static/ path prefix. Files from it take precedence over the built-in
	// ones.
	StaticFS fs.FS
	// Middleware is an optional list of middleware applied to every request,
	// outermost first.
	Middleware []Middleware

	initOnce sync.Once
	handler  http.Handler
	static   *hashfs.FS
}

var (
	errNoAddr = errors.New("s.Addr is empty")
	errNilMux = errors.New("s.Mux is nil")
)

//go:embed static
var embedFS embed.FS

// StaticFS is a [hashfs.FS] that contains static resources served on /static/
// path prefix of [Server] servers.
var StaticFS = hashfs.NewFS(embedFS)

// overlayFS serves files from primary, falling back to fallback for files
// that don't exist in it.
type overlayFS struct{ primary, fallback fs.FS }

func (o overlayFS) Open(name string) (fs.File, error) {
	if f, err := o.primary.Open(name); err == nil {
		return f, nil
	}
	return o.fallback.Open(name)
}

func (s *Server) doInit() {
	var sfs fs.FS = embedFS
	if s.StaticFS != nil {
		sfs = overlayFS{primary: s.StaticFS, fallback: embedFS}
	}
	s.static = hashfs.NewFS(sfs)

	s.Mux.Handle("/static/", hashfs.FileServer(s.static))
	Health(s.Mux)
	if s.Debuggable {
		Debugger(s.Mux)
	}

	h := s.protectDebug(s.Mux)
	for i := len(s.Middleware) - 1; i >= 0; i-- {
		h = s.Middleware[i](h)
	}
	s.handler = setHeaders(h)
}

// StaticHashName returns the name of the static file with its content hash
// embedded, suitable for serving with aggressive caching. If the file doesn't
// exist, the name is returned unchanged.
func (s *Server) StaticHashName(name string) string {
	s.initOnce.Do(s.doInit)
	return s.static.HashName(name)
}

// ServeHTTP implements the [http.Handler] interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.initOnce.Do(s.doInit)
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe starts the server and blocks until ctx is canceled, shutting
// the server down gracefully, or the server fails to serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s.Addr == "" {
		return errNoAddr
	}
	if s.Mux == nil {
		return errNilMux
	}

	env := cli.GetEnv(ctx)

	l, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	defer l.Close()
	env.Logf("Listening on %s...", l.Addr().String())

	s.initOnce.Do(s.doInit)

	hs := &http.Server{
		ErrorLog: log.New(logger.Logf(env.Logf), "", 0),
		Handler:  s,
	}
	if s.Debuggable {
		Debugger(s.Mux).Handle("conns", "Connections", Conns(hs))
	}

	errCh := make(chan error, 1)

	go func() {
		if err := hs.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				errCh <- err
			}
		}
	}()

	if s.Ready != nil {
		s.Ready()
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		env.Logf("Gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	return nil
}

func (s *Server) protectDebug(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/debug/") || s.DebugAuth == nil {
			next.ServeHTTP(w, r)
			return
		}
		// If access denied, pretend that debug endpoints don't exist.
		if !s.DebugAuth(r) {
			RespondError(w, r, ErrNotFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const cspHeader = "default-src 'self'; " +
	"script-src 'self' 'unsafe-inline'; " +
	"style-src 'self' 'unsafe-inline'; " +
	"img-src 'self' data:; " +
	"connect-src 'self' ws: wss:; " +
	"object-src 'none'; " +
	"frame-ancestors 'none'"

func setHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referer-Policy", "same-origin")
		w.Header().Set("Content-Security-Policy", cspHeader)
		next.ServeHTTP(w, r)
	})
}
