// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package logstream implements a thread-safe [io.Writer] that buffers log
// lines in a ring buffer and allows them to be streamed through an HTTP
// endpoint or retrieved as a snapshot.
package logstream

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Streamer is an io.Writer that keeps the most recently logged lines and
// allows to stream them.
type Streamer interface {
	io.Writer
	http.Handler

	// Lines returns all buffered lines, oldest first, without trailing
	// newlines.
	Lines() []string

	// Stream returns a new channel that receives any newly logged lines.
	// Deregister the stream by calling the close function.
	Stream() (<-chan string, func())
}

// New returns a new [Streamer] that keeps up to size last lines.
func New(size int) Streamer {
	return &streamer{
		buf:     make([]string, size),
		streams: make(map[chan string]struct{}),
	}
}

type streamer struct {
	mu        sync.Mutex
	buf       []string // ring buffer
	start     int      // index of the oldest line
	count     int      // number of buffered lines
	remainder string   // partial line carried over between writes
	streams   map[chan string]struct{}
}

func (s *streamer) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	text := s.remainder + string(b)
	for {
		idx := strings.Index(text, "\n")
		if idx == -1 {
			break
		}

		line := text[:idx]
		s.append(line)
		for stream := range s.streams {
			select {
			case stream <- line:
			default:
				// If the receiver channel is blocking, skip. This means
				// streams will miss log lines if they are full.
			}
		}
		text = text[idx+1:]
	}
	s.remainder = text

	return len(b), nil
}

func (s *streamer) append(line string) {
	if s.count < len(s.buf) {
		s.buf[(s.start+s.count)%len(s.buf)] = line
		s.count++
		return
	}
	// Buffer is full, overwrite the oldest line.
	s.buf[s.start] = line
	s.start = (s.start + 1) % len(s.buf)
}

func (s *streamer) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := make([]string, 0, s.count)
	for i := range s.count {
		lines = append(lines, s.buf[(s.start+i)%len(s.buf)])
	}
	return lines
}

func (s *streamer) Stream() (<-chan string, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := make(chan string, len(s.buf)+1)
	s.streams[stream] = struct{}{}

	return stream, func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.streams, stream)
		close(stream)
	}
}

func (s *streamer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "no-cache")

	evtStream := eventStreamRequested(r)
	if evtStream {
		w.Header().Set("Content-Type", "text/event-stream")
	}

	// Register the stream before flushing headers so that lines logged
	// right after the client connects are not lost.
	stream, closeFunc := s.Stream()
	defer closeFunc()

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}

	for {
		select {
		case line := <-stream:
			// See https://developer.mozilla.org/en-US/docs/Web/API/Server-sent_events/Using_server-sent_events
			// for a description of the server-sent events protocol.
			if evtStream {
				line = fmt.Sprintf("event: logline\ndata: %s\n", line)
			}
			fmt.Fprintln(w, line)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		case <-r.Context().Done():
			// Client closed the stream. Stop and release all resources
			// immediately.
			return
		}
	}
}

func eventStreamRequested(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "text/event-stream")
}
