// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package web

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/moodbot/internal/util/syncx"
	"go.astrophena.name/moodbot/internal/version"
)

// ConnMap is the set of active connections to an HTTP server, keyed by
// remote address.
type ConnMap map[string]*Conn

// Conn describes a single active connection.
type Conn struct {
	Network string
	Addr    string
	Time    time.Time
	State   http.ConnState
}

// Conns returns an [http.Handler] that lists the active connections of s,
// as an HTML page or as JSON with ?format=json. It installs itself as the
// server's [http.Server.ConnState] callback.
//
// Inspired by https://x.com/bradfitz/status/1349825913136017415.
func Conns(s *http.Server) http.Handler {
	ch := &connsHandler{conns: syncx.Protect(make(ConnMap))}
	s.ConnState = ch.connState
	return ch
}

type connsHandler struct {
	conns *syncx.Protected[ConnMap]
}

func (ch *connsHandler) connState(c net.Conn, state http.ConnState) {
	ch.conns.Access(func(conns ConnMap) {
		addr := c.RemoteAddr().String()
		if state == http.StateClosed {
			delete(conns, addr)
			return
		}
		conn, ok := conns[addr]
		if !ok {
			conn = &Conn{
				Network: c.RemoteAddr().Network(),
				Addr:    addr,
				Time:    time.Now(),
			}
			conns[addr] = conn
		}
		conn.State = state
	})
}

var (
	//go:embed templates/conns.html
	connsTemplateStr string

	connsTemplate = sync.OnceValue(func() *template.Template {
		return template.Must(template.New("conns").Parse(connsTemplateStr))
	})
)

type connRow struct {
	Addr    string
	Network string
	State   http.ConnState
	Age     time.Duration
}

func (ch *connsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.FormValue("format") == "json" {
		ch.conns.RAccess(func(conns ConnMap) {
			RespondJSON(w, conns)
		})
		return
	}

	var (
		now  = time.Now()
		idle int
		rows []connRow
	)
	ch.conns.RAccess(func(conns ConnMap) {
		for _, c := range conns {
			if c.State == http.StateIdle {
				idle++
			}
			rows = append(rows, connRow{
				Addr:    c.Addr,
				Network: c.Network,
				State:   c.State,
				Age:     now.Sub(c.Time).Round(time.Millisecond),
			})
		}
	})
	slices.SortFunc(rows, func(a, b connRow) int { return strings.Compare(a.Addr, b.Addr) })

	word := "connections"
	if len(rows) == 1 {
		word = "connection"
	}
	data := struct {
		Cmd     string
		Summary string
		Rows    []connRow
	}{
		Cmd:     version.CmdName(),
		Summary: fmt.Sprintf("%d %s, %d idle.", len(rows), word, idle),
		Rows:    rows,
	}

	var buf bytes.Buffer
	if err := connsTemplate().Execute(&buf, data); err != nil {
		RespondError(w, r, err)
		return
	}
	buf.WriteTo(w)
}
