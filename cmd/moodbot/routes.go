// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.astrophena.name/moodbot/cmd/moodbot/internal/survey"
	"go.astrophena.name/moodbot/internal/web"

	"github.com/arl/statsviz"
)

var (
	//go:embed static/templates/*.tmpl
	templatesFS embed.FS
	//go:embed static/css/* static/js/*
	staticFS embed.FS

	templates = sync.OnceValue(func() *template.Template {
		return template.Must(template.New("").ParseFS(templatesFS, "static/templates/*.tmpl"))
	})
)

func (e *engine) initRoutes() {
	e.mux = http.NewServeMux()

	e.mux.HandleFunc("/", e.handleRoot)
	e.mux.HandleFunc("POST /telegram", e.bot.HandleTelegramWebhook)
	e.mux.Handle("POST /api/trigger", web.HandleJSON(e.bot.Trigger))

	web.Health(e.mux).RegisterFunc("store", e.checkStore)

	// Debug routes.
	dbg := web.Debugger(e.mux)
	dbg.KVFunc("Bot", func() any {
		return fmt.Sprintf("@%s (ID: %d)", e.me.Username, e.me.ID)
	})
	dbg.KV("Survey timezone", e.tz)
	dbg.KVFunc("Surveys", func() any {
		var names []string
		for _, d := range survey.All() {
			names = append(names, string(d.Kind))
		}
		return strings.Join(names, ", ")
	})
	// Runtime metrics.
	statsviz.Register(e.mux)
	dbg.Link("/debug/statsviz", "Metrics")
	// Log streaming.
	dbg.HandleFunc("logs", "Logs", func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		data := struct {
			MainCSS string
			LogsCSS string
			LogsJS  string
		}{
			MainCSS: e.srv.StaticHashName("static/css/main.css"),
			LogsCSS: e.srv.StaticHashName("static/css/logs.css"),
			LogsJS:  e.srv.StaticHashName("static/js/logs.js"),
		}
		if err := templates().ExecuteTemplate(&buf, "logs.tmpl", data); err != nil {
			web.RespondError(w, r, err)
			return
		}
		buf.WriteTo(w)
	})
	e.mux.Handle("/debug/log", e.logStream)
	e.mux.Handle("GET /debug/loghistory", web.HandleJSON(func(r *http.Request, _ any) ([]string, error) {
		return e.logStream.Lines(), nil
	}))
}

func (e *engine) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		web.RespondError(w, r, web.ErrNotFound)
		return
	}
	const documentationURL = "https://go.astrophena.name/moodbot"
	http.Redirect(w, r, documentationURL, http.StatusFound)
}

func (e *engine) checkStore() (status string, ok bool) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := e.kv.Get(ctx, "health"); err != nil {
		return err.Error(), false
	}
	return "reachable", true
}
