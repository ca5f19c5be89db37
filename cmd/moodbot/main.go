// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // survey schedules need zoneinfo wherever the binary runs

	"go.astrophena.name/moodbot/cmd/moodbot/internal/bot"
	"go.astrophena.name/moodbot/cmd/moodbot/internal/mood"
	"go.astrophena.name/moodbot/cmd/moodbot/internal/scheduler"
	"go.astrophena.name/moodbot/cmd/moodbot/internal/state"
	"go.astrophena.name/moodbot/internal/api/google/serviceaccount"
	"go.astrophena.name/moodbot/internal/api/google/sheets"
	"go.astrophena.name/moodbot/internal/api/telegram"
	"go.astrophena.name/moodbot/internal/cli"
	"go.astrophena.name/moodbot/internal/logger"
	"go.astrophena.name/moodbot/internal/logger/logstream"
	"go.astrophena.name/moodbot/internal/store"
	"go.astrophena.name/moodbot/internal/util/syncx"
	"go.astrophena.name/moodbot/internal/web"
)

func main() { cli.Main(new(engine)) }

func (e *engine) Flags(fs *flag.FlagSet) {
	fs.StringVar(&e.addr, "addr", "", "Listen on `host:port` (default localhost:3000).")
	fs.BoolVar(&e.prod, "prod", false, "Run in production mode.")
}

func (e *engine) Run(ctx context.Context) error {
	env := cli.GetEnv(ctx)

	// Load configuration from environment variables.
	e.addr = cmp.Or(e.addr, env.Getenv("ADDR"), "localhost:3000")
	e.credsJSON = cmp.Or(e.credsJSON, env.Getenv("GOOGLE_CREDENTIALS"))
	e.owner = cmp.Or(e.owner, parseInt(env.Getenv("OWNER_CHAT_ID")))
	e.secret = cmp.Or(e.secret, env.Getenv("SECRET_KEY"))
	e.sheetsID = cmp.Or(e.sheetsID, env.Getenv("GOOGLE_SHEETS_ID"))
	e.sheetsRange = cmp.Or(e.sheetsRange, env.Getenv("SHEETS_RANGE"), "Log")
	e.statePath = cmp.Or(e.statePath, env.Getenv("STATE_PATH"))
	e.tgToken = cmp.Or(e.tgToken, env.Getenv("BOT_TOKEN"))
	e.tz = cmp.Or(e.tz, env.Getenv("SURVEY_TIMEZONE"), "Europe/Amsterdam")
	e.webhookBase = cmp.Or(e.webhookBase, env.Getenv("WEBHOOK_BASE_URL"))

	e.stderr = env.Stderr

	// Initialize internal state.
	if err := e.init.Get(func() error {
		return e.doInit(ctx)
	}); err != nil {
		return err
	}

	// Used in tests.
	if e.noServerStart {
		return nil
	}

	// If running in production mode, register the webhook in the Telegram Bot
	// API.
	if e.prod {
		if err := e.setWebhook(ctx); err != nil {
			return err
		}
		e.logf("Running in production mode.")
	} else {
		e.logf("Running in development mode.")
	}

	go e.scheduler.Run(ctx)

	err := e.srv.ListenAndServe(ctx)
	if cerr := e.kv.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

func parseInt(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return i
	}
	return 0
}

type engine struct {
	init syncx.Lazy[error] // main initialization

	// initialized by doInit
	bot       *bot.Bot
	db        *state.DB
	kv        store.Store
	loc       *time.Location
	logStream logstream.Streamer
	logf      logger.Logf
	logger    *logger.Logger
	mux       *http.ServeMux
	scheduler *scheduler.Scheduler
	scrubber  *strings.Replacer
	sheetsc   *sheets.Client
	srv       *web.Server
	tgc       *telegram.Client

	// configuration, read-only after initialization
	addr        string
	credsJSON   string
	httpc       *http.Client
	me          telegram.User // obtained from Telegram Bot API
	owner       int64
	prod        bool
	secret      string
	sheetsID    string
	sheetsRange string
	statePath   string
	stderr      io.Writer
	tgToken     string
	tz          string
	webhookBase string

	// for tests
	noServerStart bool
	ready         func() // see web.Server.Ready
}

var (
	errNoToken   = errors.New("environment variable BOT_TOKEN is not defined")
	errNoSecret  = errors.New("environment variable SECRET_KEY is not defined")
	errNoSheet   = errors.New("environment variable GOOGLE_SHEETS_ID is not defined")
	errNoCreds   = errors.New("environment variable GOOGLE_CREDENTIALS is not defined")
	errNoBaseURL = errors.New("environment variable WEBHOOK_BASE_URL is not defined")
)

func (e *engine) doInit(ctx context.Context) error {
	switch {
	case e.tgToken == "":
		return errNoToken
	case e.secret == "":
		return errNoSecret
	case e.sheetsID == "":
		return errNoSheet
	case e.credsJSON == "":
		return errNoCreds
	}

	if e.httpc == nil {
		e.httpc = &http.Client{Timeout: 10 * time.Second}
	}
	if e.stderr == nil {
		e.stderr = os.Stderr
	}

	loc, err := time.LoadLocation(e.tz)
	if err != nil {
		return fmt.Errorf("invalid SURVEY_TIMEZONE: %v", err)
	}
	e.loc = loc

	const logLineLimit = 300
	e.logStream = logstream.New(logLineLimit)
	e.logf = log.New(io.MultiWriter(e.stderr, &timestampWriter{e.logStream}), "", 0).Printf
	// slog lines carry their own timestamps, so they go to the stream
	// unprefixed.
	e.logger = logger.New(io.MultiWriter(e.stderr, e.logStream))

	var scrubPairs []string
	for _, val := range []string{
		e.credsJSON,
		e.secret,
		e.tgToken,
	} {
		scrubPairs = append(scrubPairs, val, "[EXPUNGED]")
	}
	e.scrubber = strings.NewReplacer(scrubPairs...)

	key, err := serviceaccount.LoadKey([]byte(e.credsJSON))
	if err != nil {
		return fmt.Errorf("loading GOOGLE_CREDENTIALS: %v", err)
	}
	e.sheetsc = sheets.New(sheets.Config{
		SpreadsheetID: e.sheetsID,
		Range:         e.sheetsRange,
		Key:           key,
		HTTPClient:    e.httpc,
		Scrubber:      e.scrubber,
	})

	e.tgc = telegram.New(telegram.Config{
		Token:      e.tgToken,
		HTTPClient: e.httpc,
		Scrubber:   e.scrubber,
		Logger:     e.logger.Logger,
	})

	// Verify the token before going any further.
	me, err := e.tgc.Me(ctx)
	if err != nil {
		return err
	}
	e.me = me

	e.kv, err = store.Open(ctx, e.statePath)
	if err != nil {
		return err
	}
	e.db = state.New(e.kv)

	e.bot = bot.New(bot.Opts{
		Secret:   e.secret,
		Owner:    e.owner,
		TimeZone: e.tz,
		Telegram: e.tgc,
		Writer:   mood.NewWriter(e.sheetsc, e.logger.Logger),
		Sheets:   e.sheetsc,
		DB:       e.db,
		Logger:   e.logger.Logger,
	})

	e.scheduler = scheduler.New(scheduler.Opts{
		Chats:    e.db.ActiveChats,
		Start:    e.bot.StartSurvey,
		Location: e.loc,
		Logger:   e.logger.Logger,
	})

	e.initRoutes()
	e.srv = &web.Server{
		Addr:       e.addr,
		Mux:        e.mux,
		Debuggable: true, // debug endpoints protected by debugAuth
		DebugAuth:  e.debugAuth,
		Ready:      e.ready,
		StaticFS:   staticFS,
	}

	return nil
}

func (e *engine) setWebhook(ctx context.Context) error {
	if e.webhookBase == "" {
		return errNoBaseURL
	}
	return e.tgc.SetWebhook(ctx, e.webhookBase+"/telegram", e.secret)
}

// debugAuth guards the debug interface in production mode. The trigger secret
// must be passed in the X-Moodbot-Secret header or the "secret" query
// parameter.
func (e *engine) debugAuth(r *http.Request) bool {
	if !e.prod {
		return true
	}
	got := cmp.Or(r.Header.Get("X-Moodbot-Secret"), r.URL.Query().Get("secret"))
	return bot.SecretsEqual(got, e.secret)
}

// timestampWriter is an io.Writer that prefixes each line with the current
// date and time.
type timestampWriter struct {
	w io.Writer
}

func (tw *timestampWriter) Write(p []byte) (n int, err error) {
	lines := bytes.SplitAfter(p, []byte{'\n'})

	for _, line := range lines {
		if len(line) > 0 {
			timestamp := time.Now().Format(time.DateTime + "\t")
			_, err := tw.w.Write([]byte(timestamp))
			if err != nil {
				return n, err
			}
			nn, err := tw.w.Write(line)
			n += nn
			if err != nil {
				return n, err
			}
		}
	}

	return n, nil
}
