// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package telegram implements a client for the Telegram Bot API.
package telegram

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.astrophena.name/moodbot/internal/request"
	"go.astrophena.name/moodbot/internal/version"
)

const (
	tgAPI          = "https://api.telegram.org"
	sendRetryLimit = 5 // N attempts to retry message sending
)

// Config configures a Telegram [Client].
type Config struct {
	Token      string
	HTTPClient *http.Client
	Scrubber   *strings.Replacer
	Logger     *slog.Logger
}

// Client makes requests to the Telegram Bot API on behalf of a single bot.
type Client struct {
	token       string
	httpc       *http.Client
	scrubber    *strings.Replacer
	slog        *slog.Logger
	makeRequest func(context.Context, string, any) error
	sleep       func(context.Context, time.Duration) bool
}

// New returns a Telegram client.
func New(cfg Config) *Client {
	c := &Client{
		token:    cfg.Token,
		httpc:    cfg.HTTPClient,
		scrubber: cfg.Scrubber,
		slog:     cfg.Logger,
	}
	if c.httpc == nil {
		c.httpc = request.DefaultClient
	}
	if c.slog == nil {
		c.slog = slog.Default()
	}
	c.makeRequest = c.makeTelegramRequest
	c.sleep = sleep
	return c
}

// User represents a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// Chat represents a Telegram chat.
type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// Update represents an incoming update from the Telegram Bot API.
// Only message updates are of interest to us, everything else is ignored.
type Update struct {
	ID      int64            `json:"update_id"`
	Message *IncomingMessage `json:"message"`
}

// IncomingMessage represents a message received by the bot.
type IncomingMessage struct {
	ID   int64  `json:"message_id"`
	From *User  `json:"from"`
	Chat Chat   `json:"chat"`
	Text string `json:"text"`
}

type apiResponse[T any] struct {
	OK     bool `json:"ok"`
	Result T    `json:"result"`
}

// Me returns basic information about the bot, verifying that the token is
// valid.
func (c *Client) Me(ctx context.Context) (User, error) {
	resp, err := request.Make[apiResponse[User]](ctx, request.Params{
		Method: http.MethodGet,
		URL:    tgAPI + "/bot" + c.token + "/getMe",
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	})
	if err != nil {
		return User{}, err
	}
	return resp.Result, nil
}

// SetWebhook registers url to receive updates for the bot. Telegram sends
// secret back in the X-Telegram-Bot-Api-Secret-Token header of every
// delivery.
func (c *Client) SetWebhook(ctx context.Context, url, secret string) error {
	return c.makeRequest(ctx, "setWebhook", map[string]string{
		"url":          url,
		"secret_token": secret,
	})
}

func (c *Client) makeTelegramRequest(ctx context.Context, method string, args any) error {
	if _, err := request.Make[request.IgnoreResponse](ctx, request.Params{
		Method: http.MethodPost,
		URL:    tgAPI + "/bot" + c.token + "/" + method,
		Body:   args,
		Headers: map[string]string{
			"User-Agent": version.UserAgent(),
		},
		HTTPClient: c.httpc,
		Scrubber:   c.scrubber,
	}); err != nil {
		return err
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
