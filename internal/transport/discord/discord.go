// Package discord posts messages to a Discord channel through an incoming
// webhook. A webhook URL is the only credential needed.
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

type Channel struct {
	url    string
	client *http.Client
}

type payload struct {
	Content string `json:"content"`
}

func New(cfg Config) (*Channel, error) {
	url := strings.TrimSpace(cfg.WebhookURL)
	if url == "" {
		return nil, errors.New("discord webhook url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Channel{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Channel) Name() string { return "discord" }

func (c *Channel) Send(ctx context.Context, text string) error {
	if c == nil || c.client == nil {
		return errors.New("discord channel not initialised")
	}
	body, err := json.Marshal(payload{Content: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("discord send: %w", err)
	}
	defer resp.Body.Close()

	// Webhooks answer 204 No Content on success.
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("discord send: status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
}
