package telegram

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

	pkgerrors "github.com/angelmondragon/tubeshop-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.telegram.org"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
	parseModeHTML               = "HTML"
)

// ErrNotConfigured is returned when no bot token was provided.
var ErrNotConfigured = errors.New("telegram bot token is not configured")

// Client sends messages through the Telegram Bot API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// Sender is the outbound surface used by notifications and the bot.
type Sender interface {
	SendMessage(ctx context.Context, chatID int64, html string) error
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the Bot API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient builds a bot client. An empty token yields a client whose sends
// return ErrNotConfigured.
func NewClient(token string, opts ...Option) *Client {
	client := &Client{
		token:      strings.TrimSpace(token),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// Configured reports whether a bot token is present.
func (c *Client) Configured() bool {
	return c != nil && c.token != ""
}

type sendMessageRequest struct {
	ChatID    int64  `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage posts an HTML formatted message to the chat.
func (c *Client) SendMessage(ctx context.Context, chatID int64, html string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	payload, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: html, ParseMode: parseModeHTML})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sendMessage request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.methodURL("sendMessage"), bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sendMessage request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sendMessage request")
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), "sendMessage request failed")
	}

	var decoded apiResponse
	if err := json.Unmarshal(body, &decoded); err == nil && !decoded.OK {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New(decoded.Description), "sendMessage rejected")
	}
	return nil
}

func (c *Client) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", strings.TrimRight(c.baseURL, "/"), c.token, method)
}
