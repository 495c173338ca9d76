// Package summarizer asks a generative-AI endpoint for a textual summary of
// an upload preview.
package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"alcyxob/ai-reports/internal/config"
	"alcyxob/ai-reports/internal/domain"
)

const (
	// NoKeyMessage is returned without any network call when no key is configured.
	NoKeyMessage = "AI summary unavailable (no API key)"
	// NoTextMessage is returned when a response matches no known shape.
	NoTextMessage = "No text returned"

	DefaultMaxPreviewChars = 3500
	truncatedSuffix        = "... [truncated]"
	defaultTimeout         = 120 * time.Second
	maxResponseBytes       = 4 << 20
)

// Error is returned for transport failures and non-2xx answers.
type Error struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("ai service returned status %d: %s", e.StatusCode, e.Message)
	case e.Err != nil:
		return "ai service request failed: " + e.Err.Error()
	default:
		return "ai service error: " + e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

type Client struct {
	BaseURL         string
	Model           string
	APIKey          string
	MaxPreviewChars int
	Client          *http.Client
}

func NewClient(cfg config.AIConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxChars := cfg.MaxPreviewChars
	if maxChars <= 0 {
		maxChars = DefaultMaxPreviewChars
	}
	return &Client{
		BaseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		Model:           cfg.Model,
		APIKey:          cfg.APIKey,
		MaxPreviewChars: maxChars,
		Client:          &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether Summarize will contact the remote service.
func (c *Client) Enabled() bool { return c.APIKey != "" }

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

// Summarize sends instruction plus the serialized preview and returns the
// model's text. It never fails when no key is configured.
func (c *Client) Summarize(ctx context.Context, instruction string, p domain.Preview) (string, error) {
	if !c.Enabled() {
		return NoKeyMessage, nil
	}

	serialized, err := SerializePreview(p)
	if err != nil {
		return "", &Error{Message: "serialize preview", Err: err}
	}
	prompt := BuildPrompt(instruction, TruncatePreview(serialized, c.MaxPreviewChars))

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: []part{{Text: prompt}}}}})
	if err != nil {
		return "", &Error{Message: "encode request", Err: err}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, url.PathEscape(c.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Message: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &Error{StatusCode: resp.StatusCode, Message: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &Error{StatusCode: resp.StatusCode, Message: remoteMessage(raw, resp.Status)}
	}
	return ExtractText(raw), nil
}

// SerializePreview renders rows as a JSON array, or returns the text as is.
func SerializePreview(p domain.Preview) (string, error) {
	if !p.Tabular {
		return p.Text, nil
	}
	rows := p.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// TruncatePreview caps s at max characters.
func TruncatePreview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + truncatedSuffix
}

func BuildPrompt(instruction, preview string) string {
	return instruction +
		"\n\nData preview (first rows):\n" + preview +
		"\n\nPlease return:\n1) short summary\n2) top findings (bullet points)\n3) suggested next actions."
}

func remoteMessage(raw []byte, status string) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return status
}
