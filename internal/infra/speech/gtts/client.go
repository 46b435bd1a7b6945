package gtts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

const (
	baseURL = "https://translate.google.com/translate_tts"

	// The unauthenticated endpoint rejects long inputs, so replies are
	// truncated at a rune boundary before synthesis.
	maxChars = 200
)

// Client renders reply text as MP3 audio through the Google Translate
// text-to-speech endpoint.
type Client struct {
	language   string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(language string, logger *slog.Logger) *Client {
	if strings.TrimSpace(language) == "" {
		language = "en"
	}
	return &Client{
		language:   language,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With("component", "speech.gtts"),
	}
}

// Synthesize implements dialogue.Synthesizer. A synthesis failure returns
// nil audio rather than an error so the exchange still yields its text
// reply.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	text = truncateRunes(text, maxChars)

	query := url.Values{
		"ie":      {"UTF-8"},
		"q":       {text},
		"tl":      {c.language},
		"client":  {"tw-ob"},
		"textlen": {fmt.Sprint(utf8.RuneCountInString(text))},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build synthesis request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("synthesis request failed", "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		c.logger.Warn("synthesis rejected", "status", resp.StatusCode)
		return nil, nil
	}
	audio, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		c.logger.Warn("synthesis response unreadable", "error", err)
		return nil, nil
	}
	return audio, nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

var _ dialogue.Synthesizer = (*Client)(nil)
