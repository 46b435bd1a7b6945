package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
	"github.com/yanqian/voicebank/pkg/metrics"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
)

const classifierPrompt = `You are an intent classifier for a banking assistant.

User message: %q

Return ONLY pure JSON. No markdown, no backticks, no explanation.

JSON format:
{
  "intent": "",
  "entities": {
    "accountId": null,
    "amount": null,
    "question": null
  }
}

INTENT RULES:
- Balance -> check_balance
- Deposit/add/put money -> deposit
- Withdraw/take/remove money -> withdraw
- "who owns", "owner", "holder" -> get_owner
- "details for account", "account details" -> account_details
- Any question such as "how to ...", "how do I ...", "what to do",
  "can you tell me", "steps to ..." -> faq (entities.question = entire user text)
- "save", "store this question" -> save_question
- Default -> smalltalk

RULE: If unsure, choose faq instead of smalltalk.`

// Client classifies utterances using the Gemini generateContent API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
	encoder    *tiktoken.Tiktoken
}

// NewClient constructs a Gemini classifier client.
func NewClient(apiKey, baseURL, model string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	// Best effort token estimator for responses without usageMetadata.
	encoder, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		encoder = nil
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: &http.Client{Timeout: 12 * time.Second},
		logger:     logger.With("component", "nlu.gemini"),
		encoder:    encoder,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// rawClassification mirrors the JSON the model is instructed to emit.
type rawClassification struct {
	Intent   string `json:"intent"`
	Entities struct {
		AccountID any    `json:"accountId"`
		Amount    any    `json:"amount"`
		Question  string `json:"question"`
	} `json:"entities"`
}

// Classify implements dialogue.Classifier. Any transport or parsing failure
// degrades to a heuristic classification instead of an error so the bot
// stays responsive when the hosted model is unavailable.
func (c *Client) Classify(ctx context.Context, text string) (dialogue.Classification, error) {
	cleaned := normalizeUtterance(text)

	body, usage, err := c.generate(ctx, fmt.Sprintf(classifierPrompt, cleaned))
	if err != nil {
		c.logger.Warn("gemini request failed, using heuristic fallback", "error", err)
		return fallbackClassification(cleaned), nil
	}

	classification, ok := parseClassification(body)
	if !ok {
		c.logger.Warn("gemini returned unparseable classification", "raw", truncate(body, 200))
		classification = fallbackClassification(cleaned)
	}
	classification.Usage = usage

	// The hosted model routinely misses question-shaped utterances;
	// local heuristics override it.
	if isFAQShaped(cleaned) || (classification.Intent == dialogue.IntentSmalltalk && looksLikeQuestion(cleaned)) {
		classification.Intent = dialogue.IntentFAQ
		classification.Entities.Question = cleaned
	}

	return classification, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, metrics.TokenUsage, error) {
	payload, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", metrics.TokenUsage{}, fmt.Errorf("encode generate request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", metrics.TokenUsage{}, fmt.Errorf("build generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", metrics.TokenUsage{}, fmt.Errorf("request generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", metrics.TokenUsage{}, fmt.Errorf("gemini request failed: status=%d body=%s", resp.StatusCode, string(raw))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", metrics.TokenUsage{}, err
	}
	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", metrics.TokenUsage{}, fmt.Errorf("decode generate response: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", metrics.TokenUsage{}, errors.New("gemini returned no candidates")
	}

	usage := metrics.TokenUsage{
		PromptTokens:     out.UsageMetadata.PromptTokenCount,
		CompletionTokens: out.UsageMetadata.CandidatesTokenCount,
		TotalTokens:      out.UsageMetadata.TotalTokenCount,
	}
	body := out.Candidates[0].Content.Parts[0].Text
	if usage.IsZero() && c.encoder != nil {
		promptTokens := len(c.encoder.Encode(prompt, nil, nil))
		completionTokens := len(c.encoder.Encode(body, nil, nil))
		usage = metrics.TokenUsage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		}
	}
	return body, usage, nil
}

var (
	fenceRE  = regexp.MustCompile("(?i)```json|```")
	objectRE = regexp.MustCompile(`\{[\s\S]*\}`)
	digitsRE = regexp.MustCompile(`\d+`)
	numberRE = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
)

// parseClassification tolerates markdown fences and trailing prose around
// the JSON object.
func parseClassification(body string) (dialogue.Classification, bool) {
	cleaned := strings.TrimSpace(fenceRE.ReplaceAllString(body, ""))
	var raw rawClassification
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		match := objectRE.FindString(cleaned)
		if match == "" {
			return dialogue.Classification{}, false
		}
		if err := json.Unmarshal([]byte(match), &raw); err != nil {
			return dialogue.Classification{}, false
		}
	}
	return sanitize(raw), true
}

// sanitize coerces the loosely typed model output into clean entities:
// account ids keep digits only, amounts become numbers, questions are
// trimmed.
func sanitize(raw rawClassification) dialogue.Classification {
	classification := dialogue.Classification{Intent: dialogue.IntentSmalltalk}
	if raw.Intent != "" {
		classification.Intent = dialogue.Intent(raw.Intent)
	}
	if raw.Entities.AccountID != nil {
		digits := digitsRE.FindAllString(fmt.Sprint(raw.Entities.AccountID), -1)
		if len(digits) > 0 {
			classification.Entities.AccountID = strings.Join(digits, "")
		}
	}
	if raw.Entities.Amount != nil {
		if numeric := numberRE.FindString(fmt.Sprint(raw.Entities.Amount)); numeric != "" {
			if amount, err := strconv.ParseFloat(numeric, 64); err == nil {
				classification.Entities.Amount = &amount
			}
		}
	}
	if question := strings.TrimSpace(raw.Entities.Question); question != "" {
		classification.Entities.Question = question
	}
	return classification
}

// fallbackClassification is used when the hosted model cannot be reached or
// parsed: question-shaped input becomes faq, everything else smalltalk.
func fallbackClassification(cleaned string) dialogue.Classification {
	if isFAQShaped(cleaned) || looksLikeQuestion(cleaned) {
		return dialogue.Classification{
			Intent:   dialogue.IntentFAQ,
			Entities: dialogue.Entities{Question: cleaned},
		}
	}
	return dialogue.Classification{Intent: dialogue.IntentSmalltalk}
}

// normalizeUtterance smooths noisy speech-to-text input before
// classification.
func normalizeUtterance(s string) string {
	lowered := strings.ToLower(strings.TrimSpace(s))
	var builder strings.Builder
	builder.Grow(len(lowered))
	lastSpace := false
	for _, r := range lowered {
		switch {
		case r == '?' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_':
			builder.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				builder.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(builder.String())
}

var faqOpeners = []string{"how to", "how do i"}

var faqPhrases = []string{
	"how can i", "i want to", "what to do", "steps to",
	"can you tell me", "please explain", "help me",
}

func isFAQShaped(text string) bool {
	for _, opener := range faqOpeners {
		if strings.HasPrefix(text, opener) {
			return true
		}
	}
	for _, phrase := range faqPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return strings.HasSuffix(text, "?")
}

var interrogatives = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {}, "which": {},
}

func looksLikeQuestion(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasSuffix(text, "?") {
		return true
	}
	first, _, _ := strings.Cut(text, " ")
	_, ok := interrogatives[first]
	return ok
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ dialogue.Classifier = (*Client)(nil)
