package gemini

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
)

func newTestServer(t *testing.T, modelText string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": modelText}}}},
			},
			"usageMetadata": map[string]any{
				"promptTokenCount":     120,
				"candidatesTokenCount": 18,
				"totalTokenCount":      138,
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient("test-key", baseURL, "gemini-test", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return client
}

func TestClassifyParsesFencedJSON(t *testing.T) {
	srv := newTestServer(t, "```json\n{\"intent\":\"deposit\",\"entities\":{\"accountId\":\"acc-101\",\"amount\":\"2500 rupees\",\"question\":null}}\n```")
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.Classify(context.Background(), "deposit 2500 to account 101")
	require.NoError(t, err)

	assert.Equal(t, dialogue.IntentDeposit, got.Intent)
	assert.Equal(t, "101", got.Entities.AccountID)
	require.NotNil(t, got.Entities.Amount)
	assert.InDelta(t, 2500.0, *got.Entities.Amount, 1e-9)
	assert.Equal(t, 138, got.Usage.TotalTokens)
}

func TestClassifyExtractsJSONFromProse(t *testing.T) {
	srv := newTestServer(t, "Sure, here is the classification:\n{\"intent\":\"check_balance\",\"entities\":{\"accountId\":101,\"amount\":null,\"question\":null}}\nHope that helps!")
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.Classify(context.Background(), "what is my balance in account 101")
	require.NoError(t, err)

	assert.Equal(t, dialogue.IntentCheckBalance, got.Intent)
	assert.Equal(t, "101", got.Entities.AccountID)
}

func TestClassifyMalformedPayloadFallsBack(t *testing.T) {
	srv := newTestServer(t, "I cannot classify that, sorry.")
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	got, err := client.Classify(context.Background(), "just chatting")
	require.NoError(t, err)
	assert.Equal(t, dialogue.IntentSmalltalk, got.Intent)

	got, err = client.Classify(context.Background(), "how do I open a fixed deposit")
	require.NoError(t, err)
	assert.Equal(t, dialogue.IntentFAQ, got.Intent)
	assert.Equal(t, "how do i open a fixed deposit", got.Entities.Question)
}

func TestClassifyServerDownFallsBack(t *testing.T) {
	srv := newTestServer(t, "{}")
	srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.Classify(context.Background(), "what are your loan interest rates?")
	require.NoError(t, err)

	assert.Equal(t, dialogue.IntentFAQ, got.Intent)
	assert.Equal(t, "what are your loan interest rates?", got.Entities.Question)
}

func TestClassifyHeuristicOverridesSmalltalk(t *testing.T) {
	srv := newTestServer(t, "{\"intent\":\"smalltalk\",\"entities\":{\"accountId\":null,\"amount\":null,\"question\":null}}")
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	got, err := client.Classify(context.Background(), "how can i apply for a credit card")
	require.NoError(t, err)

	assert.Equal(t, dialogue.IntentFAQ, got.Intent)
	assert.Equal(t, "how can i apply for a credit card", got.Entities.Question)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient("", "", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
