package dialogue

import (
	"time"

	"github.com/yanqian/voicebank/pkg/metrics"
)

// Intent is the classified purpose of a user utterance.
type Intent string

const (
	IntentGreeting       Intent = "greeting"
	IntentGoodbye        Intent = "goodbye"
	IntentSmalltalk      Intent = "smalltalk"
	IntentCheckBalance   Intent = "check_balance"
	IntentDeposit        Intent = "deposit"
	IntentWithdraw       Intent = "withdraw"
	IntentGetOwner       Intent = "get_owner"
	IntentAccountDetails Intent = "account_details"
	IntentFAQ            Intent = "faq"
	IntentSaveQuestion   Intent = "save_question"
)

// Entities are the structured values extracted from an utterance.
type Entities struct {
	AccountID string   `json:"accountId,omitempty"`
	Amount    *float64 `json:"amount,omitempty"`
	Question  string   `json:"question,omitempty"`
}

// Classification is the NLU collaborator output.
type Classification struct {
	Intent   Intent             `json:"intent"`
	Entities Entities           `json:"entities"`
	Usage    metrics.TokenUsage `json:"usage,omitzero"`
}

// ReplyKind tags the two reply shapes so callers branch on an explicit tag
// instead of a runtime type check.
type ReplyKind string

const (
	// ReplyPlain is a terminal answer.
	ReplyPlain ReplyKind = "plain"
	// ReplySuggestSave signals the boundary to park the question in the
	// pending store and offer to save it.
	ReplySuggestSave ReplyKind = "suggestSave"
)

// Reply is the orchestrator result.
type Reply struct {
	Kind ReplyKind `json:"kind"`
	Text string    `json:"text"`
}

func plain(text string) Reply {
	return Reply{Kind: ReplyPlain, Text: text}
}

// RespondRequest carries one routed exchange.
type RespondRequest struct {
	Text            string
	Intent          Intent
	Entities        Entities
	CallerAccountID string
	SessionID       string
}

// ExchangeResult is returned from the combined classify-and-respond
// operation exposed to the transport layer.
type ExchangeResult struct {
	InputText    string             `json:"inputText"`
	Intent       Intent             `json:"intent"`
	Entities     Entities           `json:"entities"`
	ResponseText string             `json:"responseText"`
	SuggestSave  bool               `json:"suggestSave,omitempty"`
	TokenUsage   metrics.TokenUsage `json:"tokenUsage,omitzero"`
}

// VoiceResult extends an exchange with the synthesized reply audio.
type VoiceResult struct {
	ExchangeResult
	AudioBase64 string `json:"audioBase64,omitempty"`
	AudioURL    string `json:"audioUrl,omitempty"`
}

// InteractionRecord is one logged bot exchange.
type InteractionRecord struct {
	ID           string    `json:"id"`
	InputText    string    `json:"inputText"`
	Intent       Intent    `json:"intent"`
	ResponseText string    `json:"responseText"`
	CreatedAt    time.Time `json:"createdAt"`
}
