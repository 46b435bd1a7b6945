package dialogue_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yanqian/voicebank/internal/domain/dialogue"
	"github.com/yanqian/voicebank/internal/domain/faq"
	"github.com/yanqian/voicebank/internal/domain/ledger"
	"github.com/yanqian/voicebank/internal/infra/audiostore"
	"github.com/yanqian/voicebank/internal/infra/faqrepo"
	"github.com/yanqian/voicebank/internal/infra/interactionrepo"
	"github.com/yanqian/voicebank/internal/infra/ledgerrepo"
	"github.com/yanqian/voicebank/internal/infra/pendingstore"
	apperrors "github.com/yanqian/voicebank/pkg/errors"
)

type stubClassifier struct {
	fn func(ctx context.Context, text string) (dialogue.Classification, error)
}

func (s *stubClassifier) Classify(ctx context.Context, text string) (dialogue.Classification, error) {
	if s.fn != nil {
		return s.fn(ctx, text)
	}
	return dialogue.Classification{Intent: dialogue.IntentSmalltalk}, nil
}

type stubTranscriber struct {
	transcript string
	err        error
}

func (s *stubTranscriber) Transcribe(context.Context, []byte, string) (string, error) {
	return s.transcript, s.err
}

type stubSynthesizer struct {
	audio []byte
	err   error
}

func (s *stubSynthesizer) Synthesize(context.Context, string) ([]byte, error) {
	return s.audio, s.err
}

type fixture struct {
	svc          dialogue.Service
	faqs         *faqrepo.MemoryRepository
	accounts     *ledgerrepo.MemoryRepository
	pending      *pendingstore.MemoryStore
	interactions *interactionrepo.MemoryRepository
	classifier   *stubClassifier
	transcriber  *stubTranscriber
	synthesizer  *stubSynthesizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		faqs:         faqrepo.NewMemoryRepository(),
		accounts:     ledgerrepo.NewMemoryRepository(),
		pending:      pendingstore.NewMemoryStore(10*time.Minute, nil),
		interactions: interactionrepo.NewMemoryRepository(),
		classifier:   &stubClassifier{},
		transcriber:  &stubTranscriber{},
		synthesizer:  &stubSynthesizer{},
	}
	require.NoError(t, f.accounts.Create(context.Background(), ledger.Account{
		AccountID: "101", Name: "Yanqian", Balance: 5000, Status: ledger.StatusActive,
	}))
	f.faqs.Seed([]faq.Record{
		{Question: "How do I open an account?", Answer: "Visit the nearest branch with a valid ID proof."},
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.svc = dialogue.NewService(
		faq.DefaultConfig(), f.classifier, f.faqs, f.accounts, f.pending,
		f.transcriber, f.synthesizer, audiostore.NewMemoryStore(), f.interactions, logger,
	)
	return f
}

func respond(t *testing.T, f *fixture, req dialogue.RespondRequest) dialogue.Reply {
	t.Helper()
	reply, err := f.svc.Respond(context.Background(), req)
	require.NoError(t, err)
	return reply
}

func amount(v float64) *float64 { return &v }

func TestRespondCannedIntents(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		intent dialogue.Intent
		want   string
	}{
		{dialogue.IntentGreeting, "Hello! How can I assist you today?"},
		{dialogue.IntentGoodbye, "Goodbye! Take care!"},
		{dialogue.IntentSmalltalk, "I'm here to help you. Could you please clarify?"},
	}
	for _, tc := range cases {
		reply := respond(t, f, dialogue.RespondRequest{Intent: tc.intent, Text: "hi"})
		assert.Equal(t, dialogue.ReplyPlain, reply.Kind)
		assert.Equal(t, tc.want, reply.Text)
	}
}

func TestRespondCheckBalance(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentCheckBalance,
		CallerAccountID: "101",
	})
	assert.Equal(t, "Your balance for account 101 is ₹5000.", reply.Text)
}

func TestRespondCrossAccountDenied(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.accounts.Create(context.Background(), ledger.Account{
		AccountID: "102", Name: "Ravi", Balance: 12500, Status: ledger.StatusActive,
	}))

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentCheckBalance,
		Entities:        dialogue.Entities{AccountID: "102"},
		CallerAccountID: "101",
	})
	assert.Equal(t, "You are not authorized to access another user's account.", reply.Text)

	// Matching ids are not a cross-account access.
	reply = respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentCheckBalance,
		Entities:        dialogue.Entities{AccountID: "101"},
		CallerAccountID: "101",
	})
	assert.Equal(t, "Your balance for account 101 is ₹5000.", reply.Text)
}

func TestRespondNeedsAccountID(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{Intent: dialogue.IntentCheckBalance})
	assert.Equal(t, "Please provide your account ID.", reply.Text)
}

func TestRespondUnknownAccount(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:   dialogue.IntentCheckBalance,
		Entities: dialogue.Entities{AccountID: "999"},
	})
	assert.Equal(t, "I could not find account 999. Please check the ID.", reply.Text)
}

func TestRespondDepositFlow(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentDeposit,
		CallerAccountID: "101",
	})
	assert.Equal(t, "How much would you like to deposit?", reply.Text)

	reply = respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentDeposit,
		Entities:        dialogue.Entities{Amount: amount(500)},
		CallerAccountID: "101",
	})
	assert.Equal(t, "Successfully deposited ₹500. New balance is ₹5500.", reply.Text)
}

func TestRespondWithdrawGuardsBalance(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentWithdraw,
		Entities:        dialogue.Entities{Amount: amount(2000)},
		CallerAccountID: "101",
	})
	assert.Equal(t, "Successfully withdrew ₹2000. Remaining balance is ₹3000.", reply.Text)

	reply = respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentWithdraw,
		Entities:        dialogue.Entities{Amount: amount(4000)},
		CallerAccountID: "101",
	})
	assert.Equal(t, "Insufficient balance.", reply.Text)

	// The rejected withdrawal must not move the balance.
	account, found, err := f.accounts.FindByAccountID(context.Background(), "101")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3000.0, account.Balance)
}

func TestRespondOwnerAndDetails(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentGetOwner,
		CallerAccountID: "101",
	})
	assert.Equal(t, "The owner of account 101 is Yanqian.", reply.Text)

	reply = respond(t, f, dialogue.RespondRequest{
		Intent:          dialogue.IntentAccountDetails,
		CallerAccountID: "101",
	})
	assert.Contains(t, reply.Text, "Account ID: 101")
	assert.Contains(t, reply.Text, "Name: Yanqian")
	assert.Contains(t, reply.Text, "Balance: ₹5000")
	assert.Contains(t, reply.Text, "Status: active")
}

func TestRespondFAQMatch(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:   dialogue.IntentFAQ,
		Entities: dialogue.Entities{Question: "how do i open an account"},
	})
	assert.Equal(t, dialogue.ReplyPlain, reply.Kind)
	assert.Equal(t, "Visit the nearest branch with a valid ID proof.", reply.Text)
}

func TestRespondFAQMissSuggestsSave(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent:   dialogue.IntentFAQ,
		Entities: dialogue.Entities{Question: "what is quantum computing"},
	})
	assert.Equal(t, dialogue.ReplySuggestSave, reply.Kind)
	assert.Equal(t, "I don't have an exact answer for that. Would you like me to save this question for review?", reply.Text)
}

func TestRespondUnknownIntentHeuristic(t *testing.T) {
	f := newFixture(t)

	reply := respond(t, f, dialogue.RespondRequest{
		Intent: dialogue.Intent("mystery"),
		Text:   "what is the swift code for your bank",
	})
	assert.Equal(t, dialogue.ReplySuggestSave, reply.Kind)

	reply = respond(t, f, dialogue.RespondRequest{
		Intent: dialogue.Intent("mystery"),
		Text:   "do something",
	})
	assert.Equal(t, "Let me help you with that.", reply.Text)
}

func TestClassifyAndRespondEmptyText(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ClassifyAndRespond(context.Background(), "   ", "sess", "101")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestClassifyAndRespondDegradesOnClassifierError(t *testing.T) {
	f := newFixture(t)
	f.classifier.fn = func(ctx context.Context, text string) (dialogue.Classification, error) {
		return dialogue.Classification{}, errors.New("model offline")
	}

	result, err := f.svc.ClassifyAndRespond(context.Background(), "hello there", "sess", "101")
	require.NoError(t, err)
	assert.Equal(t, dialogue.IntentSmalltalk, result.Intent)
	assert.Equal(t, "I'm here to help you. Could you please clarify?", result.ResponseText)
}

func TestClassifyAndRespondParksUnansweredQuestion(t *testing.T) {
	f := newFixture(t)
	f.classifier.fn = func(ctx context.Context, text string) (dialogue.Classification, error) {
		return dialogue.Classification{
			Intent:   dialogue.IntentFAQ,
			Entities: dialogue.Entities{Question: text},
		}, nil
	}

	result, err := f.svc.ClassifyAndRespond(context.Background(), "what is quantum computing", "sess-1", "101")
	require.NoError(t, err)
	assert.True(t, result.SuggestSave)

	stored, ok, err := f.pending.Get(context.Background(), "sess-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "what is quantum computing", stored)
}

func TestConfirmSaveUsesPendingQuestion(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.pending.Set(context.Background(), "sess-1", "what is quantum computing"))

	message, err := f.svc.ConfirmSave(context.Background(), "", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "Your question has been saved for review. We'll add an answer soon.", message)

	record, found, err := f.faqs.FindExact(context.Background(), "what is quantum computing")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, faq.PlaceholderAnswer, record.Answer)

	// The pending entry is consumed; confirming again has nothing to save.
	_, err = f.svc.ConfirmSave(context.Background(), "", "sess-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "nothing_to_save"))
}

func TestConfirmSaveDuplicateSuppressed(t *testing.T) {
	f := newFixture(t)

	message, err := f.svc.ConfirmSave(context.Background(), "How do I open an account?", "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "This question already exists in the FAQ list.", message)

	records, err := f.faqs.FindAll(context.Background(), 300)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestConfirmSaveAcrossSessions(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.pending.Set(context.Background(), "sess-a", "what are your loan rates"))
	require.NoError(t, f.pending.Set(context.Background(), "sess-b", "what are your loan rates"))

	message, err := f.svc.ConfirmSave(context.Background(), "", "sess-a")
	require.NoError(t, err)
	assert.Equal(t, "Your question has been saved for review. We'll add an answer soon.", message)

	message, err = f.svc.ConfirmSave(context.Background(), "", "sess-b")
	require.NoError(t, err)
	assert.Equal(t, "This question already exists in the FAQ list.", message)
}

func TestConfirmSaveNothingPending(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ConfirmSave(context.Background(), "", "fresh-session")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "nothing_to_save"))
}

func TestVoiceExchangeRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcript = "check my balance"
	f.synthesizer.audio = []byte("mp3-bytes")
	f.classifier.fn = func(ctx context.Context, text string) (dialogue.Classification, error) {
		return dialogue.Classification{Intent: dialogue.IntentCheckBalance}, nil
	}

	result, err := f.svc.VoiceExchange(context.Background(), []byte("wav"), "audio/wav", "sess", "101")
	require.NoError(t, err)
	assert.Equal(t, "check my balance", result.InputText)
	assert.Equal(t, "Your balance for account 101 is ₹5000.", result.ResponseText)
	assert.NotEmpty(t, result.AudioBase64)
	assert.Contains(t, result.AudioURL, "/tts/tts_")
}

func TestVoiceExchangeEmptyTranscript(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcript = ""
	classified := false
	f.classifier.fn = func(ctx context.Context, text string) (dialogue.Classification, error) {
		classified = true
		return dialogue.Classification{}, nil
	}

	result, err := f.svc.VoiceExchange(context.Background(), []byte("wav"), "audio/wav", "sess", "101")
	require.NoError(t, err)
	assert.False(t, classified)
	assert.Equal(t, dialogue.IntentSmalltalk, result.Intent)
	assert.Equal(t, "I'm here to help you. Could you please clarify?", result.ResponseText)
}

func TestVoiceExchangeEmptyAudio(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.VoiceExchange(context.Background(), nil, "audio/wav", "sess", "101")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestVoiceExchangeSynthesisFailureKeepsText(t *testing.T) {
	f := newFixture(t)
	f.transcriber.transcript = "hello"
	f.synthesizer.err = errors.New("tts offline")

	result, err := f.svc.VoiceExchange(context.Background(), []byte("wav"), "audio/wav", "sess", "101")
	require.NoError(t, err)
	assert.NotEmpty(t, result.ResponseText)
	assert.Empty(t, result.AudioBase64)
	assert.Empty(t, result.AudioURL)
}

func TestInteractionsLogged(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ClassifyAndRespond(context.Background(), "hello", "sess", "101")
	require.NoError(t, err)

	records := f.interactions.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "hello", records[0].InputText)
	assert.Equal(t, dialogue.IntentSmalltalk, records[0].Intent)
}
