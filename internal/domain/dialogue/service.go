package dialogue

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/voicebank/internal/domain/faq"
	"github.com/yanqian/voicebank/internal/domain/ledger"
	apperrors "github.com/yanqian/voicebank/pkg/errors"
)

// Canned replies and user-facing messages. Wording is part of the product
// surface; tests pin several of these.
const (
	msgGreeting       = "Hello! How can I assist you today?"
	msgGoodbye        = "Goodbye! Take care!"
	msgSmalltalk      = "I'm here to help you. Could you please clarify?"
	msgNeedAccountID  = "Please provide your account ID."
	msgUnauthorized   = "You are not authorized to access another user's account."
	msgAskDeposit     = "How much would you like to deposit?"
	msgAskWithdraw    = "How much would you like to withdraw?"
	msgInsufficient   = "Insufficient balance."
	msgAskQuestion    = "Please tell me your question."
	msgSuggestSave    = "I don't have an exact answer for that. Would you like me to save this question for review?"
	msgNothingToSave  = "No question found to save. Please re-state the question."
	msgDuplicateSaved = "This question already exists in the FAQ list."
	msgQuestionSaved  = "Your question has been saved for review. We'll add an answer soon."
	msgFallback       = "Let me help you with that."
)

// Service routes classified utterances to account operations, FAQ lookup and
// the pending-question workflow.
type Service interface {
	// Respond routes an already classified utterance.
	Respond(ctx context.Context, req RespondRequest) (Reply, error)
	// ClassifyAndRespond combines the hosted classifier with routing and
	// parks unanswered questions in the pending store.
	ClassifyAndRespond(ctx context.Context, text, sessionID, callerAccountID string) (ExchangeResult, error)
	// VoiceExchange transcribes audio, runs ClassifyAndRespond and
	// synthesizes the spoken reply.
	VoiceExchange(ctx context.Context, audio []byte, contentType, sessionID, callerAccountID string) (VoiceResult, error)
	// ConfirmSave persists the pending (or restated) question as an FAQ
	// record. Exposed separately for callers that bypass classification.
	ConfirmSave(ctx context.Context, rawText, sessionID string) (string, error)
}

type service struct {
	cfg          faq.Config
	classifier   Classifier
	faqs         faq.Repository
	accounts     ledger.Repository
	pending      PendingStore
	transcriber  Transcriber
	synthesizer  Synthesizer
	clips        AudioStore
	interactions InteractionRepository
	logger       *slog.Logger
}

// NewService wires up the dialogue orchestrator.
func NewService(
	cfg faq.Config,
	classifier Classifier,
	faqs faq.Repository,
	accounts ledger.Repository,
	pending PendingStore,
	transcriber Transcriber,
	synthesizer Synthesizer,
	clips AudioStore,
	interactions InteractionRepository,
	logger *slog.Logger,
) Service {
	return &service{
		cfg:          cfg,
		classifier:   classifier,
		faqs:         faqs,
		accounts:     accounts,
		pending:      pending,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		clips:        clips,
		interactions: interactions,
		logger:       logger.With("component", "dialogue.service"),
	}
}

func (s *service) Respond(ctx context.Context, req RespondRequest) (Reply, error) {
	switch req.Intent {
	case IntentGreeting:
		return plain(msgGreeting), nil
	case IntentGoodbye:
		return plain(msgGoodbye), nil
	case IntentSmalltalk:
		return plain(msgSmalltalk), nil
	case IntentCheckBalance, IntentDeposit, IntentWithdraw, IntentGetOwner, IntentAccountDetails:
		return s.accountOperation(ctx, req)
	case IntentFAQ:
		return s.answerQuestion(ctx, req)
	case IntentSaveQuestion:
		message, err := s.saveQuestion(ctx, req.Entities.Question, req.Text, req.SessionID)
		if err != nil {
			return Reply{}, err
		}
		return plain(message), nil
	}
	if looksLikeQuestion(req.Text) {
		return s.answerQuestion(ctx, req)
	}
	return plain(msgFallback), nil
}

func (s *service) accountOperation(ctx context.Context, req RespondRequest) (Reply, error) {
	accountID := strings.TrimSpace(req.Entities.AccountID)
	// Free-text-extracted identifiers never override the authenticated
	// binding for cross-account access.
	if accountID != "" && req.CallerAccountID != "" && accountID != req.CallerAccountID {
		return plain(msgUnauthorized), nil
	}
	if accountID == "" {
		accountID = req.CallerAccountID
	}
	if accountID == "" {
		return plain(msgNeedAccountID), nil
	}

	switch req.Intent {
	case IntentDeposit:
		if req.Entities.Amount == nil {
			return plain(msgAskDeposit), nil
		}
		return s.applyDelta(ctx, accountID, *req.Entities.Amount, true)
	case IntentWithdraw:
		if req.Entities.Amount == nil {
			return plain(msgAskWithdraw), nil
		}
		return s.applyDelta(ctx, accountID, -*req.Entities.Amount, false)
	}

	account, found, err := s.accounts.FindByAccountID(ctx, accountID)
	if err != nil {
		return Reply{}, apperrors.Wrap("storage_error", "account lookup failed", err)
	}
	if !found {
		return plain("I could not find account " + accountID + ". Please check the ID."), nil
	}

	switch req.Intent {
	case IntentCheckBalance:
		return plain("Your balance for account " + account.AccountID + " is ₹" + formatAmount(account.Balance) + "."), nil
	case IntentGetOwner:
		return plain("The owner of account " + account.AccountID + " is " + account.Name + "."), nil
	default: // IntentAccountDetails
		text := "Account ID: " + account.AccountID +
			"\nName: " + account.Name +
			"\nBalance: ₹" + formatAmount(account.Balance) +
			"\nStatus: " + string(account.Status)
		return plain(text), nil
	}
}

func (s *service) applyDelta(ctx context.Context, accountID string, delta float64, deposit bool) (Reply, error) {
	_, found, err := s.accounts.FindByAccountID(ctx, accountID)
	if err != nil {
		return Reply{}, apperrors.Wrap("storage_error", "account lookup failed", err)
	}
	if !found {
		return plain("I could not find account " + accountID + ". Please check the ID."), nil
	}
	balance, err := s.accounts.ApplyDelta(ctx, accountID, delta)
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		return plain(msgInsufficient), nil
	case errors.Is(err, ledger.ErrAccountNotFound):
		return plain("I could not find account " + accountID + ". Please check the ID."), nil
	case err != nil:
		return Reply{}, apperrors.Wrap("storage_error", "balance update failed", err)
	}
	amount := formatAmount(delta)
	if deposit {
		return plain("Successfully deposited ₹" + amount + ". New balance is ₹" + formatAmount(balance) + "."), nil
	}
	return plain("Successfully withdrew ₹" + formatAmount(-delta) + ". Remaining balance is ₹" + formatAmount(balance) + "."), nil
}

func (s *service) answerQuestion(ctx context.Context, req RespondRequest) (Reply, error) {
	question := strings.TrimSpace(req.Entities.Question)
	if question == "" {
		question = strings.TrimSpace(req.Text)
	}
	if question == "" {
		return plain(msgAskQuestion), nil
	}
	candidates, err := s.faqs.FindAll(ctx, s.cfg.CandidateLimit)
	if err != nil {
		return Reply{}, apperrors.Wrap("storage_error", "faq listing failed", err)
	}
	if record, ok := faq.Match(question, candidates, s.cfg); ok {
		return plain(record.Answer), nil
	}
	return Reply{Kind: ReplySuggestSave, Text: msgSuggestSave}, nil
}

// saveQuestion resolves the question (entity, then raw text, then pending
// entry), suppresses duplicates on normalized whole-string equality and
// clears the pending entry once handled. The "nothing to save" case is a
// user-visible message, not an error.
func (s *service) saveQuestion(ctx context.Context, entityQuestion, rawText, sessionID string) (string, error) {
	question := strings.TrimSpace(entityQuestion)
	if question == "" {
		question = strings.TrimSpace(rawText)
	}
	if question == "" && sessionID != "" {
		stored, ok, err := s.pending.Get(ctx, sessionID)
		if err != nil {
			return "", apperrors.Wrap("storage_error", "pending question lookup failed", err)
		}
		if ok {
			question = stored
		}
	}
	if question == "" {
		return msgNothingToSave, nil
	}

	_, exists, err := s.faqs.FindExact(ctx, question)
	if err != nil {
		return "", apperrors.Wrap("storage_error", "faq lookup failed", err)
	}
	if exists {
		s.clearPending(ctx, sessionID)
		return msgDuplicateSaved, nil
	}
	if err := s.faqs.Insert(ctx, question, faq.PlaceholderAnswer); err != nil {
		return "", apperrors.Wrap("storage_error", "faq insert failed", err)
	}
	s.clearPending(ctx, sessionID)
	return msgQuestionSaved, nil
}

func (s *service) ClassifyAndRespond(ctx context.Context, text, sessionID, callerAccountID string) (ExchangeResult, error) {
	input := strings.TrimSpace(text)
	if input == "" {
		return ExchangeResult{}, apperrors.Wrap("invalid_input", "text cannot be empty", nil)
	}

	classification, err := s.classifier.Classify(ctx, input)
	if err != nil {
		// The classifier already degrades internally; this is the last
		// line of defense so the bot stays responsive.
		s.logger.Warn("classifier failed, degrading to smalltalk", "error", err)
		classification = Classification{Intent: IntentSmalltalk}
	}

	reply, err := s.Respond(ctx, RespondRequest{
		Text:            input,
		Intent:          classification.Intent,
		Entities:        classification.Entities,
		CallerAccountID: callerAccountID,
		SessionID:       sessionID,
	})
	if err != nil {
		return ExchangeResult{}, err
	}

	if reply.Kind == ReplySuggestSave && sessionID != "" {
		if err := s.pending.Set(ctx, sessionID, input); err != nil {
			s.logger.Warn("pending question save failed", "session", sessionID, "error", err)
		}
	}

	s.logInteraction(ctx, input, classification.Intent, reply.Text)

	return ExchangeResult{
		InputText:    input,
		Intent:       classification.Intent,
		Entities:     classification.Entities,
		ResponseText: reply.Text,
		SuggestSave:  reply.Kind == ReplySuggestSave,
		TokenUsage:   classification.Usage,
	}, nil
}

func (s *service) VoiceExchange(ctx context.Context, audio []byte, contentType, sessionID, callerAccountID string) (VoiceResult, error) {
	if len(audio) == 0 {
		return VoiceResult{}, apperrors.Wrap("invalid_input", "audio cannot be empty", nil)
	}
	transcript, err := s.transcriber.Transcribe(ctx, audio, contentType)
	if err != nil {
		s.logger.Warn("transcription failed, proceeding with empty transcript", "error", err)
		transcript = ""
	}
	transcript = strings.TrimSpace(transcript)

	var exchange ExchangeResult
	if transcript == "" {
		// Nothing recognizable: stay on the smalltalk path instead of
		// failing the call.
		exchange = ExchangeResult{Intent: IntentSmalltalk, ResponseText: msgSmalltalk}
	} else {
		exchange, err = s.ClassifyAndRespond(ctx, transcript, sessionID, callerAccountID)
		if err != nil {
			return VoiceResult{}, err
		}
	}

	result := VoiceResult{ExchangeResult: exchange}
	speech, err := s.synthesizer.Synthesize(ctx, exchange.ResponseText)
	if err != nil || len(speech) == 0 {
		if err != nil {
			s.logger.Warn("speech synthesis failed", "error", err)
		}
		return result, nil
	}
	result.AudioBase64 = base64.StdEncoding.EncodeToString(speech)

	name := "tts_" + uuid.NewString() + ".mp3"
	url, err := s.clips.Save(ctx, name, speech, "audio/mpeg")
	if err != nil {
		s.logger.Warn("clip store failed", "clip", name, "error", err)
		return result, nil
	}
	result.AudioURL = url
	return result, nil
}

func (s *service) ConfirmSave(ctx context.Context, rawText, sessionID string) (string, error) {
	entityQuestion := ""
	text := strings.TrimSpace(rawText)
	if text != "" {
		// The caller may have restated the question; let the classifier
		// pull it out the same way the chat path would.
		if classification, err := s.classifier.Classify(ctx, text); err == nil {
			entityQuestion = classification.Entities.Question
		}
	}
	message, err := s.saveQuestion(ctx, entityQuestion, text, sessionID)
	if err != nil {
		return "", err
	}
	if message == msgNothingToSave {
		return "", apperrors.Wrap("nothing_to_save", msgNothingToSave, nil)
	}
	s.logInteraction(ctx, text, IntentSaveQuestion, message)
	return message, nil
}

func (s *service) clearPending(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}
	if err := s.pending.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("pending question clear failed", "session", sessionID, "error", err)
	}
}

func (s *service) logInteraction(ctx context.Context, input string, intent Intent, response string) {
	record := InteractionRecord{
		ID:           uuid.NewString(),
		InputText:    input,
		Intent:       intent,
		ResponseText: response,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.interactions.Insert(ctx, record); err != nil {
		s.logger.Warn("interaction log failed", "error", err)
	}
}

// interrogatives are the question openers recognized by the fallback
// heuristic.
var interrogatives = map[string]struct{}{
	"what": {}, "how": {}, "why": {}, "when": {}, "where": {}, "who": {}, "which": {},
}

// looksLikeQuestion reports whether free text is question-shaped: it ends
// with a question mark or opens with an interrogative word.
func looksLikeQuestion(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if trimmed == "" {
		return false
	}
	if strings.HasSuffix(trimmed, "?") {
		return true
	}
	first, _, _ := strings.Cut(trimmed, " ")
	_, ok := interrogatives[first]
	return ok
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
