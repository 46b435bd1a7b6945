package http

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/voicebank/internal/domain/auth"
	"github.com/yanqian/voicebank/internal/domain/dialogue"
	apperrors "github.com/yanqian/voicebank/pkg/errors"
)

const maxAudioBytes = 10 << 20

// Handler wires the HTTP transport to domain services.
type Handler struct {
	dialogueSvc dialogue.Service
	authSvc     auth.Service
	clips       dialogue.AudioStore
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(dialogueSvc dialogue.Service, authSvc auth.Service, clips dialogue.AudioStore, logger *slog.Logger) *Handler {
	return &Handler{
		dialogueSvc: dialogueSvc,
		authSvc:     authSvc,
		clips:       clips,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health reports service liveness at the root path.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "voicebank"})
}

// Register opens a ledger account together with a login identity.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "register_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "username_exists"):
			status = http.StatusConflict
			code = "username_exists"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login exchanges credentials for a signed token.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "login_failed"
		switch {
		case apperrors.IsCode(err, "invalid_input"):
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.IsCode(err, "invalid_credentials"):
			status = http.StatusUnauthorized
			code = "invalid_credentials"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

type messageRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// Message runs one text exchange through the dialogue orchestrator.
func (h *Handler) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	result, err := h.dialogueSvc.ClassifyAndRespond(c.Request.Context(), req.Text, h.sessionID(c, req.SessionID), callerAccountID(c))
	if err != nil {
		abortWithError(c, exchangeError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

// Voice runs one spoken exchange: multipart audio in, transcript plus
// synthesized reply out.
func (h *Handler) Voice(c *gin.Context) {
	file, header, err := c.Request.FormFile("audio")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "audio file is required", err))
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "audio file unreadable", err))
		return
	}
	if len(audio) > maxAudioBytes {
		abortWithError(c, NewHTTPError(http.StatusRequestEntityTooLarge, "audio_too_large", "audio file exceeds the size limit", nil))
		return
	}

	contentType := header.Header.Get("Content-Type")
	result, err := h.dialogueSvc.VoiceExchange(c.Request.Context(), audio, contentType, h.sessionID(c, c.PostForm("sessionId")), callerAccountID(c))
	if err != nil {
		abortWithError(c, exchangeError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}

type saveQuestionRequest struct {
	Text      string `json:"text"`
	SessionID string `json:"sessionId"`
}

// SaveQuestion confirms saving the pending (or restated) question for
// admin review.
func (h *Handler) SaveQuestion(c *gin.Context) {
	var req saveQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	message, err := h.dialogueSvc.ConfirmSave(c.Request.Context(), req.Text, h.sessionID(c, req.SessionID))
	if err != nil {
		status := http.StatusInternalServerError
		code := "save_failed"
		if apperrors.IsCode(err, "nothing_to_save") {
			status = http.StatusBadRequest
			code = "nothing_to_save"
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// ServeClip streams a previously synthesized audio clip.
func (h *Handler) ServeClip(c *gin.Context) {
	name := c.Param("clip")
	if name == "" || strings.ContainsAny(name, "/\\") {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "invalid clip name", nil))
		return
	}

	data, contentType, err := h.clips.Get(c.Request.Context(), name)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusNotFound, "clip_not_found", "audio clip not found", err))
		return
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	c.Data(http.StatusOK, contentType, data)
}

// sessionID resolves the conversation session from the body value, the
// query string or the X-Session-Id header, falling back to the caller's
// account so anonymous clients still get pending-question continuity.
func (h *Handler) sessionID(c *gin.Context, bodyValue string) string {
	if v := strings.TrimSpace(bodyValue); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.Query("sessionId")); v != "" {
		return v
	}
	if v := strings.TrimSpace(c.GetHeader("X-Session-Id")); v != "" {
		return v
	}
	return callerAccountID(c)
}

func callerAccountID(c *gin.Context) string {
	claims, ok := getClaims(c)
	if !ok {
		return ""
	}
	return claims.AccountID
}

func exchangeError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "exchange_failed"
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status = http.StatusBadRequest
		code = "invalid_request"
	case apperrors.IsCode(err, "storage_error"):
		status = http.StatusInternalServerError
		code = "storage_error"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
