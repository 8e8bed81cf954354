package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/internal/usecase"
)

type SendMessageRequest struct {
	Text string `json:"text"`
}

type ConversationResponse struct {
	ConversationID string            `json:"conversation_id"`
	Bot            BotResponse       `json:"bot"`
	State          string            `json:"state"`
	Availability   string            `json:"availability"`
	Pending        bool              `json:"pending"`
	Demotions      int               `json:"demotions"`
	Messages       []MessageResponse `json:"messages"`
}

func newConversationResponse(snapshot usecase.ConversationSnapshot) ConversationResponse {
	messages := make([]MessageResponse, len(snapshot.History))
	for i, message := range snapshot.History {
		messages[i] = newMessageResponse(message)
	}
	return ConversationResponse{
		ConversationID: snapshot.ConversationID.String(),
		Bot:            newBotResponse(snapshot.Bot),
		State:          string(snapshot.State),
		Availability:   string(snapshot.Availability),
		Pending:        snapshot.Phase == model.ConversationPhaseAwaitingReply,
		Demotions:      snapshot.Demotions,
		Messages:       messages,
	}
}

// OpenConversation opens a chat with a bot.
// POST /api/bots/:bot_id/conversations
func (h *Handler) OpenConversation(c echo.Context) error {
	botID, ok := parseIDParam(c, "bot_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid bot_id")
	}
	conversation, err := h.Conversation.OpenConversation(c.Request().Context(), botID)
	if err != nil {
		return botError(c, err)
	}
	return c.JSON(http.StatusCreated, newConversationResponse(conversation.Snapshot()))
}

// GetConversation returns the conversation with its history.
// GET /api/conversations/:conversation_id
func (h *Handler) GetConversation(c echo.Context) error {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid conversation_id")
	}
	conversation, err := h.Conversation.GetConversation(conversationID)
	if err != nil {
		return conversationError(c, err)
	}
	return c.JSON(http.StatusOK, newConversationResponse(conversation.Snapshot()))
}

// SendMessage sends a user message and returns the assistant reply.
// POST /api/conversations/:conversation_id/messages
func (h *Handler) SendMessage(c echo.Context) error {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid conversation_id")
	}
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	reply, err := h.Conversation.SendMessage(c.Request().Context(), conversationID, req.Text)
	if err != nil {
		return conversationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"reply": newMessageResponse(reply),
	})
}

// RecheckConversation probes the remote client again.
// POST /api/conversations/:conversation_id/recheck
func (h *Handler) RecheckConversation(c echo.Context) error {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid conversation_id")
	}
	availability, err := h.Conversation.RecheckConversation(c.Request().Context(), conversationID)
	if err != nil {
		return conversationError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"availability": string(availability),
	})
}

// CloseConversation discards a conversation.
// DELETE /api/conversations/:conversation_id
func (h *Handler) CloseConversation(c echo.Context) error {
	conversationID, ok := parseIDParam(c, "conversation_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid conversation_id")
	}
	if err := h.Conversation.CloseConversation(conversationID); err != nil {
		return conversationError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func conversationError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, usecase.ErrEmptyMessage):
		return errorJSON(c, http.StatusBadRequest, "text is required")
	case errors.Is(err, usecase.ErrReplyPending):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, usecase.ErrConversationNotFound), errors.Is(err, usecase.ErrConversationClosed):
		return errorJSON(c, http.StatusNotFound, "conversation not found")
	default:
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
}
