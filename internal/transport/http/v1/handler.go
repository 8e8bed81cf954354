// Package v1 provides the HTTP JSON API of the bot console.
package v1

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/internal/usecase"
)

type HandlerDeps struct {
	Bot          *usecase.BotUsecase
	Conversation *usecase.ConversationUsecase
	Credential   *usecase.CredentialUsecase
}

// Handler handles HTTP requests.
type Handler struct {
	HandlerDeps
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		HandlerDeps: deps,
	}
}

// RegisterRoutes registers routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	// Bot registry
	e.GET("/api/bots", h.ListBots)
	e.POST("/api/bots", h.CreateBot)
	e.GET("/api/bots/:bot_id", h.GetBot)
	e.DELETE("/api/bots/:bot_id", h.DeleteBot)
	e.POST("/api/bots/:bot_id/start", h.StartBot)
	e.POST("/api/bots/:bot_id/stop", h.StopBot)

	// Conversations
	e.POST("/api/bots/:bot_id/conversations", h.OpenConversation)
	e.GET("/api/conversations/:conversation_id", h.GetConversation)
	e.POST("/api/conversations/:conversation_id/messages", h.SendMessage)
	e.POST("/api/conversations/:conversation_id/recheck", h.RecheckConversation)
	e.DELETE("/api/conversations/:conversation_id", h.CloseConversation)

	// Credential validation
	e.GET("/api/credentials", h.GetCredentialStatus)
	e.POST("/api/credentials/check", h.CheckCredential)
}

// Health returns health status.
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
	})
}

type MessageResponse struct {
	MessageID string `json:"message_id"`
	Role      string `json:"role"`
	Text      string `json:"text"`
	Origin    string `json:"origin,omitempty"`
	CreatedAt int64  `json:"created_at"`
	Timestamp string `json:"timestamp"`
}

type BotResponse struct {
	BotID        string `json:"bot_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Persona      string `json:"persona"`
	Status       string `json:"status"`
	LastActivity int64  `json:"last_activity"`
}

func newMessageResponse(m model.Message) MessageResponse {
	return MessageResponse{
		MessageID: m.MessageID.String(),
		Role:      string(m.Role),
		Text:      m.Text,
		Origin:    string(m.Origin),
		CreatedAt: m.CreatedAt.UnixMilli(),
		Timestamp: m.Timestamp(),
	}
}

func newBotResponse(b model.Bot) BotResponse {
	return BotResponse{
		BotID:        b.BotID.String(),
		Name:         b.Name,
		Type:         b.Type,
		Persona:      b.Persona.String(),
		Status:       string(b.Status),
		LastActivity: b.LastActivity.UnixMilli(),
	}
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

func parseIDParam(c echo.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
