package v1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/internal/usecase"
)

type CreateBotRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ListBots lists all bots.
// GET /api/bots
func (h *Handler) ListBots(c echo.Context) error {
	bots, err := h.Bot.ListBots(c.Request().Context())
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	botList := make([]BotResponse, len(bots))
	for i, bot := range bots {
		botList[i] = newBotResponse(bot)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"bots": botList,
	})
}

// CreateBot registers a new idle bot.
// POST /api/bots
func (h *Handler) CreateBot(c echo.Context) error {
	var req CreateBotRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	bot, err := h.Bot.CreateBot(c.Request().Context(), req.Name, req.Type)
	switch {
	case errors.Is(err, usecase.ErrBotNameRequired):
		return errorJSON(c, http.StatusBadRequest, "name is required")
	case errors.Is(err, usecase.ErrBotNameTaken):
		return errorJSON(c, http.StatusConflict, err.Error())
	case err != nil:
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusCreated, newBotResponse(bot))
}

// GetBot gets a bot by ID.
// GET /api/bots/:bot_id
func (h *Handler) GetBot(c echo.Context) error {
	botID, ok := parseIDParam(c, "bot_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid bot_id")
	}
	bot, err := h.Bot.GetBot(c.Request().Context(), botID)
	if err != nil {
		return botError(c, err)
	}
	return c.JSON(http.StatusOK, newBotResponse(bot))
}

// DeleteBot removes a bot and closes its open conversations.
// DELETE /api/bots/:bot_id
func (h *Handler) DeleteBot(c echo.Context) error {
	botID, ok := parseIDParam(c, "bot_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid bot_id")
	}
	if err := h.Bot.DeleteBot(c.Request().Context(), botID); err != nil {
		return botError(c, err)
	}
	closed := h.Conversation.CloseBotConversations(botID)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"ok":                   true,
		"closed_conversations": closed,
	})
}

// StartBot marks a bot active.
// POST /api/bots/:bot_id/start
func (h *Handler) StartBot(c echo.Context) error {
	botID, ok := parseIDParam(c, "bot_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid bot_id")
	}
	bot, err := h.Bot.StartBot(c.Request().Context(), botID)
	if err != nil {
		return botError(c, err)
	}
	return c.JSON(http.StatusOK, newBotResponse(bot))
}

// StopBot marks a bot idle.
// POST /api/bots/:bot_id/stop
func (h *Handler) StopBot(c echo.Context) error {
	botID, ok := parseIDParam(c, "bot_id")
	if !ok {
		return errorJSON(c, http.StatusBadRequest, "invalid bot_id")
	}
	bot, err := h.Bot.StopBot(c.Request().Context(), botID)
	if err != nil {
		return botError(c, err)
	}
	return c.JSON(http.StatusOK, newBotResponse(bot))
}

func botError(c echo.Context, err error) error {
	if errors.Is(err, model.ErrBotDoesNotExist) {
		return errorJSON(c, http.StatusNotFound, "bot not found")
	}
	return errorJSON(c, http.StatusInternalServerError, err.Error())
}
