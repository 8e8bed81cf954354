package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/pkg/local"
)

type CredentialResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	CheckedAt int64  `json:"checked_at"`
}

func newCredentialResponse(report model.CredentialReport) CredentialResponse {
	return CredentialResponse{
		Status:    string(report.Status),
		Message:   report.Message,
		CheckedAt: unixMilli(report.CheckedAt),
	}
}

// GetCredentialStatus returns the last credential check.
// GET /api/credentials
func (h *Handler) GetCredentialStatus(c echo.Context) error {
	report := h.Credential.Status(requestLanguage(c))
	return c.JSON(http.StatusOK, newCredentialResponse(report))
}

// CheckCredential tests the configured credential with one completion.
// POST /api/credentials/check
func (h *Handler) CheckCredential(c echo.Context) error {
	report := h.Credential.Validate(c.Request().Context(), requestLanguage(c))
	return c.JSON(http.StatusOK, newCredentialResponse(report))
}

func requestLanguage(c echo.Context) local.Language {
	return local.ParseLanguage(c.Request().Header.Get("Accept-Language"))
}
