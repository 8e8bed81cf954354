package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/pkg/local"
)

const credentialCheckMessage = "Hello"

var (
	textCredentialNotConfigured = local.NewSet(
		"API key not found. Set OPENAI_API_KEY in your environment or .env file.",
		local.NewTrans(local.Rus, "API ключ не найден. Укажите OPENAI_API_KEY в окружении или в файле .env."),
	)
	textCredentialChecking = local.NewSet(
		"Testing API connection...",
		local.NewTrans(local.Rus, "Проверяем подключение к API..."),
	)
	textCredentialValid = local.NewSet(
		"API key is valid and working!",
		local.NewTrans(local.Rus, "API ключ действителен и работает!"),
	)
	textCredentialUnauthorized = local.NewSet(
		"Invalid API key. Please check your credentials.",
		local.NewTrans(local.Rus, "Неверный API ключ. Проверьте учётные данные."),
	)
	textCredentialRateLimited = local.NewSet(
		"Rate limit exceeded. Please try again later.",
		local.NewTrans(local.Rus, "Превышен лимит запросов. Попробуйте позже."),
	)
	textCredentialQuotaExceeded = local.NewSet(
		"API quota exceeded. Please add credits to your account.",
		local.NewTrans(local.Rus, "Квота API исчерпана. Пополните баланс аккаунта."),
	)
	textCredentialEmptyResponse = local.NewSet(
		"API responded but with empty content. Check your API key.",
		local.NewTrans(local.Rus, "API ответил пустым содержимым. Проверьте API ключ."),
	)
	textCredentialFailed = local.NewSet(
		"API test failed: %v",
		local.NewTrans(local.Rus, "Проверка API не удалась: %v"),
	)
)

type CredentialUsecaseDeps struct {
	// Remote is nil when no credential is configured.
	Remote CompletionClient
}

// CredentialUsecase tests the configured credential with one real completion
// and reports the outcome as diagnostic text.
type CredentialUsecase struct {
	CredentialUsecaseDeps
	cfg config.OpenAI
	now func() time.Time

	mu       sync.Mutex
	checking bool
	last     credentialResult
}

type credentialResult struct {
	status    model.CredentialStatus
	err       error
	checkedAt time.Time
}

func NewCredentialUsecase(deps CredentialUsecaseDeps, cfg config.OpenAI) *CredentialUsecase {
	c := &CredentialUsecase{
		CredentialUsecaseDeps: deps,
		cfg:                   cfg,
		now:                   time.Now,
	}
	c.last = credentialResult{status: model.CredentialStatusNotConfigured}
	if deps.Remote != nil {
		// reported as checking until the first Validate completes
		c.last = credentialResult{status: model.CredentialStatusChecking}
	}
	return c
}

// Status reports the last outcome, or checking while a check is running.
func (c *CredentialUsecase) Status(lang local.Language) model.CredentialReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.checking {
		return c.checkingReport(lang)
	}
	return c.report(c.last, lang)
}

// Validate runs a check. A call made while another check is running returns
// the checking report without a second request.
func (c *CredentialUsecase) Validate(ctx context.Context, lang local.Language) model.CredentialReport {
	if c.Remote == nil {
		c.mu.Lock()
		c.last = credentialResult{status: model.CredentialStatusNotConfigured, err: ErrCredentialMissing, checkedAt: c.now()}
		report := c.report(c.last, lang)
		c.mu.Unlock()
		return report
	}

	c.mu.Lock()
	if c.checking {
		report := c.checkingReport(lang)
		c.mu.Unlock()
		return report
	}
	c.checking = true
	c.mu.Unlock()

	history := []model.Message{
		model.NewMessage(model.MessageRoleUser, credentialCheckMessage, c.now(), model.ReplyOriginNone),
	}
	if c.cfg.CheckTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.CheckTimeout)
		defer cancel()
	}
	result := credentialResult{status: model.CredentialStatusValid}
	if _, err := c.Remote.Complete(ctx, history, model.PersonaSupport, c.cfg.ProbeTemperature); err != nil {
		result = credentialResult{status: model.CredentialStatusInvalid, err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	result.checkedAt = c.now()
	c.last = result
	c.checking = false
	return c.report(result, lang)
}

func (c *CredentialUsecase) checkingReport(lang local.Language) model.CredentialReport {
	return model.CredentialReport{
		Status:    model.CredentialStatusChecking,
		Message:   textCredentialChecking.Text(lang),
		CheckedAt: c.last.checkedAt,
	}
}

func (c *CredentialUsecase) report(result credentialResult, lang local.Language) model.CredentialReport {
	return model.CredentialReport{
		Status:    result.status,
		Message:   credentialMessage(result, lang),
		CheckedAt: result.checkedAt,
	}
}

func credentialMessage(result credentialResult, lang local.Language) string {
	switch result.status {
	case model.CredentialStatusNotConfigured:
		return textCredentialNotConfigured.Text(lang)
	case model.CredentialStatusValid:
		return textCredentialValid.Text(lang)
	case model.CredentialStatusChecking:
		return textCredentialChecking.Text(lang)
	}

	switch {
	case errors.Is(result.err, ErrUnauthorized):
		return textCredentialUnauthorized.Text(lang)
	case errors.Is(result.err, ErrRateLimited):
		return textCredentialRateLimited.Text(lang)
	case errors.Is(result.err, ErrQuotaExceeded):
		return textCredentialQuotaExceeded.Text(lang)
	case errors.Is(result.err, ErrEmptyResponse):
		return textCredentialEmptyResponse.Text(lang)
	default:
		return textCredentialFailed.Format(lang, result.err)
	}
}
