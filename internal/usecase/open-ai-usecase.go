package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/internal/persona"
	openai_tools "github.com/iamvkosarev/bot-console/pkg/openai-tools"
)

const (
	OpenAIRoleSystem    = openai.ChatMessageRoleSystem
	OpenAIRoleUser      = openai.ChatMessageRoleUser
	OpenAIRoleAssistant = openai.ChatMessageRoleAssistant
)

var (
	ErrCredentialMissing = errors.New("openai api key is not configured")
	ErrUnauthorized      = errors.New("openai credential rejected")
	ErrRateLimited       = errors.New("openai rate limit exceeded")
	ErrQuotaExceeded     = errors.New("openai quota exceeded")
	ErrEmptyResponse     = errors.New("openai returned empty completion")
	ErrTransport         = errors.New("openai request failed")
)

type OpenAIUsecase struct {
	cfg      config.OpenAI
	client   *openai.Client
	personas *persona.Registry
}

// NewOpenAIUsecase expects cfg.OpenAIBaseURL to already include the api version path.
func NewOpenAIUsecase(cfg config.OpenAI, personas *persona.Registry) *OpenAIUsecase {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	clientConfig.BaseURL = cfg.OpenAIBaseURL
	return &OpenAIUsecase{
		cfg:      cfg,
		client:   openai.NewClientWithConfig(clientConfig),
		personas: personas,
	}
}

// Complete sends one chat completion request. The last history element is the
// message being answered. Returned errors wrap one of the Err* classifications.
func (o *OpenAIUsecase) Complete(
	ctx context.Context,
	history []model.Message,
	p model.Persona,
	temperature float32,
) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	messages = append(
		messages, openai.ChatCompletionMessage{
			Role:    OpenAIRoleSystem,
			Content: o.personas.Instruction(p),
		},
	)
	for _, message := range history {
		messages = append(
			messages, openai.ChatCompletionMessage{
				Role:    parseMessageRoleToOpenAIRole(message.Role),
				Content: message.Text,
			},
		)
	}
	o.warnOnLongHistory(messages)

	req := openai.ChatCompletionRequest{
		Model:            o.cfg.OpenAIModel,
		Messages:         messages,
		Temperature:      temperature,
		MaxTokens:        o.cfg.MaxTokens,
		TopP:             1,
		N:                1,
		PresencePenalty:  0,
		FrequencyPenalty: 0,
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// Probe checks that the credential is accepted with a single models listing.
func (o *OpenAIUsecase) Probe(ctx context.Context) error {
	if _, err := o.client.ListModels(ctx); err != nil {
		return classifyOpenAIError(err)
	}
	return nil
}

// warnOnLongHistory only reports growth. History is sent unabridged.
func (o *OpenAIUsecase) warnOnLongHistory(messages []openai.ChatCompletionMessage) {
	if o.cfg.HistoryTokenWarning <= 0 {
		return
	}
	tokenCount, err := openai_tools.CountToken(messages, o.cfg.OpenAIModel)
	if err != nil {
		log.Printf("WARN: failed to count prompt tokens: %v", err)
		return
	}
	if tokenCount > o.cfg.HistoryTokenWarning {
		log.Printf(
			"WARN: prompt is %d tokens (threshold %d), conversation history is sent without truncation",
			tokenCount, o.cfg.HistoryTokenWarning,
		)
	}
}

func classifyOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Message)
		case isQuotaError(apiErr):
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		default:
			return fmt.Errorf("%w: status %d: %s", ErrTransport, apiErr.HTTPStatusCode, apiErr.Message)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.HTTPStatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %v", ErrUnauthorized, reqErr)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", ErrRateLimited, reqErr)
		default:
			return fmt.Errorf("%w: %v", ErrTransport, reqErr)
		}
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

func isQuotaError(apiErr *openai.APIError) bool {
	if apiErr.Type == "insufficient_quota" || fmt.Sprint(apiErr.Code) == "insufficient_quota" {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Message), "quota")
}

func parseMessageRoleToOpenAIRole(role model.MessageRole) string {
	switch role {
	case model.MessageRoleAssistant:
		return OpenAIRoleAssistant
	default:
		return OpenAIRoleUser
	}
}
