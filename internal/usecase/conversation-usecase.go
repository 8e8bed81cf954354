package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
)

type ConversationUsecaseDeps struct {
	Bot      *BotUsecase
	Fallback *FallbackUsecase
	// Remote is nil when no credential is configured.
	Remote CompletionClient
}

type ConversationUsecase struct {
	ConversationUsecaseDeps
	cfg         config.Conversation
	temperature float32
	now         func() time.Time

	mu            sync.RWMutex
	conversations map[uuid.UUID]*Conversation
}

func NewConversationUsecase(
	deps ConversationUsecaseDeps,
	cfg config.Conversation,
	temperature float32,
) *ConversationUsecase {
	return &ConversationUsecase{
		ConversationUsecaseDeps: deps,
		cfg:                     cfg,
		temperature:             temperature,
		now:                     time.Now,
		conversations:           make(map[uuid.UUID]*Conversation),
	}
}

// OpenConversation starts a chat with the bot, seeded with its greeting, and
// probes the remote client once.
func (c *ConversationUsecase) OpenConversation(ctx context.Context, botID uuid.UUID) (*Conversation, error) {
	bot, err := c.Bot.GetBot(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot %s: %w", botID, err)
	}

	conversation := newConversation(bot, c.Remote, c.Fallback, c.cfg, c.temperature, c.now)
	availability, err := conversation.probe(ctx)
	if err != nil {
		return nil, err
	}
	log.Printf("Opened conversation %s with %s, remote %s", conversation.ID(), bot.Name, availability)

	c.mu.Lock()
	c.conversations[conversation.ID()] = conversation
	c.mu.Unlock()
	return conversation, nil
}

func (c *ConversationUsecase) GetConversation(conversationID uuid.UUID) (*Conversation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conversation, ok := c.conversations[conversationID]
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conversation, nil
}

func (c *ConversationUsecase) SendMessage(
	ctx context.Context,
	conversationID uuid.UUID,
	text string,
) (model.Message, error) {
	conversation, err := c.GetConversation(conversationID)
	if err != nil {
		return model.Message{}, err
	}
	reply, err := conversation.Send(ctx, text)
	if err != nil {
		return model.Message{}, err
	}
	if _, err = c.Bot.TouchBot(ctx, conversation.Bot().BotID); err != nil {
		log.Printf("WARN: failed to touch bot %s: %v", conversation.Bot().BotID, err)
	}
	return reply, nil
}

func (c *ConversationUsecase) RecheckConversation(
	ctx context.Context,
	conversationID uuid.UUID,
) (model.RemoteAvailability, error) {
	conversation, err := c.GetConversation(conversationID)
	if err != nil {
		return model.RemoteAvailabilityUnknown, err
	}
	return conversation.Recheck(ctx)
}

func (c *ConversationUsecase) CloseConversation(conversationID uuid.UUID) error {
	c.mu.Lock()
	conversation, ok := c.conversations[conversationID]
	delete(c.conversations, conversationID)
	c.mu.Unlock()
	if !ok {
		return ErrConversationNotFound
	}
	conversation.Close()
	return nil
}

// CloseBotConversations closes every conversation with the bot.
func (c *ConversationUsecase) CloseBotConversations(botID uuid.UUID) int {
	c.mu.Lock()
	closing := make([]*Conversation, 0)
	for id, conversation := range c.conversations {
		if conversation.Bot().BotID == botID {
			closing = append(closing, conversation)
			delete(c.conversations, id)
		}
	}
	c.mu.Unlock()
	for _, conversation := range closing {
		conversation.Close()
	}
	return len(closing)
}
