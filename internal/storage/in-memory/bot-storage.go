package in_memory

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/iamvkosarev/bot-console/internal/model"
)

var (
	ErrBotAlreadyExists = errors.New("bot already exists")
)

type BotStorage struct {
	mu   sync.RWMutex
	bots map[uuid.UUID]*model.Bot
}

func NewBotStorage() *BotStorage {
	return &BotStorage{
		bots: make(map[uuid.UUID]*model.Bot),
	}
}

func (b *BotStorage) CreateBot(_ context.Context, bot model.Bot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bots[bot.BotID]; ok {
		return ErrBotAlreadyExists
	}
	b.bots[bot.BotID] = &bot
	return nil
}

func (b *BotStorage) GetBot(_ context.Context, botID uuid.UUID) (model.Bot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bot, ok := b.bots[botID]
	if !ok {
		return model.Bot{}, model.ErrBotDoesNotExist
	}
	return *bot, nil
}

func (b *BotStorage) ListBots(_ context.Context) ([]model.Bot, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bots := make([]model.Bot, 0, len(b.bots))
	for _, bot := range b.bots {
		bots = append(bots, *bot)
	}
	return bots, nil
}

func (b *BotStorage) UpdateBot(_ context.Context, bot model.Bot) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bots[bot.BotID]; !ok {
		return model.ErrBotDoesNotExist
	}
	b.bots[bot.BotID] = &bot
	return nil
}

func (b *BotStorage) DeleteBot(_ context.Context, botID uuid.UUID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.bots[botID]; !ok {
		return model.ErrBotDoesNotExist
	}
	delete(b.bots, botID)
	return nil
}
