package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/bot-console/internal/model"
)

const botsKey = "bots"

var (
	ErrBotAlreadyExists = errors.New("bot already exists")
)

type botInternal struct {
	BotID        string `json:"bot_id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	LastActivity int64  `json:"last_activity"`
}

type BotStorage struct {
	rdb *redis.Client
}

func NewBotStorage(rdb *redis.Client) *BotStorage {
	return &BotStorage{
		rdb: rdb,
	}
}

func (b *BotStorage) CreateBot(ctx context.Context, bot model.Bot) error {
	exists, err := b.rdb.Exists(ctx, getBotIDKey(bot.BotID)).Result()
	if err != nil {
		return fmt.Errorf("failed to check bot %s: %w", bot.BotID, err)
	}
	if exists > 0 {
		return ErrBotAlreadyExists
	}
	if err = b.setBotInt(ctx, bot.BotID, toBotInternal(bot)); err != nil {
		return fmt.Errorf("failed to set bot internal %s: %w", bot.BotID, err)
	}
	if err = b.rdb.SAdd(ctx, botsKey, bot.BotID.String()).Err(); err != nil {
		return fmt.Errorf("failed to add bot %s to index: %w", bot.BotID, err)
	}
	return nil
}

func (b *BotStorage) GetBot(ctx context.Context, botID uuid.UUID) (model.Bot, error) {
	botInt, err := b.getBotInt(ctx, botID)
	if err != nil {
		return model.Bot{}, err
	}
	return fromBotInternal(botID, botInt), nil
}

func (b *BotStorage) ListBots(ctx context.Context) ([]model.Bot, error) {
	botIDs, err := b.rdb.SMembers(ctx, botsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get bot ids: %w", err)
	}
	bots := make([]model.Bot, 0, len(botIDs))
	for _, botIDStr := range botIDs {
		botID, err := uuid.Parse(botIDStr)
		if err != nil {
			return nil, fmt.Errorf("failed to parse botID %s: %w", botIDStr, err)
		}
		bot, err := b.GetBot(ctx, botID)
		if err != nil {
			if errors.Is(err, model.ErrBotDoesNotExist) {
				continue
			}
			return nil, err
		}
		bots = append(bots, bot)
	}
	return bots, nil
}

func (b *BotStorage) UpdateBot(ctx context.Context, bot model.Bot) error {
	if _, err := b.getBotInt(ctx, bot.BotID); err != nil {
		return err
	}
	if err := b.setBotInt(ctx, bot.BotID, toBotInternal(bot)); err != nil {
		return fmt.Errorf("failed to set bot internal %s: %w", bot.BotID, err)
	}
	return nil
}

func (b *BotStorage) DeleteBot(ctx context.Context, botID uuid.UUID) error {
	deleted, err := b.rdb.Del(ctx, getBotIDKey(botID)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete bot %s: %w", botID, err)
	}
	if err = b.rdb.SRem(ctx, botsKey, botID.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove bot %s from index: %w", botID, err)
	}
	if deleted == 0 {
		return model.ErrBotDoesNotExist
	}
	return nil
}

func (b *BotStorage) getBotInt(ctx context.Context, botID uuid.UUID) (botInternal, error) {
	botIntRaw, err := b.rdb.Get(ctx, getBotIDKey(botID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return botInternal{}, model.ErrBotDoesNotExist
		}
		return botInternal{}, fmt.Errorf("failed to get bot %s: %w", botID, err)
	}
	var botInt botInternal
	if err = json.Unmarshal([]byte(botIntRaw), &botInt); err != nil {
		return botInternal{}, fmt.Errorf("failed to unmarshal bot %s: %w", botID, err)
	}
	return botInt, nil
}

func (b *BotStorage) setBotInt(ctx context.Context, botID uuid.UUID, botInt botInternal) error {
	botIntJSON, err := json.Marshal(botInt)
	if err != nil {
		return fmt.Errorf("failed to marshal internal bot: %w", err)
	}
	botIDKey := getBotIDKey(botID)
	if err = b.rdb.Set(ctx, botIDKey, botIntJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to save botInternal %s: %w", botIDKey, err)
	}
	return nil
}

func toBotInternal(bot model.Bot) botInternal {
	return botInternal{
		BotID:        bot.BotID.String(),
		Name:         bot.Name,
		Type:         bot.Type,
		Status:       string(bot.Status),
		LastActivity: bot.LastActivity.UnixMilli(),
	}
}

// fromBotInternal resolves the persona from the stored type label.
func fromBotInternal(botID uuid.UUID, botInt botInternal) model.Bot {
	return model.Bot{
		BotID:        botID,
		Name:         botInt.Name,
		Type:         botInt.Type,
		Persona:      model.ParsePersona(botInt.Type),
		Status:       model.ParseBotStatus(botInt.Status),
		LastActivity: time.UnixMilli(botInt.LastActivity),
	}
}

func getBotIDKey(botID uuid.UUID) string {
	return fmt.Sprintf("bot_%v", botID.String())
}
