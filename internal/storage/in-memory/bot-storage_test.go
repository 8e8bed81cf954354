package in_memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/bot-console/internal/model"
)

func TestBotStorage(t *testing.T) {
	storage := NewBotStorage()
	ctx := context.Background()
	bot := model.NewBot("FinanceBot", "Finance", model.BotStatusError, time.Now())

	require.NoError(t, storage.CreateBot(ctx, bot))
	assert.ErrorIs(t, storage.CreateBot(ctx, bot), ErrBotAlreadyExists)

	got, err := storage.GetBot(ctx, bot.BotID)
	require.NoError(t, err)
	assert.Equal(t, bot, got)

	bot.Status = model.BotStatusIdle
	require.NoError(t, storage.UpdateBot(ctx, bot))
	got, err = storage.GetBot(ctx, bot.BotID)
	require.NoError(t, err)
	assert.Equal(t, model.BotStatusIdle, got.Status)

	bots, err := storage.ListBots(ctx)
	require.NoError(t, err)
	assert.Len(t, bots, 1)

	require.NoError(t, storage.DeleteBot(ctx, bot.BotID))
	_, err = storage.GetBot(ctx, bot.BotID)
	assert.ErrorIs(t, err, model.ErrBotDoesNotExist)
	assert.ErrorIs(t, storage.DeleteBot(ctx, bot.BotID), model.ErrBotDoesNotExist)
	assert.ErrorIs(t, storage.UpdateBot(ctx, bot), model.ErrBotDoesNotExist)
}

func TestBotStorage_ReturnsCopies(t *testing.T) {
	storage := NewBotStorage()
	ctx := context.Background()
	bot := model.NewBot("HRBot", "HR", model.BotStatusIdle, time.Now())
	require.NoError(t, storage.CreateBot(ctx, bot))

	got, err := storage.GetBot(ctx, bot.BotID)
	require.NoError(t, err)
	got.Name = "Changed"

	again, err := storage.GetBot(ctx, bot.BotID)
	require.NoError(t, err)
	assert.Equal(t, "HRBot", again.Name)

	_, err = storage.GetBot(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrBotDoesNotExist)
}
