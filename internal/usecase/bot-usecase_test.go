package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
	in_memory "github.com/iamvkosarev/bot-console/internal/storage/in-memory"
)

func newTestBotUsecase() *BotUsecase {
	return NewBotUsecase(BotUsecaseDeps{BotStorage: in_memory.NewBotStorage()})
}

func TestSeedBots(t *testing.T) {
	bots := newTestBotUsecase()
	ctx := context.Background()

	require.NoError(t, bots.SeedBots(ctx, config.DefaultBots()))
	require.NoError(t, bots.SeedBots(ctx, []config.BotSeed{{Name: "Extra", Type: "Sales"}}))

	list, err := bots.ListBots(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"FinanceBot", "HRBot", "SupportBot"}, []string{list[0].Name, list[1].Name, list[2].Name})

	finance := list[0]
	assert.Equal(t, model.PersonaFinance, finance.Persona)
	assert.Equal(t, model.BotStatusError, finance.Status)
	assert.Equal(t, model.BotStatusActive, list[2].Status)
}

func TestCreateBot(t *testing.T) {
	bots := newTestBotUsecase()
	ctx := context.Background()

	bot, err := bots.CreateBot(ctx, "  LegalBot ", "Legal")
	require.NoError(t, err)
	assert.Equal(t, "LegalBot", bot.Name)
	assert.Equal(t, "Legal", bot.Type)
	assert.Equal(t, model.PersonaGeneric, bot.Persona)
	assert.Equal(t, model.BotStatusIdle, bot.Status)

	_, err = bots.CreateBot(ctx, "legalbot", "HR")
	assert.ErrorIs(t, err, ErrBotNameTaken)

	_, err = bots.CreateBot(ctx, "   ", "HR")
	assert.ErrorIs(t, err, ErrBotNameRequired)

	generic, err := bots.CreateBot(ctx, "Helper", "")
	require.NoError(t, err)
	assert.Equal(t, "Generic", generic.Type)
}

// slowListStorage widens the gap between the name lookup and the write.
type slowListStorage struct {
	BotStorage
}

func (s slowListStorage) ListBots(ctx context.Context) ([]model.Bot, error) {
	time.Sleep(5 * time.Millisecond)
	return s.BotStorage.ListBots(ctx)
}

func TestCreateBot_ConcurrentSameName(t *testing.T) {
	bots := NewBotUsecase(BotUsecaseDeps{BotStorage: slowListStorage{BotStorage: in_memory.NewBotStorage()}})
	ctx := context.Background()

	var created, taken atomic.Int32
	var wg conc.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Go(func() {
			_, err := bots.CreateBot(ctx, "RaceBot", "Sales")
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrBotNameTaken):
				taken.Add(1)
			}
		})
	}
	wg.Wait()

	assert.EqualValues(t, 1, created.Load())
	assert.EqualValues(t, 15, taken.Load())
	list, err := bots.ListBots(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFindBotByName(t *testing.T) {
	bots := newTestBotUsecase()
	ctx := context.Background()
	created, err := bots.CreateBot(ctx, "MarketingBot", "Marketing")
	require.NoError(t, err)

	found, err := bots.FindBotByName(ctx, "marketingbot")
	require.NoError(t, err)
	assert.Equal(t, created.BotID, found.BotID)

	_, err = bots.FindBotByName(ctx, "nobody")
	assert.ErrorIs(t, err, model.ErrBotDoesNotExist)
}

func TestStartStopTouchDelete(t *testing.T) {
	bots := newTestBotUsecase()
	ctx := context.Background()
	bot, err := bots.CreateBot(ctx, "SalesBot", "Sales")
	require.NoError(t, err)

	started, err := bots.StartBot(ctx, bot.BotID)
	require.NoError(t, err)
	assert.Equal(t, model.BotStatusActive, started.Status)

	stopped, err := bots.StopBot(ctx, bot.BotID)
	require.NoError(t, err)
	assert.Equal(t, model.BotStatusIdle, stopped.Status)

	later := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	bots.now = func() time.Time { return later }
	touched, err := bots.TouchBot(ctx, bot.BotID)
	require.NoError(t, err)
	assert.True(t, later.Equal(touched.LastActivity))

	require.NoError(t, bots.DeleteBot(ctx, bot.BotID))
	_, err = bots.GetBot(ctx, bot.BotID)
	assert.ErrorIs(t, err, model.ErrBotDoesNotExist)

	_, err = bots.StartBot(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrBotDoesNotExist)
}
