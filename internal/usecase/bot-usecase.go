package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
)

var (
	ErrBotNameRequired = errors.New("bot name is required")
	ErrBotNameTaken    = errors.New("bot with this name already exists")
)

type BotStorage interface {
	CreateBot(ctx context.Context, bot model.Bot) error
	GetBot(ctx context.Context, botID uuid.UUID) (model.Bot, error)
	ListBots(ctx context.Context) ([]model.Bot, error)
	UpdateBot(ctx context.Context, bot model.Bot) error
	DeleteBot(ctx context.Context, botID uuid.UUID) error
}

type BotUsecaseDeps struct {
	BotStorage BotStorage
}

type BotUsecase struct {
	BotUsecaseDeps
	now func() time.Time

	// createMu keeps the name check and the write of CreateBot together.
	createMu sync.Mutex
}

func NewBotUsecase(deps BotUsecaseDeps) *BotUsecase {
	return &BotUsecase{
		BotUsecaseDeps: deps,
		now:            time.Now,
	}
}

// ListBots returns the bots ordered by name.
func (b *BotUsecase) ListBots(ctx context.Context) ([]model.Bot, error) {
	bots, err := b.BotStorage.ListBots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list bots: %w", err)
	}
	slices.SortFunc(
		bots, func(x, y model.Bot) int {
			return strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name))
		},
	)
	return bots, nil
}

func (b *BotUsecase) GetBot(ctx context.Context, botID uuid.UUID) (model.Bot, error) {
	return b.BotStorage.GetBot(ctx, botID)
}

func (b *BotUsecase) FindBotByName(ctx context.Context, name string) (model.Bot, error) {
	bots, err := b.BotStorage.ListBots(ctx)
	if err != nil {
		return model.Bot{}, fmt.Errorf("failed to list bots: %w", err)
	}
	for _, bot := range bots {
		if strings.EqualFold(bot.Name, strings.TrimSpace(name)) {
			return bot, nil
		}
	}
	return model.Bot{}, model.ErrBotDoesNotExist
}

// CreateBot registers an idle bot. An unrecognised type keeps its label and
// answers with the generic persona.
func (b *BotUsecase) CreateBot(ctx context.Context, name, botType string) (model.Bot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Bot{}, ErrBotNameRequired
	}

	b.createMu.Lock()
	defer b.createMu.Unlock()
	if _, err := b.FindBotByName(ctx, name); err == nil {
		return model.Bot{}, ErrBotNameTaken
	} else if !errors.Is(err, model.ErrBotDoesNotExist) {
		return model.Bot{}, err
	}

	bot := model.NewBot(name, strings.TrimSpace(botType), model.BotStatusIdle, b.now())
	if err := b.BotStorage.CreateBot(ctx, bot); err != nil {
		return model.Bot{}, fmt.Errorf("failed to create bot %s: %w", name, err)
	}
	return bot, nil
}

func (b *BotUsecase) StartBot(ctx context.Context, botID uuid.UUID) (model.Bot, error) {
	return b.updateBot(
		ctx, botID, func(bot *model.Bot) {
			bot.Status = model.BotStatusActive
		},
	)
}

func (b *BotUsecase) StopBot(ctx context.Context, botID uuid.UUID) (model.Bot, error) {
	return b.updateBot(
		ctx, botID, func(bot *model.Bot) {
			bot.Status = model.BotStatusIdle
		},
	)
}

// TouchBot records activity on the bot.
func (b *BotUsecase) TouchBot(ctx context.Context, botID uuid.UUID) (model.Bot, error) {
	return b.updateBot(
		ctx, botID, func(bot *model.Bot) {
			bot.LastActivity = b.now()
		},
	)
}

func (b *BotUsecase) DeleteBot(ctx context.Context, botID uuid.UUID) error {
	return b.BotStorage.DeleteBot(ctx, botID)
}

// SeedBots fills an empty store. A store that already has bots is left alone.
func (b *BotUsecase) SeedBots(ctx context.Context, seeds []config.BotSeed) error {
	bots, err := b.BotStorage.ListBots(ctx)
	if err != nil {
		return fmt.Errorf("failed to list bots: %w", err)
	}
	if len(bots) > 0 {
		return nil
	}
	for _, seed := range seeds {
		bot := model.NewBot(seed.Name, seed.Type, model.ParseBotStatus(seed.Status), b.now())
		if err = b.BotStorage.CreateBot(ctx, bot); err != nil {
			return fmt.Errorf("failed to seed bot %s: %w", seed.Name, err)
		}
	}
	return nil
}

func (b *BotUsecase) updateBot(ctx context.Context, botID uuid.UUID, update func(bot *model.Bot)) (model.Bot, error) {
	bot, err := b.BotStorage.GetBot(ctx, botID)
	if err != nil {
		return model.Bot{}, err
	}
	update(&bot)
	if err = b.BotStorage.UpdateBot(ctx, bot); err != nil {
		return model.Bot{}, fmt.Errorf("failed to update bot %s: %w", botID, err)
	}
	return bot, nil
}
