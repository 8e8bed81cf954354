package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	api "github.com/OvyFlash/telegram-bot-api"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/pool"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/pkg/local"
)

const (
	CommandStart  = "start"
	CommandHelp   = "help"
	CommandBots   = "bots"
	CommandNewBot = "newbot"
	CommandCheck  = "check"
	CommandClose  = "close"

	callbackBotPrefix = "bot:"
	maxButtonsInRow   = 2
)

var (
	textServerError = local.NewSet(
		"Something wrong with me. Try later",
		local.NewTrans(local.Rus, "Что-то пошло не так. Попробуйте позже"),
	)
	textUserNoAccess = local.NewSet(
		"You are not allowed to use this bot",
		local.NewTrans(local.Rus, "У вас нет доступа к этому боту"),
	)
	textCommandStart = local.NewSet(
		"Welcome to the bot console! Use /bots to pick a bot and start a conversation.",
		local.NewTrans(local.Rus, "Добро пожаловать в консоль ботов! Выберите бота командой /bots, чтобы начать разговор."),
	)
	textCommandHelp = local.NewSet(
		"/bots - pick a bot to talk to\n/newbot <name> <type> - create a bot\n/check - test the OpenAI API key\n/close - end the conversation",
		local.NewTrans(
			local.Rus,
			"/bots - выбрать бота\n/newbot <имя> <тип> - создать бота\n/check - проверить ключ OpenAI API\n/close - завершить разговор",
		),
	)
	textCommandUnknown = local.NewSet(
		"I don't know that command",
		local.NewTrans(local.Rus, "Я не знаю такой команды"),
	)
	textSelectBot = local.NewSet(
		"Select a bot to talk to",
		local.NewTrans(local.Rus, "Выберите бота для разговора"),
	)
	textNoBots = local.NewSet(
		"There are no bots yet. Create one with /newbot <name> <type>",
		local.NewTrans(local.Rus, "Ботов пока нет. Создайте бота командой /newbot <имя> <тип>"),
	)
	textBotNotFound = local.NewSet(
		"This bot does not exist anymore",
		local.NewTrans(local.Rus, "Этого бота больше нет"),
	)
	textRemoteUnavailable = local.NewSet(
		"(OpenAI is not available, %s answers with built-in replies)",
		local.NewTrans(local.Rus, "(OpenAI недоступен, %s отвечает встроенными ответами)"),
	)
	textReplyPending = local.NewSet(
		"Please wait, I'm still typing...",
		local.NewTrans(local.Rus, "Подождите, я ещё печатаю..."),
	)
	textNewBotUsage = local.NewSet(
		"Usage: /newbot <name> <type>",
		local.NewTrans(local.Rus, "Использование: /newbot <имя> <тип>"),
	)
	textBotNameTaken = local.NewSet(
		"A bot with this name already exists",
		local.NewTrans(local.Rus, "Бот с таким именем уже существует"),
	)
	textBotCreated = local.NewSet(
		"Created %s (%s)",
		local.NewTrans(local.Rus, "Создан %s (%s)"),
	)
	textConversationClosed = local.NewSet(
		"Conversation with %s closed",
		local.NewTrans(local.Rus, "Разговор с %s завершён"),
	)
	textNoConversation = local.NewSet(
		"There is no open conversation",
		local.NewTrans(local.Rus, "Нет открытого разговора"),
	)
)

// TelegramBot is the part of the Bot API client the surface uses.
type TelegramBot interface {
	Send(c api.Chattable) (api.Message, error)
	Request(c api.Chattable) (*api.APIResponse, error)
	GetUpdatesChan(config api.UpdateConfig) api.UpdatesChannel
	StopReceivingUpdates()
}

type TelegramUsecaseDeps struct {
	Bot          TelegramBot
	BotRegistry  *BotUsecase
	Conversation *ConversationUsecase
	Credential   *CredentialUsecase
}

type TelegramUsecase struct {
	TelegramUsecaseDeps
	cfg          config.Telegram
	language     local.Language
	allowedUsers map[int64]struct{}

	mu            sync.Mutex
	conversations map[int64]uuid.UUID
}

// incoming is a chat event with only the fields the surface reads.
type incoming struct {
	chatID       int64
	text         string
	command      string
	args         string
	callbackID   string
	callbackData string
}

func NewTelegramUsecase(cfg config.Telegram, deps TelegramUsecaseDeps) (*TelegramUsecase, error) {
	allowedUsers := make(map[int64]struct{})
	for _, userID := range cfg.AllowedTelegramID {
		allowedUsers[userID] = struct{}{}
	}

	_, err := deps.Bot.Request(
		api.NewSetMyCommands(
			[]api.BotCommand{
				{
					Command:     CommandHelp,
					Description: "Get help",
				},
				{
					Command:     CommandBots,
					Description: "Pick a bot to talk to",
				},
				{
					Command:     CommandNewBot,
					Description: "Create a bot: /newbot <name> <type>",
				},
				{
					Command:     CommandCheck,
					Description: "Test the OpenAI API key",
				},
				{
					Command:     CommandClose,
					Description: "End the conversation",
				},
			}...,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to set bot commands: %w", err)
	}

	return &TelegramUsecase{
		TelegramUsecaseDeps: deps,
		cfg:                 cfg,
		language:            local.ParseLanguage(cfg.Language),
		allowedUsers:        allowedUsers,
		conversations:       make(map[int64]uuid.UUID),
	}, nil
}

// Run handles updates until ctx is done. Updates from different chats are
// handled concurrently by at most cfg.UpdateWorkers goroutines.
func (t *TelegramUsecase) Run(ctx context.Context) error {
	u := api.NewUpdate(0)
	u.Timeout = 60

	updates := t.Bot.GetUpdatesChan(u)

	workers := t.cfg.UpdateWorkers
	if workers <= 0 {
		workers = 1
	}
	p := pool.New().WithMaxGoroutines(workers)
	defer p.Wait()

	for {
		select {
		case <-ctx.Done():
			t.Bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			in, ok := incomingFromUpdate(update)
			if !ok {
				continue
			}
			p.Go(
				func() {
					if err := t.handle(ctx, in); err != nil {
						log.Printf("failed to handle telegram update in chat %d: %v", in.chatID, err)
					}
				},
			)
		}
	}
}

func incomingFromUpdate(update api.Update) (incoming, bool) {
	if update.CallbackQuery != nil {
		// inline mode callbacks carry no chat message
		if update.CallbackQuery.Message == nil {
			return incoming{}, false
		}
		return incoming{
			chatID:       update.CallbackQuery.Message.Chat.ID,
			callbackID:   update.CallbackQuery.ID,
			callbackData: update.CallbackQuery.Data,
		}, true
	}
	if update.Message == nil {
		return incoming{}, false
	}
	in := incoming{
		chatID: update.Message.Chat.ID,
		text:   update.Message.Text,
	}
	if update.Message.IsCommand() {
		in.command = update.Message.Command()
		in.args = update.Message.CommandArguments()
	}
	return in, true
}

func (t *TelegramUsecase) handle(ctx context.Context, in incoming) error {
	if len(t.allowedUsers) > 0 {
		if _, ok := t.allowedUsers[in.chatID]; !ok {
			t.sendMessageAndHandleErr(in.chatID, textUserNoAccess.Text(t.language))
			return nil
		}
	}

	switch {
	case in.callbackID != "":
		return t.handleCallbackQuery(ctx, in)
	case in.command != "":
		return t.handleCommand(ctx, in)
	default:
		return t.handleText(ctx, in)
	}
}

func (t *TelegramUsecase) handleCallbackQuery(ctx context.Context, in incoming) error {
	if _, err := t.Bot.Request(api.NewCallback(in.callbackID, in.callbackData)); err != nil {
		return fmt.Errorf("failed to request callback: %w", err)
	}

	botIDStr, ok := strings.CutPrefix(in.callbackData, callbackBotPrefix)
	if !ok {
		return nil
	}
	botID, err := uuid.Parse(botIDStr)
	if err != nil {
		return fmt.Errorf("failed to parse bot id %s: %w", botIDStr, err)
	}
	return t.openConversation(ctx, in.chatID, botID)
}

func (t *TelegramUsecase) handleCommand(ctx context.Context, in incoming) error {
	switch in.command {
	case CommandStart:
		t.sendMessageAndHandleErr(in.chatID, textCommandStart.Text(t.language))
		return nil
	case CommandHelp:
		t.sendMessageAndHandleErr(in.chatID, textCommandHelp.Text(t.language))
		return nil
	case CommandBots:
		return t.sendSelectBotKeyboard(ctx, in.chatID)
	case CommandNewBot:
		return t.createBot(ctx, in.chatID, in.args)
	case CommandCheck:
		report := t.Credential.Validate(ctx, t.language)
		t.sendMessageAndHandleErr(in.chatID, report.Message)
		return nil
	case CommandClose:
		t.closeConversation(in.chatID)
		return nil
	default:
		t.sendMessageAndHandleErr(in.chatID, textCommandUnknown.Text(t.language))
		return nil
	}
}

func (t *TelegramUsecase) handleText(ctx context.Context, in incoming) error {
	conversationID, ok := t.chatConversation(in.chatID)
	if !ok {
		return t.sendSelectBotKeyboard(ctx, in.chatID)
	}

	var (
		reply model.Message
		err   error
	)
	wg := conc.NewWaitGroup()
	wg.Go(
		func() {
			if _, err := t.Bot.Request(api.NewChatAction(in.chatID, api.ChatTyping)); err != nil {
				log.Printf("failed to send new action to bot: %v", err)
			}
		},
	)
	wg.Go(
		func() {
			reply, err = t.Conversation.SendMessage(ctx, conversationID, in.text)
		},
	)
	wg.Wait()

	switch {
	case errors.Is(err, ErrReplyPending):
		t.sendMessageAndHandleErr(in.chatID, textReplyPending.Text(t.language))
		return nil
	case errors.Is(err, ErrEmptyMessage):
		return nil
	case errors.Is(err, ErrConversationNotFound), errors.Is(err, ErrConversationClosed):
		t.forgetConversation(in.chatID, conversationID)
		return t.sendSelectBotKeyboard(ctx, in.chatID)
	case err != nil:
		t.sendMessageAndHandleErr(in.chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to send message to conversation %s: %w", conversationID, err)
	}
	t.sendMessageAndHandleErr(in.chatID, reply.Text)
	return nil
}

func (t *TelegramUsecase) openConversation(ctx context.Context, chatID int64, botID uuid.UUID) error {
	conversation, err := t.Conversation.OpenConversation(ctx, botID)
	if err != nil {
		if errors.Is(err, model.ErrBotDoesNotExist) {
			t.sendMessageAndHandleErr(chatID, textBotNotFound.Text(t.language))
			return nil
		}
		t.sendMessageAndHandleErr(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to open conversation: %w", err)
	}

	t.mu.Lock()
	previous, hadPrevious := t.conversations[chatID]
	t.conversations[chatID] = conversation.ID()
	t.mu.Unlock()
	if hadPrevious {
		if err = t.Conversation.CloseConversation(previous); err != nil && !errors.Is(err, ErrConversationNotFound) {
			log.Printf("failed to close conversation %s: %v", previous, err)
		}
	}

	history := conversation.History()
	if len(history) > 0 {
		t.sendMessageAndHandleErr(chatID, history[0].Text)
	}
	if conversation.Availability() == model.RemoteAvailabilityUnavailable {
		t.sendMessageAndHandleErr(chatID, textRemoteUnavailable.Format(t.language, conversation.Bot().Name))
	}
	return nil
}

func (t *TelegramUsecase) closeConversation(chatID int64) {
	t.mu.Lock()
	conversationID, ok := t.conversations[chatID]
	delete(t.conversations, chatID)
	t.mu.Unlock()
	if !ok {
		t.sendMessageAndHandleErr(chatID, textNoConversation.Text(t.language))
		return
	}

	conversation, err := t.Conversation.GetConversation(conversationID)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, textNoConversation.Text(t.language))
		return
	}
	botName := conversation.Bot().Name
	if err = t.Conversation.CloseConversation(conversationID); err != nil {
		log.Printf("failed to close conversation %s: %v", conversationID, err)
	}
	t.sendMessageAndHandleErr(chatID, textConversationClosed.Format(t.language, botName))
}

func (t *TelegramUsecase) createBot(ctx context.Context, chatID int64, args string) error {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		t.sendMessageAndHandleErr(chatID, textNewBotUsage.Text(t.language))
		return nil
	}
	botType := strings.Join(fields[1:], " ")

	bot, err := t.BotRegistry.CreateBot(ctx, fields[0], botType)
	switch {
	case errors.Is(err, ErrBotNameTaken):
		t.sendMessageAndHandleErr(chatID, textBotNameTaken.Text(t.language))
		return nil
	case err != nil:
		t.sendMessageAndHandleErr(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to create bot: %w", err)
	}
	t.sendMessageAndHandleErr(chatID, textBotCreated.Format(t.language, bot.Name, bot.Type))
	return nil
}

func (t *TelegramUsecase) sendSelectBotKeyboard(ctx context.Context, chatID int64) error {
	bots, err := t.BotRegistry.ListBots(ctx)
	if err != nil {
		t.sendMessageAndHandleErr(chatID, textServerError.Text(t.language))
		return fmt.Errorf("failed to list bots: %w", err)
	}
	if len(bots) == 0 {
		t.sendMessageAndHandleErr(chatID, textNoBots.Text(t.language))
		return nil
	}

	msg := api.NewMessage(chatID, textSelectBot.Text(t.language))
	inlineRows := make([][]api.InlineKeyboardButton, 0)
	inlineButtons := make([]api.InlineKeyboardButton, 0)
	for _, bot := range bots {
		if len(inlineButtons) == maxButtonsInRow {
			inlineRows = append(inlineRows, inlineButtons)
			inlineButtons = make([]api.InlineKeyboardButton, 0)
		}
		label := fmt.Sprintf("%s (%s)", bot.Name, bot.Status)
		inlineButtons = append(inlineButtons, api.NewInlineKeyboardButtonData(label, callbackBotPrefix+bot.BotID.String()))
	}
	inlineRows = append(inlineRows, inlineButtons)
	msg.ReplyMarkup = api.NewInlineKeyboardMarkup(inlineRows...)
	if _, err = t.Bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to bot: %w", err)
	}
	return nil
}

func (t *TelegramUsecase) chatConversation(chatID int64) (uuid.UUID, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	conversationID, ok := t.conversations[chatID]
	return conversationID, ok
}

func (t *TelegramUsecase) forgetConversation(chatID int64, conversationID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conversations[chatID] == conversationID {
		delete(t.conversations, chatID)
	}
}

func (t *TelegramUsecase) sendMessageAndHandleErr(chatID int64, message string) api.Message {
	msg, err := t.Bot.Send(api.NewMessage(chatID, message))
	if err != nil {
		log.Printf("failed to send new message to bot: %v", err)
	}
	return msg
}
