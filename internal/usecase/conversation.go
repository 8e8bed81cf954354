package usecase

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
)

var (
	ErrEmptyMessage         = errors.New("message is empty")
	ErrReplyPending         = errors.New("reply is still pending")
	ErrConversationClosed   = errors.New("conversation is closed")
	ErrConversationNotFound = errors.New("conversation does not exist")
)

type CompletionClient interface {
	Complete(ctx context.Context, history []model.Message, p model.Persona, temperature float32) (string, error)
	Probe(ctx context.Context) error
}

type conversationEvent int8

const (
	eventSendRequested conversationEvent = iota
	eventReplyFailed
	eventReplyResolved
)

// Conversation is the reply state machine of one open chat with a bot. At most
// one reply is in flight; the remote path is used only while RemoteReady.
type Conversation struct {
	mu sync.Mutex

	id          uuid.UUID
	bot         model.Bot
	remote      CompletionClient
	fallback    *FallbackUsecase
	cfg         config.Conversation
	temperature float32
	now         func() time.Time

	state     model.ConversationState
	phase     model.ConversationPhase
	history   []model.Message
	demotions int
}

type ConversationSnapshot struct {
	ConversationID uuid.UUID
	Bot            model.Bot
	State          model.ConversationState
	Availability   model.RemoteAvailability
	Phase          model.ConversationPhase
	Demotions      int
	History        []model.Message
}

func newConversation(
	bot model.Bot,
	remote CompletionClient,
	fallback *FallbackUsecase,
	cfg config.Conversation,
	temperature float32,
	now func() time.Time,
) *Conversation {
	c := &Conversation{
		id:          uuid.New(),
		bot:         bot,
		remote:      remote,
		fallback:    fallback,
		cfg:         cfg,
		temperature: temperature,
		now:         now,
		state:       model.ConversationStateIdle,
		phase:       model.ConversationPhaseComposing,
	}
	c.history = append(c.history, model.NewMessage(model.MessageRoleAssistant, bot.Greeting(), now(), model.ReplyOriginNone))
	return c
}

func (c *Conversation) ID() uuid.UUID {
	return c.id
}

func (c *Conversation) Bot() model.Bot {
	return c.bot
}

// Send appends the user message and exactly one assistant reply. Remote
// failures never reach the caller; the reply then comes from the fallback rules.
func (c *Conversation) Send(ctx context.Context, text string) (model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return model.Message{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.state == model.ConversationStateClosed {
		c.mu.Unlock()
		return model.Message{}, ErrConversationClosed
	}
	if c.phase == model.ConversationPhaseAwaitingReply {
		c.mu.Unlock()
		return model.Message{}, ErrReplyPending
	}
	c.history = append(c.history, model.NewMessage(model.MessageRoleUser, text, c.now(), model.ReplyOriginNone))
	c.apply(eventSendRequested)
	history := append([]model.Message(nil), c.history...)
	useRemote := c.state == model.ConversationStateRemoteReady && c.remote != nil
	c.mu.Unlock()

	var (
		replyText string
		origin    = model.ReplyOriginFallback
	)
	if useRemote {
		remoteText, err := c.complete(ctx, history)
		if err == nil && strings.TrimSpace(remoteText) == "" {
			err = ErrEmptyResponse
		}
		if err != nil {
			log.Printf("WARN: conversation %s: remote reply failed, using fallback rules: %v", c.id, err)
			c.mu.Lock()
			c.apply(eventReplyFailed)
			c.mu.Unlock()
		} else {
			replyText = remoteText
			origin = model.ReplyOriginRemote
		}
	}
	if origin == model.ReplyOriginFallback {
		replyText = c.fallback.Reply(c.bot.Persona, text, history[:len(history)-1])
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == model.ConversationStateClosed {
		return model.Message{}, ErrConversationClosed
	}
	reply := model.NewMessage(model.MessageRoleAssistant, replyText, c.now(), origin)
	c.history = append(c.history, reply)
	c.apply(eventReplyResolved)
	return reply, nil
}

func (c *Conversation) complete(ctx context.Context, history []model.Message) (string, error) {
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}
	return c.remote.Complete(ctx, history, c.bot.Persona, c.temperature)
}

// Recheck probes the remote client again. It is the only way out of
// RemoteUnavailable for an open conversation.
func (c *Conversation) Recheck(ctx context.Context) (model.RemoteAvailability, error) {
	c.mu.Lock()
	if c.state == model.ConversationStateClosed {
		c.mu.Unlock()
		return model.RemoteAvailabilityUnknown, ErrConversationClosed
	}
	if c.phase == model.ConversationPhaseAwaitingReply {
		c.mu.Unlock()
		return c.state.Availability(), ErrReplyPending
	}
	c.mu.Unlock()

	return c.probe(ctx)
}

// probe leaves a closed conversation closed, even one closed after Recheck
// released the lock.
func (c *Conversation) probe(ctx context.Context) (model.RemoteAvailability, error) {
	c.mu.Lock()
	if c.state == model.ConversationStateClosed {
		c.mu.Unlock()
		return model.RemoteAvailabilityUnknown, ErrConversationClosed
	}
	if c.remote == nil {
		c.state = model.ConversationStateRemoteUnavailable
		c.mu.Unlock()
		return model.RemoteAvailabilityUnavailable, nil
	}
	c.state = model.ConversationStateProbingRemote
	c.mu.Unlock()

	if c.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.ProbeTimeout)
		defer cancel()
	}
	next := model.ConversationStateRemoteReady
	if err := c.remote.Probe(ctx); err != nil {
		log.Printf("WARN: conversation %s: remote client unavailable: %v", c.id, err)
		next = model.ConversationStateRemoteUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == model.ConversationStateClosed {
		return model.RemoteAvailabilityUnknown, ErrConversationClosed
	}
	c.state = next
	return c.state.Availability(), nil
}

// Close discards the conversation. A reply still in flight is dropped.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = model.ConversationStateClosed
	c.history = nil
}

func (c *Conversation) apply(event conversationEvent) {
	switch event {
	case eventSendRequested:
		c.phase = model.ConversationPhaseAwaitingReply
	case eventReplyFailed:
		c.demotions++
	case eventReplyResolved:
		c.phase = model.ConversationPhaseComposing
	}
}

func (c *Conversation) History() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Message(nil), c.history...)
}

func (c *Conversation) State() model.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) Availability() model.RemoteAvailability {
	return c.State().Availability()
}

func (c *Conversation) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == model.ConversationPhaseAwaitingReply
}

// Demotions counts remote failures answered by the fallback rules.
func (c *Conversation) Demotions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.demotions
}

func (c *Conversation) Snapshot() ConversationSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConversationSnapshot{
		ConversationID: c.id,
		Bot:            c.bot,
		State:          c.state,
		Availability:   c.state.Availability(),
		Phase:          c.phase,
		Demotions:      c.demotions,
		History:        append([]model.Message(nil), c.history...),
	}
}
