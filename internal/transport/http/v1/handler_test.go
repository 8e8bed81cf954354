package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/bot-console/config"
	"github.com/iamvkosarev/bot-console/internal/model"
	"github.com/iamvkosarev/bot-console/internal/persona"
	in_memory "github.com/iamvkosarev/bot-console/internal/storage/in-memory"
	"github.com/iamvkosarev/bot-console/internal/usecase"
)

type blockingRemote struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRemote) Complete(ctx context.Context, _ []model.Message, _ model.Persona, _ float32) (string, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
		return "remote reply", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (b *blockingRemote) Probe(_ context.Context) error {
	return nil
}

type testServer struct {
	e    *echo.Echo
	bots *usecase.BotUsecase
}

func newTestServer(t *testing.T, remote usecase.CompletionClient) *testServer {
	t.Helper()
	bots := usecase.NewBotUsecase(usecase.BotUsecaseDeps{BotStorage: in_memory.NewBotStorage()})
	require.NoError(t, bots.SeedBots(context.Background(), config.DefaultBots()))

	conversations := usecase.NewConversationUsecase(
		usecase.ConversationUsecaseDeps{
			Bot:      bots,
			Fallback: usecase.NewFallbackUsecase(persona.NewRegistry(), nil),
			Remote:   remote,
		},
		config.Conversation{RequestTimeout: 5 * time.Second, ProbeTimeout: time.Second},
		0.7,
	)
	credentials := usecase.NewCredentialUsecase(usecase.CredentialUsecaseDeps{Remote: remote}, config.OpenAI{})

	e := echo.New()
	NewHandler(
		HandlerDeps{
			Bot:          bots,
			Conversation: conversations,
			Credential:   credentials,
		},
	).RegisterRoutes(e)
	return &testServer{e: e, bots: bots}
}

func (s *testServer) do(t *testing.T, method, path, body string, out any) int {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
	}
	return rec.Code
}

func (s *testServer) botID(t *testing.T, name string) string {
	t.Helper()
	bot, err := s.bots.FindBotByName(context.Background(), name)
	require.NoError(t, err)
	return bot.BotID.String()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)

	var resp map[string]string
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", &resp))
	assert.Equal(t, "healthy", resp["status"])
}

func TestBotRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	var list struct {
		Bots []BotResponse `json:"bots"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/bots", "", &list))
	require.Len(t, list.Bots, 3)
	assert.Equal(t, "FinanceBot", list.Bots[0].Name)
	assert.Equal(t, "Error", list.Bots[0].Status)

	var created BotResponse
	require.Equal(
		t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/bots", `{"name":"SalesBot","type":"Sales"}`, &created),
	)
	assert.Equal(t, "Sales", created.Persona)
	assert.Equal(t, "Idle", created.Status)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/bots", `{"name":"salesbot"}`, nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/bots", `{"type":"HR"}`, nil))

	var started BotResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/bots/"+created.BotID+"/start", "", &started))
	assert.Equal(t, "Active", started.Status)

	var stopped BotResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/bots/"+created.BotID+"/stop", "", &stopped))
	assert.Equal(t, "Idle", stopped.Status)

	var got BotResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/bots/"+created.BotID, "", &got))
	assert.Equal(t, "SalesBot", got.Name)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/bots/"+created.BotID, "", nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/bots/"+created.BotID, "", nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/bots/"+uuid.NewString()+"/start", "", nil))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/bots/not-a-uuid", "", nil))
}

func TestConversationRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	supportID := s.botID(t, "SupportBot")

	var opened ConversationResponse
	require.Equal(
		t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/bots/"+supportID+"/conversations", "", &opened),
	)
	assert.Equal(t, "unavailable", opened.Availability)
	require.Len(t, opened.Messages, 1)
	assert.Equal(t, "assistant", opened.Messages[0].Role)
	assert.Contains(t, opened.Messages[0].Text, "SupportBot")

	path := "/api/conversations/" + opened.ConversationID
	var sent struct {
		Reply MessageResponse `json:"reply"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/messages", `{"text":"reset my password"}`, &sent))
	assert.Equal(t, "assistant", sent.Reply.Role)
	assert.Equal(t, "fallback", sent.Reply.Origin)
	assert.Contains(t, sent.Reply.Text, "reset your password")

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, path+"/messages", `{"text":"  "}`, nil))

	var current ConversationResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, "", &current))
	assert.Len(t, current.Messages, 3)
	assert.False(t, current.Pending)

	var recheck map[string]string
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, path+"/recheck", "", &recheck))
	assert.Equal(t, "unavailable", recheck["availability"])

	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodDelete, path, "", nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, path, "", nil))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, path+"/messages", `{"text":"hello"}`, nil))
}

func TestSendMessage_ConflictWhilePending(t *testing.T) {
	remote := &blockingRemote{started: make(chan struct{}, 1), release: make(chan struct{})}
	s := newTestServer(t, remote)

	var opened ConversationResponse
	require.Equal(
		t, http.StatusCreated,
		s.do(t, http.MethodPost, "/api/bots/"+s.botID(t, "HRBot")+"/conversations", "", &opened),
	)
	assert.Equal(t, "available", opened.Availability)
	path := "/api/conversations/" + opened.ConversationID + "/messages"

	done := make(chan int, 1)
	go func() {
		done <- s.do(t, http.MethodPost, path, `{"text":"first"}`, nil)
	}()
	<-remote.started

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, path, `{"text":"second"}`, nil))

	close(remote.release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestCredentialRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	var status CredentialResponse
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/credentials", "", &status))
	assert.Equal(t, "not-configured", status.Status)

	req := httptest.NewRequest(http.MethodPost, "/api/credentials/check", nil)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var checked CredentialResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &checked))
	assert.Equal(t, "not-configured", checked.Status)
	assert.Contains(t, checked.Message, "API ключ не найден")
	assert.NotZero(t, checked.CheckedAt)
}
