package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"daily-report-bot/internal/models"
)

// apiStub answers getMe and replays queued replies for everything else.
type apiStub struct {
	mu       sync.Mutex
	requests []url.Values
	methods  []string
	replies  []string
}

func (a *apiStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	w.Header().Set("Content-Type", "application/json")
	if method == "getMe" {
		fmt.Fprint(w, `{"ok":true,"result":{"id":777,"is_bot":true,"first_name":"reporter","username":"report_bot"}}`)
		return
	}
	_ = r.ParseForm()

	a.mu.Lock()
	a.requests = append(a.requests, r.PostForm)
	a.methods = append(a.methods, method)
	reply := `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"group"}}}`
	if len(a.replies) > 0 {
		reply, a.replies = a.replies[0], a.replies[1:]
	}
	a.mu.Unlock()

	fmt.Fprint(w, reply)
}

func newClient(t *testing.T, stub *apiStub, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(stub)
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	opts = append([]Option{
		WithRate(1000),
		WithLogger(zaptest.NewLogger(t).Sugar()),
		withBackOff(func() backoff.BackOff { return &backoff.ZeroBackOff{} }),
	}, opts...)
	return New(bot, opts...)
}

func TestSendRoutesToTopic(t *testing.T) {
	stub := &apiStub{}
	c := newClient(t, stub)

	err := c.Send(context.Background(), models.Outgoing{ChatID: -1001, TopicID: 39824, Text: "hello", ParseMode: tgbotapi.ModeHTML})
	require.NoError(t, err)

	require.Len(t, stub.requests, 1)
	assert.Equal(t, "sendMessage", stub.methods[0])
	assert.Equal(t, "-1001", stub.requests[0].Get("chat_id"))
	assert.Equal(t, "39824", stub.requests[0].Get("message_thread_id"))
	assert.Equal(t, "hello", stub.requests[0].Get("text"))
	assert.Equal(t, "HTML", stub.requests[0].Get("parse_mode"))
}

func TestSendMainThreadOmitsTopic(t *testing.T) {
	stub := &apiStub{}
	c := newClient(t, stub)

	require.NoError(t, c.Send(context.Background(), models.Outgoing{ChatID: -5, Text: "hi"}))
	require.Len(t, stub.requests, 1)
	_, ok := stub.requests[0]["message_thread_id"]
	assert.False(t, ok)
	_, ok = stub.requests[0]["parse_mode"]
	assert.False(t, ok)
	_, ok = stub.requests[0]["reply_to_message_id"]
	assert.False(t, ok)
}

func TestSendReplyKeepsThread(t *testing.T) {
	stub := &apiStub{}
	c := newClient(t, stub)

	require.NoError(t, c.Send(context.Background(), models.Outgoing{ChatID: -5, ReplyTo: 42, Text: "ok"}))
	require.Len(t, stub.requests, 1)
	assert.Equal(t, "42", stub.requests[0].Get("reply_to_message_id"))
}

func TestSendRetriesFloodControl(t *testing.T) {
	stub := &apiStub{replies: []string{
		`{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 0","parameters":{"retry_after":0}}`,
		`{"ok":false,"error_code":502,"description":"Bad Gateway"}`,
	}}
	c := newClient(t, stub)

	require.NoError(t, c.Send(context.Background(), models.Outgoing{ChatID: -1, Text: "x"}))
	assert.Len(t, stub.requests, 3)
}

func TestSendGivesUpAfterRetries(t *testing.T) {
	fail := `{"ok":false,"error_code":500,"description":"Internal Server Error"}`
	stub := &apiStub{replies: []string{fail, fail, fail, fail, fail}}
	c := newClient(t, stub, WithRetries(2))

	err := c.Send(context.Background(), models.Outgoing{ChatID: -1, Text: "x"})
	require.Error(t, err)
	assert.Len(t, stub.requests, 3)
}

func TestSendDoesNotRetryClientErrors(t *testing.T) {
	stub := &apiStub{replies: []string{
		`{"ok":false,"error_code":403,"description":"Forbidden: bot was kicked from the group chat"}`,
	}}
	c := newClient(t, stub)

	err := c.Send(context.Background(), models.Outgoing{ChatID: -1, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kicked")
	assert.Len(t, stub.requests, 1)
}

func TestSetCommands(t *testing.T) {
	stub := &apiStub{replies: []string{`{"ok":true,"result":true}`}}
	c := newClient(t, stub)

	require.NoError(t, c.SetCommands([]Command{{Name: "report", Description: "Submit your daily report"}}))
	require.Len(t, stub.requests, 1)
	assert.Equal(t, "setMyCommands", stub.methods[0])

	var cmds []tgbotapi.BotCommand
	require.NoError(t, json.Unmarshal([]byte(stub.requests[0].Get("commands")), &cmds))
	require.Len(t, cmds, 1)
	assert.Equal(t, "report", cmds[0].Command)
}
