package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

type captureSender struct {
	chatID int64
	text   string
	calls  int
	err    error
}

func (c *captureSender) SendMessage(_ context.Context, chatID int64, text string) error {
	c.calls++
	c.chatID = chatID
	c.text = text
	return c.err
}

func textUpdate(text string) telegram.Update {
	return telegram.Update{
		UpdateID: 1,
		Message: &telegram.Message{
			MessageID: 10,
			From:      &telegram.User{ID: 77, FirstName: "Anna"},
			Chat:      telegram.Chat{ID: 9001, Type: "private"},
			Text:      text,
		},
	}
}

func newService(t *testing.T, sender telegram.Sender) *Service {
	t.Helper()
	svc, err := NewService(sender, logger.Nop())
	require.NoError(t, err)
	return svc
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, logger.Nop())
	require.Error(t, err)
	_, err = NewService(&captureSender{}, nil)
	require.Error(t, err)
}

func TestHandleUpdateCommands(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "start", text: "/start", want: "Hi, Anna!"},
		{name: "start mixed case and padding", text: "  /START ", want: "Welcome to the pipe shop"},
		{name: "help", text: "/help", want: "Available commands"},
		{name: "anything else", text: "hello", want: "Command not recognized"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &captureSender{}
			handled, err := newService(t, sender).HandleUpdate(context.Background(), textUpdate(tt.text))
			require.NoError(t, err)
			assert.True(t, handled)
			assert.Equal(t, int64(9001), sender.chatID)
			assert.Contains(t, sender.text, tt.want)
		})
	}
}

func TestHandleUpdateIgnoresNonText(t *testing.T) {
	sender := &captureSender{}
	svc := newService(t, sender)

	handled, err := svc.HandleUpdate(context.Background(), telegram.Update{UpdateID: 5})
	require.NoError(t, err)
	assert.False(t, handled)

	handled, err = svc.HandleUpdate(context.Background(), textUpdate("   "))
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Zero(t, sender.calls)
}

func TestHandleUpdateReportsSendFailure(t *testing.T) {
	sender := &captureSender{err: errors.New("bot api unavailable")}
	handled, err := newService(t, sender).HandleUpdate(context.Background(), textUpdate("/help"))
	assert.True(t, handled)
	assert.ErrorContains(t, err, "bot api unavailable")
}

func TestStartEscapesName(t *testing.T) {
	text := Reply("/start", &telegram.User{FirstName: "<b>Bob</b>"})
	assert.Contains(t, text, "Hi, &lt;b&gt;Bob&lt;/b&gt;!")
	assert.Contains(t, Reply("/start", nil), "Hi, there!")
}
