package notifications

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/metrics"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text string) error {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

func waitTicket(t *testing.T, ticket *Ticket) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := ticket.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
	return err
}

func newPool(t *testing.T, sender telegram.Sender, cfg Config) (*Pool, *metrics.NotificationMetrics) {
	t.Helper()
	m := metrics.NewNotificationMetrics(prometheus.NewRegistry())
	p, err := NewPool(sender, logger.Nop(), m, cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = p.Shutdown(ctx)
	})
	return p, m
}

func TestNewPoolRequiresDependencies(t *testing.T) {
	_, err := NewPool(nil, logger.Nop(), nil, Config{})
	require.Error(t, err)
	_, err = NewPool(&fakeSender{}, nil, nil, Config{})
	require.Error(t, err)
}

func TestPoolDeliversMessage(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newPool(t, sender, Config{Workers: 2, QueueSize: 4})

	ticket := p.Enqueue(context.Background(), Message{ChatID: 42, Text: "hi"})
	require.NoError(t, waitTicket(t, ticket))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, int64(42), msgs[0].chatID)
	assert.Equal(t, "hi", msgs[0].text)
}

func TestPoolReportsSendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("bot api down")}
	p, _ := newPool(t, sender, Config{Workers: 1, QueueSize: 1})

	err := waitTicket(t, p.Enqueue(context.Background(), Message{ChatID: 1, Text: "x"}))
	assert.EqualError(t, err, "bot api down")
}

func TestPoolSkipsWhenBotNotConfigured(t *testing.T) {
	sender := &fakeSender{err: telegram.ErrNotConfigured}
	p, _ := newPool(t, sender, Config{Workers: 1, QueueSize: 1})

	err := waitTicket(t, p.Enqueue(context.Background(), Message{ChatID: 1, Text: "x"}))
	assert.ErrorIs(t, err, telegram.ErrNotConfigured)
}

func TestPoolDropsWhenQueueFull(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}, 1), release: make(chan struct{})}
	p, _ := newPool(t, sender, Config{Workers: 1, QueueSize: 1})
	ctx := context.Background()

	first := p.Enqueue(ctx, Message{ChatID: 1, Text: "first"})
	<-sender.started
	second := p.Enqueue(ctx, Message{ChatID: 2, Text: "second"})
	third := p.Enqueue(ctx, Message{ChatID: 3, Text: "third"})

	select {
	case <-third.Done():
		assert.ErrorIs(t, third.Err(), ErrQueueFull)
	default:
		t.Fatal("dropped message ticket should already be done")
	}

	close(sender.release)
	<-sender.started
	require.NoError(t, waitTicket(t, first))
	require.NoError(t, waitTicket(t, second))
	assert.Len(t, sender.messages(), 2)
}

func TestShutdownDrainsAndRejectsNewMessages(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newPool(t, sender, Config{Workers: 1, QueueSize: 8})
	ctx := context.Background()

	var tickets []*Ticket
	for i := range 5 {
		tickets = append(tickets, p.Enqueue(ctx, Message{ChatID: int64(i), Text: "m"}))
	}
	require.NoError(t, p.Shutdown(ctx))
	for _, ticket := range tickets {
		select {
		case <-ticket.Done():
			assert.NoError(t, ticket.Err())
		default:
			t.Fatal("shutdown returned before queued messages were handled")
		}
	}

	late := p.Enqueue(ctx, Message{ChatID: 9, Text: "late"})
	assert.ErrorIs(t, late.Err(), ErrPoolClosed)
	require.NoError(t, p.Shutdown(ctx), "second shutdown is a no-op")
}

func TestShutdownHonorsContext(t *testing.T) {
	sender := &fakeSender{started: make(chan struct{}, 1), release: make(chan struct{})}
	m := metrics.NewNotificationMetrics(nil)
	p, err := NewPool(sender, logger.Nop(), m, Config{Workers: 1, QueueSize: 1})
	require.NoError(t, err)

	p.Enqueue(context.Background(), Message{ChatID: 1, Text: "slow"})
	<-sender.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Shutdown(ctx), context.DeadlineExceeded)
	close(sender.release)
}

func TestOrderCreatedSendsConfirmationToBuyer(t *testing.T) {
	sender := &fakeSender{}
	p, _ := newPool(t, sender, Config{Workers: 1, QueueSize: 1})

	order := sampleOrder()
	p.OrderCreated(context.Background(), order)
	p.OrderCreated(context.Background(), nil)
	require.NoError(t, p.Shutdown(context.Background()))

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, order.TelegramUserID, msgs[0].chatID)
	assert.Contains(t, msgs[0].text, order.OrderNumber)
}

func TestPoolCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewNotificationMetrics(reg)
	sender := &fakeSender{}
	p, err := NewPool(sender, logger.Nop(), m, Config{Workers: 1, QueueSize: 2})
	require.NoError(t, err)

	require.NoError(t, waitTicket(t, p.Enqueue(context.Background(), Message{ChatID: 1, Text: "a"})))
	require.NoError(t, p.Shutdown(context.Background()))
	p.Enqueue(context.Background(), Message{ChatID: 1, Text: "b"})

	expected := `
# HELP notifications_dropped_total Notifications dropped because the queue was full or closed.
# TYPE notifications_dropped_total counter
notifications_dropped_total 1
# HELP notifications_sent_total Notifications delivered to the bot API.
# TYPE notifications_sent_total counter
notifications_sent_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"notifications_sent_total", "notifications_dropped_total"))
}

var _ interface {
	OrderCreated(context.Context, *models.Order)
} = (*Pool)(nil)
