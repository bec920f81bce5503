package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/tubeshop-backend/pkg/db/models"
	"github.com/angelmondragon/tubeshop-backend/pkg/logger"
	"github.com/angelmondragon/tubeshop-backend/pkg/metrics"
	"github.com/angelmondragon/tubeshop-backend/pkg/telegram"
)

const (
	defaultWorkers     = 4
	defaultQueueSize   = 64
	defaultSendTimeout = 15 * time.Second
)

var (
	ErrQueueFull  = errors.New("notification queue is full")
	ErrPoolClosed = errors.New("notification pool is closed")
)

// Message is one outbound chat message.
type Message struct {
	ChatID      int64
	Text        string
	OrderNumber string
}

// Ticket tracks a queued message. Err is valid once Done is closed.
type Ticket struct {
	done chan struct{}
	err  error
}

func newTicket() *Ticket {
	return &Ticket{done: make(chan struct{})}
}

func (t *Ticket) finish(err error) {
	t.err = err
	close(t.done)
}

func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

func (t *Ticket) Err() error {
	return t.err
}

// Wait blocks until the message was handled or ctx ends.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type job struct {
	ctx    context.Context
	msg    Message
	ticket *Ticket
}

type Config struct {
	Workers     int
	QueueSize   int
	SendTimeout time.Duration
}

// Pool delivers messages on a fixed set of workers. Enqueue never blocks:
// when the queue is full the message is dropped and counted.
type Pool struct {
	sender  telegram.Sender
	logg    *logger.Logger
	metrics *metrics.NotificationMetrics
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan job
	wg     sync.WaitGroup
}

// NewPool starts the workers. A nil metrics value disables counting.
func NewPool(sender telegram.Sender, logg *logger.Logger, m *metrics.NotificationMetrics, cfg Config) (*Pool, error) {
	if sender == nil {
		return nil, fmt.Errorf("message sender required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = defaultSendTimeout
	}

	p := &Pool{
		sender:  sender,
		logg:    logg,
		metrics: m,
		timeout: cfg.SendTimeout,
		queue:   make(chan job, cfg.QueueSize),
	}
	p.wg.Add(cfg.Workers)
	for range cfg.Workers {
		go p.work()
	}
	return p, nil
}

// Enqueue hands msg to the workers. The returned ticket is already done when
// the message was dropped.
func (p *Pool) Enqueue(ctx context.Context, msg Message) *Ticket {
	ticket := newTicket()
	j := job{ctx: context.WithoutCancel(ctx), msg: msg, ticket: ticket}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.drop(j, ErrPoolClosed)
		return ticket
	}
	select {
	case p.queue <- j:
	default:
		p.drop(j, ErrQueueFull)
	}
	return ticket
}

// OrderCreated queues the order confirmation for the buyer's chat.
func (p *Pool) OrderCreated(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	p.Enqueue(ctx, Message{
		ChatID:      order.TelegramUserID,
		Text:        RenderOrderConfirmation(order),
		OrderNumber: order.OrderNumber,
	})
}

// Shutdown stops accepting messages and waits for queued ones to finish.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.queue {
		p.deliver(j)
	}
}

func (p *Pool) deliver(j job) {
	ctx := p.logg.WithFields(j.ctx, map[string]any{
		"chat_id":      j.msg.ChatID,
		"order_number": j.msg.OrderNumber,
	})
	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := p.sender.SendMessage(sendCtx, j.msg.ChatID, j.msg.Text)
	switch {
	case err == nil:
		p.metrics.IncSent()
		p.logg.Info(ctx, "notification sent")
	case errors.Is(err, telegram.ErrNotConfigured):
		p.metrics.IncDropped()
		p.logg.Warn(ctx, "telegram bot token not configured, notification skipped")
	default:
		p.metrics.IncFailed()
		p.logg.Error(ctx, "notification failed", err)
	}
	j.ticket.finish(err)
}

func (p *Pool) drop(j job, reason error) {
	p.metrics.IncDropped()
	ctx := p.logg.WithField(j.ctx, "chat_id", j.msg.ChatID)
	p.logg.Warn(ctx, "notification dropped: "+reason.Error())
	j.ticket.finish(reason)
}
