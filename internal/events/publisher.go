package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/loyalcup/backend/internal/config"
	"github.com/loyalcup/backend/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	defaultExchange       = "order_events_fanout"
	defaultPublishTimeout = 5 * time.Second
)

// ErrPublisherClosed 发布器已关闭
var ErrPublisherClosed = errors.New("event publisher closed")

// Publisher 事件发布接口
type Publisher interface {
	PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error
	Close() error
}

// NoopPublisher 未启用事件广播时使用
type NoopPublisher struct{}

// PublishOrderStatusChanged 丢弃事件
func (NoopPublisher) PublishOrderStatusChanged(_ context.Context, event OrderStatusChanged) error {
	logger.Debugw("order_event_publish_skipped", "order_id", event.OrderID, "to_status", event.ToStatus)
	return nil
}

// Close 无操作
func (NoopPublisher) Close() error { return nil }

// AMQPPublisher 基于 RabbitMQ fanout 交换机的事件发布器
type AMQPPublisher struct {
	url      string
	exchange string
	timeout  time.Duration

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// New 根据配置创建事件发布器，未启用时返回 NoopPublisher
func New(cfg *config.EventsConfig) (Publisher, error) {
	if cfg == nil || !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, fmt.Errorf("events.url is required when events are enabled")
	}
	exchange := strings.TrimSpace(cfg.Exchange)
	if exchange == "" {
		exchange = defaultExchange
	}
	timeout := defaultPublishTimeout
	if cfg.PublishTimeoutSeconds > 0 {
		timeout = time.Duration(cfg.PublishTimeoutSeconds) * time.Second
	}
	p := &AMQPPublisher{url: url, exchange: exchange, timeout: timeout}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *AMQPPublisher) connect() error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"fanout",   // kind
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("declare exchange %s: %w", p.exchange, err)
	}
	p.conn = conn
	p.ch = ch
	return nil
}

// channel 返回可用 channel，连接断开时重连一次
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPublisherClosed
	}
	if p.conn != nil && !p.conn.IsClosed() && p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	logger.Warnw("rabbitmq_reconnecting", "exchange", p.exchange)
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p.ch, nil
}

// PublishOrderStatusChanged 发布订单状态变更事件
func (p *AMQPPublisher) PublishOrderStatusChanged(ctx context.Context, event OrderStatusChanged) error {
	msg, err := buildPublishing(event)
	if err != nil {
		return err
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := ch.PublishWithContext(ctx,
		p.exchange, // exchange
		"",         // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	); err != nil {
		return err
	}
	logger.Debugw("order_event_published", "order_id", event.OrderID, "to_status", event.ToStatus)
	return nil
}

// Close 关闭连接
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	var errs []error
	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}

func buildPublishing(event OrderStatusChanged) (amqp.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		ContentType:  "application/json",
		Type:         event.Type,
		MessageId:    fmt.Sprintf("%s:%s", event.OrderID, event.ToStatus),
		Timestamp:    event.OccurredAt,
		Body:         body,
	}, nil
}
