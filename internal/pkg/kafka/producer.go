package kafka

import (
	"Inkwell/internal/api/config"
	"context"
	"errors"
	"fmt"
	log "log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

const (
	EventPostPublished      = "post.published"
	EventCommentCreated     = "comment.created"
	EventInteractionToggled = "interaction.toggled"
)

var ErrQueueFull = errors.New("kafka producer queue full")

// Event 投递到 topic 的领域事件
type Event struct {
	Type       string    `json:"type"`
	PostID     uint64    `json:"post_id"`
	UserID     uint64    `json:"user_id"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher 事件发布，Publish 不等待 broker 确认
type Publisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

type AsyncPublisher struct {
	producer sarama.AsyncProducer
	topic    string
	wg       sync.WaitGroup
}

// NewPublisher brokers 为空时返回不做任何事的实现
func NewPublisher(cfg config.KafkaConfig) (Publisher, error) {
	if len(cfg.Brokers) == 0 {
		log.Info("Kafka brokers not configured, events disabled")
		return NopPublisher{}, nil
	}

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	p := &AsyncPublisher{producer: producer, topic: cfg.Topic}
	p.wg.Add(1)
	go p.drainErrors()

	log.Info("Kafka producer connected", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return p, nil
}

func (p *AsyncPublisher) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		log.Warn("Kafka publish failed", "topic", perr.Msg.Topic, "err", perr.Err)
	}
}

// Publish 以 post_id 为 key 投递，保证同一帖子的事件有序
func (p *AsyncPublisher) Publish(ctx context.Context, event *Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(event.PostID, 10)),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("type"), Value: []byte(event.Type)},
		},
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

func (p *AsyncPublisher) Close() error {
	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

// NopPublisher 未配置 Kafka 时使用
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *Event) error { return nil }

func (NopPublisher) Close() error { return nil }
