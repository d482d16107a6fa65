package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/segmentio/kafka-go"
)

// Message is a single record destined for a topic.
type Message struct {
	Topic   string
	Key     string
	Value   []byte
	Headers map[string]string
	Time    time.Time
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes records to Kafka. The topic is chosen per message.
type Producer struct {
	writer  messageWriter
	brokers []string
}

func NewProducer(cfg config.KafkaConfig) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = 10 * time.Millisecond
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: false,
	}
	return &Producer{writer: writer, brokers: cfg.Brokers}, nil
}

// Publish writes one message and blocks until the brokers acknowledge it.
func (p *Producer) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return errors.New("kafka topic is required")
	}
	at := msg.Time
	if at.IsZero() {
		at = time.Now().UTC()
	}
	headers := make([]kafka.Header, 0, len(msg.Headers))
	for k, v := range msg.Headers {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   msg.Topic,
		Key:     []byte(msg.Key),
		Value:   msg.Value,
		Headers: headers,
		Time:    at,
	})
}

// Ping dials the first reachable broker.
func (p *Producer) Ping(ctx context.Context) error {
	var lastErr error
	for _, broker := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", broker)
		if err != nil {
			lastErr = err
			continue
		}
		_, err = conn.Brokers()
		_ = conn.Close()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no kafka brokers configured")
	}
	return lastErr
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
