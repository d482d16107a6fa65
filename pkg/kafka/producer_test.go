package kafka

import (
	"context"
	"testing"
	"time"

	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublishMapsMessage(t *testing.T) {
	rec := &recordingWriter{}
	p := &Producer{writer: rec}
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), Message{
		Topic:   "inventory-alerts",
		Key:     "item-1",
		Value:   []byte(`{"x":1}`),
		Headers: map[string]string{"event_type": "inventory_expired"},
		Time:    at,
	})
	require.NoError(t, err)
	require.Len(t, rec.msgs, 1)

	got := rec.msgs[0]
	assert.Equal(t, "inventory-alerts", got.Topic)
	assert.Equal(t, "item-1", string(got.Key))
	assert.Equal(t, at, got.Time)
	require.Len(t, got.Headers, 1)
	assert.Equal(t, "event_type", got.Headers[0].Key)
	assert.Equal(t, "inventory_expired", string(got.Headers[0].Value))

	require.NoError(t, p.Close())
	assert.True(t, rec.closed)
}

func TestPublishRequiresTopic(t *testing.T) {
	p := &Producer{writer: &recordingWriter{}}
	assert.Error(t, p.Publish(context.Background(), Message{Key: "k"}))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{})
	assert.Error(t, err)

	p, err := NewProducer(config.KafkaConfig{Brokers: []string{"localhost:9092"}})
	require.NoError(t, err)
	assert.NotNil(t, p)
}
