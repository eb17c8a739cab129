package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the first reachable broker and makes sure the topic
// exists. Without a broker it falls back to a producer that only logs.
func NewProducer(brokers []string, topic string) Producer {
	if len(brokers) == 0 {
		logrus.Warn("no kafka brokers configured, using mock producer")
		return &mockProducer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		logrus.WithError(err).WithField("brokers", brokers).Warn("kafka connection failed, using mock producer")
		return &mockProducer{}
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).Info("could not create topic (might already exist)")
	}

	logrus.WithField("brokers", brokers).Info("connected to kafka")
	return &kafkaProducer{writer: writer, topic: topic}
}

func (p *kafkaProducer) SendMessage(ctx context.Context, key string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: messageBytes,
		Time:  time.Now(),
	})
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"topic": p.topic, "key": key}).Debug("message sent")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// mockProducer keeps the service usable without Kafka.
type mockProducer struct{}

func NewMockProducer() Producer {
	return &mockProducer{}
}

func (m *mockProducer) SendMessage(_ context.Context, key string, message interface{}) error {
	logrus.WithField("key", key).Debugf("MOCK: message %+v", message)
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
