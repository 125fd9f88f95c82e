// Package kafka publishes domain events to the message bus. When no brokers
// are configured the stub publisher logs events instead.
package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// Producer wraps an async sarama producer. Publish never blocks the request
// path; delivery errors are drained into the log.
type Producer struct {
	producer    sarama.AsyncProducer
	topicPrefix string
	logger      *zap.Logger
	done        chan struct{}
}

func NewProducer(brokers []string, topicPrefix string, logger *zap.Logger) (*Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForLocal
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	p := &Producer{
		producer:    producer,
		topicPrefix: topicPrefix,
		logger:      logger,
		done:        make(chan struct{}),
	}
	go p.drainErrors()
	return p, nil
}

func (p *Producer) drainErrors() {
	defer close(p.done)
	for err := range p.producer.Errors() {
		p.logger.Error("kafka publish failed",
			zap.String("topic", err.Msg.Topic),
			zap.Error(err.Err),
		)
	}
}

// Publish serializes the payload and enqueues it. Encoding failures are
// logged and dropped.
func (p *Producer) Publish(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		p.logger.Error("failed to encode event payload",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return
	}

	p.producer.Input() <- &sarama.ProducerMessage{
		Topic: p.topicPrefix + "." + topic,
		Value: sarama.ByteEncoder(data),
	}
}

// Close flushes pending messages and shuts the producer down.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	<-p.done
	return nil
}
