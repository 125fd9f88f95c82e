package kafka

import "go.uber.org/zap"

// StubPublisher stands in for the producer when no brokers are configured.
// Events are logged at debug level and dropped.
type StubPublisher struct {
	logger *zap.Logger
}

func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (s *StubPublisher) Publish(topic string, payload any) {
	s.logger.Debug("event publishing disabled, dropping event",
		zap.String("topic", topic),
		zap.Any("payload", payload),
	)
}

func (s *StubPublisher) Close() error {
	return nil
}
