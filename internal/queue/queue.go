package queue

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Queue interface
type Queue interface {
	Publish(topic string, payload any) error
	Subscribe(topic string, handler func(payload any) error) error
}

// InMemoryQueue fans payloads out to subscribed handlers with retry.
// Used in local mode and tests; AMQPQueue is the deployed implementation.
type InMemoryQueue struct {
	mu       sync.Mutex
	handlers map[string][]func(payload any) error
	logger   zerolog.Logger
}

func NewInMemoryQueue(logger zerolog.Logger) *InMemoryQueue {
	return &InMemoryQueue{
		handlers: make(map[string][]func(payload any) error),
		logger:   logger,
	}
}

// jobPayload wraps a message payload with retry info
type jobPayload struct {
	Payload    any
	RetryCount int
	MaxRetries int
}

// Publish sends a message to all subscribers. Delivery is asynchronous;
// a topic with no subscribers drops the message.
func (q *InMemoryQueue) Publish(topic string, payload any) error {
	q.mu.Lock()
	handlers := q.handlers[topic]
	q.mu.Unlock()

	job := jobPayload{
		Payload:    payload,
		RetryCount: 0,
		MaxRetries: 3,
	}

	for _, handler := range handlers {
		go q.processJob(topic, handler, job)
	}
	return nil
}

// processJob handles retries and errors
func (q *InMemoryQueue) processJob(topic string, handler func(payload any) error, job jobPayload) {
	for job.RetryCount <= job.MaxRetries {
		err := handler(job.Payload)
		if err == nil {
			return // ACK
		}

		job.RetryCount++
		q.logger.Warn().
			Str("topic", topic).
			Int("attempt", job.RetryCount).
			Err(err).
			Msg("queue handler failed")

		if job.RetryCount > job.MaxRetries {
			q.logger.Error().
				Str("topic", topic).
				Int("max_retries", job.MaxRetries).
				Msg("queue job permanently failed")
			return // no requeue
		}

		// Exponential backoff before retry
		time.Sleep(time.Duration(job.RetryCount*500) * time.Millisecond)
	}
}

// Subscribe adds a handler for a topic
func (q *InMemoryQueue) Subscribe(topic string, handler func(payload any) error) error {
	if handler == nil {
		return fmt.Errorf("nil handler for topic %s", topic)
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	q.handlers[topic] = append(q.handlers[topic], handler)
	return nil
}

var _ Queue = (*InMemoryQueue)(nil)
