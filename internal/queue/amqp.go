package queue

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// AMQPQueue publishes JSON payloads to durable RabbitMQ queues, one queue
// per topic. Subscribe consumes with manual ack and a bounded requeue
// counter carried in the x-retry-count header.
type AMQPQueue struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  zerolog.Logger
}

func DialAMQP(url string, logger zerolog.Logger) (*AMQPQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return &AMQPQueue{conn: conn, channel: ch, logger: logger}, nil
}

func (q *AMQPQueue) declare(topic string) (amqp.Queue, error) {
	return q.channel.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
}

func (q *AMQPQueue) Publish(topic string, payload any) error {
	queue, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload for %s: %w", topic, err)
	}

	return q.channel.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// Subscribe delivers raw message bodies ([]byte) to the handler. A handler
// error requeues the message up to three times, then drops it.
func (q *AMQPQueue) Subscribe(topic string, handler func(payload any) error) error {
	queue, err := q.declare(topic)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic, err)
	}

	msgs, err := q.channel.Consume(
		queue.Name,
		"",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer for %s: %w", topic, err)
	}

	go func() {
		for d := range msgs {
			if err := handler(d.Body); err != nil {
				q.logger.Warn().Str("topic", topic).Err(err).Msg("message handler failed")

				var retryCount int32
				if v, ok := d.Headers["x-retry-count"].(int32); ok {
					retryCount = v
				}
				if retryCount < 3 {
					if err := q.republish(queue.Name, d.Body, retryCount+1); err != nil {
						q.logger.Error().Str("topic", topic).Err(err).Msg("failed to requeue message")
						d.Nack(false, true)
						continue
					}
				} else {
					q.logger.Error().Str("topic", topic).Int32("retries", retryCount).Msg("dropping message after max retries")
				}
			}
			d.Ack(false)
		}
	}()
	return nil
}

// republish re-enqueues a failed message with a bumped retry counter.
// A plain Nack requeue would keep the original headers and loop forever.
func (q *AMQPQueue) republish(queueName string, body []byte, retryCount int32) error {
	return q.channel.Publish(
		"",
		queueName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Headers:     amqp.Table{"x-retry-count": retryCount},
		},
	)
}

func (q *AMQPQueue) Close() error {
	if err := q.channel.Close(); err != nil {
		q.conn.Close()
		return err
	}
	return q.conn.Close()
}

var _ Queue = (*AMQPQueue)(nil)
