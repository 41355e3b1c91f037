package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"tg-sleep-bot/internal/domain"
)

// AMQPReminderQueue implements the reminder queue on a RabbitMQ queue. It is
// the deployment alternative to the Redis list when a broker is already part
// of the stack.
type AMQPReminderQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

// NewAMQPReminderQueue dials the broker and declares a durable queue.
func NewAMQPReminderQueue(url, queue string) (*AMQPReminderQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &AMQPReminderQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue publishes a job as a persistent message.
func (q *AMQPReminderQueue) Enqueue(ctx context.Context, job domain.ReminderJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// deliveryChan registers the consumer on the first call and hands the same
// stream to every subsequent Pop. One consumer per queue instance keeps the
// broker from round-robining jobs into abandoned per-call buffers.
func (q *AMQPReminderQueue) deliveryChan(ctx context.Context) (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	if err := q.ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}
	deliveries, err := q.ch.ConsumeWithContext(ctx, q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// Pop waits for the next job. Messages are acked once decoded; an undecodable
// message is rejected without requeue so it cannot wedge the consumer.
func (q *AMQPReminderQueue) Pop(ctx context.Context) (domain.ReminderJob, error) {
	deliveries, err := q.deliveryChan(ctx)
	if err != nil {
		return domain.ReminderJob{}, err
	}
	for {
		select {
		case <-ctx.Done():
			return domain.ReminderJob{}, ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return domain.ReminderJob{}, fmt.Errorf("amqp queue: channel closed")
			}
			var job domain.ReminderJob
			if err := json.Unmarshal(d.Body, &job); err != nil {
				_ = d.Reject(false)
				continue
			}
			if err := d.Ack(false); err != nil {
				return domain.ReminderJob{}, fmt.Errorf("ack: %w", err)
			}
			return job, nil
		}
	}
}

// Close releases the channel and connection.
func (q *AMQPReminderQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
