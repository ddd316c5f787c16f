package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// DLQName returns the dead letter queue name for a queue.
func DLQName(queueName string) string {
	return fmt.Sprintf("%s.dlq", queueName)
}

// DeclareDLQ declares the durable dead letter queue for a queue.
func DeclareDLQ(ch *amqp091.Channel, queueName string) (amqp091.Queue, error) {
	return DeclareQueue(ch, DLQName(queueName))
}

// PublishToDLQ moves a message body to the dead letter queue, recording the
// terminal error in headers for operator inspection.
func (p *Publisher) PublishToDLQ(queueName string, payload []byte, originalError string) error {
	headers := amqp091.Table{
		"x-original-error": originalError,
		"x-origin-queue":   queueName,
	}

	return p.channel.Publish(
		"",
		DLQName(queueName),
		false,
		false,
		amqp091.Publishing{
			ContentType:  "application/json",
			Body:         payload,
			DeliveryMode: amqp091.Persistent,
			Headers:      headers,
		},
	)
}
