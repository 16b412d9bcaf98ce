package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/goccy/go-json"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// LogSink only records the event. Used when no transport is configured.
type LogSink struct {
	Log *zap.Logger
}

func (s LogSink) Deliver(_ context.Context, e Event) error {
	s.Log.Info("booking confirmed",
		zap.String("treatment", e.Treatment),
		zap.String("date", e.Date),
		zap.String("slot", e.Slot),
		zap.String("patientEmail", e.PatientEmail))
	return nil
}

// MailSink emails the patient over SMTP.
type MailSink struct {
	dialer *gomail.Dialer
	from   string
}

func NewMailSink(host string, port int, username, password, from string) *MailSink {
	return &MailSink{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

func (s *MailSink) Deliver(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.dialer.DialAndSend(ConfirmationMessage(s.from, e))
}

func ConfirmationMessage(from string, e Event) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetAddressHeader("To", e.PatientEmail, e.Patient)
	m.SetHeader("Subject", ConfirmationSubject(e))
	m.SetBody("text/html", ConfirmationBody(e))
	return m
}

func ConfirmationSubject(e Event) string {
	return fmt.Sprintf("Your appointment for %s on %s at %s is confirmed", e.Treatment, e.Date, e.Slot)
}

func ConfirmationBody(e Event) string {
	return fmt.Sprintf(`<div>
  <p>Hello %s,</p>
  <h3>Your appointment for %s is confirmed</h3>
  <p>Looking forward to seeing you on %s at %s.</p>
</div>`,
		html.EscapeString(e.Patient),
		html.EscapeString(e.Treatment),
		html.EscapeString(e.Date),
		html.EscapeString(e.Slot))
}

// AMQPSink publishes the event as a persistent JSON message on a queue.
type AMQPSink struct {
	ch    *amqp091.Channel
	queue string
}

func NewAMQPSink(conn *amqp091.Connection, queue string) (*AMQPSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("amqp declare %s: %w", queue, err)
	}
	return &AMQPSink{ch: ch, queue: queue}, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Headers:      amqp091.Table{"message_type": "booking.confirmed"},
	}
	if err := s.ch.PublishWithContext(ctx, "", s.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (s *AMQPSink) Close() error { return s.ch.Close() }

// RedisSink publishes the event on a pub/sub channel.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Deliver(ctx context.Context, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.client.Publish(ctx, s.channel, payload).Err()
}
