// Package queue_publisher publishes domain events to RabbitMQ. Errors
// are logged and swallowed so a broker outage never interrupts the main
// request flow.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/charter-fleet-booking/internal/booking"
	"github.com/iliyamo/charter-fleet-booking/internal/model"
	q "github.com/iliyamo/charter-fleet-booking/internal/queue"
)

// Publisher implements the orchestrator's Notifier by publishing
// reservation events fire-and-forget: each dispatch runs in its own
// goroutine with a short timeout detached from the request context, so
// the booking response never waits on the broker.
type Publisher struct{}

// NewPublisher returns a Publisher.
func NewPublisher() *Publisher { return &Publisher{} }

// ReservationBooked publishes a ReservationBookedEvent for the new
// reservation.
func (p *Publisher) ReservationBooked(_ context.Context, r *model.Reservation) {
	ev := q.ReservationBookedEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		Date:          r.Date.Format("2006-01-02"),
		StartTime:     booking.FormatMinute(r.StartMinute),
		EndTime:       booking.FormatMinute(r.EndMinute),
		UnitCount:     r.UnitCount,
		FinalAmount:   r.Pricing.FinalAmount,
		Status:        string(r.Status),
		BookedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	go publish(q.BookedQueueName, ev)
}

// ReservationCancelled publishes a ReservationCancelledEvent with the
// refund outcome.
func (p *Publisher) ReservationCancelled(_ context.Context, r *model.Reservation) {
	ev := q.ReservationCancelledEvent{
		ReservationID: r.ID,
		UserID:        r.UserID,
		Date:          r.Date.Format("2006-01-02"),
		StartTime:     booking.FormatMinute(r.StartMinute),
		CancelledAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if r.Cancellation != nil {
		ev.Actor = string(r.Cancellation.Actor)
		ev.Reason = r.Cancellation.Reason
		ev.RefundPercent = r.Cancellation.RefundPercent
		ev.RefundAmount = r.Cancellation.RefundAmount
	}
	go publish(q.CancelledQueueName, ev)
}

// publish opens a connection, declares the queue (idempotent, durable)
// and sends one persistent JSON message. Any error is logged; there is
// nothing for the caller to handle.
func publish(queueName string, event any) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // autoDelete
		false,     // exclusive
		false,     // noWait
		nil,       // args
	); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("rabbitmq: marshal event failed: %v", err)
		return
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",        // default exchange
		queueName, // routing key = queue name
		false,     // mandatory
		false,     // immediate
		pub,
	); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
	}
}
