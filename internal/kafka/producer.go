package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-eventpay/internal/models"
)

// Producer streams settlement lifecycle events to Kafka.
type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Producer{writer: writer}
}

func (p *Producer) Publish(topic string, key string, value []byte) error {
	return p.writer.WriteMessages(context.Background(),
		kafka.Message{
			Topic: topic,
			Key:   []byte(key),
			Value: value,
		},
	)
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// OrderEvent is the payload published for order lifecycle changes.
type OrderEvent struct {
	OrderID      string    `json:"order_id"`
	UserID       string    `json:"user_id"`
	EventID      string    `json:"event_id"`
	TicketAmount int       `json:"ticket_amount"`
	FinalAmount  float64   `json:"final_amount"`
	Status       string    `json:"status"`
	Timestamp    time.Time `json:"timestamp"`
}

// TicketEvent is published once per settlement that minted tickets.
type TicketEvent struct {
	EventID    string    `json:"event_id"`
	AttendeeID string    `json:"attendee_id"`
	Count      int       `json:"count"`
	Timestamp  time.Time `json:"timestamp"`
}

func (p *Producer) PublishOrder(topic string, txn models.Transaction) error {
	payload := OrderEvent{
		OrderID:      txn.ID,
		UserID:       txn.UserID,
		EventID:      txn.EventID,
		TicketAmount: txn.TicketAmount,
		FinalAmount:  txn.FinalAmount,
		Status:       txn.Status,
		Timestamp:    time.Now(),
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Publish(topic, txn.ID, value)
}

func (p *Producer) PublishTicketsIssued(topic string, eventID, attendeeID string, count int) error {
	payload := TicketEvent{
		EventID:    eventID,
		AttendeeID: attendeeID,
		Count:      count,
		Timestamp:  time.Now(),
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Publish(topic, eventID, value)
}
