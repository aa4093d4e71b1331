package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tablevine/reservations/pkg/logger"
)

type Publisher interface {
	Publish(ctx context.Context, subject string, data interface{}) error
	Close() error
}

type Subscriber interface {
	Subscribe(subject string, handler func(msg *Message)) error
	QueueSubscribe(subject, queue string, handler func(msg *Message)) error
	Close() error
}

type EventBus interface {
	Publisher
	Subscriber
}

type Message struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	ID        string
}

type NATSEventBus struct {
	conn *nats.Conn
}

func NewNATSEventBus(url string) (*NATSEventBus, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	return &NATSEventBus{conn: conn}, nil
}

func (n *NATSEventBus) Conn() *nats.Conn { return n.conn }

func (n *NATSEventBus) Publish(ctx context.Context, subject string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	logger.DebugContext(ctx, "Publishing event", "subject", subject, "data", string(payload))

	return n.conn.Publish(subject, payload)
}

func (n *NATSEventBus) Subscribe(subject string, handler func(msg *Message)) error {
	_, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) QueueSubscribe(subject, queue string, handler func(msg *Message)) error {
	_, err := n.conn.QueueSubscribe(subject, queue, func(msg *nats.Msg) {
		handler(&Message{
			Subject:   msg.Subject,
			Data:      msg.Data,
			Timestamp: time.Now(),
			ID:        fmt.Sprintf("%d", time.Now().UnixNano()),
		})
	})
	return err
}

func (n *NATSEventBus) Close() error {
	n.conn.Close()
	return nil
}

// Event subjects
const (
	ReservationCreated       = "reservation.created"
	ReservationStatusChanged = "reservation.status_changed"

	RestaurantImageUploaded = "restaurant.image.uploaded"
	RestaurantImageDeleted  = "restaurant.image.deleted"
)

// Event payloads
type ReservationCreatedEvent struct {
	ReservationID    string    `json:"reservation_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	RestaurantID     string    `json:"restaurant_id"`
	RestaurantName   string    `json:"restaurant_name"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	PartySize        int       `json:"party_size"`
	ReservationDate  string    `json:"reservation_date"`
	ReservationTime  string    `json:"reservation_time"`
	CreatedAt        time.Time `json:"created_at"`
}

type ReservationStatusChangedEvent struct {
	ReservationID    string    `json:"reservation_id"`
	ConfirmationCode string    `json:"confirmation_code"`
	RestaurantName   string    `json:"restaurant_name"`
	CustomerName     string    `json:"customer_name"`
	CustomerEmail    string    `json:"customer_email"`
	OldStatus        string    `json:"old_status"`
	NewStatus        string    `json:"new_status"`
	ChangedBy        string    `json:"changed_by"`
	ChangedAt        time.Time `json:"changed_at"`
}

type RestaurantImageEvent struct {
	RestaurantID string    `json:"restaurant_id"`
	ImageID      string    `json:"image_id"`
	BlobKey      string    `json:"blob_key"`
	OccurredAt   time.Time `json:"occurred_at"`
}
