// Package notify turns reservation events into customer email.
package notify

import (
	"encoding/json"
	"fmt"

	"github.com/tablevine/reservations/internal/platform/mailer"
	"github.com/tablevine/reservations/pkg/events"
	"github.com/tablevine/reservations/pkg/logger"
)

type Notifier struct {
	bus    events.Subscriber
	mailer mailer.Service
}

func New(bus events.Subscriber, m mailer.Service) *Notifier {
	return &Notifier{bus: bus, mailer: m}
}

// Start registers the event subscriptions. Delivery failures are logged, never
// propagated: mail is best-effort and the reservation record is authoritative.
func (n *Notifier) Start() error {
	if err := n.bus.QueueSubscribe(events.ReservationCreated, "notify", n.onCreated); err != nil {
		return err
	}
	return n.bus.QueueSubscribe(events.ReservationStatusChanged, "notify", n.onStatusChanged)
}

func (n *Notifier) onCreated(msg *events.Message) {
	var ev events.ReservationCreatedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Failed to decode reservation created event", "error", err)
		return
	}
	if ev.CustomerEmail == "" {
		return
	}

	subject := fmt.Sprintf("Reservation request received at %s", ev.RestaurantName)
	text := fmt.Sprintf(
		"Hi %s,\n\nWe received your reservation request at %s for %d guests on %s at %s.\n\n"+
			"Your confirmation code is %s. We'll email you again once the restaurant confirms.\n",
		ev.CustomerName, ev.RestaurantName, ev.PartySize, ev.ReservationDate, ev.ReservationTime,
		ev.ConfirmationCode,
	)

	if _, err := n.mailer.Send(ev.CustomerEmail, ev.CustomerName, subject, text, ""); err != nil {
		logger.Error("Failed to send reservation created email",
			"error", err, "reservation_id", ev.ReservationID)
	}
}

func (n *Notifier) onStatusChanged(msg *events.Message) {
	var ev events.ReservationStatusChangedEvent
	if err := json.Unmarshal(msg.Data, &ev); err != nil {
		logger.Error("Failed to decode status changed event", "error", err)
		return
	}
	if ev.CustomerEmail == "" {
		return
	}

	var subject, text string
	switch ev.NewStatus {
	case "confirmed":
		subject = fmt.Sprintf("Reservation confirmed at %s", ev.RestaurantName)
		text = fmt.Sprintf("Hi %s,\n\nYour reservation at %s is confirmed. Confirmation code: %s.\n",
			ev.CustomerName, ev.RestaurantName, ev.ConfirmationCode)
	case "cancelled":
		subject = fmt.Sprintf("Reservation cancelled at %s", ev.RestaurantName)
		text = fmt.Sprintf("Hi %s,\n\nYour reservation at %s (code %s) was cancelled.\n",
			ev.CustomerName, ev.RestaurantName, ev.ConfirmationCode)
	default:
		return
	}

	if _, err := n.mailer.Send(ev.CustomerEmail, ev.CustomerName, subject, text, ""); err != nil {
		logger.Error("Failed to send status change email",
			"error", err, "reservation_id", ev.ReservationID)
	}
}
