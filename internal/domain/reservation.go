package domain

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
)

func ParseReservationStatus(s string) (ReservationStatus, bool) {
	switch ReservationStatus(s) {
	case ReservationPending, ReservationConfirmed, ReservationCancelled:
		return ReservationStatus(s), true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further transition out of the status is
// allowed. Re-applying the same terminal status is still permitted as a no-op.
func (s ReservationStatus) IsTerminal() bool {
	return s == ReservationConfirmed || s == ReservationCancelled
}

type Reservation struct {
	ID               string            `json:"id"`
	ConfirmationCode string            `json:"confirmation_code"`
	RestaurantID     string            `json:"restaurant_id"`
	Status           ReservationStatus `json:"status"`

	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email"`

	PartySize       int    `json:"party_size"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	SpecialRequests string `json:"special_requests,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Restaurant *Restaurant `json:"restaurant,omitempty"`
}

type CreateReservationReq struct {
	RestaurantID    string `json:"restaurant_id"`
	CustomerName    string `json:"customer_name"`
	CustomerPhone   string `json:"customer_phone"`
	CustomerEmail   string `json:"customer_email"`
	PartySize       int    `json:"party_size"`
	ReservationDate string `json:"reservation_date"`
	ReservationTime string `json:"reservation_time"`
	SpecialRequests string `json:"special_requests"`
}

// Validate checks that every required field is present. It returns the first
// missing field only; callers surface it inline on the booking form.
func (r *CreateReservationReq) Validate() error {
	switch {
	case r.RestaurantID == "":
		return &ValidationError{Field: "restaurant_id", Reason: "required"}
	case r.CustomerName == "":
		return &ValidationError{Field: "customer_name", Reason: "required"}
	case r.CustomerPhone == "":
		return &ValidationError{Field: "customer_phone", Reason: "required"}
	case r.CustomerEmail == "":
		return &ValidationError{Field: "customer_email", Reason: "required"}
	case r.PartySize <= 0:
		return &ValidationError{Field: "party_size", Reason: "must be a positive integer"}
	case r.ReservationDate == "":
		return &ValidationError{Field: "reservation_date", Reason: "required"}
	case r.ReservationTime == "":
		return &ValidationError{Field: "reservation_time", Reason: "required"}
	}
	return nil
}
