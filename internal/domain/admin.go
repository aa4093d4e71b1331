package domain

import "time"

// AdminUser membership is the sole authorization predicate for mutating admin
// operations. A valid credential alone is not sufficient.
type AdminUser struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
