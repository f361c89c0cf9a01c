package models

import "time"

// ContactMessage is a record of an inbound visitor inquiry submitted through
// the public contact form. Messages are append-only except for the Read flag.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}
