package models

import "time"

type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	VIN       string    `json:"vin,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
