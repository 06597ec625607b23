package models

import "time"

// Device is a field tablet enrolled with the backend.
type Device struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
