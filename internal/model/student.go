package model

import "github.com/google/uuid"

// Student is the display identity of a student. Account data lives elsewhere.
type Student struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	RollNumber string    `json:"roll_number"`
}
