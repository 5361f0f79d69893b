package models

import "time"

// Student is a person who can be admitted into courses.
type Student struct {
	ID          int64      `json:"id" db:"id" example:"1"`
	FirstName   string     `json:"firstName" db:"first_name" example:"Ada"`
	LastName    string     `json:"lastName" db:"last_name" example:"Lovelace"`
	Email       string     `json:"email" db:"email" example:"ada@example.edu"` // Unique
	PhoneNumber *string    `json:"phoneNumber,omitempty" db:"phone_number"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty" db:"date_of_birth"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName returns first and last name joined by a space.
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
