package models

import "time"

// Default course values
const (
	DefaultCourseCredits  = 3
	DefaultCourseCapacity = 30
	MinCourseCredits      = 1
	MaxCourseCredits      = 12
)

// Course is a capacity-constrained offering students can be admitted into.
type Course struct {
	ID            int64     `json:"id" db:"id"`
	Code          string    `json:"code" db:"code"` // Unique
	Title         string    `json:"title" db:"title"`
	Description   *string   `json:"description,omitempty" db:"description"` // Nullable
	Credits       int       `json:"credits" db:"credits"`
	Capacity      int       `json:"capacity" db:"capacity"`
	EnrolledCount int       `json:"enrolledCount" db:"enrolled_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`

	// Direct prerequisites (populated when needed)
	PrerequisiteIDs []int64 `json:"prerequisiteIds,omitempty"`
}

// AvailableSeats returns the number of unreserved seats, never negative.
func (c *Course) AvailableSeats() int {
	if c.EnrolledCount >= c.Capacity {
		return 0
	}
	return c.Capacity - c.EnrolledCount
}

// HasAvailableSeats reports whether at least one seat is free.
func (c *Course) HasAvailableSeats() bool {
	return c.EnrolledCount < c.Capacity
}
