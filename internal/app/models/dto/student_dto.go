package dto

import (
	"time"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/pkg/helpers"
)

// StudentRequest represents student creation and update data
type StudentRequest struct {
	FirstName   string  `json:"firstName" binding:"required,max=100"`
	LastName    string  `json:"lastName" binding:"required,max=100"`
	Email       string  `json:"email" binding:"required,email"`
	PhoneNumber *string `json:"phoneNumber,omitempty" binding:"omitempty,max=30,phone"`
	DateOfBirth *string `json:"dateOfBirth,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// ToModel converts the request into a student; the date was already validated by binding
func (r *StudentRequest) ToModel() *models.Student {
	student := &models.Student{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Email:       r.Email,
		PhoneNumber: r.PhoneNumber,
	}
	student.DateOfBirth = ParseDate(r.DateOfBirth)
	return student
}

// ParseDate parses an optional YYYY-MM-DD date; nil and malformed input yield nil
func ParseDate(value *string) *time.Time {
	if value == nil {
		return nil
	}
	date, err := time.ParseInLocation(helpers.DateLayout, *value, time.UTC)
	if err != nil {
		return nil
	}
	return &date
}

// WithdrawRequest carries the reason of a full withdrawal
type WithdrawRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// GPAResponse reports a student's GPA
type GPAResponse struct {
	StudentID int64   `json:"studentId" example:"1"`
	GPA       float64 `json:"gpa" example:"3.67"`
}
