package models

import "time"

// Enrollment binds one student to one course.
type Enrollment struct {
	ID               int64            `json:"id" db:"id"`
	StudentID        int64            `json:"studentId" db:"student_id"`
	CourseID         int64            `json:"courseId" db:"course_id"`
	EnrollmentDate   time.Time        `json:"enrollmentDate" db:"enrollment_date"`
	Status           EnrollmentStatus `json:"status" db:"status"`
	WithdrawalReason *string          `json:"withdrawalReason,omitempty" db:"withdrawal_reason"`
	WithdrawalDate   *time.Time       `json:"withdrawalDate,omitempty" db:"withdrawal_date"`
	CreatedAt        time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time        `json:"updatedAt" db:"updated_at"`

	// GradeID is resolved from the grades table; nil when no grade is attached.
	GradeID *int64 `json:"gradeId,omitempty" db:"grade_id"`
}

// IsActive reports whether the enrollment currently holds a seat.
func (e *Enrollment) IsActive() bool {
	return e.Status == EnrollmentActive
}
