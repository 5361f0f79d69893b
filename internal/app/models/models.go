package models

// EnrollmentStatus is the lifecycle state of an enrollment.
type EnrollmentStatus string

// Enrollment statuses. ACTIVE is the only non-terminal state.
const (
	EnrollmentActive    EnrollmentStatus = "ACTIVE"
	EnrollmentDropped   EnrollmentStatus = "DROPPED"
	EnrollmentCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentFailed    EnrollmentStatus = "FAILED"
	EnrollmentWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// EnrollmentStatuses lists every known status.
var EnrollmentStatuses = []EnrollmentStatus{
	EnrollmentActive,
	EnrollmentDropped,
	EnrollmentCompleted,
	EnrollmentFailed,
	EnrollmentWithdrawn,
}

// IsValid reports whether s is a known status.
func (s EnrollmentStatus) IsValid() bool {
	for _, known := range EnrollmentStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s EnrollmentStatus) IsTerminal() bool {
	return s != EnrollmentActive
}
