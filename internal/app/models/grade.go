package models

import "time"

// GradeValue is a letter grade from the closed set below.
type GradeValue string

// Grade values
const (
	GradeA      GradeValue = "A"
	GradeAMinus GradeValue = "A-"
	GradeBPlus  GradeValue = "B+"
	GradeB      GradeValue = "B"
	GradeBMinus GradeValue = "B-"
	GradeCPlus  GradeValue = "C+"
	GradeC      GradeValue = "C"
	GradeCMinus GradeValue = "C-"
	GradeDPlus  GradeValue = "D+"
	GradeD      GradeValue = "D"
	GradeF      GradeValue = "F"
	GradeP      GradeValue = "P"
	GradeNP     GradeValue = "NP"
	GradeI      GradeValue = "I"
	GradeW      GradeValue = "W"
)

var gradePoints = map[GradeValue]float64{
	GradeA:      4.0,
	GradeAMinus: 3.7,
	GradeBPlus:  3.3,
	GradeB:      3.0,
	GradeBMinus: 2.7,
	GradeCPlus:  2.3,
	GradeC:      2.0,
	GradeCMinus: 1.7,
	GradeDPlus:  1.3,
	GradeD:      1.0,
	GradeF:      0.0,
	GradeNP:     0.0,
	GradeP:      2.0,
}

// IsValid reports whether g belongs to the closed grade set.
func (g GradeValue) IsValid() bool {
	switch g {
	case GradeA, GradeAMinus, GradeBPlus, GradeB, GradeBMinus,
		GradeCPlus, GradeC, GradeCMinus, GradeDPlus, GradeD,
		GradeF, GradeP, GradeNP, GradeI, GradeW:
		return true
	}
	return false
}

// Points returns the grade-point value; ok is false for I and W, which carry none.
func (g GradeValue) Points() (points float64, ok bool) {
	points, ok = gradePoints[g]
	return points, ok
}

// CountsTowardGPA reports whether g contributes to a credit-weighted GPA.
// P carries nominal points but is pass/fail and stays out of the average.
func (g GradeValue) CountsTowardGPA() bool {
	if g == GradeP {
		return false
	}
	_, ok := gradePoints[g]
	return ok
}

// IsPassing reports whether g earns credit.
func (g GradeValue) IsPassing() bool {
	switch g {
	case GradeF, GradeNP, GradeI, GradeW:
		return false
	}
	return g.IsValid()
}

// Grade is the single grade recorded for an enrollment.
type Grade struct {
	ID           int64      `json:"id" db:"id"`
	EnrollmentID int64      `json:"enrollmentId" db:"enrollment_id"` // Unique
	Value        GradeValue `json:"gradeValue" db:"grade_value"`
	Comments     *string    `json:"comments,omitempty" db:"comments"`
	Completed    bool       `json:"courseCompleted" db:"is_course_completed"`
	GradedDate   *time.Time `json:"gradedDate,omitempty" db:"graded_date"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time  `json:"updatedAt" db:"updated_at"`
}

// GradeRecord is a grade joined with the course facts GPA and progress reports need.
type GradeRecord struct {
	Grade
	StudentID        int64            `json:"studentId"`
	CourseID         int64            `json:"courseId"`
	CourseCode       string           `json:"courseCode"`
	CourseTitle      string           `json:"courseTitle"`
	Credits          int              `json:"credits"`
	EnrollmentStatus EnrollmentStatus `json:"enrollmentStatus"`
}
