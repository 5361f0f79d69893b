package models

// CourseProgress is one graded course in a student's progress report.
type CourseProgress struct {
	CourseID         int64            `json:"courseId"`
	CourseCode       string           `json:"courseCode"`
	CourseTitle      string           `json:"courseTitle"`
	Credits          int              `json:"credits"`
	Grade            GradeValue       `json:"grade"`
	Completed        bool             `json:"completed"`
	EnrollmentStatus EnrollmentStatus `json:"enrollmentStatus"`
}

// StudentProgress summarises a student's graded work.
type StudentProgress struct {
	StudentID        int64            `json:"studentId"`
	StudentName      string           `json:"studentName"`
	GPA              float64          `json:"gpa"`
	CompletedCredits int              `json:"completedCredits"`
	Courses          []CourseProgress `json:"courses"`
}
