package dto

// RecordGradeRequest attaches a grade to an enrollment
type RecordGradeRequest struct {
	EnrollmentID  int64   `json:"enrollmentId" binding:"required,gt=0"`
	Value         string  `json:"gradeValue" binding:"required"`
	Comments      *string `json:"comments,omitempty" binding:"omitempty,max=1000"`
	MarkCompleted bool    `json:"courseCompleted"`
	GradedDate    *string `json:"gradedDate,omitempty" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateGradeRequest rewrites a grade
type UpdateGradeRequest struct {
	Value         string  `json:"gradeValue" binding:"required"`
	Comments      *string `json:"comments,omitempty" binding:"omitempty,max=1000"`
	MarkCompleted bool    `json:"courseCompleted"`
	GradedDate    *string `json:"gradedDate,omitempty" binding:"omitempty,datetime=2006-01-02"`
}
