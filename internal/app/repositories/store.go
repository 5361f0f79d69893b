package repositories

import (
	"context"
	"errors"

	"github.com/yigit/registrar/internal/app/models"
)

// Repository level errors, mapped onto the application taxonomy by the services.
var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
	// ErrNoCapacity reports that a conditional capacity update matched an existing course
	// whose current load does not allow it.
	ErrNoCapacity = errors.New("course has no capacity for this change")
)

// StudentQuerier covers student rows.
type StudentQuerier interface {
	CreateStudent(ctx context.Context, student *models.Student) error
	GetStudentByID(ctx context.Context, id int64) (*models.Student, error)
	GetStudentByEmail(ctx context.Context, email string) (*models.Student, error)
	ListStudents(ctx context.Context) ([]*models.Student, error)
	UpdateStudent(ctx context.Context, student *models.Student) error
	DeleteStudent(ctx context.Context, id int64) error
}

// CourseQuerier covers course rows, the seat counter and the prerequisite edges.
type CourseQuerier interface {
	CreateCourse(ctx context.Context, course *models.Course) error
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetCourseByCode(ctx context.Context, code string) (*models.Course, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	ListCoursesWithAvailableSeats(ctx context.Context) ([]*models.Course, error)
	UpdateCourse(ctx context.Context, course *models.Course) error
	DeleteCourse(ctx context.Context, id int64) error

	// IncrementEnrolledCount adds one seat only while enrolled_count < capacity and returns the
	// new count. It fails with ErrNoCapacity for a full course and ErrNotFound for an unknown one.
	IncrementEnrolledCount(ctx context.Context, courseID int64) (int, error)
	// DecrementEnrolledCount removes one seat, flooring at zero, and returns the new count.
	DecrementEnrolledCount(ctx context.Context, courseID int64) (int, error)
	// UpdateCapacity sets capacity only while enrolled_count <= capacity.
	UpdateCapacity(ctx context.Context, courseID int64, capacity int) error

	ListPrerequisiteIDs(ctx context.Context, courseID int64) ([]int64, error)
	AddPrerequisite(ctx context.Context, courseID, prerequisiteID int64) error
	RemovePrerequisite(ctx context.Context, courseID, prerequisiteID int64) error
	ListDependentCourseIDs(ctx context.Context, prerequisiteID int64) ([]int64, error)
}

// EnrollmentQuerier covers enrollment rows.
type EnrollmentQuerier interface {
	// CreateEnrollment fails with ErrAlreadyExists when the pair already has an ACTIVE row.
	CreateEnrollment(ctx context.Context, enrollment *models.Enrollment) error
	GetEnrollmentByID(ctx context.Context, id int64) (*models.Enrollment, error)
	// LockEnrollment reads the row and holds a write lock on it until the transaction ends.
	LockEnrollment(ctx context.Context, id int64) (*models.Enrollment, error)
	// FindEnrollmentByStudentAndCourse prefers the ACTIVE row, then the most recent one.
	FindEnrollmentByStudentAndCourse(ctx context.Context, studentID, courseID int64) (*models.Enrollment, error)
	ActiveEnrollmentExists(ctx context.Context, studentID, courseID int64) (bool, error)
	ListEnrollments(ctx context.Context, filter EnrollmentFilter) ([]*models.Enrollment, error)
	ListCompletedCourseIDs(ctx context.Context, studentID int64) ([]int64, error)
	UpdateEnrollmentStatus(ctx context.Context, enrollment *models.Enrollment) error
	DeleteEnrollment(ctx context.Context, id int64) error
	CountActiveEnrollments(ctx context.Context, courseID int64) (int, error)
}

// GradeQuerier covers grade rows.
type GradeQuerier interface {
	// CreateGrade fails with ErrAlreadyExists when the enrollment already has a grade.
	CreateGrade(ctx context.Context, grade *models.Grade) error
	GetGradeByID(ctx context.Context, id int64) (*models.Grade, error)
	GetGradeByEnrollmentID(ctx context.Context, enrollmentID int64) (*models.Grade, error)
	UpdateGrade(ctx context.Context, grade *models.Grade) error
	DeleteGrade(ctx context.Context, id int64) error
	ListGradeRecordsByStudent(ctx context.Context, studentID int64) ([]*models.GradeRecord, error)
	ListGradesByCourse(ctx context.Context, courseID int64) ([]*models.Grade, error)
}

// Querier is every row operation the engine needs, bound to a connection or a transaction.
type Querier interface {
	StudentQuerier
	CourseQuerier
	EnrollmentQuerier
	GradeQuerier
}

// TxFunc runs inside a transaction; returning an error rolls it back.
type TxFunc func(ctx context.Context, q Querier) error

// Store is a Querier that can also open transactions.
type Store interface {
	Querier
	InTx(ctx context.Context, fn TxFunc) error
	Close() error
}

// EnrollmentFilter narrows ListEnrollments. Zero values match everything.
type EnrollmentFilter struct {
	StudentID int64
	CourseID  int64
	Status    models.EnrollmentStatus
}
