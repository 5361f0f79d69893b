package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/yigit/registrar/internal/app/models"
	"github.com/yigit/registrar/internal/app/repositories"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "registrar.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func createStudent(t *testing.T, store *Store, email string) *models.Student {
	t.Helper()

	student := &models.Student{FirstName: "Ada", LastName: "Lovelace", Email: email}
	if err := store.CreateStudent(context.Background(), student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	return student
}

func createCourse(t *testing.T, store *Store, code string, capacity int) *models.Course {
	t.Helper()

	course := &models.Course{Code: code, Title: "Course " + code, Credits: 3, Capacity: capacity}
	if err := store.CreateCourse(context.Background(), course); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return course
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "registrar.sqlite")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close #%d: %v", i+1, err)
		}
	}
}

func TestStudentRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()

	dob := time.Date(2001, time.March, 4, 0, 0, 0, 0, time.UTC)
	phone := "555-0100"
	student := &models.Student{
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       "grace@example.edu",
		PhoneNumber: &phone,
		DateOfBirth: &dob,
	}
	if err := store.CreateStudent(ctx, student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	if student.ID == 0 {
		t.Fatal("expected generated id")
	}

	got, err := store.GetStudentByEmail(ctx, "grace@example.edu")
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if got.ID != student.ID || got.FullName() != "Grace Hopper" {
		t.Fatalf("student = %+v", got)
	}
	if got.PhoneNumber == nil || *got.PhoneNumber != phone {
		t.Fatalf("phone = %v, want %q", got.PhoneNumber, phone)
	}
	if got.DateOfBirth == nil || !got.DateOfBirth.Equal(dob) {
		t.Fatalf("date of birth = %v, want %v", got.DateOfBirth, dob)
	}

	dup := &models.Student{FirstName: "G", LastName: "H", Email: "grace@example.edu"}
	if err := store.CreateStudent(ctx, dup); !errors.Is(err, repositories.ErrAlreadyExists) {
		t.Fatalf("duplicate email err = %v, want ErrAlreadyExists", err)
	}

	if err := store.DeleteStudent(ctx, student.ID); err != nil {
		t.Fatalf("delete student: %v", err)
	}
	if _, err := store.GetStudentByID(ctx, student.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("get deleted student err = %v, want ErrNotFound", err)
	}
	if err := store.DeleteStudent(ctx, student.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("delete missing student err = %v, want ErrNotFound", err)
	}
}

func TestSeatCounterIsBounded(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	course := createCourse(t, store, "CS101", 2)

	for want := 1; want <= 2; want++ {
		got, err := store.IncrementEnrolledCount(ctx, course.ID)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if got != want {
			t.Fatalf("enrolled = %d, want %d", got, want)
		}
	}
	if _, err := store.IncrementEnrolledCount(ctx, course.ID); !errors.Is(err, repositories.ErrNoCapacity) {
		t.Fatalf("increment full course err = %v, want ErrNoCapacity", err)
	}
	if _, err := store.IncrementEnrolledCount(ctx, course.ID+100); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("increment unknown course err = %v, want ErrNotFound", err)
	}

	if err := store.UpdateCapacity(ctx, course.ID, 1); !errors.Is(err, repositories.ErrNoCapacity) {
		t.Fatalf("shrink below load err = %v, want ErrNoCapacity", err)
	}
	if err := store.UpdateCapacity(ctx, course.ID, 3); err != nil {
		t.Fatalf("grow capacity: %v", err)
	}

	for want := 1; want >= 0; want-- {
		got, err := store.DecrementEnrolledCount(ctx, course.ID)
		if err != nil {
			t.Fatalf("decrement: %v", err)
		}
		if got != want {
			t.Fatalf("enrolled = %d, want %d", got, want)
		}
	}
	got, err := store.DecrementEnrolledCount(ctx, course.ID)
	if err != nil {
		t.Fatalf("decrement at zero: %v", err)
	}
	if got != 0 {
		t.Fatalf("enrolled = %d, want floor of 0", got)
	}

	open, err := store.ListCoursesWithAvailableSeats(ctx)
	if err != nil {
		t.Fatalf("list open courses: %v", err)
	}
	if len(open) != 1 || open[0].Capacity != 3 {
		t.Fatalf("open courses = %+v", open)
	}
}

func TestActivePairIsUnique(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	student := createStudent(t, store, "a@example.edu")
	course := createCourse(t, store, "CS101", 5)
	today := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)

	first := &models.Enrollment{StudentID: student.ID, CourseID: course.ID, EnrollmentDate: today, Status: models.EnrollmentActive}
	if err := store.CreateEnrollment(ctx, first); err != nil {
		t.Fatalf("create enrollment: %v", err)
	}
	second := &models.Enrollment{StudentID: student.ID, CourseID: course.ID, EnrollmentDate: today, Status: models.EnrollmentActive}
	if err := store.CreateEnrollment(ctx, second); !errors.Is(err, repositories.ErrAlreadyExists) {
		t.Fatalf("second active enrollment err = %v, want ErrAlreadyExists", err)
	}

	first.Status = models.EnrollmentDropped
	if err := store.UpdateEnrollmentStatus(ctx, first); err != nil {
		t.Fatalf("drop enrollment: %v", err)
	}
	if err := store.CreateEnrollment(ctx, second); err != nil {
		t.Fatalf("re-enroll after drop: %v", err)
	}

	found, err := store.FindEnrollmentByStudentAndCourse(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("find enrollment: %v", err)
	}
	if found.ID != second.ID || !found.IsActive() {
		t.Fatalf("found = %+v, want active enrollment %d", found, second.ID)
	}
	if !found.EnrollmentDate.Equal(today) {
		t.Fatalf("enrollment date = %v, want %v", found.EnrollmentDate, today)
	}

	active, err := store.ListEnrollments(ctx, repositories.EnrollmentFilter{StudentID: student.ID, Status: models.EnrollmentActive})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active enrollments = %d, want 1", len(active))
	}
	count, err := store.CountActiveEnrollments(ctx, course.ID)
	if err != nil {
		t.Fatalf("count active: %v", err)
	}
	if count != 1 {
		t.Fatalf("active count = %d, want 1", count)
	}
}

func TestGradeIsUniquePerEnrollment(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	student := createStudent(t, store, "b@example.edu")
	course := createCourse(t, store, "MATH200", 5)
	enrollment := &models.Enrollment{
		StudentID:      student.ID,
		CourseID:       course.ID,
		EnrollmentDate: time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC),
		Status:         models.EnrollmentActive,
	}
	if err := store.CreateEnrollment(ctx, enrollment); err != nil {
		t.Fatalf("create enrollment: %v", err)
	}

	grade := &models.Grade{EnrollmentID: enrollment.ID, Value: models.GradeBPlus, Completed: true}
	if err := store.CreateGrade(ctx, grade); err != nil {
		t.Fatalf("create grade: %v", err)
	}
	again := &models.Grade{EnrollmentID: enrollment.ID, Value: models.GradeA}
	if err := store.CreateGrade(ctx, again); !errors.Is(err, repositories.ErrAlreadyExists) {
		t.Fatalf("second grade err = %v, want ErrAlreadyExists", err)
	}

	loaded, err := store.GetEnrollmentByID(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if loaded.GradeID == nil || *loaded.GradeID != grade.ID {
		t.Fatalf("grade id = %v, want %d", loaded.GradeID, grade.ID)
	}

	records, err := store.ListGradeRecordsByStudent(ctx, student.ID)
	if err != nil {
		t.Fatalf("list grade records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	record := records[0]
	if record.Value != models.GradeBPlus || !record.Completed || record.CourseCode != "MATH200" || record.Credits != 3 {
		t.Fatalf("record = %+v", record)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	course := createCourse(t, store, "CS101", 1)
	boom := errors.New("boom")

	err := store.InTx(ctx, func(ctx context.Context, q repositories.Querier) error {
		if _, err := q.IncrementEnrolledCount(ctx, course.ID); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}

	got, err := store.GetCourseByID(ctx, course.ID)
	if err != nil {
		t.Fatalf("get course: %v", err)
	}
	if got.EnrolledCount != 0 {
		t.Fatalf("enrolled = %d, want rollback to 0", got.EnrolledCount)
	}
}

func TestPrerequisiteEdges(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	intro := createCourse(t, store, "CS101", 10)
	advanced := createCourse(t, store, "CS201", 10)

	if err := store.AddPrerequisite(ctx, advanced.ID, intro.ID); err != nil {
		t.Fatalf("add prerequisite: %v", err)
	}
	if err := store.AddPrerequisite(ctx, advanced.ID, intro.ID); !errors.Is(err, repositories.ErrAlreadyExists) {
		t.Fatalf("duplicate edge err = %v, want ErrAlreadyExists", err)
	}

	prereqs, err := store.ListPrerequisiteIDs(ctx, advanced.ID)
	if err != nil {
		t.Fatalf("list prerequisites: %v", err)
	}
	if len(prereqs) != 1 || prereqs[0] != intro.ID {
		t.Fatalf("prerequisites = %v", prereqs)
	}
	dependents, err := store.ListDependentCourseIDs(ctx, intro.ID)
	if err != nil {
		t.Fatalf("list dependents: %v", err)
	}
	if len(dependents) != 1 || dependents[0] != advanced.ID {
		t.Fatalf("dependents = %v", dependents)
	}

	if err := store.RemovePrerequisite(ctx, advanced.ID, intro.ID); err != nil {
		t.Fatalf("remove prerequisite: %v", err)
	}
	if err := store.RemovePrerequisite(ctx, advanced.ID, intro.ID); !errors.Is(err, repositories.ErrNotFound) {
		t.Fatalf("remove missing edge err = %v, want ErrNotFound", err)
	}
}
