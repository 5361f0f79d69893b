package models

import "testing"

func TestGradeValueClosedSet(t *testing.T) {
	valid := []GradeValue{"A", "A-", "B+", "B", "B-", "C+", "C", "C-", "D+", "D", "F", "P", "NP", "I", "W"}
	for _, g := range valid {
		if !g.IsValid() {
			t.Fatalf("%q should be valid", g)
		}
	}
	for _, g := range []GradeValue{"", "A+", "E", "a", "D-", "NP+", "Z"} {
		if g.IsValid() {
			t.Fatalf("%q should be invalid", g)
		}
	}
}

func TestGradePoints(t *testing.T) {
	tests := []struct {
		grade  GradeValue
		points float64
		ok     bool
		counts bool
	}{
		{GradeA, 4.0, true, true},
		{GradeAMinus, 3.7, true, true},
		{GradeBPlus, 3.3, true, true},
		{GradeCMinus, 1.7, true, true},
		{GradeD, 1.0, true, true},
		{GradeF, 0.0, true, true},
		{GradeNP, 0.0, true, true},
		{GradeP, 2.0, true, false},
		{GradeI, 0, false, false},
		{GradeW, 0, false, false},
	}
	for _, tt := range tests {
		points, ok := tt.grade.Points()
		if points != tt.points || ok != tt.ok {
			t.Fatalf("%q.Points() = %v, %v; want %v, %v", tt.grade, points, ok, tt.points, tt.ok)
		}
		if got := tt.grade.CountsTowardGPA(); got != tt.counts {
			t.Fatalf("%q.CountsTowardGPA() = %v, want %v", tt.grade, got, tt.counts)
		}
	}
}

func TestEnrollmentStatus(t *testing.T) {
	if EnrollmentActive.IsTerminal() {
		t.Fatal("ACTIVE must not be terminal")
	}
	for _, s := range []EnrollmentStatus{EnrollmentDropped, EnrollmentCompleted, EnrollmentFailed, EnrollmentWithdrawn} {
		if !s.IsTerminal() {
			t.Fatalf("%s must be terminal", s)
		}
	}
	if EnrollmentStatus("PAUSED").IsValid() {
		t.Fatal("unknown status must be invalid")
	}
}

func TestCourseSeats(t *testing.T) {
	c := Course{Capacity: 2, EnrolledCount: 1}
	if c.AvailableSeats() != 1 || !c.HasAvailableSeats() {
		t.Fatalf("seats = %d", c.AvailableSeats())
	}
	c.EnrolledCount = 2
	if c.AvailableSeats() != 0 || c.HasAvailableSeats() {
		t.Fatalf("full course seats = %d", c.AvailableSeats())
	}
}
