package services

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/yigit/registrar/internal/app/models"
)

func TestMissingPrerequisites(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		required  []int64
		completed []int64
		want      []int64
	}{
		{name: "none required", required: nil, completed: []int64{1}, want: nil},
		{name: "all completed", required: []int64{1, 2}, completed: []int64{2, 1, 9}, want: nil},
		{name: "some missing", required: []int64{3, 1, 2}, completed: []int64{1}, want: []int64{3, 2}},
		{name: "nothing completed", required: []int64{4}, completed: nil, want: []int64{4}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MissingPrerequisites(tt.required, tt.completed); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("MissingPrerequisites() = %v, want %v", got, tt.want)
			}
		})
	}
}

func record(value models.GradeValue, credits int, completed bool) *models.GradeRecord {
	return &models.GradeRecord{
		Grade:   models.Grade{Value: value, Completed: completed},
		Credits: credits,
	}
}

func TestCreditWeightedGPA(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records []*models.GradeRecord
		want    float64
	}{
		{name: "no grades", records: nil, want: 0},
		{name: "weighted by credits", records: []*models.GradeRecord{
			record(models.GradeA, 4, true),
			record(models.GradeB, 2, true),
		}, want: 3.67},
		{name: "failing grades count as zero", records: []*models.GradeRecord{
			record(models.GradeA, 3, true),
			record(models.GradeF, 3, true),
		}, want: 2},
		{name: "pass fail and marks without points are skipped", records: []*models.GradeRecord{
			record(models.GradeBPlus, 3, true),
			record(models.GradeP, 4, true),
			record(models.GradeI, 4, true),
			record(models.GradeW, 4, true),
		}, want: 3.3},
		{name: "incomplete grades are skipped", records: []*models.GradeRecord{
			record(models.GradeC, 3, true),
			record(models.GradeA, 3, false),
		}, want: 2},
		{name: "only non-counting grades", records: []*models.GradeRecord{
			record(models.GradeP, 3, true),
			record(models.GradeA, 3, false),
		}, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := CreditWeightedGPA(tt.records); got != tt.want {
				t.Fatalf("CreditWeightedGPA() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReachesFollowsEdges(t *testing.T) {
	t.Parallel()

	graph := map[int64][]int64{
		1: {2},
		2: {3, 4},
		3: {4},
		5: {1},
	}
	edges := func(_ context.Context, id int64) ([]int64, error) {
		return graph[id], nil
	}

	tests := []struct {
		start, target int64
		want          bool
	}{
		{start: 1, target: 4, want: true},
		{start: 5, target: 3, want: true},
		{start: 4, target: 1, want: false},
		{start: 2, target: 5, want: false},
		{start: 3, target: 3, want: true},
	}
	for _, tt := range tests {
		got, err := reaches(context.Background(), tt.start, tt.target, edges)
		if err != nil {
			t.Fatalf("reaches(%d, %d): %v", tt.start, tt.target, err)
		}
		if got != tt.want {
			t.Fatalf("reaches(%d, %d) = %v, want %v", tt.start, tt.target, got, tt.want)
		}
	}

	boom := errors.New("boom")
	_, err := reaches(context.Background(), 1, 9, func(context.Context, int64) ([]int64, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestDedupeAndFormatIDs(t *testing.T) {
	t.Parallel()

	if got := dedupeIDs([]int64{3, 1, 3, 2, 1}); !reflect.DeepEqual(got, []int64{3, 1, 2}) {
		t.Fatalf("dedupeIDs() = %v", got)
	}
	if got := dedupeIDs(nil); got != nil {
		t.Fatalf("dedupeIDs(nil) = %v", got)
	}
	if got := formatIDs([]int64{7, 9}); got != "[7, 9]" {
		t.Fatalf("formatIDs() = %q", got)
	}
}
