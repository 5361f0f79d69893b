package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/registrar/internal/app/repositories/sqlite"
	"github.com/yigit/registrar/internal/bootstrap"
	"github.com/yigit/registrar/internal/config"
	"github.com/yigit/registrar/internal/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "api.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Server.Mode = "production"
	cfg.Enrollment.ReservationMaxAttempts = 3

	lgr := zerolog.Nop()
	deps := bootstrap.BuildDependencies(cfg, store, lgr)
	return &apiClient{t: t, router: bootstrap.SetupRouter(cfg, deps, lgr)}
}

func (a *apiClient) do(method, path string, body any) (*httptest.ResponseRecorder, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			a.t.Fatalf("%s %s: decode body %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec, env
}

// expect performs the request and fails unless it answers with status.
func (a *apiClient) expect(status int, method, path string, body any) envelope {
	a.t.Helper()

	rec, env := a.do(method, path, body)
	if rec.Code != status {
		a.t.Fatalf("%s %s: status = %d, want %d (body %s)", method, path, rec.Code, status, rec.Body.String())
	}
	return env
}

func (a *apiClient) expectError(status int, code, method, path string, body any) envelope {
	a.t.Helper()

	env := a.expect(status, method, path, body)
	if env.Success || env.Error == nil {
		a.t.Fatalf("%s %s: expected an error envelope", method, path)
	}
	if env.Error.Code != code {
		a.t.Fatalf("%s %s: error code = %s, want %s", method, path, env.Error.Code, code)
	}
	return env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return out
}

type idBody struct {
	ID int64 `json:"id"`
}

func (a *apiClient) createStudent(name string) int64 {
	a.t.Helper()

	env := a.expect(http.StatusCreated, http.MethodPost, "/api/v1/students", map[string]any{
		"firstName": name,
		"lastName":  "Tester",
		"email":     name + "@example.edu",
	})
	return decode[idBody](a.t, env).ID
}

func (a *apiClient) createCourse(code string, capacity int, prerequisites ...int64) int64 {
	a.t.Helper()

	body := map[string]any{"code": code, "title": code + " title", "credits": 3, "capacity": capacity}
	if len(prerequisites) > 0 {
		body["prerequisiteIds"] = prerequisites
	}
	env := a.expect(http.StatusCreated, http.MethodPost, "/api/v1/courses", body)
	return decode[idBody](a.t, env).ID
}

func (a *apiClient) enroll(studentID, courseID int64) int64 {
	a.t.Helper()

	env := a.expect(http.StatusCreated, http.MethodPost, "/api/v1/enrollments", map[string]any{
		"studentId": studentID,
		"courseId":  courseID,
	})
	return decode[idBody](a.t, env).ID
}

func TestHealthAndRequestID(t *testing.T) {
	api := newAPI(t)

	rec, _ := api.do(http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatal("missing request id header")
	}

	const id = "0b7f4a52-3f3c-4d8e-9f6a-2a9a4a0c1d11"
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(middleware.RequestIDHeader, id)
	rec = httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)
	if got := rec.Header().Get(middleware.RequestIDHeader); got != id {
		t.Fatalf("request id = %q, want %q", got, id)
	}
}

func TestRequestValidation(t *testing.T) {
	api := newAPI(t)

	api.expectError(http.StatusBadRequest, "VAL_001", http.MethodPost, "/api/v1/students", map[string]any{
		"firstName": "Ada",
		"lastName":  "Tester",
	})
	api.expectError(http.StatusBadRequest, "VAL_001", http.MethodGet, "/api/v1/students/abc", nil)
	api.expectError(http.StatusBadRequest, "VAL_001", http.MethodPost, "/api/v1/enrollments/bulk", map[string]any{
		"studentId": 1,
		"courseIds": []int64{},
	})
	api.expectError(http.StatusNotFound, "RES_001", http.MethodGet, "/api/v1/courses/999", nil)
	api.expectError(http.StatusBadRequest, "VAL_001", http.MethodGet, "/api/v1/courses/1/prerequisites/check", nil)
}

func TestSeatAccountingOverHTTP(t *testing.T) {
	api := newAPI(t)

	courseID := api.createCourse("cs101", 1)
	ada := api.createStudent("ada")
	bob := api.createStudent("bob")

	env := api.expect(http.StatusOK, http.MethodGet, "/api/v1/courses/code/CS101", nil)
	if decode[idBody](t, env).ID != courseID {
		t.Fatal("lookup by normalised code returned another course")
	}

	enrollmentID := api.enroll(ada, courseID)
	api.expectError(http.StatusConflict, "ENR_001", http.MethodPost, "/api/v1/enrollments",
		map[string]any{"studentId": bob, "courseId": courseID})
	api.expectError(http.StatusConflict, "RES_002", http.MethodPost, "/api/v1/enrollments",
		map[string]any{"studentId": ada, "courseId": courseID})

	seatsPath := fmt.Sprintf("/api/v1/courses/%d/seats", courseID)
	seats := decode[struct {
		AvailableSeats int `json:"availableSeats"`
	}](t, api.expect(http.StatusOK, http.MethodGet, seatsPath, nil))
	if seats.AvailableSeats != 0 {
		t.Fatalf("available seats = %d, want 0", seats.AvailableSeats)
	}

	available := decode[[]idBody](t, api.expect(http.StatusOK, http.MethodGet, "/api/v1/courses?available=true", nil))
	if len(available) != 0 {
		t.Fatalf("full course listed as available: %+v", available)
	}

	api.expect(http.StatusNoContent, http.MethodDelete, fmt.Sprintf("/api/v1/enrollments/%d", enrollmentID), nil)
	api.expectError(http.StatusNotFound, "RES_001", http.MethodGet, fmt.Sprintf("/api/v1/enrollments/%d", enrollmentID), nil)

	consistency := decode[struct {
		Consistent bool `json:"consistent"`
	}](t, api.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/courses/%d/consistency", courseID), nil))
	if !consistency.Consistent {
		t.Fatal("ledger reported drift after drop")
	}

	capacityPath := fmt.Sprintf("/api/v1/courses/%d/capacity", courseID)
	api.enroll(bob, courseID)
	api.expect(http.StatusOK, http.MethodPut, capacityPath, map[string]any{"capacity": 5})
	api.enroll(ada, courseID)
	api.expectError(http.StatusConflict, "ENR_001", http.MethodPut, capacityPath, map[string]any{"capacity": 1})
	api.expectError(http.StatusBadRequest, "VAL_002", http.MethodPut, capacityPath, map[string]any{"capacity": -1})

	seats = decode[struct {
		AvailableSeats int `json:"availableSeats"`
	}](t, api.expect(http.StatusOK, http.MethodGet, seatsPath, nil))
	if seats.AvailableSeats != 3 {
		t.Fatalf("available seats = %d, want 3", seats.AvailableSeats)
	}
}

func TestPrerequisitesAndGradesOverHTTP(t *testing.T) {
	api := newAPI(t)

	intro := api.createCourse("CS101", 10)
	advanced := api.createCourse("CS201", 10, intro)
	ada := api.createStudent("ada")

	api.expectError(http.StatusUnprocessableEntity, "ENR_002", http.MethodPost, "/api/v1/enrollments",
		map[string]any{"studentId": ada, "courseId": advanced})

	checkPath := fmt.Sprintf("/api/v1/courses/%d/prerequisites/check?studentId=%d", advanced, ada)
	check := decode[struct {
		Satisfied bool `json:"satisfied"`
	}](t, api.expect(http.StatusOK, http.MethodGet, checkPath, nil))
	if check.Satisfied {
		t.Fatal("prerequisites satisfied before completing the intro course")
	}

	enrollmentID := api.enroll(ada, intro)
	api.expectError(http.StatusUnprocessableEntity, "GRD_001", http.MethodPost, "/api/v1/grades", map[string]any{
		"enrollmentId": enrollmentID,
		"gradeValue":   "E+",
	})
	grade := decode[idBody](t, api.expect(http.StatusCreated, http.MethodPost, "/api/v1/grades", map[string]any{
		"enrollmentId":    enrollmentID,
		"gradeValue":      "A",
		"courseCompleted": true,
	}))

	completion := decode[struct {
		Completed bool `json:"completed"`
	}](t, api.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/enrollments/%d/completion", enrollmentID), nil))
	if !completion.Completed {
		t.Fatal("enrollment not completed after final grade")
	}

	// Completed enrollments keep their grade frozen.
	api.expectError(http.StatusConflict, "ENR_003", http.MethodPut, fmt.Sprintf("/api/v1/grades/%d", grade.ID),
		map[string]any{"gradeValue": "B"})

	check = decode[struct {
		Satisfied bool `json:"satisfied"`
	}](t, api.expect(http.StatusOK, http.MethodGet, checkPath, nil))
	if !check.Satisfied {
		t.Fatal("prerequisites not satisfied after completing the intro course")
	}
	api.enroll(ada, advanced)

	gpa := decode[struct {
		GPA float64 `json:"gpa"`
	}](t, api.expect(http.StatusOK, http.MethodGet, fmt.Sprintf("/api/v1/students/%d/gpa", ada), nil))
	if gpa.GPA != 4.0 {
		t.Fatalf("gpa = %v, want 4.0", gpa.GPA)
	}

	api.expectError(http.StatusBadRequest, "VAL_002", http.MethodDelete, fmt.Sprintf("/api/v1/courses/%d", intro), nil)
	api.expectError(http.StatusBadRequest, "VAL_002", http.MethodPost, fmt.Sprintf("/api/v1/courses/%d/prerequisites", intro),
		map[string]any{"prerequisiteId": advanced})
}

func TestBulkEnrollOverHTTP(t *testing.T) {
	api := newAPI(t)

	open := api.createCourse("CS101", 5)
	full := api.createCourse("CS102", 1)
	ada := api.createStudent("ada")
	bob := api.createStudent("bob")
	api.enroll(bob, full)

	partial := decode[struct {
		Admitted int `json:"admitted"`
		Rejected int `json:"rejected"`
		Items    []struct {
			CourseID int64 `json:"courseId"`
			Success  bool  `json:"success"`
			Error    *struct {
				Code string `json:"code"`
			} `json:"error"`
		} `json:"items"`
	}](t, api.expect(http.StatusOK, http.MethodPost, "/api/v1/enrollments/bulk", map[string]any{
		"studentId": ada,
		"courseIds": []int64{open, full},
	}))
	if partial.Admitted != 1 || partial.Rejected != 1 || len(partial.Items) != 2 {
		t.Fatalf("unexpected bulk result: %+v", partial)
	}
	if !partial.Items[0].Success || partial.Items[1].Error == nil || partial.Items[1].Error.Code != "ENR_001" {
		t.Fatalf("unexpected bulk items: %+v", partial.Items)
	}

	env := api.expectError(http.StatusUnprocessableEntity, "ENR_004", http.MethodPost, "/api/v1/enrollments/bulk", map[string]any{
		"studentId": ada,
		"courseIds": []int64{open, full},
	})
	var details struct {
		Rejected int `json:"rejected"`
	}
	if err := json.Unmarshal(env.Error.Details, &details); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if details.Rejected != 2 {
		t.Fatalf("rejected = %d, want 2", details.Rejected)
	}
}

func TestLifecycleOverHTTP(t *testing.T) {
	api := newAPI(t)

	first := api.createCourse("CS101", 2)
	second := api.createCourse("CS102", 2)
	ada := api.createStudent("ada")
	enrollmentID := api.enroll(ada, first)

	moved := decode[struct {
		CourseID int64  `json:"courseId"`
		Status   string `json:"status"`
	}](t, api.expect(http.StatusOK, http.MethodPost, "/api/v1/enrollments/transfer", map[string]any{
		"studentId":    ada,
		"fromCourseId": first,
		"toCourseId":   second,
	}))
	if moved.CourseID != second || moved.Status != "ACTIVE" {
		t.Fatalf("unexpected transfer result: %+v", moved)
	}
	api.expectError(http.StatusNotFound, "RES_001", http.MethodGet, fmt.Sprintf("/api/v1/enrollments/%d", enrollmentID), nil)

	listed := decode[[]idBody](t, api.expect(http.StatusOK, http.MethodGet,
		fmt.Sprintf("/api/v1/enrollments?studentId=%d&status=ACTIVE", ada), nil))
	if len(listed) != 1 {
		t.Fatalf("active enrollments = %d, want 1", len(listed))
	}
	api.expectError(http.StatusBadRequest, "VAL_001", http.MethodGet, "/api/v1/enrollments?status=PENDING", nil)

	withdrawn := decode[[]struct {
		Status string `json:"status"`
	}](t, api.expect(http.StatusOK, http.MethodPost, fmt.Sprintf("/api/v1/students/%d/withdraw", ada), nil))
	if len(withdrawn) != 1 || withdrawn[0].Status != "WITHDRAWN" {
		t.Fatalf("unexpected withdraw result: %+v", withdrawn)
	}

	api.expectError(http.StatusConflict, "ENR_003", http.MethodPatch, fmt.Sprintf("/api/v1/enrollments/%d/status", listed[0].ID),
		map[string]any{"status": "ACTIVE"})

	api.expect(http.StatusNoContent, http.MethodDelete, fmt.Sprintf("/api/v1/students/%d", ada), nil)
	api.expectError(http.StatusNotFound, "RES_001", http.MethodGet, fmt.Sprintf("/api/v1/students/%d", ada), nil)
}

func TestCustomBindingRules(t *testing.T) {
	api := newAPI(t)

	env := api.expectError(http.StatusBadRequest, "VAL_001", http.MethodPost, "/api/v1/courses", map[string]any{
		"code":     "not a code",
		"title":    "Broken",
		"capacity": 5,
	})
	if env.Error.Message != "Code must look like CS101" {
		t.Fatalf("message = %q", env.Error.Message)
	}

	api.expectError(http.StatusBadRequest, "VAL_001", http.MethodPost, "/api/v1/students", map[string]any{
		"firstName":   "Ada",
		"lastName":    "Tester",
		"email":       "ada@example.edu",
		"phoneNumber": "call me",
	})
}
