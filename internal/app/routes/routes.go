package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/registrar/internal/app/controllers"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	studentController *controllers.StudentController,
	courseController *controllers.CourseController,
	enrollmentController *controllers.EnrollmentController,
	gradeController *controllers.GradeController,
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	// API version group
	v1 := router.Group("/api/v1")

	students := v1.Group("/students")
	{
		students.POST("", studentController.CreateStudent)
		students.GET("", studentController.GetAllStudents)
		students.GET("/:id", studentController.GetStudentByID)
		students.PUT("/:id", studentController.UpdateStudent)
		students.DELETE("/:id", studentController.DeleteStudent)

		students.GET("/:id/enrollments", studentController.GetStudentEnrollments)
		students.GET("/:id/grades", studentController.GetStudentGrades)
		students.GET("/:id/gpa", studentController.GetStudentGPA)
		students.GET("/:id/progress", studentController.GetStudentProgress)
		students.POST("/:id/withdraw", studentController.WithdrawStudent)
		students.DELETE("/:id/courses/:courseId", studentController.DropStudentFromCourse)
	}

	courses := v1.Group("/courses")
	{
		courses.POST("", courseController.CreateCourse)
		courses.GET("", courseController.GetAllCourses)
		courses.GET("/code/:code", courseController.GetCourseByCode)
		courses.GET("/:id", courseController.GetCourseByID)
		courses.PUT("/:id", courseController.UpdateCourse)
		courses.DELETE("/:id", courseController.DeleteCourse)

		courses.PUT("/:id/capacity", courseController.UpdateCourseCapacity)
		courses.GET("/:id/seats", courseController.GetAvailableSeats)
		courses.GET("/:id/consistency", courseController.CheckConsistency)
		courses.GET("/:id/enrollments", courseController.GetCourseEnrollments)
		courses.GET("/:id/grades", courseController.GetCourseGrades)

		courses.GET("/:id/prerequisites", courseController.GetPrerequisites)
		courses.POST("/:id/prerequisites", courseController.AddPrerequisite)
		courses.GET("/:id/prerequisites/check", courseController.CheckPrerequisites)
		courses.DELETE("/:id/prerequisites/:prerequisiteId", courseController.RemovePrerequisite)
	}

	enrollments := v1.Group("/enrollments")
	{
		enrollments.POST("", enrollmentController.Enroll)
		enrollments.GET("", enrollmentController.ListEnrollments)
		enrollments.POST("/bulk", enrollmentController.BulkEnroll)
		enrollments.POST("/transfer", enrollmentController.Transfer)
		enrollments.GET("/:id", enrollmentController.GetEnrollment)
		enrollments.PATCH("/:id/status", enrollmentController.SetStatus)
		enrollments.GET("/:id/completion", enrollmentController.GetCompletion)
		enrollments.DELETE("/:id", enrollmentController.DropEnrollment)
	}

	grades := v1.Group("/grades")
	{
		grades.POST("", gradeController.RecordGrade)
		grades.GET("/:id", gradeController.GetGrade)
		grades.PUT("/:id", gradeController.UpdateGrade)
		grades.DELETE("/:id", gradeController.DeleteGrade)
	}
}
