package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yigit/schoolsphere/internal/app/controllers"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/middleware"
)

// Controllers groups every HTTP handler set the API mounts.
type Controllers struct {
	Auth          *controllers.AuthController
	Users         *controllers.UserController
	Schools       *controllers.SchoolController
	Academic      *controllers.AcademicController
	Library       *controllers.LibraryController
	Finance       *controllers.FinanceController
	Communication *controllers.CommunicationController
}

// Pinger reports database reachability for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

var admins = []models.RoleType{models.RoleSuperAdmin, models.RoleSchoolAdmin}

func with(roles ...models.RoleType) []models.RoleType {
	return append(append([]models.RoleType{}, admins...), roles...)
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	c *Controllers,
	authMiddleware *middleware.AuthMiddleware,
	tenants middleware.TenantResolver,
) {
	v1 := router.Group("/api/v1")
	v1.Use(middleware.ResolveTenant(tenants))

	adminOnly := authMiddleware.RoleRequired(admins...)

	// --- Auth routes, on platform and school hosts ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", c.Auth.Login)
		auth.POST("/refresh", c.Auth.RefreshToken)
		auth.POST("/logout", c.Auth.Logout)
		auth.POST("/password-reset", c.Auth.ForgotPassword)
		auth.POST("/password-reset/confirm", c.Auth.ResetPassword)
		auth.POST("/register", middleware.TenantOnly(), c.Users.Register)

		me := auth.Group("", authMiddleware.JWTAuth())
		me.GET("/me", c.Auth.Me)
		me.PATCH("/me", c.Auth.UpdateProfile)
		me.POST("/me/picture", c.Auth.UploadProfilePicture)
		me.POST("/change-password", c.Auth.ChangePassword)
	}

	// --- Platform routes ---
	platform := v1.Group("/schools", middleware.PublicOnly())
	{
		platform.POST("/register", c.Schools.RegisterSchool)

		superAdmin := platform.Group("", authMiddleware.JWTAuth(), authMiddleware.RoleRequired(models.RoleSuperAdmin))
		superAdmin.GET("", c.Schools.ListSchools)
		superAdmin.GET("/:id", c.Schools.GetSchool)
		superAdmin.PATCH("/:id", c.Schools.UpdateSchool)
		superAdmin.DELETE("/:id", c.Schools.DeleteSchool)
		superAdmin.POST("/:id/approve", c.Schools.ApproveSchool)
		superAdmin.POST("/:id/reject", c.Schools.RejectSchool)
		superAdmin.GET("/:id/domains", c.Schools.ListDomains)
		superAdmin.POST("/:id/domains", c.Schools.AddDomain)
		superAdmin.DELETE("/:id/domains/:domainId", c.Schools.DeleteDomain)
	}

	// School status answers before approval so a new school can check on it.
	v1.GET("/school", c.Schools.Status)

	// The websocket authenticates from the token query parameter itself.
	v1.GET("/ws/notifications", middleware.TenantOnly(), c.Communication.Notifications)

	// --- School routes ---
	school := v1.Group("", middleware.TenantOnly(), authMiddleware.JWTAuth())

	users := school.Group("/users")
	{
		users.GET("", c.Users.ListUsers)
		users.GET("/:id", c.Users.GetUser)
		users.PATCH("/:id", c.Users.UpdateUser)
		users.POST("", adminOnly, c.Users.CreateUser)
		users.DELETE("/:id", adminOnly, c.Users.DeleteUser)
	}

	students := school.Group("/students")
	{
		students.GET("", c.Users.ListStudents)
		students.GET("/:id", c.Users.GetStudent)
		students.POST("", adminOnly, c.Users.CreateStudent)
		students.PATCH("/:id", adminOnly, c.Users.UpdateStudent)
		students.DELETE("/:id", adminOnly, c.Users.DeleteStudent)
	}

	teachers := school.Group("/teachers")
	{
		teachers.GET("", c.Users.ListTeachers)
		teachers.GET("/:id", c.Users.GetTeacher)
		teachers.POST("", adminOnly, c.Users.CreateTeacher)
		teachers.PATCH("/:id", adminOnly, c.Users.UpdateTeacher)
		teachers.DELETE("/:id", adminOnly, c.Users.DeleteTeacher)
	}

	// Academic structure: admins write, everyone reads.
	years := school.Group("/academic-years")
	{
		years.GET("", c.Academic.ListYears)
		years.GET("/:id", c.Academic.GetYear)
		years.POST("", adminOnly, c.Academic.CreateYear)
		years.PUT("/:id", adminOnly, c.Academic.UpdateYear)
		years.POST("/:id/activate", adminOnly, c.Academic.ActivateYear)
		years.DELETE("/:id", adminOnly, c.Academic.DeleteYear)
	}

	classes := school.Group("/classes")
	{
		classes.GET("", c.Academic.ListClasses)
		classes.GET("/:id", c.Academic.GetClass)
		classes.POST("", adminOnly, c.Academic.CreateClass)
		classes.PUT("/:id", adminOnly, c.Academic.UpdateClass)
		classes.DELETE("/:id", adminOnly, c.Academic.DeleteClass)
	}

	sections := school.Group("/sections")
	{
		sections.GET("", c.Academic.ListSections)
		sections.GET("/:id", c.Academic.GetSection)
		sections.POST("", adminOnly, c.Academic.CreateSection)
		sections.PUT("/:id", adminOnly, c.Academic.UpdateSection)
		sections.DELETE("/:id", adminOnly, c.Academic.DeleteSection)
		sections.POST("/:id/students", adminOnly, c.Academic.AddStudents)
		sections.POST("/:id/students/remove", adminOnly, c.Academic.RemoveStudents)
	}

	subjects := school.Group("/subjects")
	{
		subjects.GET("", c.Academic.ListSubjects)
		subjects.GET("/:id", c.Academic.GetSubject)
		subjects.POST("", adminOnly, c.Academic.CreateSubject)
		subjects.PUT("/:id", adminOnly, c.Academic.UpdateSubject)
		subjects.DELETE("/:id", adminOnly, c.Academic.DeleteSubject)
	}

	timetable := school.Group("/timetable")
	{
		timetable.GET("", c.Academic.ListTimetable)
		timetable.GET("/:id", c.Academic.GetTimetableEntry)
		timetable.POST("", adminOnly, c.Academic.CreateTimetableEntry)
		timetable.PUT("/:id", adminOnly, c.Academic.UpdateTimetableEntry)
		timetable.DELETE("/:id", adminOnly, c.Academic.DeleteTimetableEntry)
	}

	// Coursework: teachers and admins write, only admins delete.
	teaching := authMiddleware.RoleRequired(with(models.RoleTeacher)...)

	attendance := school.Group("/attendance")
	{
		attendance.GET("", c.Academic.ListAttendance)
		attendance.GET("/:id", c.Academic.GetAttendance)
		attendance.POST("", teaching, c.Academic.CreateAttendance)
		attendance.POST("/bulk", teaching, c.Academic.BulkCreateAttendance)
		attendance.PUT("/:id", teaching, c.Academic.UpdateAttendance)
		attendance.DELETE("/:id", adminOnly, c.Academic.DeleteAttendance)
	}

	assessments := school.Group("/assessments")
	{
		assessments.GET("", c.Academic.ListAssessments)
		assessments.GET("/:id", c.Academic.GetAssessment)
		assessments.POST("", teaching, c.Academic.CreateAssessment)
		assessments.PUT("/:id", teaching, c.Academic.UpdateAssessment)
		assessments.DELETE("/:id", adminOnly, c.Academic.DeleteAssessment)
	}

	results := school.Group("/results")
	{
		results.GET("", c.Academic.ListResults)
		results.GET("/:id", c.Academic.GetResult)
		results.POST("", teaching, c.Academic.CreateResult)
		results.POST("/bulk", teaching, c.Academic.BulkCreateResults)
		results.PUT("/:id", teaching, c.Academic.UpdateResult)
		results.DELETE("/:id", adminOnly, c.Academic.DeleteResult)
	}

	assignments := school.Group("/assignments")
	{
		assignments.GET("", c.Academic.ListAssignments)
		assignments.GET("/:id", c.Academic.GetAssignment)
		assignments.POST("", teaching, c.Academic.CreateAssignment)
		assignments.PUT("/:id", teaching, c.Academic.UpdateAssignment)
		assignments.DELETE("/:id", adminOnly, c.Academic.DeleteAssignment)
	}

	submissions := school.Group("/submissions")
	{
		submissions.GET("", c.Academic.ListSubmissions)
		submissions.GET("/:id", c.Academic.GetSubmission)
		submissions.POST("", authMiddleware.RoleRequired(models.RoleStudent), c.Academic.Submit)
		submissions.POST("/:id/grade", teaching, c.Academic.GradeSubmission)
		submissions.DELETE("/:id", adminOnly, c.Academic.DeleteSubmission)
	}

	// Library: admins and librarians run the desk.
	library := school.Group("/library")
	{
		desk := authMiddleware.RoleRequired(with(models.RoleLibrarian)...)

		library.GET("/books", c.Library.ListBooks)
		library.GET("/books/:id", c.Library.GetBook)
		library.POST("/books", desk, c.Library.CreateBook)
		library.PATCH("/books/:id", desk, c.Library.UpdateBook)
		library.DELETE("/books/:id", desk, c.Library.DeleteBook)

		library.GET("/issues", c.Library.ListIssues)
		library.GET("/issues/overdue", desk, c.Library.ListOverdue)
		library.POST("/issues/sweep-overdue", adminOnly, c.Library.SweepOverdue)
		library.GET("/issues/:id", c.Library.GetIssue)
		library.POST("/issues", desk, c.Library.IssueBook)
		library.POST("/issues/:id/return", desk, c.Library.ReturnBook)
		library.POST("/issues/:id/lost", desk, c.Library.MarkLost)
	}

	// Finance: the catalogue is admin-maintained, fees and payments are
	// also handled by accountants. Read scoping lives in the service.
	finance := school.Group("/finance")
	{
		cashier := authMiddleware.RoleRequired(with(models.RoleAccountant)...)

		finance.GET("/categories", cashier, c.Finance.ListCategories)
		finance.GET("/categories/:id", cashier, c.Finance.GetCategory)
		finance.POST("/categories", adminOnly, c.Finance.CreateCategory)
		finance.PUT("/categories/:id", adminOnly, c.Finance.UpdateCategory)
		finance.DELETE("/categories/:id", adminOnly, c.Finance.DeleteCategory)

		finance.GET("/structures", c.Finance.ListStructures)
		finance.GET("/structures/:id", c.Finance.GetStructure)
		finance.POST("/structures", adminOnly, c.Finance.CreateStructure)
		finance.PUT("/structures/:id", adminOnly, c.Finance.UpdateStructure)
		finance.DELETE("/structures/:id", adminOnly, c.Finance.DeleteStructure)

		finance.GET("/discounts", cashier, c.Finance.ListDiscounts)
		finance.GET("/discounts/:id", cashier, c.Finance.GetDiscount)
		finance.POST("/discounts", adminOnly, c.Finance.CreateDiscount)
		finance.PUT("/discounts/:id", adminOnly, c.Finance.UpdateDiscount)
		finance.DELETE("/discounts/:id", adminOnly, c.Finance.DeleteDiscount)

		finance.GET("/student-fees", c.Finance.ListStudentFees)
		finance.POST("/student-fees/mark-overdue", adminOnly, c.Finance.MarkOverdue)
		finance.GET("/student-fees/:id", c.Finance.GetStudentFee)
		finance.POST("/student-fees", cashier, c.Finance.CreateStudentFee)
		finance.PATCH("/student-fees/:id", cashier, c.Finance.UpdateStudentFee)
		finance.DELETE("/student-fees/:id", adminOnly, c.Finance.DeleteStudentFee)

		finance.GET("/payments", c.Finance.ListPayments)
		finance.GET("/payments/summary", c.Finance.PaymentSummary)
		finance.GET("/payments/:id", c.Finance.GetPayment)
		finance.POST("/payments", cashier, c.Finance.RecordPayment)
		finance.DELETE("/payments/:id", adminOnly, c.Finance.DeletePayment)
	}

	announcements := school.Group("/announcements")
	{
		announcements.GET("", c.Communication.ListAnnouncements)
		announcements.GET("/:id", c.Communication.GetAnnouncement)
		announcements.POST("", authMiddleware.RoleRequired(with(models.RoleTeacher)...), c.Communication.CreateAnnouncement)
		announcements.PUT("/:id", c.Communication.UpdateAnnouncement)
		announcements.DELETE("/:id", c.Communication.DeleteAnnouncement)
	}

	notifications := school.Group("/notifications")
	{
		notifications.GET("", c.Communication.ListNotifications)
		notifications.GET("/unread-count", c.Communication.UnreadCount)
		notifications.POST("/read-all", c.Communication.MarkAllNotificationsRead)
		notifications.GET("/:id", c.Communication.GetNotification)
		notifications.POST("/:id/read", c.Communication.MarkNotificationRead)
		notifications.DELETE("/:id", c.Communication.DeleteNotification)
	}

	messages := school.Group("/messages")
	{
		messages.GET("", c.Communication.ListMessages)
		messages.POST("", c.Communication.SendMessage)
		messages.GET("/:id", c.Communication.GetMessage)
		messages.POST("/:id/read", c.Communication.MarkMessageRead)
		messages.DELETE("/:id", c.Communication.DeleteMessage)
	}

	logs := school.Group("/logs", adminOnly)
	{
		logs.GET("/email", c.Communication.ListEmailLogs)
		logs.GET("/sms", c.Communication.ListSMSLogs)
	}
}

// SetupOperational mounts the health, ping and metrics endpoints.
func SetupOperational(router *gin.Engine, db Pinger, gatherer prometheus.Gatherer) {
	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.Ping(ctx); err != nil {
			detail := dto.NewErrorDetail(dto.ErrorCodeDatabaseError, "Database unreachable")
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(detail))
			return
		}
		c.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"status": "ok", "database": "up"}))
	})

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
