package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/middleware"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// UserController handles accounts, students and teachers of a school
type UserController struct {
	userService *services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

func userFilter(ctx *gin.Context) models.UserFilter {
	return models.UserFilter{
		Role:      models.RoleType(ctx.Query("role")),
		Search:    ctx.Query("q"),
		SectionID: queryID(ctx, "sectionId"),
		ClassID:   queryID(ctx, "classId"),
		ParentID:  queryID(ctx, "parentId"),
	}
}

// Register handles open sign-up
// @Summary Register an account
// @Description Self registration on a school host, limited to student and parent roles
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation error or role not allowed"
// @Failure 409 {object} dto.ErrorResponse "Username or email taken"
// @Router /auth/register [post]
func (c *UserController) Register(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, user)
}

// CreateUser creates an account of any school role
// @Summary Create user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateUserRequest true "Account"
// @Success 201 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 403 {object} dto.ErrorResponse "Only admins create users"
// @Router /users [post]
func (c *UserController) CreateUser(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.Create(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, user)
}

// ListUsers lists accounts visible to the caller
// @Summary List users
// @Description Admins see everyone, other roles only themselves
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Role filter"
// @Param q query string false "Search on username, email and names"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.UserResponse}}
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	users, total, err := c.userService.List(ctx.Request.Context(), userFilter(ctx), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, users, total, p)
}

// GetUser returns one account
// @Summary Get user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	user, err := c.userService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, user)
}

// UpdateUser edits an account
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/{id} [patch]
func (c *UserController) UpdateUser(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateUserRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.userService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, user)
}

// DeleteUser removes an account
// @Summary Delete user
// @Tags users
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := c.userService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "User deleted")
}

// ListStudents lists the students visible to the caller
// @Summary List students
// @Description Admins see all, teachers their sections, parents their children, students themselves
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param sectionId query int false "Section filter"
// @Param classId query int false "Class filter"
// @Param q query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.StudentResponse}}
// @Router /students [get]
func (c *UserController) ListStudents(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	students, total, err := c.userService.ListStudents(ctx.Request.Context(), userFilter(ctx), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, students, total, p)
}

// GetStudent godoc
// @Summary Get student
// @Tags students
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student user ID"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Router /students/{id} [get]
func (c *UserController) GetStudent(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	student, err := c.userService.GetStudent(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, student)
}

// CreateStudent godoc
// @Summary Create student
// @Description Creates the account and the student profile in one transaction
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStudentRequest true "Student"
// @Success 201 {object} dto.APIResponse{data=dto.StudentResponse}
// @Failure 409 {object} dto.ErrorResponse "Admission number taken"
// @Router /students [post]
func (c *UserController) CreateStudent(ctx *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	student, err := c.userService.CreateStudent(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, student)
}

// UpdateStudent godoc
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Student user ID"
// @Param request body dto.UpdateStudentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.StudentResponse}
// @Router /students/{id} [patch]
func (c *UserController) UpdateStudent(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateStudentRequest
	if !bindJSON(ctx, &req) {
		return
	}
	student, err := c.userService.UpdateStudent(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, student)
}

// DeleteStudent godoc
// @Summary Delete student
// @Tags students
// @Security BearerAuth
// @Param id path int true "Student user ID"
// @Success 200 {object} dto.APIResponse
// @Router /students/{id} [delete]
func (c *UserController) DeleteStudent(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := c.userService.DeleteStudent(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Student deleted")
}

// ListTeachers godoc
// @Summary List teachers
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param q query string false "Search"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]dto.TeacherResponse}}
// @Failure 403 {object} dto.ErrorResponse "Students, parents and staff cannot list teachers"
// @Router /teachers [get]
func (c *UserController) ListTeachers(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	teachers, total, err := c.userService.ListTeachers(ctx.Request.Context(), userFilter(ctx), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, teachers, total, p)
}

// GetTeacher godoc
// @Summary Get teacher
// @Tags teachers
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher user ID"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherResponse}
// @Router /teachers/{id} [get]
func (c *UserController) GetTeacher(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	teacher, err := c.userService.GetTeacher(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, teacher)
}

// CreateTeacher godoc
// @Summary Create teacher
// @Tags teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateTeacherRequest true "Teacher"
// @Success 201 {object} dto.APIResponse{data=dto.TeacherResponse}
// @Router /teachers [post]
func (c *UserController) CreateTeacher(ctx *gin.Context) {
	var req dto.CreateTeacherRequest
	if !bindJSON(ctx, &req) {
		return
	}
	teacher, err := c.userService.CreateTeacher(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, teacher)
}

// UpdateTeacher godoc
// @Summary Update teacher
// @Tags teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Teacher user ID"
// @Param request body dto.UpdateTeacherRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherResponse}
// @Router /teachers/{id} [patch]
func (c *UserController) UpdateTeacher(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateTeacherRequest
	if !bindJSON(ctx, &req) {
		return
	}
	teacher, err := c.userService.UpdateTeacher(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, teacher)
}

// DeleteTeacher godoc
// @Summary Delete teacher
// @Tags teachers
// @Security BearerAuth
// @Param id path int true "Teacher user ID"
// @Success 200 {object} dto.APIResponse
// @Router /teachers/{id} [delete]
func (c *UserController) DeleteTeacher(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := c.userService.DeleteTeacher(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Teacher deleted")
}
