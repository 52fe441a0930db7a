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

// SchoolController exposes tenant registration and the platform admin
// endpoints that manage schools and their domains.
type SchoolController struct {
	schoolService *services.SchoolService
	logger        zerolog.Logger
}

func NewSchoolController(schoolService *services.SchoolService, logger zerolog.Logger) *SchoolController {
	return &SchoolController{schoolService: schoolService, logger: logger}
}

// RegisterSchool godoc
// @Summary Register a school
// @Description Open sign-up on the platform domain. Free tier schools are limited to 500 students and 50 staff.
// @Tags schools
// @Accept json
// @Produce json
// @Param request body dto.RegisterSchoolRequest true "School"
// @Success 201 {object} dto.APIResponse{data=models.School}
// @Failure 400 {object} dto.ErrorResponse "Validation, academic year or free tier error"
// @Failure 409 {object} dto.ErrorResponse "Schema or domain taken"
// @Router /schools/register [post]
func (c *SchoolController) RegisterSchool(ctx *gin.Context) {
	var req dto.RegisterSchoolRequest
	if !bindJSON(ctx, &req) {
		return
	}
	school, err := c.schoolService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Info().Int64("schoolId", school.ID).Str("schema", school.SchemaName).Msg("School registered")
	created(ctx, school)
}

// ListSchools godoc
// @Summary List schools
// @Tags schools
// @Produce json
// @Security BearerAuth
// @Param approved query bool false "Approval filter"
// @Param q query string false "Search on name"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse{items=[]models.School}}
// @Router /schools [get]
func (c *SchoolController) ListSchools(ctx *gin.Context) {
	p := helpers.ParsePaginationParams(ctx)
	filter := models.SchoolFilter{Approved: queryBool(ctx, "approved"), Search: ctx.Query("q")}
	schools, total, err := c.schoolService.List(ctx.Request.Context(), filter, p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	page(ctx, schools, total, p)
}

// GetSchool godoc
// @Summary Get school
// @Tags schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} dto.APIResponse{data=models.School}
// @Router /schools/{id} [get]
func (c *SchoolController) GetSchool(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	school, err := c.schoolService.Get(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, school)
}

// UpdateSchool godoc
// @Summary Update school
// @Tags schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param request body dto.UpdateSchoolRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=models.School}
// @Router /schools/{id} [patch]
func (c *SchoolController) UpdateSchool(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.UpdateSchoolRequest
	if !bindJSON(ctx, &req) {
		return
	}
	school, err := c.schoolService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, school)
}

// ApproveSchool godoc
// @Summary Approve school
// @Description The first approval creates the school admin and emails the credentials
// @Tags schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} dto.APIResponse{data=dto.SchoolApprovalResponse}
// @Router /schools/{id}/approve [post]
func (c *SchoolController) ApproveSchool(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	res, err := c.schoolService.Approve(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, res)
}

// RejectSchool godoc
// @Summary Reject school
// @Tags schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param request body dto.RejectSchoolRequest true "Reason"
// @Success 200 {object} dto.APIResponse{data=models.School}
// @Router /schools/{id}/reject [post]
func (c *SchoolController) RejectSchool(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.RejectSchoolRequest
	if !bindJSON(ctx, &req) {
		return
	}
	school, err := c.schoolService.Reject(ctx.Request.Context(), id, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, school)
}

// DeleteSchool godoc
// @Summary Delete school
// @Description Removes the school and its domains; the schema is dropped only when configured
// @Tags schools
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} dto.APIResponse
// @Router /schools/{id} [delete]
func (c *SchoolController) DeleteSchool(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	if err := c.schoolService.Delete(ctx.Request.Context(), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "School deleted")
}

// AddDomain godoc
// @Summary Add domain
// @Tags schools
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param request body dto.CreateDomainRequest true "Domain"
// @Success 201 {object} dto.APIResponse{data=models.Domain}
// @Router /schools/{id}/domains [post]
func (c *SchoolController) AddDomain(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	var req dto.CreateDomainRequest
	if !bindJSON(ctx, &req) {
		return
	}
	domain, err := c.schoolService.AddDomain(ctx.Request.Context(), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	created(ctx, domain)
}

// ListDomains godoc
// @Summary List domains
// @Tags schools
// @Produce json
// @Security BearerAuth
// @Param id path int true "School ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Domain}
// @Router /schools/{id}/domains [get]
func (c *SchoolController) ListDomains(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	domains, err := c.schoolService.ListDomains(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	if domains == nil {
		domains = []models.Domain{}
	}
	ok(ctx, domains)
}

// DeleteDomain godoc
// @Summary Delete domain
// @Tags schools
// @Security BearerAuth
// @Param id path int true "School ID"
// @Param domainId path int true "Domain ID"
// @Success 200 {object} dto.APIResponse
// @Router /schools/{id}/domains/{domainId} [delete]
func (c *SchoolController) DeleteDomain(ctx *gin.Context) {
	id, valid := pathID(ctx, "id")
	if !valid {
		return
	}
	domainID, valid := pathID(ctx, "domainId")
	if !valid {
		return
	}
	if err := c.schoolService.DeleteDomain(ctx.Request.Context(), id, domainID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Domain deleted")
}

// Status godoc
// @Summary Current school
// @Description The school addressed by the request host
// @Tags schools
// @Produce json
// @Success 200 {object} dto.APIResponse{data=models.School}
// @Failure 404 {object} dto.ErrorResponse "Platform host or unknown domain"
// @Router /school [get]
func (c *SchoolController) Status(ctx *gin.Context) {
	school, err := c.schoolService.Current(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, school)
}
