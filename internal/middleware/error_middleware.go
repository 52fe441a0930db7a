package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
)

type errorMapping struct {
	err    error
	status int
	code   dto.ErrorCode
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrTenantNotFound, http.StatusNotFound, dto.ErrorCodeTenantNotFound},
	{apperrors.ErrSchoolNotApproved, http.StatusForbidden, dto.ErrorCodeSchoolNotApproved},
	{apperrors.ErrTenantRequired, http.StatusNotFound, dto.ErrorCodeTenantRequired},
	{apperrors.ErrFreeTierLimitExceeded, http.StatusBadRequest, dto.ErrorCodeFreeTierLimit},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{apperrors.ErrAccountDisabled, http.StatusForbidden, dto.ErrorCodeAccountDisabled},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
	{apperrors.ErrTenantMismatch, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},

	{apperrors.ErrInvalidPasswordResetToken, http.StatusBadRequest, dto.ErrorCodeInvalidToken},
	{apperrors.ErrPasswordResetTokenUsed, http.StatusBadRequest, dto.ErrorCodeInvalidToken},
	{apperrors.ErrOldPasswordIncorrect, http.StatusBadRequest, dto.ErrorCodeInvalidPassword},
	{apperrors.ErrPasswordMismatch, http.StatusBadRequest, dto.ErrorCodeInvalidPassword},
	{apperrors.ErrInvalidPassword, http.StatusBadRequest, dto.ErrorCodeInvalidPassword},
	{apperrors.ErrInvalidEmail, http.StatusBadRequest, dto.ErrorCodeInvalidEmail},
	{apperrors.ErrRoleNotAllowed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrAcademicYearConfig, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrInvalidSchemaName, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrMarksExceedTotal, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrPaymentExceedsBalance, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrFeeModule, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrNoCopiesAvailable, http.StatusBadRequest, dto.ErrorCodeResourceInvalid},
	{apperrors.ErrBookUnavailable, http.StatusBadRequest, dto.ErrorCodeResourceInvalid},
	{apperrors.ErrCopiesBelowIssued, http.StatusBadRequest, dto.ErrorCodeResourceInvalid},
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest},
	{apperrors.ErrInvalidFormat, http.StatusBadRequest, dto.ErrorCodeBadRequest},

	{apperrors.ErrTimetableOverlap, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrAlreadyReturned, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrDuplicateAttendance, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrDuplicateSubmission, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrDuplicateResult, http.StatusConflict, dto.ErrorCodeConflict},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrUsernameAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrAdmissionNumberExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrEmployeeIDExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrSchemaExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrDomainExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrSectionAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrSubjectCodeExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrISBNExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrFeeStructureExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrResourceAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeConflict},

	{apperrors.ErrEmailDelivery, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
}

// Classify returns the status and error code for err.
func Classify(err error) (int, dto.ErrorCode) {
	if apperrors.IsNotFound(err) && !errors.Is(err, apperrors.ErrTenantNotFound) && !errors.Is(err, apperrors.ErrTokenNotFound) {
		return http.StatusNotFound, dto.ErrorCodeResourceNotFound
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

// HandleAPIError writes the error envelope for err. Messages of unexpected
// errors stay in the log.
func HandleAPIError(c *gin.Context, err error) {
	status, code := Classify(err)

	message := err.Error()
	var ce *apperrors.CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		message = ce.Message
	}
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("requestId", c.GetString(RequestIDKey)).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		message = "Internal server error"
	}

	detail := dto.NewErrorDetail(code, message)
	if field := apperrors.Field(err); field != "" {
		detail = detail.WithField(field)
	}
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

// HandleBindError answers a request whose body or query failed to bind.
func HandleBindError(c *gin.Context, err error) {
	detail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid request")

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		detail.Message = formatValidationError(verrs[0])
		detail = detail.WithField(verrs[0].Field())
		if len(verrs) > 1 {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = formatValidationError(fe)
			}
			detail = detail.WithDetails(fields)
		}
	} else {
		detail = detail.WithDetails(err.Error())
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
}
