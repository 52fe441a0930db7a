package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTenantMismatch     = errors.New("token was issued for another school")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrBadRequest       = errors.New("bad request")
	ErrInvalidFormat    = errors.New("invalid format")

	// User errors
	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("email already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrOldPasswordIncorrect  = errors.New("old password is incorrect")
	ErrAdmissionNumberExists = errors.New("admission number already exists")
	ErrEmployeeIDExists      = errors.New("employee id already exists")
	ErrRoleNotAllowed        = errors.New("role not allowed")
	ErrStudentNotFound       = errors.New("student not found")
	ErrTeacherNotFound       = errors.New("teacher not found")
)

// Tenant errors
var (
	ErrTenantNotFound        = errors.New("no school is registered for this domain")
	ErrTenantRequired        = errors.New("this endpoint is only available on a school domain")
	ErrSchoolNotFound        = errors.New("school not found")
	ErrSchoolNotApproved     = errors.New("school is not approved")
	ErrFreeTierLimitExceeded = errors.New("free tier limit exceeded")
	ErrAcademicYearConfig    = errors.New("invalid academic year configuration")
	ErrInvalidSchemaName     = errors.New("invalid schema name")
	ErrSchemaExists          = errors.New("schema name already taken")
	ErrDomainExists          = errors.New("domain already registered")
	ErrDomainNotFound        = errors.New("domain not found")
)

// Academic errors
var (
	ErrAcademicYearNotFound = errors.New("academic year not found")
	ErrClassNotFound        = errors.New("class not found")
	ErrSectionNotFound      = errors.New("section not found")
	ErrSubjectNotFound      = errors.New("subject not found")
	ErrAttendanceNotFound   = errors.New("attendance record not found")
	ErrAssessmentNotFound   = errors.New("assessment not found")
	ErrResultNotFound       = errors.New("assessment result not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrTimetableNotFound    = errors.New("timetable entry not found")
	ErrTimetableOverlap     = errors.New("timetable entry overlaps an existing slot")
	ErrMarksExceedTotal     = errors.New("marks obtained cannot exceed total marks")
	ErrDuplicateSubmission  = errors.New("assignment already submitted")
	ErrDuplicateAttendance  = errors.New("attendance already recorded for this date")
	ErrSectionAlreadyExists = errors.New("section already exists for this class and year")
	ErrSubjectCodeExists    = errors.New("subject code already exists")
	ErrDuplicateResult      = errors.New("result already recorded for this student")
)

// Library errors
var (
	ErrBookNotFound      = errors.New("book not found")
	ErrISBNExists        = errors.New("book with this isbn already exists")
	ErrNoCopiesAvailable = errors.New("no copies available")
	ErrBookUnavailable   = errors.New("book cannot be issued in its current state")
	ErrIssueNotFound     = errors.New("book issue not found")
	ErrAlreadyReturned   = errors.New("book already returned")
	ErrCopiesBelowIssued = errors.New("copies cannot be lower than issued copies")
)

// Finance errors
var (
	ErrFeeModule             = errors.New("fee module error")
	ErrFeeCategoryNotFound   = errors.New("fee category not found")
	ErrFeeStructureNotFound  = errors.New("fee structure not found")
	ErrFeeStructureExists    = errors.New("fee structure already exists for this class and year")
	ErrDiscountNotFound      = errors.New("discount not found")
	ErrStudentFeeNotFound    = errors.New("student fee not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")
)

// Communication errors
var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrMessageNotFound      = errors.New("message not found")
	ErrEmailDelivery        = errors.New("email delivery failed")
)

// Password reset errors
var (
	ErrInvalidPasswordResetToken = errors.New("invalid or expired password reset token")
	ErrPasswordResetTokenUsed    = errors.New("password reset token has already been used")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError reports a field-level validation failure.
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// WithStatusMsg adds a user-friendly status message
func (e *CustomError) WithStatusMsg(msg string) *CustomError {
	e.StatusMsg = msg
	return e
}

// Field returns the offending field recorded by NewValidationError, if any.
func Field(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Details != nil {
		if f, ok := ce.Details["field"].(string); ok {
			return f
		}
	}
	return ""
}

var notFound = []error{
	ErrResourceNotFound,
	ErrUserNotFound,
	ErrStudentNotFound,
	ErrTeacherNotFound,
	ErrTenantNotFound,
	ErrSchoolNotFound,
	ErrDomainNotFound,
	ErrTokenNotFound,
	ErrAcademicYearNotFound,
	ErrClassNotFound,
	ErrSectionNotFound,
	ErrSubjectNotFound,
	ErrAttendanceNotFound,
	ErrAssessmentNotFound,
	ErrResultNotFound,
	ErrAssignmentNotFound,
	ErrSubmissionNotFound,
	ErrTimetableNotFound,
	ErrBookNotFound,
	ErrIssueNotFound,
	ErrFeeCategoryNotFound,
	ErrFeeStructureNotFound,
	ErrDiscountNotFound,
	ErrStudentFeeNotFound,
	ErrPaymentNotFound,
	ErrAnnouncementNotFound,
	ErrNotificationNotFound,
	ErrMessageNotFound,
}

// IsNotFound reports whether err is one of the not-found sentinels.
func IsNotFound(err error) bool {
	for _, target := range notFound {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
