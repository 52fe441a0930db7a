package dto

import "time"

// ErrorCode is the stable, client-facing identifier of a failure. The prefix
// names the family: AUTH, RES, VAL, TEN or SRV.
type ErrorCode string

const (
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeInvalidEmail       ErrorCode = "AUTH_002"
	ErrorCodeInvalidPassword    ErrorCode = "AUTH_003"
	ErrorCodeAccountDisabled    ErrorCode = "AUTH_004"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeTokenNotFound      ErrorCode = "AUTH_007"
	ErrorCodeForbidden          ErrorCode = "AUTH_009"

	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"
	ErrorCodeResourceInvalid       ErrorCode = "RES_003"
	ErrorCodeConflict              ErrorCode = "RES_004"

	ErrorCodeValidationFailed ErrorCode = "VAL_001"
	ErrorCodeBadRequest       ErrorCode = "VAL_002"

	// a host that maps to no school, or a school that cannot serve yet
	ErrorCodeTenantNotFound    ErrorCode = "TEN_001"
	ErrorCodeSchoolNotApproved ErrorCode = "TEN_002"
	ErrorCodeFreeTierLimit     ErrorCode = "TEN_003"
	ErrorCodeTenantRequired    ErrorCode = "TEN_004"

	ErrorCodeInternalServer       ErrorCode = "SRV_001"
	ErrorCodeDatabaseError        ErrorCode = "SRV_002"
	ErrorCodeExternalServiceError ErrorCode = "SRV_003"
)

// ErrorDetail is the "error" member of a failed response.
type ErrorDetail struct {
	Code    ErrorCode   `json:"code" example:"RES_002"`
	Message string      `json:"message" example:"Book with this isbn already exists"`
	Field   string      `json:"field,omitempty" example:"isbn"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps an ErrorDetail in the common envelope.
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2025-04-23T12:01:05.123Z"`
}

func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{Code: code, Message: message}
}

// WithField names the offending request field.
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithDetails attaches structured context, such as per-field messages.
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

func NewErrorResponse(detail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     detail,
		Timestamp: time.Now(),
	}
}
