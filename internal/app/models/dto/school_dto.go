package dto

import "github.com/yigit/schoolsphere/internal/app/models"

// RegisterSchoolRequest is the public school sign-up form
type RegisterSchoolRequest struct {
	Name              string                  `json:"name" binding:"required,min=2,max=200" example:"Green Valley High"`
	SchemaName        string                  `json:"schemaName" binding:"omitempty,schemaname" example:"school_green_valley"`
	Domain            string                  `json:"domain" binding:"omitempty,hostname_rfc" example:"greenvalley.schoolsphere.test"`
	Address           string                  `json:"address" binding:"required"`
	ContactEmail      string                  `json:"contactEmail" binding:"required,email"`
	ContactPhone      string                  `json:"contactPhone" binding:"required,max=20"`
	BoardAffiliation  models.BoardAffiliation `json:"boardAffiliation" binding:"required,oneof=CBSE ICSE STATE"`
	StudentStrength   int                     `json:"studentStrength" binding:"gte=0"`
	StaffCount        int                     `json:"staffCount" binding:"gte=0"`
	PrincipalName     string                  `json:"principalName" binding:"required"`
	PrincipalEmail    string                  `json:"principalEmail" binding:"required,email"`
	PrincipalPhone    string                  `json:"principalPhone" binding:"required,max=20"`
	AcademicYearStart int                     `json:"academicYearStart" example:"4"`
	AcademicYearEnd   int                     `json:"academicYearEnd" example:"3"`
	AutoCreateSchema  *bool                   `json:"autoCreateSchema"`
}

// UpdateSchoolRequest carries a partial update; nil fields are left untouched
type UpdateSchoolRequest struct {
	Name              *string                  `json:"name" binding:"omitempty,min=2,max=200"`
	Address           *string                  `json:"address"`
	ContactEmail      *string                  `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone      *string                  `json:"contactPhone" binding:"omitempty,max=20"`
	BoardAffiliation  *models.BoardAffiliation `json:"boardAffiliation" binding:"omitempty,oneof=CBSE ICSE STATE"`
	StudentStrength   *int                     `json:"studentStrength" binding:"omitempty,gte=0"`
	StaffCount        *int                     `json:"staffCount" binding:"omitempty,gte=0"`
	PrincipalName     *string                  `json:"principalName"`
	PrincipalEmail    *string                  `json:"principalEmail" binding:"omitempty,email"`
	PrincipalPhone    *string                  `json:"principalPhone" binding:"omitempty,max=20"`
	AcademicYearStart *int                     `json:"academicYearStart"`
	AcademicYearEnd   *int                     `json:"academicYearEnd"`
	IsApproved        *bool                    `json:"isApproved"`
}

type RejectSchoolRequest struct {
	Reason string `json:"reason" binding:"required,min=3"`
}

type CreateDomainRequest struct {
	Domain    string `json:"domain" binding:"required,hostname_rfc"`
	IsPrimary bool   `json:"isPrimary"`
}

// SchoolApprovalResponse is returned when an approval provisions the school admin
type SchoolApprovalResponse struct {
	School *models.School    `json:"school"`
	Admin  *AdminCredentials `json:"admin,omitempty"`
}

// AdminCredentials are shown once, when the school admin is generated
type AdminCredentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}
