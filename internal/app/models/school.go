package models

import "time"

// BoardAffiliation is the examination board a school follows.
type BoardAffiliation string

const (
	BoardCBSE  BoardAffiliation = "CBSE"
	BoardICSE  BoardAffiliation = "ICSE"
	BoardState BoardAffiliation = "STATE"
)

// IsValid reports whether b is a supported board.
func (b BoardAffiliation) IsValid() bool {
	switch b {
	case BoardCBSE, BoardICSE, BoardState:
		return true
	}
	return false
}

// PublicSchema is the shared schema holding schools, domains and platform users.
const PublicSchema = "public"

// School is a tenant. Its data lives in the PostgreSQL schema named SchemaName.
type School struct {
	ID                int64            `json:"id" db:"id"`
	Name              string           `json:"name" db:"name"`
	SchemaName        string           `json:"schemaName" db:"schema_name"`
	Address           string           `json:"address" db:"address"`
	ContactEmail      string           `json:"contactEmail" db:"contact_email"`
	ContactPhone      string           `json:"contactPhone" db:"contact_phone"`
	BoardAffiliation  BoardAffiliation `json:"boardAffiliation" db:"board_affiliation"`
	StudentStrength   int              `json:"studentStrength" db:"student_strength"`
	StaffCount        int              `json:"staffCount" db:"staff_count"`
	PrincipalName     string           `json:"principalName" db:"principal_name"`
	PrincipalEmail    string           `json:"principalEmail" db:"principal_email"`
	PrincipalPhone    string           `json:"principalPhone" db:"principal_phone"`
	IsApproved        bool             `json:"isApproved" db:"is_approved"`
	ApprovalDate      *time.Time       `json:"approvalDate,omitempty" db:"approval_date"`
	RejectionReason   *string          `json:"rejectionReason,omitempty" db:"rejection_reason"`
	AcademicYearStart int              `json:"academicYearStart" db:"academic_year_start"`
	AcademicYearEnd   int              `json:"academicYearEnd" db:"academic_year_end"`
	AutoCreateSchema  bool             `json:"autoCreateSchema" db:"auto_create_schema"`
	AdminProvisioned  bool             `json:"adminProvisioned" db:"admin_provisioned"`
	CreatedAt         time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time        `json:"updatedAt" db:"updated_at"`
	Domains           []Domain         `json:"domains,omitempty"`
}

// Domain maps a hostname onto a school.
type Domain struct {
	ID        int64     `json:"id" db:"id"`
	Domain    string    `json:"domain" db:"domain"`
	SchoolID  int64     `json:"schoolId" db:"school_id"`
	IsPrimary bool      `json:"isPrimary" db:"is_primary"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SchoolFilter narrows school listings.
type SchoolFilter struct {
	Approved *bool
	Search   string
}
