package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RoleType defines the user role type
type RoleType string

const (
	RoleSuperAdmin  RoleType = "super_admin"
	RoleSchoolAdmin RoleType = "school_admin"
	RoleTeacher     RoleType = "teacher"
	RoleStudent     RoleType = "student"
	RoleParent      RoleType = "parent"
	RoleLibrarian   RoleType = "librarian"
	RoleAccountant  RoleType = "accountant"
)

// SchoolRoles are the roles a user inside a school schema may hold.
var SchoolRoles = []RoleType{RoleSchoolAdmin, RoleTeacher, RoleStudent, RoleParent, RoleLibrarian, RoleAccountant}

// IsValid reports whether r is one of the known roles.
func (r RoleType) IsValid() bool {
	if r == RoleSuperAdmin {
		return true
	}
	for _, known := range SchoolRoles {
		if r == known {
			return true
		}
	}
	return false
}

// IsAdmin is true for platform and school administrators.
func (r RoleType) IsAdmin() bool {
	return r == RoleSuperAdmin || r == RoleSchoolAdmin
}

const dateLayout = "2006-01-02"

// Date is a calendar day without a time component. It travels as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// Today returns the current UTC day.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// AddDays returns the day n days later.
func (d Date) AddDays(n int) Date {
	return Date{d.Time.AddDate(0, 0, n)}
}

// DaysUntil counts whole days from d to other; negative when other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d Date) String() string {
	return d.Time.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("date must use YYYY-MM-DD: %w", err)
	}
	*d = parsed
	return nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		d.Time = time.Time{}
	case time.Time:
		*d = DateOf(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("cannot scan %T into Date", src)
	}
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if d.Time.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// StringList is stored as a JSONB array.
type StringList []string

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

func (l *StringList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
