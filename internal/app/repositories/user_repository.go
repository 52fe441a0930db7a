package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

var userColumns = []string{
	"id", "username", "email", "password", "first_name", "last_name", "role", "phone", "address",
	"profile_picture", "is_active", "last_login_at", "created_at", "updated_at",
}

var userConstraints = map[string]error{
	"users_username_key":                    apperrors.ErrUsernameAlreadyExists,
	"users_email_key":                       apperrors.ErrEmailAlreadyExists,
	"student_profiles_admission_number_key": apperrors.ErrAdmissionNumberExists,
	"teacher_profiles_employee_id_key":      apperrors.ErrEmployeeIDExists,
}

// UserRepository handles users and their student or teacher profiles in the
// tenant schema. On the public tenant it reaches the platform super admins.
type UserRepository struct {
	baseRepository
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{baseRepository{db: db}}
}

func prefixed(alias string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = alias + "." + c
	}
	return out
}

func userScanTargets(u *models.User) []any {
	return []any{
		&u.ID, &u.Username, &u.Email, &u.Password, &u.FirstName, &u.LastName, &u.RoleType, &u.Phone,
		&u.Address, &u.ProfilePicture, &u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt,
	}
}

// Create inserts the user and fills its id and timestamps.
func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query := psql.Insert(r.t(ctx, "users")).
		Columns("username", "email", "password", "first_name", "last_name", "role", "phone", "address", "is_active").
		Values(u.Username, u.Email, u.Password, u.FirstName, u.LastName, u.RoleType, u.Phone, u.Address, u.IsActive).
		Suffix("RETURNING id, created_at, updated_at")

	err := r.getOne(ctx, query, nil, &u.ID, &u.CreatedAt, &u.UpdatedAt)
	return logFailure(constraintError(err, userConstraints), "Failed to create user")
}

func (r *UserRepository) getBy(ctx context.Context, cond squirrel.Sqlizer) (*models.User, error) {
	query := psql.Select(userColumns...).From(r.t(ctx, "users")).Where(cond)

	var u models.User
	if err := r.getOne(ctx, query, apperrors.ErrUserNotFound, userScanTargets(&u)...); err != nil {
		return nil, logFailure(err, "Failed to get user")
	}
	return &u, nil
}

// GetByID returns the user with id.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, squirrel.Eq{"id": id})
}

// GetByLogin matches the username, or the email case-insensitively.
func (r *UserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Or{
		squirrel.Eq{"username": login},
		squirrel.Expr("LOWER(email) = ?", strings.ToLower(login)),
	})
}

// GetByEmail returns the user with email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, squirrel.Expr("LOWER(email) = ?", strings.ToLower(email)))
}

func userSearch(col func(string) string, q string) squirrel.Sqlizer {
	like := helpers.LikePattern(q)
	return squirrel.Or{
		squirrel.ILike{col("username"): like},
		squirrel.ILike{col("email"): like},
		squirrel.ILike{col("first_name"): like},
		squirrel.ILike{col("last_name"): like},
	}
}

// List returns a page of users ordered by username.
func (r *UserRepository) List(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*models.User, int64, error) {
	query := psql.Select(userColumns...).From(r.t(ctx, "users")).OrderBy("username")
	if f.Role != "" {
		query = query.Where(squirrel.Eq{"role": f.Role})
	}
	if f.OnlyID != 0 {
		query = query.Where(squirrel.Eq{"id": f.OnlyID})
	}
	if f.Search != "" {
		query = query.Where(userSearch(func(c string) string { return c }, f.Search))
	}

	users := []*models.User{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var u models.User
		if err := row.Scan(append(userScanTargets(&u), total)...); err != nil {
			return err
		}
		users = append(users, &u)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list users")
	}
	return users, total, nil
}

// Update writes the editable user columns.
func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	u.UpdatedAt = time.Now()
	query := psql.Update(r.t(ctx, "users")).
		Set("email", u.Email).
		Set("first_name", u.FirstName).
		Set("last_name", u.LastName).
		Set("role", u.RoleType).
		Set("phone", u.Phone).
		Set("address", u.Address).
		Set("is_active", u.IsActive).
		Set("updated_at", u.UpdatedAt).
		Where(squirrel.Eq{"id": u.ID})

	err := r.execOne(ctx, query, apperrors.ErrUserNotFound)
	return logFailure(constraintError(err, userConstraints), "Failed to update user")
}

// UpdatePassword stores a new password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	query := psql.Update(r.t(ctx, "users")).
		Set("password", hash).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrUserNotFound), "Failed to update password")
}

// UpdateLastLogin stamps a successful login.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	query := psql.Update(r.t(ctx, "users")).Set("last_login_at", at).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrUserNotFound), "Failed to update last login")
}

// UpdateProfilePicture stores the object key of the user's picture.
func (r *UserRepository) UpdateProfilePicture(ctx context.Context, id int64, key string) error {
	query := psql.Update(r.t(ctx, "users")).
		Set("profile_picture", key).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrUserNotFound), "Failed to update profile picture")
}

// Delete removes the user and, through cascades, its profile.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	query := psql.Delete(r.t(ctx, "users")).Where(squirrel.Eq{"id": id})
	return logFailure(r.execOne(ctx, query, apperrors.ErrUserNotFound), "Failed to delete user")
}

// CountByRole counts the users holding one of roles.
func (r *UserRepository) CountByRole(ctx context.Context, roles ...models.RoleType) (int64, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "users")).Where(squirrel.Eq{"role": roles})
	n, err := r.count(ctx, query)
	return n, logFailure(err, "Failed to count users")
}

// Exists reports whether a user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id int64) (bool, error) {
	query := psql.Select("COUNT(*)").From(r.t(ctx, "users")).Where(squirrel.Eq{"id": id})
	n, err := r.count(ctx, query)
	return n > 0, logFailure(err, "Failed to check user")
}

// ---- students ----

var studentProfileColumns = []string{"sp.admission_number", "sp.date_of_birth", "sp.blood_group", "sp.parent_id"}

func (r *UserRepository) studentSelect(ctx context.Context) squirrel.SelectBuilder {
	cols := append(prefixed("u", userColumns), studentProfileColumns...)
	return psql.Select(cols...).
		From(r.t(ctx, "users") + " u").
		Join(r.t(ctx, "student_profiles") + " sp ON sp.user_id = u.id")
}

func studentScanTargets(s *models.Student) []any {
	return append(userScanTargets(&s.User),
		&s.Profile.AdmissionNumber, &s.Profile.DateOfBirth, &s.Profile.BloodGroup, &s.Profile.ParentID)
}

// CreateStudentProfile inserts the profile row of an existing user.
func (r *UserRepository) CreateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	query := psql.Insert(r.t(ctx, "student_profiles")).
		Columns("user_id", "admission_number", "date_of_birth", "blood_group", "parent_id").
		Values(p.UserID, p.AdmissionNumber, p.DateOfBirth, p.BloodGroup, p.ParentID)

	_, err := r.exec(ctx, query)
	return logFailure(constraintError(err, userConstraints), "Failed to create student profile")
}

// UpdateStudentProfile writes the profile columns.
func (r *UserRepository) UpdateStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	query := psql.Update(r.t(ctx, "student_profiles")).
		Set("admission_number", p.AdmissionNumber).
		Set("date_of_birth", p.DateOfBirth).
		Set("blood_group", p.BloodGroup).
		Set("parent_id", p.ParentID).
		Where(squirrel.Eq{"user_id": p.UserID})

	err := r.execOne(ctx, query, apperrors.ErrStudentNotFound)
	return logFailure(constraintError(err, userConstraints), "Failed to update student profile")
}

// GetStudent returns a student visible under scope.
func (r *UserRepository) GetStudent(ctx context.Context, id int64, scope models.Scope) (*models.Student, error) {
	query := where(r.studentSelect(ctx).Where(squirrel.Eq{"u.id": id}), r.studentScope(ctx, scope, "u.id"))

	var s models.Student
	if err := r.getOne(ctx, query, apperrors.ErrStudentNotFound, studentScanTargets(&s)...); err != nil {
		return nil, logFailure(err, "Failed to get student")
	}
	s.Profile.UserID = s.User.ID
	return &s, nil
}

// ListStudents returns a page of the students visible under scope.
func (r *UserRepository) ListStudents(ctx context.Context, scope models.Scope, f models.UserFilter, p helpers.PageRequest) ([]*models.Student, int64, error) {
	query := where(r.studentSelect(ctx), r.studentScope(ctx, scope, "u.id")).OrderBy("sp.admission_number")
	if f.Search != "" {
		query = query.Where(squirrel.Or{
			userSearch(func(c string) string { return "u." + c }, f.Search),
			squirrel.ILike{"sp.admission_number": helpers.LikePattern(f.Search)},
		})
	}
	if f.SectionID != 0 {
		query = query.Where(fmt.Sprintf("u.id IN (SELECT student_id FROM %s WHERE section_id = ?)", r.t(ctx, "section_students")), f.SectionID)
	}
	if f.ClassID != 0 {
		query = query.Where(fmt.Sprintf("u.id IN (SELECT ss.student_id FROM %s ss JOIN %s sec ON sec.id = ss.section_id WHERE sec.class_id = ?)",
			r.t(ctx, "section_students"), r.t(ctx, "sections")), f.ClassID)
	}
	if f.ParentID != 0 {
		query = query.Where(squirrel.Eq{"sp.parent_id": f.ParentID})
	}

	students := []*models.Student{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var s models.Student
		if err := row.Scan(append(studentScanTargets(&s), total)...); err != nil {
			return err
		}
		s.Profile.UserID = s.User.ID
		students = append(students, &s)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list students")
	}
	return students, total, nil
}

// ---- teachers ----

var teacherProfileColumns = []string{"tp.employee_id", "tp.date_of_birth", "tp.qualification", "tp.experience_years", "tp.subjects"}

func (r *UserRepository) teacherSelect(ctx context.Context) squirrel.SelectBuilder {
	cols := append(prefixed("u", userColumns), teacherProfileColumns...)
	return psql.Select(cols...).
		From(r.t(ctx, "users") + " u").
		Join(r.t(ctx, "teacher_profiles") + " tp ON tp.user_id = u.id")
}

func teacherScanTargets(t *models.Teacher) []any {
	return append(userScanTargets(&t.User),
		&t.Profile.EmployeeID, &t.Profile.DateOfBirth, &t.Profile.Qualification, &t.Profile.ExperienceYears, &t.Profile.Subjects)
}

// CreateTeacherProfile inserts the profile row of an existing user.
func (r *UserRepository) CreateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	query := psql.Insert(r.t(ctx, "teacher_profiles")).
		Columns("user_id", "employee_id", "date_of_birth", "qualification", "experience_years", "subjects").
		Values(p.UserID, p.EmployeeID, p.DateOfBirth, p.Qualification, p.ExperienceYears, p.Subjects)

	_, err := r.exec(ctx, query)
	return logFailure(constraintError(err, userConstraints), "Failed to create teacher profile")
}

// UpdateTeacherProfile writes the profile columns.
func (r *UserRepository) UpdateTeacherProfile(ctx context.Context, p *models.TeacherProfile) error {
	query := psql.Update(r.t(ctx, "teacher_profiles")).
		Set("employee_id", p.EmployeeID).
		Set("date_of_birth", p.DateOfBirth).
		Set("qualification", p.Qualification).
		Set("experience_years", p.ExperienceYears).
		Set("subjects", p.Subjects).
		Where(squirrel.Eq{"user_id": p.UserID})

	err := r.execOne(ctx, query, apperrors.ErrTeacherNotFound)
	return logFailure(constraintError(err, userConstraints), "Failed to update teacher profile")
}

// GetTeacher returns the teacher with id.
func (r *UserRepository) GetTeacher(ctx context.Context, id int64) (*models.Teacher, error) {
	query := r.teacherSelect(ctx).Where(squirrel.Eq{"u.id": id})

	var t models.Teacher
	if err := r.getOne(ctx, query, apperrors.ErrTeacherNotFound, teacherScanTargets(&t)...); err != nil {
		return nil, logFailure(err, "Failed to get teacher")
	}
	t.Profile.UserID = t.User.ID
	return &t, nil
}

// ListTeachers returns a page of teachers ordered by employee id.
func (r *UserRepository) ListTeachers(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*models.Teacher, int64, error) {
	query := r.teacherSelect(ctx).OrderBy("tp.employee_id")
	if f.OnlyID != 0 {
		query = query.Where(squirrel.Eq{"u.id": f.OnlyID})
	}
	if f.Search != "" {
		query = query.Where(squirrel.Or{
			userSearch(func(c string) string { return "u." + c }, f.Search),
			squirrel.ILike{"tp.employee_id": helpers.LikePattern(f.Search)},
		})
	}

	teachers := []*models.Teacher{}
	total, err := r.page(ctx, query, p, func(row rowScanner, total *int64) error {
		var t models.Teacher
		if err := row.Scan(append(teacherScanTargets(&t), total)...); err != nil {
			return err
		}
		t.Profile.UserID = t.User.ID
		teachers = append(teachers, &t)
		return nil
	})
	if err != nil {
		return nil, 0, logFailure(err, "Failed to list teachers")
	}
	return teachers, total, nil
}

// ChildrenOf returns the student ids whose parent is parentID.
func (r *UserRepository) ChildrenOf(ctx context.Context, parentID int64) ([]int64, error) {
	query := psql.Select("user_id").From(r.t(ctx, "student_profiles")).Where(squirrel.Eq{"parent_id": parentID})
	return r.int64s(ctx, query, "Failed to list children")
}

// AudienceIDs returns the active users holding one of roles. When classIDs or
// sectionIDs are given, only users affiliated with them are returned: enrolled
// students, their parents, and teachers of those sections or class subjects.
func (r *UserRepository) AudienceIDs(ctx context.Context, roles []models.RoleType, classIDs, sectionIDs []int64) ([]int64, error) {
	query := psql.Select("u.id").From(r.t(ctx, "users") + " u").
		Where(squirrel.Eq{"u.role": roles, "u.is_active": true}).
		OrderBy("u.id")

	if len(classIDs) > 0 || len(sectionIDs) > 0 {
		targeted := fmt.Sprintf("(SELECT id FROM %s WHERE id = ANY(?) OR class_id = ANY(?))", r.t(ctx, "sections"))
		secArgs := []any{int64Array(sectionIDs), int64Array(classIDs)}

		enrolled := fmt.Sprintf("u.id IN (SELECT student_id FROM %s WHERE section_id IN %s)", r.t(ctx, "section_students"), targeted)
		parents := fmt.Sprintf("u.id IN (SELECT sp.parent_id FROM %s sp JOIN %s ss ON ss.student_id = sp.user_id WHERE ss.section_id IN %s)",
			r.t(ctx, "student_profiles"), r.t(ctx, "section_students"), targeted)
		teaching := fmt.Sprintf("u.id IN (SELECT teacher_id FROM %s WHERE id IN %s)", r.t(ctx, "sections"), targeted)
		subjects := fmt.Sprintf("u.id IN (SELECT teacher_id FROM %s WHERE class_id = ANY(?))", r.t(ctx, "subjects"))

		query = query.Where(squirrel.Or{
			squirrel.Expr(enrolled, secArgs...),
			squirrel.Expr(parents, secArgs...),
			squirrel.Expr(teaching, secArgs...),
			squirrel.Expr(subjects, int64Array(classIDs)),
		})
	}

	return r.int64s(ctx, query, "Failed to resolve audience")
}
