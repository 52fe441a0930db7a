package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/auth"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	pkgauth "github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/pkg/email"
	"github.com/yigit/schoolsphere/internal/pkg/filestorage"
	"github.com/yigit/schoolsphere/internal/pkg/helpers"
)

// SelfServiceRoles may be chosen through open registration.
var SelfServiceRoles = []models.RoleType{models.RoleStudent, models.RoleParent}

// UserService manages accounts, students and teachers of a school
type UserService struct {
	userRepo UserStore
	files    filestorage.FileStorage
	mailer   email.EmailService
	tx       Transactor
	logger   zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(
	userRepo UserStore,
	files filestorage.FileStorage,
	mailer email.EmailService,
	tx Transactor,
	logger zerolog.Logger,
) *UserService {
	return &UserService{
		userRepo: userRepo,
		files:    files,
		mailer:   mailer,
		tx:       tx,
		logger:   logger,
	}
}

// Register is the open sign-up. Only student and parent accounts can be
// created this way.
func (s *UserService) Register(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := requireTenant(ctx); err != nil {
		return nil, err
	}
	if !roleIn(req.Role, SelfServiceRoles) {
		return nil, &apperrors.CustomError{
			Err:     apperrors.ErrRoleNotAllowed,
			Message: fmt.Sprintf("self registration is limited to %v", SelfServiceRoles),
			Details: map[string]interface{}{"field": "role"},
		}
	}

	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	if err := s.mailer.SendWelcomeEmail(ctx, email.Recipient{Name: user.FullName(), Email: user.Email}); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to send welcome email")
	}
	s.logger.Info().Int64("userId", user.ID).Str("role", string(user.RoleType)).Msg("User registered")
	return s.response(ctx, user), nil
}

// Create is the admin-side account creation for any school role.
func (s *UserService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if err := checkSchoolRole(req.Role); err != nil {
		return nil, err
	}

	user, err := s.newUser(req)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return s.response(ctx, user), nil
}

func (s *UserService) newUser(req *dto.CreateUserRequest) (*models.User, error) {
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := pkgauth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}
	return &models.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  hash,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		RoleType:  req.Role,
		Phone:     req.Phone,
		Address:   req.Address,
		IsActive:  true,
	}, nil
}

// List returns every account to admins and only the caller to everyone else.
func (s *UserService) List(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*dto.UserResponse, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	if !actor.IsAdmin() {
		f.OnlyID = actor.UserID
	}

	users, total, err := s.userRepo.List(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing users: %w", err)
	}
	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, s.response(ctx, u))
	}
	return out, total, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*dto.UserResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdminOrSelf(actor, id); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.response(ctx, user), nil
}

// Update lets admins edit any account and users edit their own. Role and
// activation changes are reserved to admins.
func (s *UserService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdminOrSelf(actor, id); err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && (req.Role != nil || req.IsActive != nil) {
		return nil, apperrors.NewForbiddenError("only administrators can change roles or activation")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyUserUpdate(user, req); err != nil {
		return nil, err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user: %w", err)
	}
	return s.response(ctx, user), nil
}

func applyUserUpdate(user *models.User, req *dto.UpdateUserRequest) error {
	if req.Role != nil {
		if err := checkSchoolRole(*req.Role); err != nil {
			return err
		}
		user.RoleType = *req.Role
	}
	if req.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.FirstName != nil {
		user.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		user.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}
	if req.Address != nil {
		user.Address = *req.Address
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	return nil
}

// Delete removes an account. Admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if actor.IsSelf(id) {
		return apperrors.NewConflictError("you cannot delete your own account")
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	if user.ProfilePicture != "" {
		if err := s.files.DeleteFile(ctx, user.ProfilePicture); err != nil {
			s.logger.Warn().Err(err).Int64("userId", id).Msg("Failed to delete profile picture")
		}
	}
	return nil
}

// ---- students ----

// studentScope widens the role scope for staff who look up students across the
// school, such as librarians issuing books and accountants billing fees.
func studentScope(a *auth.Actor) models.Scope {
	return auth.ModuleScope(a, models.RoleLibrarian, models.RoleAccountant)
}

func (s *UserService) ListStudents(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*dto.StudentResponse, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	scope := studentScope(actor)
	if !auth.Visible(scope) {
		return nil, 0, apperrors.NewForbiddenError("you cannot list students")
	}

	students, total, err := s.userRepo.ListStudents(ctx, scope, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing students: %w", err)
	}
	out := make([]*dto.StudentResponse, 0, len(students))
	for _, st := range students {
		out = append(out, s.studentResponse(ctx, st))
	}
	return out, total, nil
}

func (s *UserService) GetStudent(ctx context.Context, id int64) (*dto.StudentResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	scope := studentScope(actor)
	if !auth.Visible(scope) {
		return nil, apperrors.NewForbiddenError("you cannot view students")
	}
	st, err := s.userRepo.GetStudent(ctx, id, scope)
	if err != nil {
		return nil, err
	}
	return s.studentResponse(ctx, st), nil
}

// CreateStudent creates the account and its profile in one transaction.
func (s *UserService) CreateStudent(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	req.Role = models.RoleStudent
	user, err := s.newUser(&req.CreateUserRequest)
	if err != nil {
		return nil, err
	}
	profile := &models.StudentProfile{
		AdmissionNumber: strings.TrimSpace(req.AdmissionNumber),
		DateOfBirth:     req.DateOfBirth,
		BloodGroup:      req.BloodGroup,
		ParentID:        req.ParentID,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.checkParent(ctx, profile.ParentID); err != nil {
			return err
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		return s.userRepo.CreateStudentProfile(ctx, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating student: %w", err)
	}
	return s.studentResponse(ctx, &models.Student{User: *user, Profile: *profile}), nil
}

func (s *UserService) UpdateStudent(ctx context.Context, id int64, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role != models.RoleStudent {
		return nil, apperrors.NewValidationError("role", "a student's role cannot be changed here")
	}

	var st *models.Student
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		st, err = s.userRepo.GetStudent(ctx, id, models.Scope{All: true})
		if err != nil {
			return err
		}
		if err := applyUserUpdate(&st.User, &req.UpdateUserRequest); err != nil {
			return err
		}
		if req.AdmissionNumber != nil {
			st.Profile.AdmissionNumber = strings.TrimSpace(*req.AdmissionNumber)
		}
		if req.DateOfBirth != nil {
			st.Profile.DateOfBirth = req.DateOfBirth
		}
		if req.BloodGroup != nil {
			st.Profile.BloodGroup = *req.BloodGroup
		}
		if req.ParentID != nil {
			if err := s.checkParent(ctx, req.ParentID); err != nil {
				return err
			}
			st.Profile.ParentID = req.ParentID
		}

		if err := s.userRepo.Update(ctx, &st.User); err != nil {
			return err
		}
		return s.userRepo.UpdateStudentProfile(ctx, &st.Profile)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating student: %w", err)
	}
	return s.studentResponse(ctx, st), nil
}

func (s *UserService) DeleteStudent(ctx context.Context, id int64) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.userRepo.GetStudent(ctx, id, models.Scope{All: true}); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

// checkParent verifies that a referenced parent holds the parent role.
func (s *UserService) checkParent(ctx context.Context, parentID *int64) error {
	if parentID == nil {
		return nil
	}
	parent, err := s.userRepo.GetByID(ctx, *parentID)
	if err != nil {
		if isNotFound(err) {
			return apperrors.NewValidationError("parentId", "parent does not exist")
		}
		return err
	}
	if parent.RoleType != models.RoleParent {
		return apperrors.NewValidationError("parentId", "referenced user is not a parent")
	}
	return nil
}

// ---- teachers ----

// ListTeachers shows admins every teacher and teachers only themselves.
func (s *UserService) ListTeachers(ctx context.Context, f models.UserFilter, p helpers.PageRequest) ([]*dto.TeacherResponse, int64, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, 0, err
	}
	switch {
	case actor.IsAdmin():
	case actor.Is(models.RoleTeacher):
		f.OnlyID = actor.UserID
	default:
		return nil, 0, apperrors.NewForbiddenError("you cannot list teachers")
	}

	teachers, total, err := s.userRepo.ListTeachers(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing teachers: %w", err)
	}
	out := make([]*dto.TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		out = append(out, s.teacherResponse(ctx, t))
	}
	return out, total, nil
}

func (s *UserService) GetTeacher(ctx context.Context, id int64) (*dto.TeacherResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Is(models.RoleTeacher) && actor.IsSelf(id)) {
		return nil, apperrors.NewForbiddenError("you cannot view this teacher")
	}
	t, err := s.userRepo.GetTeacher(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.teacherResponse(ctx, t), nil
}

func (s *UserService) CreateTeacher(ctx context.Context, req *dto.CreateTeacherRequest) (*dto.TeacherResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}

	req.Role = models.RoleTeacher
	user, err := s.newUser(&req.CreateUserRequest)
	if err != nil {
		return nil, err
	}
	profile := &models.TeacherProfile{
		EmployeeID:      strings.TrimSpace(req.EmployeeID),
		DateOfBirth:     req.DateOfBirth,
		Qualification:   req.Qualification,
		ExperienceYears: req.ExperienceYears,
		Subjects:        models.StringList(req.Subjects),
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return err
		}
		profile.UserID = user.ID
		return s.userRepo.CreateTeacherProfile(ctx, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("error creating teacher: %w", err)
	}
	return s.teacherResponse(ctx, &models.Teacher{User: *user, Profile: *profile}), nil
}

func (s *UserService) UpdateTeacher(ctx context.Context, id int64, req *dto.UpdateTeacherRequest) (*dto.TeacherResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if req.Role != nil && *req.Role != models.RoleTeacher {
		return nil, apperrors.NewValidationError("role", "a teacher's role cannot be changed here")
	}

	var t *models.Teacher
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		t, err = s.userRepo.GetTeacher(ctx, id)
		if err != nil {
			return err
		}
		if err := applyUserUpdate(&t.User, &req.UpdateUserRequest); err != nil {
			return err
		}
		if req.EmployeeID != nil {
			t.Profile.EmployeeID = strings.TrimSpace(*req.EmployeeID)
		}
		if req.DateOfBirth != nil {
			t.Profile.DateOfBirth = req.DateOfBirth
		}
		if req.Qualification != nil {
			t.Profile.Qualification = *req.Qualification
		}
		if req.ExperienceYears != nil {
			t.Profile.ExperienceYears = *req.ExperienceYears
		}
		if req.Subjects != nil {
			t.Profile.Subjects = models.StringList(req.Subjects)
		}

		if err := s.userRepo.Update(ctx, &t.User); err != nil {
			return err
		}
		return s.userRepo.UpdateTeacherProfile(ctx, &t.Profile)
	})
	if err != nil {
		return nil, fmt.Errorf("error updating teacher: %w", err)
	}
	return s.teacherResponse(ctx, t), nil
}

func (s *UserService) DeleteTeacher(ctx context.Context, id int64) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if err := auth.RequireAdmin(actor); err != nil {
		return err
	}
	if _, err := s.userRepo.GetTeacher(ctx, id); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, id)
}

func (s *UserService) response(ctx context.Context, u *models.User) *dto.UserResponse {
	res := dto.NewUserResponse(u)
	res.ProfilePictureURL = presign(ctx, s.files, s.logger, u.ProfilePicture)
	return res
}

func (s *UserService) studentResponse(ctx context.Context, st *models.Student) *dto.StudentResponse {
	res := dto.NewStudentResponse(st)
	res.ProfilePictureURL = presign(ctx, s.files, s.logger, st.User.ProfilePicture)
	return res
}

func (s *UserService) teacherResponse(ctx context.Context, t *models.Teacher) *dto.TeacherResponse {
	res := dto.NewTeacherResponse(t)
	res.ProfilePictureURL = presign(ctx, s.files, s.logger, t.User.ProfilePicture)
	return res
}

// checkSchoolRole refuses unknown roles and the platform-only super admin.
func checkSchoolRole(role models.RoleType) error {
	if !role.IsValid() {
		return apperrors.NewValidationError("role", fmt.Sprintf("unknown role %q", role))
	}
	if role == models.RoleSuperAdmin {
		return &apperrors.CustomError{
			Err:     apperrors.ErrRoleNotAllowed,
			Message: "super admins exist only on the platform schema",
			Details: map[string]interface{}{"field": "role"},
		}
	}
	return nil
}

func roleIn(role models.RoleType, roles []models.RoleType) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// isNotFound matches the typed not-found errors repositories return.
func isNotFound(err error) bool {
	return apperrors.IsNotFound(err)
}
