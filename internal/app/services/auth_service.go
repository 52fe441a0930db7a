package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	"github.com/yigit/schoolsphere/internal/pkg/email"
	"github.com/yigit/schoolsphere/internal/pkg/filestorage"
	"github.com/yigit/schoolsphere/internal/pkg/validation"
	"github.com/yigit/schoolsphere/internal/tenancy"
)

// PasswordResetTTL is how long a mailed reset token stays valid.
const PasswordResetTTL = 24 * time.Hour

// AuthService handles authentication operations
type AuthService struct {
	userRepo   UserStore
	tokenRepo  TokenStore
	resetRepo  PasswordResetStore
	jwtService TokenIssuer
	files      filestorage.FileStorage
	mailer     email.EmailService
	tx         Transactor
	now        func() time.Time
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo UserStore,
	tokenRepo TokenStore,
	resetRepo PasswordResetStore,
	jwtService TokenIssuer,
	files filestorage.FileStorage,
	mailer email.EmailService,
	tx Transactor,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		resetRepo:  resetRepo,
		jwtService: jwtService,
		files:      files,
		mailer:     mailer,
		tx:         tx,
		now:        time.Now,
		logger:     logger,
	}
}

// validatePassword checks if password meets requirements
func validatePassword(password string) error {
	if !validation.IsStrongPassword(password) {
		return &apperrors.CustomError{
			Err:     apperrors.ErrInvalidPassword,
			Message: fmt.Sprintf("password must be at least %d characters and contain a letter and a digit", validation.PasswordMinLength),
			Details: map[string]interface{}{"field": "password"},
		}
	}
	return nil
}

// Login authenticates by username or email and starts a session bound to the
// current tenant.
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	login := strings.TrimSpace(req.Username)
	if login == "" || req.Password == "" {
		return nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info().Str("login", login).Str("schema", tenancy.Schema(ctx)).Msg("Login attempt for unknown user")
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !auth.CheckPassword(user.Password, req.Password) {
		s.logger.Info().Int64("userId", user.ID).Msg("Login attempt with wrong password")
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	token, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to update last login")
	} else {
		user.LastLoginAt = &now
	}

	s.logger.Info().Int64("userId", user.ID).Str("role", string(user.RoleType)).Str("schema", tenancy.Schema(ctx)).Msg("User logged in")
	return &dto.AuthResponse{Token: *token, User: s.userResponse(ctx, user)}, nil
}

// issue mints a token pair for user and persists its refresh half.
func (s *AuthService) issue(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.Subject{
		UserID:   user.ID,
		Username: user.Username,
		Role:     string(user.RoleType),
		Schema:   tenancy.Schema(ctx),
	})
	if err != nil {
		return nil, fmt.Errorf("error generating tokens: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.ExpiresIn),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
	}, nil
}

// RefreshToken rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	stored, err := s.tokenRepo.GetToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if stored.IsRevoked {
		// A revoked token coming back is a replay; end every session of the user.
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, stored.UserID); err != nil {
			s.logger.Error().Err(err).Int64("userId", stored.UserID).Msg("Failed to revoke sessions after token replay")
		}
		s.logger.Warn().Int64("userId", stored.UserID).Msg("Revoked refresh token presented")
		return nil, apperrors.ErrTokenRevoked
	}
	if s.now().After(stored.ExpiresAt) {
		return nil, apperrors.ErrTokenExpired
	}

	var out *dto.TokenResponse
	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, stored.UserID)
		if err != nil {
			return err
		}
		if !user.IsActive {
			return apperrors.ErrAccountDisabled
		}

		if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
			return err
		}
		out, err = s.issue(ctx, user)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil && !errors.Is(err, apperrors.ErrTokenNotFound) {
		return fmt.Errorf("error revoking token: %w", err)
	}
	return nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context) (*dto.UserResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return s.userResponse(ctx, user), nil
}

// UpdateProfile edits the caller's own contact fields.
func (s *AuthService) UpdateProfile(ctx context.Context, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
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

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating profile: %w", err)
	}
	return s.userResponse(ctx, user), nil
}

// UploadProfilePicture stores an image for the caller and replaces the old one.
func (s *AuthService) UploadProfilePicture(ctx context.Context, fh *multipart.FileHeader) (*dto.UserResponse, error) {
	actor, err := actorFrom(ctx)
	if err != nil {
		return nil, err
	}
	if fh == nil {
		return nil, apperrors.NewValidationError("file", "a picture file is required")
	}
	if ct := fh.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return nil, apperrors.NewValidationError("file", "profile picture must be an image")
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	key, err := upload(ctx, s.files, fh, "profile-pictures")
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdateProfilePicture(ctx, user.ID, key); err != nil {
		_ = s.files.DeleteFile(ctx, key)
		return nil, fmt.Errorf("error saving profile picture: %w", err)
	}

	if old := user.ProfilePicture; old != "" {
		if err := s.files.DeleteFile(ctx, old); err != nil {
			s.logger.Warn().Err(err).Str("key", old).Msg("Failed to delete previous profile picture")
		}
	}
	user.ProfilePicture = key
	return s.userResponse(ctx, user), nil
}

// ChangePassword replaces the caller's password and ends their other sessions.
func (s *AuthService) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error {
	actor, err := actorFrom(ctx)
	if err != nil {
		return err
	}
	if req.NewPassword != req.ConfirmPassword {
		return apperrors.ErrPasswordMismatch
	}
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(user.Password, req.OldPassword) {
		return apperrors.ErrOldPasswordIncorrect
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to revoke sessions after password change")
	}
	return nil
}

// RequestPasswordReset mails a reset token when the address is known. The
// outcome is never revealed to the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, address string) error {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(address))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			s.logger.Info().Str("schema", tenancy.Schema(ctx)).Msg("Password reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("error finding user: %w", err)
	}

	token := uuid.New().String()
	if err := s.resetRepo.CreateToken(ctx, user.ID, token, s.now().Add(PasswordResetTTL)); err != nil {
		return fmt.Errorf("error storing reset token: %w", err)
	}

	to := email.Recipient{Name: user.FullName(), Email: user.Email}
	if err := s.mailer.SendPasswordReset(ctx, to, token); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to send password reset email")
	}
	return nil
}

// ConfirmPasswordReset sets a new password with a valid, unused token.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req *dto.PasswordResetConfirmRequest) error {
	if err := validatePassword(req.NewPassword); err != nil {
		return err
	}

	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		t, err := s.resetRepo.GetToken(ctx, req.Token)
		if err != nil {
			return err
		}
		if t.IsUsed {
			return apperrors.ErrPasswordResetTokenUsed
		}
		if s.now().After(t.ExpiresAt) {
			return apperrors.ErrInvalidPasswordResetToken
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}
		if err := s.userRepo.UpdatePassword(ctx, t.UserID, hash); err != nil {
			return err
		}
		if err := s.resetRepo.MarkTokenAsUsed(ctx, req.Token); err != nil {
			return err
		}
		return s.tokenRepo.RevokeAllUserTokens(ctx, t.UserID)
	})
}

func (s *AuthService) userResponse(ctx context.Context, u *models.User) *dto.UserResponse {
	res := dto.NewUserResponse(u)
	res.ProfilePictureURL = presign(ctx, s.files, s.logger, u.ProfilePicture)
	return res
}
