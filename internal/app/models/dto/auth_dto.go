package dto

import "github.com/yigit/schoolsphere/internal/app/models"

// LoginRequest accepts a username or an email in Username
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"admin_green_valley"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *UserResponse `json:"user"`
}

// ChangePasswordRequest requires the current password and a confirmed new one
type ChangePasswordRequest struct {
	OldPassword     string `json:"oldPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8"`
}

// UpdateProfileRequest represents self-service profile edits
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1,max=100"`
	Phone     *string `json:"phone" binding:"omitempty,max=20"`
	Address   *string `json:"address" binding:"omitempty,max=500"`
}

// UserResponse represents basic user information
type UserResponse struct {
	ID                int64           `json:"id"`
	Username          string          `json:"username"`
	Email             string          `json:"email"`
	FirstName         string          `json:"firstName"`
	LastName          string          `json:"lastName"`
	Role              models.RoleType `json:"role"`
	Phone             string          `json:"phone,omitempty"`
	Address           string          `json:"address,omitempty"`
	ProfilePictureURL string          `json:"profilePictureUrl,omitempty"`
	IsActive          bool            `json:"isActive"`
}

// NewUserResponse copies the public fields of u.
func NewUserResponse(u *models.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.RoleType,
		Phone:     u.Phone,
		Address:   u.Address,
		IsActive:  u.IsActive,
	}
}
