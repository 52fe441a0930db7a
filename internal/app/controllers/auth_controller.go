package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services"
	"github.com/yigit/schoolsphere/internal/middleware"
)

// AuthController handles authentication and the caller's own account
type AuthController struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{authService: authService, logger: logger}
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user of the school addressed by the host with a username or email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or validation error"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 403 {object} dto.ErrorResponse "Account disabled"
// @Failure 404 {object} dto.ErrorResponse "Unknown school domain"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(ctx, &req) {
		return
	}

	res, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("username", req.Username).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, res)
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Rotates a refresh token and issues a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed successfully"
// @Failure 401 {object} dto.ErrorResponse "Invalid, revoked or expired refresh token"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, &req) {
		return
	}

	res, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, res)
}

// Logout revokes a refresh token
// @Summary Logout
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse "Logged out"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.authService.Logout(ctx.Request.Context(), req.RefreshToken); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Logged out successfully")
}

// ForgotPassword starts a password reset
// @Summary Request a password reset
// @Description Always answers 200 so the endpoint cannot be used to probe for accounts
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetRequest true "Account email"
// @Success 200 {object} dto.APIResponse "Reset email sent when the account exists"
// @Router /auth/password-reset [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.PasswordResetRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.authService.RequestPasswordReset(ctx.Request.Context(), req.Email); err != nil {
		c.logger.Error().Err(err).Msg("Password reset request failed")
	}
	message(ctx, "If the email is registered, a reset link has been sent")
}

// ResetPassword completes a password reset
// @Summary Confirm a password reset
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.PasswordResetConfirmRequest true "Reset token and new password"
// @Success 200 {object} dto.APIResponse "Password updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid or used token, weak password"
// @Router /auth/password-reset/confirm [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.PasswordResetConfirmRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.authService.ConfirmPasswordReset(ctx.Request.Context(), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	message(ctx, "Password has been reset")
}

// Me returns the authenticated account
// @Summary Current user
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user, err := c.authService.Me(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, user)
}

// UpdateProfile edits the caller's own profile
// @Summary Update profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /auth/me [patch]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if !bindJSON(ctx, &req) {
		return
	}
	user, err := c.authService.UpdateProfile(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, user)
}

// UploadProfilePicture stores a new profile picture
// @Summary Upload profile picture
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Failure 400 {object} dto.ErrorResponse "Missing or non-image file"
// @Router /auth/me/picture [post]
func (c *AuthController) UploadProfilePicture(ctx *gin.Context) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		middleware.HandleBindError(ctx, err)
		return
	}
	user, err := c.authService.UploadProfilePicture(ctx.Request.Context(), fh)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ok(ctx, user)
}

// ChangePassword replaces the caller's password
// @Summary Change password
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Old and new password"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.ErrorResponse "Old password wrong or confirmation mismatch"
// @Router /auth/change-password [post]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(ctx, &req) {
		return
	}
	if err := c.authService.ChangePassword(ctx.Request.Context(), &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewAPIResponse(gin.H{"changed": true}))
}
