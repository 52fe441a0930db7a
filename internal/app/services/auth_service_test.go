package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/app/models/dto"
	"github.com/yigit/schoolsphere/internal/app/services/mocks"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
	emailmocks "github.com/yigit/schoolsphere/internal/pkg/email/mocks"
	filemocks "github.com/yigit/schoolsphere/internal/pkg/filestorage/mocks"
)

type authFixture struct {
	users  *mocks.MockUserStore
	tokens *mocks.MockTokenStore
	resets *mocks.MockPasswordResetStore
	jwt    *mocks.MockTokenIssuer
	files  *filemocks.MockFileStorage
	mailer *emailmocks.MockEmailService
	svc    *AuthService
	now    time.Time
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:  new(mocks.MockUserStore),
		tokens: new(mocks.MockTokenStore),
		resets: new(mocks.MockPasswordResetStore),
		jwt:    new(mocks.MockTokenIssuer),
		files:  new(filemocks.MockFileStorage),
		mailer: new(emailmocks.MockEmailService),
		now:    time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.users, f.tokens, f.resets, f.jwt, f.files, f.mailer, &mocks.InlineTransactor{}, nop)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	h, err := auth.HashPassword(pw)
	require.NoError(t, err)
	return h
}

func (f *authFixture) expectIssue(userID int64, role models.RoleType, refresh string) {
	f.jwt.On("GenerateTokenPair", auth.Subject{UserID: userID, Username: "jdoe", Role: string(role), Schema: testSchema}).
		Return(&auth.TokenPair{AccessToken: "access", RefreshToken: refresh, ExpiresIn: 3600, RefreshExpiresIn: 86400}, nil)
	f.jwt.On("GetRefreshTokenExpiry").Return(f.now.Add(24 * time.Hour))
	f.tokens.On("CreateToken", mock.Anything, refresh, userID, f.now.Add(24*time.Hour)).Return(nil)
}

func TestLogin(t *testing.T) {
	f := newAuthFixture()
	user := &models.User{ID: 3, Username: "jdoe", Email: "j@x.test", Password: hashed(t, "secret123"), RoleType: models.RoleTeacher, IsActive: true}

	f.users.On("GetByLogin", mock.Anything, "jdoe").Return(user, nil)
	f.expectIssue(3, models.RoleTeacher, "refresh-1")
	f.users.On("UpdateLastLogin", mock.Anything, int64(3), f.now).Return(nil)

	res, err := f.svc.Login(asUser(models.RoleTeacher, 0), &dto.LoginRequest{Username: " jdoe ", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, "access", res.Token.AccessToken)
	assert.Equal(t, "refresh-1", res.Token.RefreshToken)
	assert.Equal(t, "Bearer", res.Token.TokenType)
	assert.Equal(t, int64(3), res.User.ID)
	assert.NotNil(t, user.LastLoginAt)
	f.tokens.AssertExpectations(t)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name string
		user *models.User
		err  error
		want error
	}{
		{"unknown user", nil, apperrors.ErrUserNotFound, apperrors.ErrInvalidCredentials},
		{"wrong password", &models.User{ID: 1, Password: "$2a$10$invalidinvalidinvalidinvalidinvalidinvalidinvalidinv", IsActive: true}, nil, apperrors.ErrInvalidCredentials},
		{"inactive", &models.User{ID: 1, IsActive: false}, nil, apperrors.ErrAccountDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			if tt.name == "inactive" {
				tt.user.Password = hashed(t, "secret123")
			}
			f.users.On("GetByLogin", mock.Anything, "jdoe").Return(tt.user, tt.err)

			_, err := f.svc.Login(context.Background(), &dto.LoginRequest{Username: "jdoe", Password: "secret123"})
			assert.ErrorIs(t, err, tt.want)
			f.jwt.AssertNotCalled(t, "GenerateTokenPair", mock.Anything)
		})
	}
}

func TestRefreshTokenRotates(t *testing.T) {
	f := newAuthFixture()
	f.tokens.On("GetToken", mock.Anything, "old").Return(&models.RefreshToken{UserID: 3, Token: "old", ExpiresAt: f.now.Add(time.Hour)}, nil)
	f.users.On("GetByID", mock.Anything, int64(3)).Return(&models.User{ID: 3, Username: "jdoe", RoleType: models.RoleStudent, IsActive: true}, nil)
	f.tokens.On("RevokeToken", mock.Anything, "old").Return(nil)
	f.expectIssue(3, models.RoleStudent, "new")

	res, err := f.svc.RefreshToken(asUser(models.RoleStudent, 3), "old")
	require.NoError(t, err)
	assert.Equal(t, "new", res.RefreshToken)
	f.tokens.AssertExpectations(t)
}

func TestRefreshTokenRejections(t *testing.T) {
	t.Run("revoked token ends all sessions", func(t *testing.T) {
		f := newAuthFixture()
		f.tokens.On("GetToken", mock.Anything, "old").Return(&models.RefreshToken{UserID: 3, IsRevoked: true, ExpiresAt: f.now.Add(time.Hour)}, nil)
		f.tokens.On("RevokeAllUserTokens", mock.Anything, int64(3)).Return(nil)

		_, err := f.svc.RefreshToken(context.Background(), "old")
		assert.ErrorIs(t, err, apperrors.ErrTokenRevoked)
		f.tokens.AssertCalled(t, "RevokeAllUserTokens", mock.Anything, int64(3))
	})

	t.Run("expired", func(t *testing.T) {
		f := newAuthFixture()
		f.tokens.On("GetToken", mock.Anything, "old").Return(&models.RefreshToken{UserID: 3, ExpiresAt: f.now.Add(-time.Minute)}, nil)

		_, err := f.svc.RefreshToken(context.Background(), "old")
		assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
	})

	t.Run("unknown", func(t *testing.T) {
		f := newAuthFixture()
		f.tokens.On("GetToken", mock.Anything, "nope").Return(nil, apperrors.ErrTokenNotFound)

		_, err := f.svc.RefreshToken(context.Background(), "nope")
		assert.ErrorIs(t, err, apperrors.ErrTokenNotFound)
	})

	t.Run("blank", func(t *testing.T) {
		_, err := newAuthFixture().svc.RefreshToken(context.Background(), " ")
		assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
	})
}

func TestLogoutIgnoresUnknownToken(t *testing.T) {
	f := newAuthFixture()
	f.tokens.On("RevokeToken", mock.Anything, "gone").Return(apperrors.ErrTokenNotFound)
	f.tokens.On("RevokeToken", mock.Anything, "broken").Return(errors.New("db down"))

	assert.NoError(t, f.svc.Logout(context.Background(), "gone"))
	assert.Error(t, f.svc.Logout(context.Background(), "broken"))
}

func TestChangePassword(t *testing.T) {
	current := "oldpass12"
	tests := []struct {
		name string
		req  dto.ChangePasswordRequest
		want error
	}{
		{"mismatch", dto.ChangePasswordRequest{OldPassword: current, NewPassword: "newpass12", ConfirmPassword: "other123"}, apperrors.ErrPasswordMismatch},
		{"weak", dto.ChangePasswordRequest{OldPassword: current, NewPassword: "lettersonly", ConfirmPassword: "lettersonly"}, apperrors.ErrInvalidPassword},
		{"wrong old", dto.ChangePasswordRequest{OldPassword: "nottheone1", NewPassword: "newpass12", ConfirmPassword: "newpass12"}, apperrors.ErrOldPasswordIncorrect},
		{"ok", dto.ChangePasswordRequest{OldPassword: current, NewPassword: "newpass12", ConfirmPassword: "newpass12"}, nil},
	}
	hash := hashed(t, current)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture()
			f.users.On("GetByID", mock.Anything, int64(3)).Return(&models.User{ID: 3, Password: hash}, nil)
			f.users.On("UpdatePassword", mock.Anything, int64(3), mock.AnythingOfType("string")).Return(nil)
			f.tokens.On("RevokeAllUserTokens", mock.Anything, int64(3)).Return(nil)

			err := f.svc.ChangePassword(asUser(models.RoleTeacher, 3), &tt.req)
			if tt.want == nil {
				require.NoError(t, err)
				f.users.AssertCalled(t, "UpdatePassword", mock.Anything, int64(3), mock.AnythingOfType("string"))
				f.tokens.AssertCalled(t, "RevokeAllUserTokens", mock.Anything, int64(3))
				return
			}
			assert.ErrorIs(t, err, tt.want)
			f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestRequestPasswordReset(t *testing.T) {
	f := newAuthFixture()
	f.users.On("GetByEmail", mock.Anything, "nobody@x.test").Return(nil, apperrors.ErrUserNotFound)
	f.users.On("GetByEmail", mock.Anything, "j@x.test").Return(&models.User{ID: 3, Email: "j@x.test", FirstName: "J"}, nil)
	f.resets.On("CreateToken", mock.Anything, int64(3), mock.AnythingOfType("string"), f.now.Add(PasswordResetTTL)).Return(nil)
	f.mailer.On("SendPasswordReset", mock.Anything, mock.Anything, mock.AnythingOfType("string")).Return(nil)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "nobody@x.test"))
	f.resets.AssertNotCalled(t, "CreateToken", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	require.NoError(t, f.svc.RequestPasswordReset(context.Background(), "j@x.test"))
	f.resets.AssertExpectations(t)
	f.mailer.AssertExpectations(t)
}

func TestConfirmPasswordReset(t *testing.T) {
	t.Run("used token", func(t *testing.T) {
		f := newAuthFixture()
		f.resets.On("GetToken", mock.Anything, "tok").Return(&models.PasswordResetToken{UserID: 3, IsUsed: true, ExpiresAt: f.now.Add(time.Hour)}, nil)

		err := f.svc.ConfirmPasswordReset(context.Background(), &dto.PasswordResetConfirmRequest{Token: "tok", NewPassword: "newpass12"})
		assert.ErrorIs(t, err, apperrors.ErrPasswordResetTokenUsed)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture()
		f.resets.On("GetToken", mock.Anything, "tok").Return(&models.PasswordResetToken{UserID: 3, ExpiresAt: f.now.Add(-time.Hour)}, nil)

		err := f.svc.ConfirmPasswordReset(context.Background(), &dto.PasswordResetConfirmRequest{Token: "tok", NewPassword: "newpass12"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidPasswordResetToken)
	})

	t.Run("valid token", func(t *testing.T) {
		f := newAuthFixture()
		f.resets.On("GetToken", mock.Anything, "tok").Return(&models.PasswordResetToken{UserID: 3, ExpiresAt: f.now.Add(time.Hour)}, nil)
		f.users.On("UpdatePassword", mock.Anything, int64(3), mock.AnythingOfType("string")).Return(nil)
		f.resets.On("MarkTokenAsUsed", mock.Anything, "tok").Return(nil)
		f.tokens.On("RevokeAllUserTokens", mock.Anything, int64(3)).Return(nil)

		err := f.svc.ConfirmPasswordReset(context.Background(), &dto.PasswordResetConfirmRequest{Token: "tok", NewPassword: "newpass12"})
		require.NoError(t, err)
		f.resets.AssertExpectations(t)
	})
}

func pictureHeader(t *testing.T, contentType string) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestUploadProfilePicture(t *testing.T) {
	f := newAuthFixture()
	fh := pictureHeader(t, "image/png")

	f.users.On("GetByID", mock.Anything, int64(3)).Return(&models.User{ID: 3, ProfilePicture: "school_green/profile-pictures/old.png"}, nil)
	f.files.On("SaveFileWithPath", mock.Anything, fh, "school_green/profile-pictures").Return("school_green/profile-pictures/new.png", nil)
	f.users.On("UpdateProfilePicture", mock.Anything, int64(3), "school_green/profile-pictures/new.png").Return(nil)
	f.files.On("DeleteFile", mock.Anything, "school_green/profile-pictures/old.png").Return(nil)
	f.files.On("URL", mock.Anything, "school_green/profile-pictures/new.png").Return("https://cdn.test/new.png", nil)

	res, err := f.svc.UploadProfilePicture(asUser(models.RoleStudent, 3), fh)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/new.png", res.ProfilePictureURL)
	f.files.AssertExpectations(t)

	_, err = f.svc.UploadProfilePicture(asUser(models.RoleStudent, 3), pictureHeader(t, "application/pdf"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}
