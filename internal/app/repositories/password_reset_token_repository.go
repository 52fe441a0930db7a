package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
)

// PasswordResetTokenRepository manages password reset tokens in the database
type PasswordResetTokenRepository struct {
	baseRepository
}

// NewPasswordResetTokenRepository creates a new PasswordResetTokenRepository
func NewPasswordResetTokenRepository(db *sql.DB) *PasswordResetTokenRepository {
	return &PasswordResetTokenRepository{baseRepository{db: db}}
}

// CreateToken stores a new password reset token in the database
func (r *PasswordResetTokenRepository) CreateToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	query := psql.Insert(r.t(ctx, "password_reset_tokens")).
		Columns("user_id", "token", "expires_at").
		Values(userID, token, expiresAt)
	_, err := r.exec(ctx, query)
	return logFailure(err, "Error creating password reset token")
}

// GetToken retrieves a reset token by its value
func (r *PasswordResetTokenRepository) GetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	query := psql.Select("id", "user_id", "token", "expires_at", "is_used", "created_at").
		From(r.t(ctx, "password_reset_tokens")).
		Where(squirrel.Eq{"token": token})

	var t models.PasswordResetToken
	err := r.getOne(ctx, query, apperrors.ErrInvalidPasswordResetToken, &t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IsUsed, &t.CreatedAt)
	if err != nil {
		return nil, logFailure(err, "Error retrieving password reset token")
	}
	return &t, nil
}

// MarkTokenAsUsed marks a reset token as used once the password was changed
func (r *PasswordResetTokenRepository) MarkTokenAsUsed(ctx context.Context, token string) error {
	query := psql.Update(r.t(ctx, "password_reset_tokens")).
		Set("is_used", true).
		Where(squirrel.Eq{"token": token, "is_used": false})
	return logFailure(r.execOne(ctx, query, apperrors.ErrPasswordResetTokenUsed), "Error marking password reset token as used")
}

// DeleteExpiredTokens removes tokens that can no longer be redeemed
func (r *PasswordResetTokenRepository) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	query := psql.Delete(r.t(ctx, "password_reset_tokens")).
		Where(squirrel.Or{squirrel.Lt{"expires_at": time.Now()}, squirrel.Eq{"is_used": true}})
	n, err := r.exec(ctx, query)
	return n, logFailure(err, "Error deleting expired password reset tokens")
}
