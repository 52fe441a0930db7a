package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/yigit/schoolsphere/internal/app/models"
	"github.com/yigit/schoolsphere/internal/pkg/apperrors"
	"github.com/yigit/schoolsphere/internal/pkg/dberrors"
	"github.com/yigit/schoolsphere/internal/pkg/logger"
)

// TokenRepository handles refresh token database operations
type TokenRepository struct {
	baseRepository
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{baseRepository{db: db}}
}

// CreateToken stores a new refresh token for userID
func (r *TokenRepository) CreateToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	query := psql.Insert(r.t(ctx, "refresh_tokens")).
		Columns("token", "user_id", "expires_at", "is_revoked", "created_at").
		Values(token, userID, expiresAt, false, time.Now())

	if _, err := r.exec(ctx, query); err != nil {
		if dberrors.IsDuplicateConstraintError(err, "refresh_tokens_token_key") {
			logger.Warn().Int64("userID", userID).Msg("Attempted to create duplicate token")
			return apperrors.ErrTokenInvalid
		}
		logger.Error().Err(err).Int64("userID", userID).Msg("Error executing create token query")
		return err
	}
	return nil
}

// GetToken returns the stored refresh token, locking it inside a transaction
// so concurrent refreshes cannot rotate the same token twice.
func (r *TokenRepository) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := psql.Select("id", "user_id", "token", "expires_at", "is_revoked", "created_at").
		From(r.t(ctx, "refresh_tokens")).
		Where(squirrel.Eq{"token": token}).
		Limit(1)
	if inTx(ctx) {
		query = query.Suffix("FOR UPDATE")
	}

	var t models.RefreshToken
	err := r.getOne(ctx, query, apperrors.ErrTokenNotFound, &t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt)
	if err != nil {
		return nil, logFailure(err, "Error scanning token row")
	}
	return &t, nil
}

// RevokeToken marks a token as revoked
func (r *TokenRepository) RevokeToken(ctx context.Context, token string) error {
	query := psql.Update(r.t(ctx, "refresh_tokens")).
		Set("is_revoked", true).
		Where(squirrel.Eq{"token": token})
	return logFailure(r.execOne(ctx, query, apperrors.ErrTokenNotFound), "Error revoking token")
}

// RevokeAllUserTokens revokes every active token of a user
func (r *TokenRepository) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	query := psql.Update(r.t(ctx, "refresh_tokens")).
		Set("is_revoked", true).
		Where(squirrel.Eq{"user_id": userID, "is_revoked": false})
	_, err := r.exec(ctx, query)
	return logFailure(err, "Error revoking user tokens")
}

// CleanupExpiredTokens deletes tokens that expired or were revoked
func (r *TokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	query := psql.Delete(r.t(ctx, "refresh_tokens")).
		Where(squirrel.Or{squirrel.Lt{"expires_at": time.Now()}, squirrel.Eq{"is_revoked": true}})
	n, err := r.exec(ctx, query)
	return n, logFailure(err, "Error cleaning up tokens")
}
