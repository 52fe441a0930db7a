package api

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yigit/schoolsphere/internal/lite/store"
	"github.com/yigit/schoolsphere/internal/pkg/auth"
)

const principalKey = "principal"

// Principal is the authenticated caller.
type Principal struct {
	Subject string
	UserID  int64
	Role    store.Role
}

type tokenClaims struct {
	UserID int64      `json:"uid"`
	Role   store.Role `json:"role"`
	jwt.RegisteredClaims
}

type tokenRequest struct {
	Username string `json:"username" form:"username" validate:"required"`
	Password string `json:"password" form:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Username  string     `json:"username" form:"username" validate:"required,min=3,max=100"`
	Password  string     `json:"password" form:"password" validate:"required,strongpass"`
	Email     string     `json:"email" form:"email" validate:"required,email"`
	FirstName string     `json:"first_name" form:"first_name" validate:"required,max=100"`
	LastName  string     `json:"last_name" form:"last_name" validate:"required,max=100"`
	Role      store.Role `json:"role" form:"role" validate:"required,lite_role"`
}

func (s *Server) issueToken(u *store.User) (string, error) {
	now := s.now()
	claims := tokenClaims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.SecretKey))
	return signed, errors.Wrap(err, "signing token")
}

func (s *Server) parseToken(raw string) (*Principal, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || claims.Subject == "" {
		return nil, errUnauthorized
	}
	return &Principal{Subject: claims.Subject, UserID: claims.UserID, Role: claims.Role}, nil
}

// requireAuth accepts "Authorization: Bearer <jwt>".
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || raw == "" {
			return errUnauthorized
		}
		p, err := s.parseToken(strings.TrimSpace(raw))
		if err != nil {
			return err
		}
		c.Set(principalKey, p)
		return next(c)
	}
}

// requireRole must run after requireAuth.
func requireRole(roles ...store.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := c.Get(principalKey).(*Principal)
			if !ok {
				return errUnauthorized
			}
			for _, r := range roles {
				if p.Role == r {
					return next(c)
				}
			}
			return errForbidden
		}
	}
}

func (s *Server) token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	u, err := s.store.Users.GetByUsername(ctx, req.Username)
	if errors.Cause(err) == store.ErrNotFound {
		return errBadCredentials
	}
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.HashedPassword, req.Password) {
		return errBadCredentials
	}
	if !u.IsActive {
		return echo.NewHTTPError(http.StatusBadRequest, "Inactive user")
	}

	signed, err := s.issueToken(u)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokenResponse{AccessToken: signed, TokenType: "bearer"})
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	nameTaken, emailTaken, err := s.store.Users.Taken(ctx, req.Username, req.Email)
	if err != nil {
		return err
	}
	switch {
	case nameTaken:
		return echo.NewHTTPError(http.StatusBadRequest, "Username already registered")
	case emailTaken:
		return echo.NewHTTPError(http.StatusBadRequest, "Email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return errors.Wrap(err, "hashing password")
	}
	u := &store.User{
		Email:          req.Email,
		Username:       req.Username,
		HashedPassword: hash,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Role:           req.Role,
		IsActive:       true,
	}
	if err := s.store.Users.Create(ctx, u); err != nil {
		return err
	}
	s.logger.Info().Int64("userId", u.ID).Str("role", string(u.Role)).Msg("User registered")
	return c.JSON(http.StatusCreated, echo.Map{"message": "User registered successfully"})
}

func (s *Server) me(c echo.Context) error {
	p := c.Get(principalKey).(*Principal)
	u, err := s.store.Users.GetByUsername(c.Request().Context(), p.Subject)
	if errors.Cause(err) == store.ErrNotFound {
		return errUnauthorized
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}
