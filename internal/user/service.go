package user

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"maillot-be/internal/logger"

	"go.uber.org/zap"
)

type Service interface {
	Login(ctx context.Context, email, password string) (string, User, error)
	CreateAdmin(ctx context.Context, email, password string) (User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, email, password string) (string, User, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "Login"),
	)

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		log.Info("login failed: email not found")
		return "", User{}, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("failed to look up user", zap.Error(err))
		return "", User{}, err
	}

	if !CheckPasswordHash(password, u.Password) {
		log.Info("login failed: password mismatch", zap.Int("user_id", u.ID))
		return "", User{}, ErrInvalidCredentials
	}

	token, err := GenerateJWT(u.ID, string(u.Role), u.Email)
	if err != nil {
		log.Error("failed to generate jwt", zap.Int("user_id", u.ID), zap.Error(err))
		return "", User{}, err
	}

	return token, u, nil
}

func (s *service) CreateAdmin(ctx context.Context, email, password string) (User, error) {
	log := logger.FromCtx(ctx)

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, errors.New("email and password are required")
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return User{}, err
	}

	u, err := s.repo.Create(ctx, email, hashed, RoleAdmin)
	if err != nil {
		return User{}, err
	}

	log.Info("admin account created", zap.Int("user_id", u.ID), zap.String("email", email))
	return u, nil
}
