package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	pkg_hash "github.com/Skotchmaster/art_shop/pkg/hash"
	"github.com/Skotchmaster/art_shop/pkg/logging"
	"github.com/Skotchmaster/art_shop/pkg/tokens"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/repo"
)

const minPasswordLen = 8

type AuthService struct {
	Repo      *repo.GormRepo
	Access    *AccessService
	JWTSecret []byte
	TokenTTL  time.Duration
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	User        models.User
	IsAdmin     bool
}

func NewAuthService(r *repo.GormRepo, access *AccessService, secret []byte, ttl time.Duration) *AuthService {
	return &AuthService{Repo: r, Access: access, JWTSecret: secret, TokenTTL: ttl}
}

func (s *AuthService) Register(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	_, err = s.Repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: user already exists", ErrConflict)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{Email: email, PasswordHash: pwHash}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	}

	exp := time.Now().Add(s.TokenTTL)
	token, err := tokens.SignAccessToken(user.ID, user.Email, s.JWTSecret, exp)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &LoginResult{
		AccessToken: token,
		AccessExp:   exp,
		User:        *user,
		IsAdmin:     s.Access.IsAdmin(ctx, user.ID),
	}, nil
}

// BootstrapAdmin creates the user if needed and grants admin membership.
// An existing user must present the matching password.
func (s *AuthService) BootstrapAdmin(ctx context.Context, email, password string) (*models.AdminUser, error) {
	norm, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err := s.Repo.GetUserByEmail(ctx, norm)
	switch {
	case err == nil:
		if !pkg_hash.CheckPassword(user.PasswordHash, password) {
			return nil, fmt.Errorf("%w: password does not match existing user", ErrUnauthenticated)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.Register(ctx, norm, password)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return s.Repo.EnsureAdmin(ctx, user.ID)
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return email, nil
}
