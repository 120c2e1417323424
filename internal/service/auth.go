package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/sneaker_shop/internal/events"
	"github.com/Skotchmaster/sneaker_shop/internal/hash"
	"github.com/Skotchmaster/sneaker_shop/internal/logging"
	"github.com/Skotchmaster/sneaker_shop/internal/models"
	"github.com/Skotchmaster/sneaker_shop/internal/repo"
)

var (
	ErrValidation         = errors.New("validation")
	ErrConflict           = errors.New("conflict")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
)

type AuthService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		l.Warn("register_error", "status", 400, "reason", "missing fields")
		return nil, fmt.Errorf("name, email and password are required: %w", ErrValidation)
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			l.Warn("register_error", "status", 409, "reason", "email already registered")
			return nil, fmt.Errorf("email already registered: %w", ErrConflict)
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	l.Info("register_successful", "user_id", user.ID)
	publish(ctx, s.Events, events.TopicUsers, events.UserRegistered(user.ID, user.Email))
	return user, nil
}

// Login never tells the caller whether the email or the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		l.Warn("login_failed", "status", 401, "reason", "missing credentials")
		return nil, ErrInvalidCredentials
	}

	user, err := s.Repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
			return nil, ErrInvalidCredentials
		}
		l.Error("login_failed", "status", 500, "error", err)
		return nil, err
	}
	if !hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 401, "reason", "invalid email or password")
		return nil, ErrInvalidCredentials
	}

	l.Info("login_successful", "user_id", user.ID)
	publish(ctx, s.Events, events.TopicUsers, events.UserLoggedIn(user.ID))
	return user, nil
}

func (s *AuthService) Logout(ctx context.Context, userID uint) {
	logging.FromContext(ctx).Info("logout_successful", "svc", "auth.logout", "user_id", userID)
	publish(ctx, s.Events, events.TopicUsers, events.UserLoggedOut(userID))
}

// UserByID resolves a session's user id. Unknown ids yield ErrNotFound.
func (s *AuthService) UserByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

// publish never fails the caller; delivery problems are only logged.
func publish(ctx context.Context, p events.Publisher, topic string, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish",
			"status", "fail",
			"topic", topic,
			"type", ev.Type,
			"error", err,
		)
	}
}
