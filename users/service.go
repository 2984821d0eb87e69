// Package users implements registration and the "my profile" endpoints.
// Passwords are hashed with bcrypt before they reach the store and are never returned.
package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/accounts-go/apperror"
	"github.com/user/accounts-go/validation"
)

const msgInvalidCredentials = "Unable to authenticate with provided credentials."

// Service holds the user business rules.
type Service struct {
	store    Store
	hashCost int
}

// Option configures a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// NewService creates a Service backed by store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store, hashCost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateUser validates req, hashes the password and persists a new active user.
// A duplicate email is reported as a validation error on the email field.
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	email := NormalizeEmail(req.Email)
	taken, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to check email", err)
	}
	if taken {
		return nil, emailTakenError(nil)
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		// Lost a race with a concurrent signup.
		if errors.Is(err, ErrEmailTaken) {
			return nil, emailTakenError(err)
		}
		return nil, apperror.NewDatabaseError("failed to create user", err)
	}
	return user, nil
}

// GetProfile returns the active user with the given id.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*User, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The token outlived its user.
			return nil, apperror.NewAuthError("User not found.", err)
		}
		return nil, apperror.NewDatabaseError("failed to get user", err)
	}
	if !user.IsActive {
		return nil, apperror.NewAuthError("User inactive or deleted.", nil)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req to the user.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateUserRequest) (*User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Password != nil {
		hash, err := s.hashPassword(*req.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	if req.Name == nil && req.Password == nil {
		return user, nil
	}

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperror.NewAuthError("User not found.", err)
		}
		return nil, apperror.NewDatabaseError("failed to update user", err)
	}
	return user, nil
}

// ReplaceProfile is the full-update variant used by PUT: every field must be present.
func (s *Service) ReplaceProfile(ctx context.Context, userID int64, req ReplaceUserRequest) (*User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}
	return s.UpdateProfile(ctx, userID, UpdateUserRequest{Name: &req.Name, Password: &req.Password})
}

// Authenticate implements auth.Authenticator. Unknown emails, inactive users and wrong
// passwords all produce the same client error.
func (s *Service) Authenticate(ctx context.Context, email, password string) (int64, error) {
	user, err := s.store.GetUserByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return 0, apperror.NewValidationError(msgInvalidCredentials, nil)
		}
		return 0, apperror.NewDatabaseError("failed to get user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return 0, apperror.NewValidationError(msgInvalidCredentials, nil)
	}
	if !user.IsActive {
		return 0, apperror.NewValidationError(msgInvalidCredentials, nil)
	}
	return user.ID, nil
}

func emailTakenError(cause error) *apperror.AppError {
	return apperror.NewValidationError("invalid input", cause).
		WithField("email", "user with this email already exists.")
}

// CheckPassword reports whether password matches the user's stored hash.
func CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

func (s *Service) hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return "", apperror.NewInternalError("failed to hash password", err)
	}
	return string(hash), nil
}
