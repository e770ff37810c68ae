package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/opsdesk/internal/core/domain"
	"github.com/opsdesk/opsdesk/internal/core/ports"
)

const minPasswordLength = 8

// AccountService implements the auth service's account operations: credential
// verification, token issuance, onboarding, and the first-login password
// change. Backs the development auth stub.
type AccountService struct {
	repo      ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAccountService(repo ports.UserRepository, jwtSecret string, tokenTTL time.Duration) *AccountService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AccountService{repo: repo, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Authenticate verifies credentials and issues a signed bearer token. Unknown
// accounts and wrong passwords both yield ErrInvalidCredentials so callers
// cannot probe which emails exist.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", domain.ErrInvalidCredentials
	}

	return s.generateToken(user)
}

// Identity returns the client-facing identity snapshot for the account.
func (s *AccountService) Identity(ctx context.Context, userID string) (*domain.Identity, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Identity(), nil
}

// ChangePassword replaces the account password after re-verifying the current
// one, and clears the first-login flag. This is the only path that flips
// FirstLogin from true to false.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return domain.ErrResetRejected
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return domain.ErrResetRejected
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, user.ID, string(hash), false)
}

// CreateUser onboards an account with a temporary password and FirstLogin
// set, forcing a password change on first use.
func (s *AccountService) CreateUser(ctx context.Context, input ports.CreateUserInput) (*domain.User, error) {
	if input.Email == "" || input.TempPassword == "" || !input.Role.Valid() {
		return nil, domain.ErrInvalidUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.TempPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		DisplayName:  input.DisplayName,
		Email:        input.Email,
		PasswordHash: string(hash),
		Role:         input.Role,
		FirstLogin:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if input.LinkRecord {
		user.LinkedRecordID = uuid.NewString()
	}

	return s.repo.Create(ctx, user)
}

func (s *AccountService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"role":  string(user.Role),
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
