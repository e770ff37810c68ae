package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsdesk/opsdesk/internal/core/domain"
	"github.com/opsdesk/opsdesk/internal/core/ports"
)

type stubUserRepo struct {
	users  map[string]*domain.User
	nextID int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	copy := cloneUser(user)
	if copy.ID == "" {
		r.nextID++
		copy.ID = user.Email
	}
	r.users[copy.ID] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, id, passwordHash string, firstLogin bool) error {
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.FirstLogin = firstLogin
	u.UpdatedAt = time.Now().UTC()
	return nil
}

func seedUser(t *testing.T, svc *AccountService, email, tempPassword string, role domain.Role) *domain.User {
	t.Helper()
	user, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		DisplayName:  "Test User",
		Email:        email,
		TempPassword: tempPassword,
		Role:         role,
		LinkRecord:   role == domain.RoleContractor,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestAccountService_CreateUser(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)

	user := seedUser(t, svc, "carla@example.com", "TempPass123!", domain.RoleContractor)

	if user.PasswordHash == "TempPass123!" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("TempPass123!")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if !user.FirstLogin {
		t.Fatalf("onboarded account must start in first-login state")
	}
	if user.LinkedRecordID == "" {
		t.Fatalf("contractor account should get a linked record id")
	}
}

func TestAccountService_CreateUser_DuplicateEmail(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)
	seedUser(t, svc, "erin@example.com", "TempPass123!", domain.RoleAdmin)

	_, err := svc.CreateUser(context.Background(), ports.CreateUserInput{
		DisplayName:  "Erin Again",
		Email:        "erin@example.com",
		TempPassword: "OtherPass789!",
		Role:         domain.RoleAdmin,
	})
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
}

func TestAccountService_CreateUser_Validation(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)

	if _, err := svc.CreateUser(context.Background(), ports.CreateUserInput{Email: "", TempPassword: "x", Role: domain.RoleAdmin}); err != domain.ErrInvalidUser {
		t.Fatalf("expected ErrInvalidUser, got %v", err)
	}
	if _, err := svc.CreateUser(context.Background(), ports.CreateUserInput{Email: "a@example.com", TempPassword: "x", Role: "manager"}); err != domain.ErrInvalidUser {
		t.Fatalf("expected ErrInvalidUser for bad role, got %v", err)
	}
}

func TestAccountService_Authenticate_Success(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)
	user := seedUser(t, svc, "alice@example.com", "TempPass123!", domain.RoleAdmin)

	token, err := svc.Authenticate(context.Background(), "alice@example.com", "TempPass123!")
	if err != nil {
		t.Fatalf("authenticate failed: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token, got empty")
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != user.ID {
		t.Fatalf("expected sub %s, got %v", user.ID, claims["sub"])
	}
	if claims["role"] != string(domain.RoleAdmin) {
		t.Fatalf("unexpected role claim: %v", claims["role"])
	}
}

func TestAccountService_Authenticate_WrongPassword(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)
	seedUser(t, svc, "dave@example.com", "goodpass1", domain.RoleClient)

	if _, err := svc.Authenticate(context.Background(), "dave@example.com", "badpass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAccountService_Authenticate_UnknownAccount(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)

	if _, err := svc.Authenticate(context.Background(), "ghost@example.com", "pass"); err != domain.ErrInvalidCredentials {
		t.Fatalf("unknown accounts must not be distinguishable, got %v", err)
	}
}

func TestAccountService_ChangePassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAccountService(repo, "secret", time.Hour)
	user := seedUser(t, svc, "bea@example.com", "TempPass123!", domain.RoleConsultant)

	if err := svc.ChangePassword(context.Background(), user.ID, "TempPass123!", "NewSecret456!"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}

	updated, _ := repo.FindByID(context.Background(), user.ID)
	if updated.FirstLogin {
		t.Fatalf("first-login flag must clear on password change")
	}
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("NewSecret456!")) != nil {
		t.Fatalf("new password not stored")
	}

	if _, err := svc.Authenticate(context.Background(), "bea@example.com", "TempPass123!"); err != domain.ErrInvalidCredentials {
		t.Fatalf("old password must stop working, got %v", err)
	}
}

func TestAccountService_ChangePassword_WrongCurrent(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAccountService(repo, "secret", time.Hour)
	user := seedUser(t, svc, "carl@example.com", "TempPass123!", domain.RoleClient)

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "NewSecret456!"); err != domain.ErrResetRejected {
		t.Fatalf("expected ErrResetRejected, got %v", err)
	}

	kept, _ := repo.FindByID(context.Background(), user.ID)
	if !kept.FirstLogin {
		t.Fatalf("rejected change must not clear first-login")
	}
}

func TestAccountService_ChangePassword_TooShort(t *testing.T) {
	svc := NewAccountService(newStubUserRepo(), "secret", time.Hour)
	user := seedUser(t, svc, "dora@example.com", "TempPass123!", domain.RoleClient)

	if err := svc.ChangePassword(context.Background(), user.ID, "TempPass123!", "short"); err != domain.ErrResetRejected {
		t.Fatalf("expected ErrResetRejected for weak password, got %v", err)
	}
}
