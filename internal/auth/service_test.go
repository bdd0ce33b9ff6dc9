package auth

import (
	"context"
	"testing"
	"time"

	"filevault/internal/config"

	"github.com/google/uuid"
)

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{
		TokenSecret: "access-secret",
		TokenTTL:    time.Minute,
		BcryptCost:  4,
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if result.User.PasswordHash != "" {
		t.Fatalf("expected password hash to be stripped from response")
	}
	if result.Token.AccessToken == "" {
		t.Fatalf("expected access token to be issued")
	}
	if len(store.users) != 1 {
		t.Fatalf("expected user stored; got %d", len(store.users))
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	input := RegisterInput{Email: "user@example.com", Password: "StrongPass1!"}
	if _, err := service.Register(context.Background(), input); err != nil {
		t.Fatalf("first register returned error: %v", err)
	}
	if _, err := service.Register(context.Background(), input); err != ErrEmailAlreadyExists {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	if _, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	}); err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	if _, err := service.Login(context.Background(), LoginInput{
		Email:    "user@example.com",
		Password: "WrongPass1!",
	}); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateAccessTokenRoundTrip(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	claims, err := service.ValidateAccessToken(result.Token.AccessToken)
	if err != nil {
		t.Fatalf("validate token returned error: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("expected user ID %s, got %s", result.User.ID, claims.UserID)
	}
	if claims.Email != "user@example.com" {
		t.Fatalf("unexpected email claim: %s", claims.Email)
	}
}

func TestValidateAccessTokenExpired(t *testing.T) {
	store := newMemoryStore()
	service := NewService(store, testAuthConfig())

	result, err := service.Register(context.Background(), RegisterInput{
		Email:    "user@example.com",
		Password: "StrongPass1!",
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}

	service.nowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }

	if _, err := service.ValidateAccessToken(result.Token.AccessToken); err != ErrUnauthorized {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

// --- fakes ---

type memoryStore struct {
	users map[string]User
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]User)}
}

func (m *memoryStore) CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (User, error) {
	if _, exists := m.users[email]; exists {
		return User{}, ErrEmailAlreadyExists
	}
	user := User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	m.users[email] = user
	return user, nil
}

func (m *memoryStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	user, ok := m.users[email]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}
