package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/findperson-backend/internal/models"
	"github.com/ignatzorin/findperson-backend/internal/pkg/apperror"
	"github.com/ignatzorin/findperson-backend/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
	sessions     map[string]*models.Session
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
		sessions:     make(map[string]*models.Session),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New()
	session.CreatedAt = time.Now()
	m.sessions[session.RefreshToken] = session
	return nil
}

func (m *mockAuthRepository) DeleteSession(ctx context.Context, refreshToken string) error {
	delete(m.sessions, refreshToken)
	return nil
}

func newTestAuthService() (*AuthService, *mockAuthRepository) {
	repo := newMockAuthRepository()
	tokenManager := NewTokenManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	return NewAuthService(repo, tokenManager), repo
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{
		Name:     "Мария",
		Email:    "maria@example.com",
		Password: "Password1",
	}, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка регистрации: %v", err)
	}
	if result.User.ID == uuid.Nil {
		t.Fatalf("пользователь должен получить идентификатор")
	}
	if result.TokenPair.AccessToken == "" || result.TokenPair.RefreshToken == "" {
		t.Fatalf("регистрация должна выдавать пару токенов")
	}
	if len(repo.sessions) != 1 {
		t.Fatalf("должна быть создана одна сессия, получено %d", len(repo.sessions))
	}

	login, err := svc.Login(ctx, LoginInput{Email: "maria@example.com", Password: "Password1"}, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка входа: %v", err)
	}
	if login.User.ID != result.User.ID {
		t.Fatalf("вход должен вернуть того же пользователя")
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	in := RegisterInput{Name: "Мария", Email: "maria@example.com", Password: "Password1"}
	if _, err := svc.Register(ctx, in, nil); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if _, err := svc.Register(ctx, in, nil); !errors.Is(err, apperror.ErrEmailTaken) {
		t.Fatalf("повторная регистрация должна отклоняться, получено %v", err)
	}
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	svc, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Мария",
		Email:    "maria@example.com",
		Password: "short",
	}, nil)
	if !apperror.IsValidation(err) {
		t.Fatalf("слабый пароль должен отклоняться, получено %v", err)
	}
}

func TestAuthService_Login_SameErrorForUnknownEmailAndBadPassword(t *testing.T) {
	svc, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Name: "Мария", Email: "maria@example.com", Password: "Password1"}, nil); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	_, errUnknown := svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Password1"}, nil)
	_, errBadPass := svc.Login(ctx, LoginInput{Email: "maria@example.com", Password: "Wrong1234"}, nil)

	if !errors.Is(errUnknown, apperror.ErrInvalidCredentials) || !errors.Is(errBadPass, apperror.ErrInvalidCredentials) {
		t.Fatalf("неизвестный email и неверный пароль должны давать одну ошибку: %v / %v", errUnknown, errBadPass)
	}
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	svc, repo := newTestAuthService()
	ctx := context.Background()

	result, err := svc.Register(ctx, RegisterInput{Name: "Мария", Email: "maria@example.com", Password: "Password1"}, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	oldToken := result.TokenPair.RefreshToken
	pair, err := svc.Refresh(ctx, oldToken, nil)
	if err != nil {
		t.Fatalf("неожиданная ошибка refresh: %v", err)
	}

	if _, ok := repo.sessions[oldToken]; ok {
		t.Fatalf("старая сессия должна удаляться при ротации")
	}
	if _, ok := repo.sessions[pair.RefreshToken]; !ok {
		t.Fatalf("новая сессия должна сохраняться")
	}
}

func TestAuthService_Refresh_RejectsGarbageToken(t *testing.T) {
	svc, _ := newTestAuthService()

	if _, err := svc.Refresh(context.Background(), "not-a-jwt", nil); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("мусорный токен должен отклоняться, получено %v", err)
	}
}
