package auth_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/psicofattura/internal/application/auth"
	"github.com/jhoicas/psicofattura/internal/application/dto"
	"github.com/jhoicas/psicofattura/internal/domain"
	"github.com/jhoicas/psicofattura/internal/domain/entity"
	"github.com/jhoicas/psicofattura/pkg/jwt"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*entity.User
	email map[string]string
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*entity.User{}, email: map[string]string{}}
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.email[u.Email]; ok {
		return domain.ErrEmailAlreadyExists
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.email[u.Email] = u.ID
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id], nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.email[email]
	if !ok {
		return nil, nil
	}
	return m.byID[id], nil
}

const secret = "segreto-di-test"

func newUseCase(repo *memUsers) *auth.AuthUseCase {
	return auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "test"})
}

// ─────────────────────────────────────────────────────────────────────────────
// Registrazione
// ─────────────────────────────────────────────────────────────────────────────

func TestRegisterUser_RuoloPredefinito(t *testing.T) {
	repo := newMemUsers()
	uc := newUseCase(repo)

	out, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "Studio@Example.com", Password: "password123"})
	require.NoError(t, err)

	assert.Equal(t, "studio@example.com", out.Email)
	assert.Equal(t, entity.RoleSegreteria, out.Role)
	assert.Equal(t, entity.UserStatusActive, out.Status)
	assert.Equal(t, "studio@example.com", out.Name)

	stored, _ := repo.GetByEmail(context.Background(), "studio@example.com")
	require.NotNil(t, stored)
	assert.NotEqual(t, "password123", stored.PasswordHash)
}

func TestRegisterUser_EmailDuplicata(t *testing.T) {
	uc := newUseCase(newMemUsers())
	in := dto.RegisterRequest{Email: "a@b.it", Password: "password123", Role: entity.RoleAdmin}

	_, err := uc.RegisterUser(context.Background(), in)
	require.NoError(t, err)
	_, err = uc.RegisterUser(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestRegisterUser_InputNonValido(t *testing.T) {
	uc := newUseCase(newMemUsers())
	cases := []dto.RegisterRequest{
		{Email: "", Password: "password123"},
		{Email: "a@b.it", Password: "corta"},
		{Email: "a@b.it", Password: "password123", Role: "bodeguero"},
	}
	for _, in := range cases {
		_, err := uc.RegisterUser(context.Background(), in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "%+v", in)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Login
// ─────────────────────────────────────────────────────────────────────────────

func TestLogin_TokenConRuolo(t *testing.T) {
	uc := newUseCase(newMemUsers())
	reg, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "admin@studio.it", Password: "password123", Role: entity.RoleAdmin})
	require.NoError(t, err)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "ADMIN@studio.it", Password: "password123"})
	require.NoError(t, err)

	userID, role, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.ID, userID)
	assert.Equal(t, entity.RoleAdmin, role)
}

func TestLogin_PasswordErrata(t *testing.T) {
	uc := newUseCase(newMemUsers())
	_, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "x@y.it", Password: "password123"})
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "x@y.it", Password: "sbagliata"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UtenteInesistente(t *testing.T) {
	uc := newUseCase(newMemUsers())
	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "nessuno@y.it", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestLogin_UtenteInattivo(t *testing.T) {
	repo := newMemUsers()
	uc := newUseCase(repo)
	reg, err := uc.RegisterUser(context.Background(), dto.RegisterRequest{Email: "off@y.it", Password: "password123"})
	require.NoError(t, err)
	repo.byID[reg.ID].Status = entity.UserStatusInactive

	_, err = uc.Login(context.Background(), dto.LoginRequest{Email: "off@y.it", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
