package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadplan/timetable-api/internal/dto"
	"github.com/acadplan/timetable-api/internal/models"
	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type stubUserRepo struct {
	users     map[string]*models.User
	lastLogin *time.Time
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*models.User)}
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if user, ok := r.users[username]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *stubUserRepo) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	for _, user := range r.users {
		if user.Username == username || user.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *models.User) error {
	user.ID = "user-1"
	r.users[user.Username] = user
	return nil
}

func (r *stubUserRepo) UpdateLastLogin(_ context.Context, _ string, ts time.Time) error {
	r.lastLogin = &ts
	return nil
}

func newTestAuthService(repo *stubUserRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		Secret:     "test-secret",
		Expiration: time.Hour,
		Issuer:     "timetable-api-test",
	})
}

func registerRequest() dto.RegisterRequest {
	return dto.RegisterRequest{
		Username: "planner1",
		Email:    "planner@example.com",
		Password: "s3cret-pass",
		FullName: "Pat Planner",
	}
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	token, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Equal(t, int64(3600), token.ExpiresIn)

	created := repo.users["planner1"]
	require.NotNil(t, created)
	assert.Equal(t, "planner", created.Role)
	assert.True(t, created.Active)
	assert.NotEqual(t, "s3cret-pass", created.PasswordHash)

	login, err := svc.Login(context.Background(), dto.LoginRequest{Username: "planner1", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.AccessToken)
	assert.NotNil(t, repo.lastLogin)
}

func TestAuthServiceRegisterRejectsDuplicate(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerRequest())
	requireErrCode(t, err, appErrors.ErrConflict.Code)
}

func TestAuthServiceRegisterValidatesPayload(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	req := registerRequest()
	req.Password = "short"

	_, err := svc.Register(context.Background(), req)
	requireErrCode(t, err, appErrors.ErrValidation.Code)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "planner1", Password: "wrong-pass"})
	requireErrCode(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(newStubUserRepo())

	_, err := svc.Login(context.Background(), dto.LoginRequest{Username: "ghost", Password: "whatever1"})
	requireErrCode(t, err, appErrors.ErrInvalidCredentials.Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	_, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)
	repo.users["planner1"].Active = false

	_, err = svc.Login(context.Background(), dto.LoginRequest{Username: "planner1", Password: "s3cret-pass"})
	requireErrCode(t, err, appErrors.ErrInactiveAccount.Code)
}

func TestAuthServiceValidateToken(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestAuthService(repo)

	token, err := svc.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "planner1", claims.Username)
	assert.Equal(t, "planner", claims.Role)
	assert.Equal(t, "timetable-api-test", claims.Issuer)
}

func TestAuthServiceValidateTokenWrongSecret(t *testing.T) {
	repo := newStubUserRepo()
	issuer := newTestAuthService(repo)
	verifier := NewAuthService(repo, nil, nil, AuthConfig{Secret: "other-secret", Expiration: time.Hour})

	token, err := issuer.Register(context.Background(), registerRequest())
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token.AccessToken)
	requireErrCode(t, err, appErrors.ErrUnauthorized.Code)
}
