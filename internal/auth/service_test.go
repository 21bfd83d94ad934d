package auth_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/auth"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/constants"
	"eventhub/internal/users"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"
)

// fakeRepo is an in-memory auth.Repository.
type fakeRepo struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*users.User
	byEmail map[string]*users.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:    make(map[uuid.UUID]*users.User),
		byEmail: make(map[string]*users.User),
	}
}

func (r *fakeRepo) CreateUser(_ context.Context, user *users.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	copied := *user
	r.byID[user.ID] = &copied
	r.byEmail[user.Email] = &copied
	return nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeRepo) GetUserByID(_ context.Context, id uuid.UUID) (*users.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, users.ErrUserNotFound
}

func (r *fakeRepo) EmailExists(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byEmail[email]
	return ok, nil
}

func (r *fakeRepo) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return users.ErrUserNotFound
	}
	u.Password = hash
	return nil
}

func (r *fakeRepo) MarkVerified(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return users.ErrUserNotFound
	}
	u.Verified = true
	return nil
}

// memCache is a map-backed cache.Service with JSON round-tripping.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) DeletePattern(context.Context, string) error { return nil }
func (c *memCache) Exists(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
func (c *memCache) Ping(context.Context) error { return nil }

type fakeMailer struct {
	mu    sync.Mutex
	sent  []string
	codes []string
}

func (m *fakeMailer) SendOTP(_ context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, email)
	m.codes = append(m.codes, code)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			JWTExpiresIn:     15 * time.Minute,
			RefreshExpiresIn: 24 * time.Hour,
		},
		Redis: config.RedisConfig{
			OTPCodeTTL: 10 * time.Minute,
		},
	}
}

func newService(t *testing.T) (auth.Service, *fakeRepo, *memCache, *fakeMailer) {
	t.Helper()
	repo := newFakeRepo()
	cacheSvc := newMemCache()
	mailer := &fakeMailer{}
	svc := auth.NewService(repo, cacheSvc, testConfig(), mailer, logger.GetDefault())
	return svc, repo, cacheSvc, mailer
}

func register(t *testing.T, svc auth.Service) *auth.AuthResponse {
	t.Helper()
	resp, err := svc.Register(context.Background(), auth.RegisterRequest{
		FirstName: "Maya",
		LastName:  "Stone",
		Email:     "maya@example.com",
		Password:  "correct-horse-battery",
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	svc, repo, _, _ := newService(t)

	resp := register(t, svc)
	assert.Equal(t, "maya@example.com", resp.User.Email)
	assert.Equal(t, string(users.RoleUser), string(resp.User.Role))
	assert.NotEmpty(t, resp.Tokens.AccessToken)
	assert.NotEmpty(t, resp.Tokens.RefreshToken)
	assert.Equal(t, int64(900), resp.Tokens.ExpiresIn)

	// Stored password is hashed, never the plaintext
	stored, err := repo.GetUserByEmail(context.Background(), "maya@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", stored.Password)
	assert.NotEmpty(t, stored.Password)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _, _ := newService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), auth.RegisterRequest{
		FirstName: "Other",
		LastName:  "Person",
		Email:     "MAYA@example.com", // case-insensitive match
		Password:  "another-password",
	})
	assert.ErrorIs(t, err, auth.ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _, _, _ := newService(t)
	register(t, svc)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    "maya@example.com",
		Password: "correct-horse-battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Tokens.AccessToken)

	_, err = svc.Login(context.Background(), auth.LoginRequest{
		Email:    "maya@example.com",
		Password: "wrong-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), auth.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse-battery",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestAccessTokenClaims(t *testing.T) {
	svc, _, _, _ := newService(t)
	resp := register(t, svc)

	token, err := jwt.Parse(resp.Tokens.AccessToken, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "access", claims["type"])
	assert.Equal(t, "maya@example.com", claims["email"])
	assert.Equal(t, string(users.RoleUser), claims["role"])
	assert.Equal(t, resp.User.ID, claims["user_id"])
}

func TestRefreshToken(t *testing.T) {
	svc, _, _, _ := newService(t)
	resp := register(t, svc)

	pair, err := svc.RefreshToken(context.Background(), resp.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// An access token is not accepted as a refresh token
	_, err = svc.RefreshToken(context.Background(), resp.Tokens.AccessToken)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newService(t)
	resp := register(t, svc)
	userID := uuid.MustParse(resp.User.ID)
	ctx := context.Background()

	err := svc.ChangePassword(ctx, userID, auth.ChangePasswordRequest{
		CurrentPassword: "wrong-password",
		NewPassword:     "a-brand-new-password",
	})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, userID, auth.ChangePasswordRequest{
		CurrentPassword: "correct-horse-battery",
		NewPassword:     "a-brand-new-password",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, auth.LoginRequest{Email: "maya@example.com", Password: "a-brand-new-password"})
	assert.NoError(t, err)
	_, err = svc.Login(ctx, auth.LoginRequest{Email: "maya@example.com", Password: "correct-horse-battery"})
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestOTPFlow(t *testing.T) {
	svc, repo, cacheSvc, mailer := newService(t)
	resp := register(t, svc)
	ctx := context.Background()

	require.NoError(t, svc.RequestOTP(ctx, "maya@example.com"))
	require.Len(t, mailer.sent, 1)
	code := mailer.codes[0]
	assert.Len(t, code, 6)

	// Wrong code is rejected and the stored one survives
	err := svc.VerifyOTP(ctx, auth.VerifyOTPRequest{Email: "maya@example.com", Code: "000000"})
	if code != "000000" {
		assert.ErrorIs(t, err, auth.ErrInvalidOTP)
	}

	require.NoError(t, svc.VerifyOTP(ctx, auth.VerifyOTPRequest{Email: "maya@example.com", Code: code}))

	user, err := repo.GetUserByID(ctx, uuid.MustParse(resp.User.ID))
	require.NoError(t, err)
	assert.True(t, user.Verified)

	// Code is single-use
	assert.False(t, cacheSvc.Exists(ctx, constants.BuildOTPKey("maya@example.com")))
	err = svc.VerifyOTP(ctx, auth.VerifyOTPRequest{Email: "maya@example.com", Code: code})
	assert.ErrorIs(t, err, auth.ErrInvalidOTP)
}

func TestRequestOTPUnknownEmailIsSilent(t *testing.T) {
	svc, _, _, mailer := newService(t)

	require.NoError(t, svc.RequestOTP(context.Background(), "ghost@example.com"))
	assert.Empty(t, mailer.sent)
}
