package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"eventhub/internal/shared/config"
	"eventhub/internal/shared/constants"
	"eventhub/internal/users"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"
)

var (
	ErrEmailAlreadyExists = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidOTP         = errors.New("invalid or expired verification code")
)

// Mailer delivers verification codes. The notifications package provides
// the SMTP implementation; tests use a capture fake.
type Mailer interface {
	SendOTP(ctx context.Context, email, code string) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) error
}

type service struct {
	repo   Repository
	cache  cache.Service
	cfg    *config.Config
	mailer Mailer
	log    *logger.Logger
}

func NewService(repo Repository, cacheSvc cache.Service, cfg *config.Config, mailer Mailer, log *logger.Logger) Service {
	return &service{
		repo:   repo,
		cache:  cacheSvc,
		cfg:    cfg,
		mailer: mailer,
		log:    log,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &users.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     email,
		Password:  string(hash),
		Role:      users.RoleUser,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.log.LogAuthSuccess(ctx, user.ID.String(), "register")
	return &AuthResponse{User: user.ToResponse(), Tokens: *tokens}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokens, err := s.generateTokenPair(user)
	if err != nil {
		return nil, err
	}

	s.log.LogAuthSuccess(ctx, user.ID.String(), "login")
	return &AuthResponse{User: user.ToResponse(), Tokens: *tokens}, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parseToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(fmt.Sprint(claims["user_id"]))
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Reload the user so a role change or deletion invalidates old pairs.
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return s.generateTokenPair(user)
}

func (s *service) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, userID, string(hash))
}

func (s *service) RequestOTP(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		// Do not reveal whether the address is registered.
		if errors.Is(err, users.ErrUserNotFound) {
			return nil
		}
		return err
	}

	code, err := generateOTPCode()
	if err != nil {
		return err
	}

	key := constants.BuildOTPKey(email)
	if err := s.cache.Set(ctx, key, code, s.cfg.Redis.OTPCodeTTL); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendOTP(ctx, email, code); err != nil {
			s.log.ErrorWithContext(ctx, "Failed to send verification code", err, map[string]interface{}{
				"user_id": user.ID.String(),
			})
			return fmt.Errorf("failed to send verification code: %w", err)
		}
	}
	return nil
}

func (s *service) VerifyOTP(ctx context.Context, req VerifyOTPRequest) error {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	key := constants.BuildOTPKey(email)
	var stored string
	if err := s.cache.Get(ctx, key, &stored); err != nil {
		return ErrInvalidOTP
	}
	if stored != req.Code {
		return ErrInvalidOTP
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return ErrInvalidOTP
		}
		return err
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, key)
	return nil
}

func (s *service) generateTokenPair(user *users.User) (*TokenPair, error) {
	now := time.Now().UTC()

	access, err := s.signToken(jwt.MapClaims{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
		"type":    "access",
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.JWT.JWTExpiresIn).Unix(),
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.signToken(jwt.MapClaims{
		"user_id": user.ID.String(),
		"type":    "refresh",
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.JWT.RefreshExpiresIn).Unix(),
	})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.JWT.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWT.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *service) parseToken(tokenString, wantType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(s.cfg.JWT.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if tokenType, ok := claims["type"]; !ok || tokenType != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
