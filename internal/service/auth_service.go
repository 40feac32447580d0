package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/apperror"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/config"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/identity"
	"github.com/newprojects-ai/lvnplus-apiV2/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
)

// Claims extends JWT standard claims with the caller's identity and roles.
type Claims struct {
	jwt.RegisteredClaims
	UserID identity.ID  `json:"user_id"`
	Roles  []model.Role `json:"roles"`
}

// Actor is the authenticated caller handed to the services.
func (c *Claims) Actor() Actor {
	return Actor{ID: c.UserID, Roles: c.Roles}
}

// UserFinder loads accounts by email or id.
type UserFinder interface {
	GetByID(ctx context.Context, id identity.ID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthService handles authentication, JWT and the single-session registry.
type AuthService struct {
	cfg   *config.Config
	rdb   *redis.Client
	users UserFinder
	log   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, users UserFinder, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:   cfg,
		rdb:   rdb,
		users: users,
		log:   log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Login verifies the credentials and issues a token. The new token's JTI
// replaces any earlier session of the same user.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("get user: %w", err)
	}
	if err := s.CheckPassword(user.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, jti, err := s.GenerateToken(user, time.Now())
	if err != nil {
		return "", nil, err
	}

	sessionKey := config.RedisKey.UserSessionKey(user.ID)
	if err := s.rdb.Set(ctx, sessionKey, jti, s.cfg.JWTExpiry).Err(); err != nil {
		return "", nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().Str("user_id", user.ID.String()).Msg("User logged in")
	return token, user, nil
}

// GenerateToken signs a token for user and returns it with its JTI.
func (s *AuthService) GenerateToken(user *model.User, now time.Time) (string, string, error) {
	jti := uuid.New().String()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: user.ID,
		Roles:  user.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", "", fmt.Errorf("sign token: %w", err)
	}
	return signed, jti, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's JTI is the user's active session.
func (s *AuthService) ValidateSession(ctx context.Context, userID identity.ID, jti string) error {
	stored, err := s.rdb.Get(ctx, config.RedisKey.UserSessionKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalidated
		}
		return fmt.Errorf("check session: %w", err)
	}
	if stored != jti {
		return ErrSessionInvalidated
	}
	return nil
}

// Logout ends the user's session so every outstanding token stops working.
func (s *AuthService) Logout(ctx context.Context, userID identity.ID) error {
	if err := s.rdb.Del(ctx, config.RedisKey.UserSessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.log.Info().Str("user_id", userID.String()).Msg("User logged out")
	return nil
}

// Me returns the caller's account.
func (s *AuthService) Me(ctx context.Context, userID identity.ID) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}
