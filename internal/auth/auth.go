// Package auth handles dashboard password verification and the JWT
// tokens issued after login.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const issuer = "draftpress"

// DefaultTokenExpiry is how long an issued token stays valid.
const DefaultTokenExpiry = 24 * time.Hour

var (
	ErrInvalidPassword = errors.New("auth: invalid password")
	ErrInvalidToken    = errors.New("auth: invalid token")
)

// Service verifies the dashboard password and signs session tokens.
// Password may be a bcrypt hash (detected by prefix) or a plain value
// compared in constant time.
type Service struct {
	password    string
	jwtSecret   []byte
	tokenExpiry time.Duration
}

// NewService builds a Service. Both password and secret are required.
func NewService(password, jwtSecret string, tokenExpiry time.Duration) (*Service, error) {
	if password == "" {
		return nil, errors.New("auth: password is required")
	}
	if jwtSecret == "" {
		return nil, errors.New("auth: jwt secret is required")
	}
	if tokenExpiry <= 0 {
		tokenExpiry = DefaultTokenExpiry
	}
	return &Service{
		password:    password,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
	}, nil
}

// VerifyPassword checks a login attempt.
func (s *Service) VerifyPassword(attempt string) error {
	if isBcryptHash(s.password) {
		if err := bcrypt.CompareHashAndPassword([]byte(s.password), []byte(attempt)); err != nil {
			return ErrInvalidPassword
		}
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(s.password), []byte(attempt)) != 1 {
		return ErrInvalidPassword
	}
	return nil
}

// GenerateToken issues a signed session token.
func (s *Service) GenerateToken() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenExpiry)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a session token's signature, issuer and
// expiry.
func (s *Service) VerifyToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

// GenerateSecret returns a random url-safe secret suitable for JWT
// signing or session keys.
func GenerateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("auth: generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashPassword returns a bcrypt hash of the given password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hash), nil
}
