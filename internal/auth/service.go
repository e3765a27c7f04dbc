// Package auth guards a board server that has a single owner. The owner
// logs in with a password checked against a bcrypt hash and receives an
// HS256 bearer token.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// OwnerID is the token subject of the board owner.
const OwnerID = "owner"

const tokenTTL = 24 * time.Hour

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAuthDisabled       = errors.New("authentication is not configured")
)

type Service struct {
	ownerHash []byte
	jwtSecret []byte
	now       func() time.Time
}

// NewService checks ownerPasswordHash. An empty hash disables
// authentication: every request is treated as the owner's.
func NewService(ownerPasswordHash, jwtSecret string) (*Service, error) {
	if ownerPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(ownerPasswordHash)); err != nil {
			return nil, fmt.Errorf("owner password hash: %w", err)
		}
	}
	return &Service{
		ownerHash: []byte(ownerPasswordHash),
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}, nil
}

// HashPassword returns a bcrypt hash suitable for OWNER_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) Enabled() bool { return len(s.ownerHash) > 0 }

type AuthResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Service) Login(password string) (*AuthResult, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.ownerHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return s.issueToken(OwnerID)
}

// ValidateToken returns the token's subject.
func (s *Service) ValidateToken(tokenString string) (string, error) {
	if !s.Enabled() {
		return OwnerID, nil
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub != OwnerID {
		return "", fmt.Errorf("subject: %w", ErrInvalidToken)
	}
	return sub, nil
}

func (s *Service) issueToken(subject string) (*AuthResult, error) {
	now := s.now()
	exp := now.Add(tokenTTL)
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: signed, ExpiresAt: exp.UTC()}, nil
}
