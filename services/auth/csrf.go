// Package auth issues and checks the signed tokens that protect the site's
// form posts.
package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	CSRFTokenDuration = time.Hour
	csrfTokenType     = "csrf"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	Form      string `json:"form"`
	Nonce     string `json:"nonce"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type CSRFService struct {
	secretKey []byte
	issuer    string
	duration  time.Duration
	now       func() time.Time
}

func NewCSRFService(secretKey, issuer string) *CSRFService {
	return &CSRFService{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		duration:  CSRFTokenDuration,
		now:       time.Now,
	}
}

// GenerateToken signs a token bound to a single form name and to the
// visitor's session nonce.
func (s *CSRFService) GenerateToken(form, nonce string) (string, error) {
	if nonce == "" {
		return "", errors.New("csrf token needs a session nonce")
	}
	now := s.now()
	claims := Claims{
		Form:      form,
		Nonce:     nonce,
		TokenType: csrfTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.duration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign csrf token: %w", err)
	}
	return signed, nil
}

// ValidateToken accepts tokenString only when it was issued for form and for
// the same session nonce.
func (s *CSRFService) ValidateToken(tokenString, form, nonce string) error {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return ErrInvalidToken
	}

	if claims.TokenType != csrfTokenType || claims.Form != form {
		return ErrInvalidToken
	}
	if nonce == "" || subtle.ConstantTimeCompare([]byte(claims.Nonce), []byte(nonce)) != 1 {
		return ErrInvalidToken
	}
	return nil
}
