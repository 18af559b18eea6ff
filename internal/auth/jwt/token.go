package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"campus-rickshaw/internal/auth/domain"
	"campus-rickshaw/internal/shared/apperrors"
)

// TokenValidity is the hard expiry window. There is no shorter session
// timeout: reconnecting clients re-verify against this window only.
const TokenValidity = 24 * time.Hour

type Claims struct {
	Role domain.Role `json:"role"`
	Name string      `json:"name"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 bearer tokens.
type Manager struct {
	secret []byte
}

func NewManager(secret string) *Manager {
	return &Manager{secret: []byte(secret)}
}

func (m *Manager) Generate(p domain.Principal) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: p.Role,
		Name: p.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenValidity)),
			Issuer:    "campus-rickshaw",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify is a pure check: no side effects, callers attach the principal to
// their context themselves.
func (m *Manager) Verify(tokenString string) (*domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrTokenMalformed
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenMalformed
	}
	if !token.Valid {
		return nil, apperrors.ErrTokenMalformed
	}
	if _, err := domain.ParseRole(string(claims.Role)); err != nil {
		return nil, apperrors.ErrTokenMalformed
	}
	return &domain.Principal{
		ID:          claims.Subject,
		Role:        claims.Role,
		DisplayName: claims.Name,
	}, nil
}
