package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"partner-office/internal/models"
)

// Identity is the verified caller identity derived from a bearer token:
// the stable partner id, the canonical unique code, and the role.
type Identity struct {
	PartnerID  uint   `json:"partner_id"`
	UniqueCode string `json:"unique_code"`
	Role       string `json:"role"`
}

// IsAdministrator reports whether the identity carries the administrator role.
func (i Identity) IsAdministrator() bool {
	return i.Role == models.RoleAdministrator
}

// Claims represents the JWT claims
type Claims struct {
	PartnerID  uint   `json:"partner_id"`
	UniqueCode string `json:"unique_code"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies bearer tokens. It is constructed once at
// startup and passed in explicitly wherever verification is needed.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a TokenManager with the given signing secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    24 * time.Hour,
	}
}

// GenerateToken generates a new JWT token for a partner
func (m *TokenManager) GenerateToken(id Identity) (string, error) {
	if len(m.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}

	expirationTime := time.Now().Add(m.ttl)

	claims := &Claims{
		PartnerID:  id.PartnerID,
		UniqueCode: models.NormalizeCode(id.UniqueCode),
		Role:       id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyToken validates a JWT token and returns the caller identity
func (m *TokenManager) VerifyToken(tokenString string) (Identity, error) {
	if len(m.secret) == 0 {
		return Identity{}, fmt.Errorf("JWT secret not configured")
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return Identity{}, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return Identity{}, fmt.Errorf("invalid token")
	}

	return Identity{
		PartnerID:  claims.PartnerID,
		UniqueCode: models.NormalizeCode(claims.UniqueCode),
		Role:       claims.Role,
	}, nil
}
