package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const adminTokenExpiry = 24 * time.Hour

// AdminClaims are the claims carried by an admin API bearer token.
type AdminClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// AdminTokenService signs and verifies bearer tokens for the admin API.
// Member sessions use opaque DB-backed tokens; admin access is stateless.
type AdminTokenService struct {
	secret []byte
}

// NewAdminTokenService creates a new admin token service
func NewAdminTokenService(secret string) *AdminTokenService {
	return &AdminTokenService{secret: []byte(secret)}
}

// Sign creates an admin token for the given email (24h expiry)
func (s *AdminTokenService) Sign(email string) (string, error) {
	now := time.Now()
	claims := &AdminClaims{
		Email: email,
		Role:  "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(adminTokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %w", err)
	}
	return tokenString, nil
}

// Verify parses and validates an admin token
func (s *AdminTokenService) Verify(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse admin token: %w", err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid admin token")
	}
	if claims.Role != "admin" {
		return nil, fmt.Errorf("missing admin role")
	}
	return claims, nil
}
