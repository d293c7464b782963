package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gomatch/config"
)

// AdminClaims are the claims carried by an admin API token
type AdminClaims struct {
	Subject string `json:"sub"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateAdminToken creates a signed admin token for the given subject
func GenerateAdminToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := AdminClaims{
		Subject: subject,
		Role:    "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    config.AppName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.AdminJWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign admin token: %v", err)
	}
	return signed, nil
}

// ValidateAdminToken parses and verifies an admin token, returning its
// claims on success.
func ValidateAdminToken(tokenString string) (*AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(config.AdminJWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid admin token: %v", err)
	}

	claims, ok := token.Claims.(*AdminClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid admin token claims")
	}
	if claims.Role != "admin" {
		return nil, fmt.Errorf("token does not carry the admin role")
	}
	return claims, nil
}
