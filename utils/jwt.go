package utils

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"bloodsync/models"

	"github.com/golang-jwt/jwt"
)

// GenerateToken creates a signed HS256 token for caller that expires after duration.
func GenerateToken(secret []byte, caller models.Caller, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":   caller.UserID,
		"email": caller.Email,
		"role":  string(caller.Role),
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// HashToken computes a SHA-256 hash of the token string.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(secret []byte, tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

// JWTVerifier accepts HS256 tokens signed with JWT_SECRET. Used when Firebase
// Auth is not configured.
type JWTVerifier struct {
	Secret []byte
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*models.Caller, int64, error) {
	if len(v.Secret) == 0 {
		return nil, 0, errors.New("token verification is not configured")
	}
	token, err := ValidateToken(v.Secret, tokenString)
	if err != nil {
		return nil, 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, 0, errors.New("invalid token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return nil, 0, errors.New("token does not contain a valid 'sub' claim")
	}

	caller := &models.Caller{UserID: sub, Role: models.RoleDonor}
	if email, ok := claims["email"].(string); ok {
		caller.Email = email
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		caller.Role = models.Role(role)
	}
	var exp int64
	if f, ok := claims["exp"].(float64); ok {
		exp = int64(f)
	}
	return caller, exp, nil
}
