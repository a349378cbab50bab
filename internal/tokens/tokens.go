package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banghwa/staffboard/internal/config"
	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateAccessToken creates a signed access token for a session subject.
// admin=true carries the admin capability.
func GenerateAccessToken(cfg *config.Config, sub string, admin bool, ttl time.Duration) (string, error) {
	if cfg.JWT.Secret == "" {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":   sub,
		"admin": admin,
		"iat":   now.Unix(),
		"exp":   now.Add(ttl).Unix(),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// ParseAccessToken validates signature, algorithm and expiry.
func ParseAccessToken(secret, raw string) (jwt.MapClaims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	if exp, err := claims.GetExpirationTime(); err != nil || exp == nil {
		return nil, fmt.Errorf("token has no expiry")
	}
	return claims, nil
}

type token struct {
	claims jwt.MapClaims
}

func (t *token) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// Verifier checks tokens issued by GenerateAccessToken.
type Verifier struct {
	secret string
}

func NewVerifier(cfg *config.Config) *Verifier {
	return &Verifier{secret: cfg.JWT.Secret}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	claims, err := ParseAccessToken(v.secret, raw)
	if err != nil {
		return nil, err
	}
	return &token{claims: claims}, nil
}
