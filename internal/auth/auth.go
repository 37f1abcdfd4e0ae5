// Package auth issues and validates the reviewer session tokens guarding
// the write surface of the dashboard API.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Credentials is the configured operator login. PasswordHash is a bcrypt
// hash, never plaintext.
type Credentials struct {
	Email        string
	PasswordHash string
}

// Check verifies one login attempt.
func (c Credentials) Check(email, password string) bool {
	if c.Email == "" || c.PasswordHash == "" {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(c.Email), []byte(email)) != 1 {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) == nil
}

// Claims is the session token payload.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and validates HS256 session tokens.
type TokenIssuer struct {
	Secret []byte
	Issuer string
	TTL    time.Duration
}

func (i *TokenIssuer) ttl() time.Duration {
	if i.TTL <= 0 {
		return 12 * time.Hour
	}
	return i.TTL
}

// Issue mints a token for one authenticated operator.
func (i *TokenIssuer) Issue(email string) (string, error) {
	if len(i.Secret) == 0 {
		return "", errors.New("token secret not configured")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl())),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.Secret)
}

// Validate parses and checks one token string.
func (i *TokenIssuer) Validate(tokenString string) (*Claims, error) {
	if len(i.Secret) == 0 {
		return nil, errors.New("token secret not configured")
	}

	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return i.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if i.Issuer != "" && claims.Issuer != i.Issuer {
		return nil, errors.New("invalid issuer")
	}
	return claims, nil
}

type emailKey struct{}

// EmailFromContext returns the authenticated operator's email, if any.
func EmailFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(emailKey{}).(string)
	return s, ok
}

// Authenticate guards a route with bearer-token validation.
func Authenticate(issuer *TokenIssuer, onError func(http.ResponseWriter, *http.Request, int, string)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if issuer == nil {
				onError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			authz := r.Header.Get("Authorization")
			if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				onError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			claims, err := issuer.Validate(strings.TrimSpace(authz[len("Bearer "):]))
			if err != nil {
				onError(w, r, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := context.WithValue(r.Context(), emailKey{}, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
