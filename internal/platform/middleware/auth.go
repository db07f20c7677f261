package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTValidator validates bearer tokens and returns the claims we care about.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims extracted from a valid token.
type JWTClaims struct {
	UserID string
}

type contextKeyUserID struct{}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(contextKeyUserID{}).(string)
	if !ok {
		return ""
	}
	return userID
}

// WithUserID injects a user ID into the context. Exposed for handler tests.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKeyUserID{}, userID)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal's user ID in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx))
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx))
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, claims.UserID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"success":false,"error":{"code":"UNAUTHORIZED","message":"` + description + `","details":{}}}`))
}

// HMACValidator validates HS256 tokens signed with a shared key.
type HMACValidator struct {
	key []byte
}

// NewHMACValidator builds a validator for the configured signing key.
func NewHMACValidator(key string) *HMACValidator {
	return &HMACValidator{key: []byte(key)}
}

// ValidateToken parses and verifies the token, returning the subject claim.
func (v *HMACValidator) ValidateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return nil, fmt.Errorf("token missing subject")
	}
	return &JWTClaims{UserID: subject}, nil
}

// IssueToken mints a short-lived HS256 token for a user ID. Used by the seed
// tooling and tests; real deployments front this with the identity provider.
func (v *HMACValidator) IssueToken(userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(v.key)
}
