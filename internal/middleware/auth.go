package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const sessionKey contextKey = "session"

// Session is the authenticated caller of a request.
type Session struct {
	UserID string
	Email  string
	Token  string
}

// Authenticator validates bearer tokens and attaches the Session to the request.
type Authenticator struct {
	secret []byte
	redis  *redis.Client
}

// NewAuthenticator builds the session middleware. rdb may be nil, in which
// case revoked tokens are not checked.
func NewAuthenticator(secretKey string, rdb *redis.Client) *Authenticator {
	return &Authenticator{secret: []byte(secretKey), redis: rdb}
}

// Middleware rejects requests without a valid session.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Get token from Authorization header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		token := parts[1]

		session, err := a.validateToken(token)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if a.isRevoked(r.Context(), token) {
			http.Error(w, "Token has been revoked", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

func (a *Authenticator) validateToken(tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	userID, _ := claims["sub"].(string)
	if userID == "" {
		if v, ok := claims["user_id"]; ok && v != nil {
			userID = fmt.Sprintf("%v", v)
		}
	}
	if userID == "" {
		return nil, errors.New("token has no subject")
	}
	// Profiles are keyed by uuid.
	if _, err := uuid.Parse(userID); err != nil {
		return nil, fmt.Errorf("token subject is not a user id: %w", err)
	}

	email, _ := claims["email"].(string)
	return &Session{UserID: userID, Email: email, Token: tokenString}, nil
}

func (a *Authenticator) isRevoked(ctx context.Context, token string) bool {
	if a.redis == nil {
		return false
	}
	n, err := a.redis.Exists(ctx, "blacklist:"+token).Result()
	if err != nil {
		// Redis is advisory here; the JWT signature already passed.
		logrus.WithError(err).Warn("token blacklist lookup failed")
		return false
	}
	return n > 0
}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFrom returns the session attached by the middleware, if any.
func SessionFrom(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	if !ok || s == nil || s.UserID == "" {
		return nil, false
	}
	return s, true
}
