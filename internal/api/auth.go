package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt"
)

// Token issuance belongs to the identity service; this side only
// verifies tokens signed with the shared key and resolves the caller.

const (
	userIdClaim    = "user-id"
	tokenCookieKey = "token"
)

type contextKey string

const userIdKey contextKey = "user-id"

func WithUserId(ctx context.Context, userId int) context.Context {
	return context.WithValue(ctx, userIdKey, userId)
}

func UserId(ctx context.Context) (int, bool) {
	userId, ok := ctx.Value(userIdKey).(int)

	return userId, ok
}

// requestToken pulls the token from the cookie, the Authorization
// header, or the query string. Browser websocket clients cannot set
// headers, hence the query fallback.
func requestToken(r *http.Request) string {
	if cookie, err := r.Cookie(tokenCookieKey); err == nil {
		return cookie.Value
	}

	if auth := r.Header.Get("Authorization"); len(auth) > len("Bearer ") && auth[:len("Bearer ")] == "Bearer " {
		return auth[len("Bearer "):]
	}

	return r.URL.Query().Get(tokenCookieKey)
}

func (s *EdupaneApp) extractUserIdFromToken(tokenString string) (int, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, fmt.Errorf("parse token: %w", err)
	}

	if !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}

	userId, ok := claims[userIdClaim].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid user id claim")
	}

	return int(userId), nil
}
