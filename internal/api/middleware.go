package api

import (
	"fmt"
	"net/http"
)

func (s *EdupaneApp) errorHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				var panicError error
				switch e := err.(type) {
				case error:
					panicError = e
				default:
					panicError = fmt.Errorf("%v", e)
				}
				s.log.Printf("panic: %v", panicError)
				errResp := NewInternalServerError(panicError)
				w.Header().Set("Connection", "close")
				s.writeJson(w, errResp.StatusCode, errResp)
				return
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// identityMiddleware resolves the caller before the websocket upgrade.
// A missing or invalid token is not a rejection: the request proceeds
// anonymously, and the session layer gates anything identity-bearing.
func (s *EdupaneApp) identityMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := requestToken(r)
		if tokenString == "" {
			next(w, r)
			return
		}

		userId, err := s.extractUserIdFromToken(tokenString)
		if err != nil {
			s.log.Printf("failed to extract user id from token: %v", err)
			next(w, r)
			return
		}

		next(w, r.WithContext(WithUserId(r.Context(), userId)))
	}
}
