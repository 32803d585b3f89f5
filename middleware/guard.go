package middleware

import (
	"context"
	"net/http"
	"strings"

	tokengate "github.com/MrEthical07/tokengate"
)

// AccessTokenCookie is the cookie the guard falls back to when no
// Authorization header is present. Its value carries the same
// "Bearer <token>" shape as the header.
const AccessTokenCookie = "access_token"

type authResultContextKey struct{}

func AuthResultFromContext(ctx context.Context) (*tokengate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*tokengate.AuthResult)
	return res, ok
}

// Guard returns middleware that authenticates every request through
// [tokengate.Engine.Authenticate]. The access token is read from the
// Authorization header first and the access_token cookie second; a
// header always wins over the cookie. Any authentication failure is a
// plain 401.
func Guard(engine *tokengate.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := requestToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Authenticate(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestToken(r *http.Request) (string, bool) {
	if token, ok := bearerToken(r.Header.Get("Authorization")); ok {
		return token, true
	}

	cookie, err := r.Cookie(AccessTokenCookie)
	if err != nil {
		return "", false
	}
	token := strings.TrimPrefix(cookie.Value, "Bearer ")
	if token == "" {
		return "", false
	}

	return token, true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}

	token := value[len(bearer):]
	if token == "" {
		return "", false
	}

	return token, true
}
