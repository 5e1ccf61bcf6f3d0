package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/clione/sikre/internal/common"
)

type ctxKey string

const userIDKey ctxKey = "userID"

const bearerPrefix = "Bearer "

// UserIDFromContext returns the authenticated account id placed into the
// request context by the auth middleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok
}

// withAuth enforces the bearer-token session check. The two failure reasons
// stay distinct: a request without credentials is reported differently from
// one whose credentials no longer validate.
func (s *Server) withAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		header := r.Header.Get(common.AuthorizationHeaderName)
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			s.respondError(w, http.StatusUnauthorized, "credentials not found")
			return
		}

		token := strings.TrimPrefix(header, bearerPrefix)
		if token == "" {
			s.respondError(w, http.StatusUnauthorized, "credentials not found")
			return
		}

		userID, err := s.authenticator.ValidateToken(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "credentials expired")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
