package middleware

import (
	"net/http"

	"github.com/sakif/exam-ide/internal/apperror"
	"github.com/sakif/exam-ide/internal/auth"
	"github.com/sakif/exam-ide/internal/handler"
)

// RequireAuth rejects requests without a valid participant token with 401
// and stores the token subject in the context otherwise.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, err := auth.SubjectFromRequest(r, tokens)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="exam-ide"`)
				handler.WriteError(w, apperror.Unauthorized("valid participant token required"))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSubject(r.Context(), subject)))
		})
	}
}
