package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// contextKey is package-private so no other package can read or shadow the
// participant stored in a request context.
type contextKey string

const subjectKey contextKey = "subject"

// CookieName is the cookie SubjectFromRequest falls back to when no
// Authorization header is sent.
const CookieName = "token"

// ErrNoToken is returned by SubjectFromRequest when the request carries no
// usable credential at all.
var ErrNoToken = errors.New("auth: no token presented")

// SubjectFromRequest validates the participant token presented with r and
// returns its subject. The header wins over the cookie:
//
//	Authorization: Bearer <jwt>
//	Cookie: token=<jwt>
func SubjectFromRequest(r *http.Request, tokens *TokenService) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") {
			return "", ErrNoToken
		}
		return tokens.Validate(strings.TrimSpace(token))
	}

	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return "", ErrNoToken
	}
	return tokens.Validate(cookie.Value)
}

// SubjectFromContext returns the authenticated participant, or ("", false)
// when the request went through an open API.
func SubjectFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(subjectKey).(string)
	return id, ok && id != ""
}

// WithSubject returns a copy of ctx carrying subject. Every transport uses it
// to attribute executions to a participant.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}
