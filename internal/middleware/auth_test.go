package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/exam-ide/internal/auth"
)

func TestRequireAuth(t *testing.T) {
	tokens, err := auth.NewTokenService("middleware-secret-16-chars")
	require.NoError(t, err)
	valid, err := tokens.Issue("participant-7", time.Hour)
	require.NoError(t, err)

	var seen string
	h := RequireAuth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.SubjectFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantSeen   string
	}{
		{"no credentials", "", http.StatusUnauthorized, ""},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, ""},
		{"valid token", "Bearer " + valid, http.StatusNoContent, "participant-7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = ""
			req := httptest.NewRequest(http.MethodPost, "/api/execute", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.wantSeen, seen)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
				assert.Contains(t, rr.Header().Get("WWW-Authenticate"), "Bearer")
				assert.JSONEq(t, `{"error":"unauthorized","message":"valid participant token required"}`, rr.Body.String())
			}
		})
	}
}
