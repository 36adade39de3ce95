package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/securevault-systems/vault-core/internal/models"
	"github.com/securevault-systems/vault-core/internal/repository"
	"github.com/securevault-systems/vault-core/pkg/tokens"
)

const UserKey = contextKey("user")

// Authenticator validates bearer tokens and loads the current user record.
// The role is always re-read from storage rather than trusted from the
// token, so a flag applied mid-session takes effect on the next request.
type Authenticator struct {
	tokens *tokens.TokenGenerator
	repo   repository.Repository
}

func NewAuthenticator(tg *tokens.TokenGenerator, repo repository.Repository) *Authenticator {
	return &Authenticator{tokens: tg, repo: repo}
}

func (a *Authenticator) resolve(r *http.Request) *models.User {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return nil
	}

	claims, err := a.tokens.Validate(raw)
	if err != nil {
		return nil
	}
	user, err := a.repo.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		return nil
	}
	return user
}

// Require rejects requests without a valid session.
func (a *Authenticator) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := a.resolve(r)
		if user == nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests from anyone but an administrator.
func (a *Authenticator) RequireAdmin(next http.Handler) http.Handler {
	return a.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil || !user.IsAdmin() {
			http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// Optional attaches the user when a valid session is present but lets the
// request through either way. The trap endpoint works for anonymous hits.
func (a *Authenticator) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user := a.resolve(r); user != nil {
			r = r.WithContext(context.WithValue(r.Context(), UserKey, user))
		}
		next.ServeHTTP(w, r)
	})
}

// GetUser extracts the authenticated user from the context, or nil.
func GetUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(UserKey).(*models.User); ok {
		return user
	}
	return nil
}
