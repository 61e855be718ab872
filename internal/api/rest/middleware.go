package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/louisbranch/freshcart/internal/auth"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
)

type identityKey struct{}

// requestToken extracts the session token from the Authorization header or
// the session cookie. Bearer tokens win when both are present.
func requestToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			token = strings.TrimSpace(token)
			if token != "" {
				return token, true
			}
		}
	}
	return readSessionCookie(r)
}

// requireAuth resolves the caller identity and stores it on the request
// context, rejecting unauthenticated requests.
func (h *Handler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := requestToken(r)
		if !ok {
			writeError(w, r, apperrors.New(apperrors.CodeAuthUnauthenticated, "authentication required"))
			return
		}
		identity, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next(w, r.WithContext(ctx))
	}
}

// identityFrom returns the authenticated identity placed by requireAuth.
func identityFrom(r *http.Request) auth.Identity {
	identity, _ := r.Context().Value(identityKey{}).(auth.Identity)
	return identity
}
