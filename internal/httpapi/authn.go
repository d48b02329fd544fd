package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"cityassist.org/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

// withAuth resolves the bearer credential into a caller identity. A request
// without a credential proceeds anonymously; the services decide what an
// anonymous caller may see. A credential that is present but bad is rejected
// here so handlers never observe a forged identity.
func (a *API) withAuth(next http.Handler) http.Handler {
	if a == nil || a.auth == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		header := strings.TrimSpace(r.Header.Get(authHeader))
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, err := extractBearerToken(header)
		if err != nil {
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}

		ident, err := a.auth.Authenticate(r.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrTokenExpired):
				writeError(w, r, http.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrTokenInvalid):
				writeError(w, r, http.StatusUnauthorized, "invalid token")
			default:
				writeError(w, r, http.StatusInternalServerError, "authentication error")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.ContextWithIdentity(r.Context(), ident)))
	})
}

// requireIdentity rejects anonymous callers.
func requireIdentity(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return auth.Identity{}, false
	}
	return ident, true
}

// requireAdmin rejects anyone but ADMIN callers.
func requireAdmin(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	ident, ok := requireIdentity(w, r)
	if !ok {
		return auth.Identity{}, false
	}
	if !ident.IsAdmin() {
		writeError(w, r, http.StatusForbidden, "admin role required")
		return auth.Identity{}, false
	}
	return ident, true
}

func extractBearerToken(header string) (string, error) {
	if !strings.HasPrefix(strings.ToLower(header), strings.ToLower(bearer)) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
