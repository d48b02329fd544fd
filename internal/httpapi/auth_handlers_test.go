package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cityassist.org/internal/auth"
)

func TestLoginReturnsSessionWithUser(t *testing.T) {
	expires := time.Now().Add(30 * time.Minute).UTC()
	api := newTestAPI(Options{
		Auth: &stubAuth{
			login: func(_ context.Context, email, password string) (*auth.TokenPair, *auth.User, error) {
				if email != "admin@example.com" || password != "secret" {
					return nil, nil, auth.ErrInvalidCredentials
				}
				return &auth.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: expires},
					&auth.User{ID: "u-1", Email: email, FullName: "Admin", Role: auth.RoleAdmin}, nil
			},
		},
	})

	body := `{"email":"admin@example.com","password":"secret"}`
	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	decodeBody(t, rr, &resp)
	if resp["accessToken"] != "access" || resp["refreshToken"] != "refresh" {
		t.Fatalf("unexpected token pair: %v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "u-1" || user["role"] != "ADMIN" {
		t.Fatalf("unexpected user payload: %v", resp["user"])
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatal("password hash must never be serialized")
	}
}

func TestLoginBadCredentialsIs401(t *testing.T) {
	api := newTestAPI(Options{
		Auth: &stubAuth{
			login: func(context.Context, string, string) (*auth.TokenPair, *auth.User, error) {
				return nil, nil, auth.ErrInvalidCredentials
			},
		},
	})

	body := `{"email":"x@example.com","password":"nope"}`
	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRefreshReturnsOnlyAccessCredential(t *testing.T) {
	api := newTestAPI(Options{
		Auth: &stubAuth{
			refresh: func(_ context.Context, presented string) (*auth.TokenPair, error) {
				if presented != "old-refresh" {
					return nil, auth.ErrTokenInvalid
				}
				return &auth.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresAt: time.Now().UTC()}, nil
			},
		},
	})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
		strings.NewReader(`{"refreshToken":"old-refresh"}`)))
	if rr.Code != http.StatusOK {
		t.Fatalf("refresh status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	decodeBody(t, rr, &resp)
	if resp["accessToken"] != "new-access" {
		t.Fatalf("unexpected access token: %v", resp)
	}
	if _, ok := resp["refreshToken"]; ok {
		t.Fatal("rotated refresh token must not be returned")
	}
}

func TestRefreshWithDeadTokenIs401(t *testing.T) {
	api := newTestAPI(Options{
		Auth: &stubAuth{
			refresh: func(context.Context, string) (*auth.TokenPair, error) {
				return nil, auth.ErrTokenInvalid
			},
		},
	})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh",
		strings.NewReader(`{"refreshToken":"stolen"}`)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestRegisterCreatesCitizenSession(t *testing.T) {
	api := newTestAPI(Options{
		Auth: &stubAuth{
			register: func(_ context.Context, name, email, password string) (*auth.TokenPair, *auth.User, error) {
				return &auth.TokenPair{AccessToken: "a", RefreshToken: "r", ExpiresAt: time.Now().UTC()},
					&auth.User{ID: "u-2", Email: email, FullName: name, Role: auth.RoleCitizen}, nil
			},
		},
	})

	body := `{"name":"Jane","email":"jane@example.com","password":"hunter2"}`
	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status = %d (body: %s)", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	decodeBody(t, rr, &resp)
	user := resp["user"].(map[string]any)
	if user["role"] != "CITIZEN" {
		t.Fatalf("new accounts must be citizens, got %v", user["role"])
	}
}

func TestRegisterDuplicateEmailIs409(t *testing.T) {
	api := newTestAPI(Options{
		Auth: &stubAuth{
			register: func(context.Context, string, string, string) (*auth.TokenPair, *auth.User, error) {
				return nil, nil, auth.ErrEmailTaken
			},
		},
	})

	body := `{"name":"Jane","email":"jane@example.com","password":"hunter2"}`
	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(body)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rr.Code)
	}
}

func TestLogoutRequiresAuthentication(t *testing.T) {
	api := newTestAPI(Options{Auth: &stubAuth{
		logout: func(context.Context, string) error { return nil },
	}})

	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	var revoked string
	stub := identAuth(auth.Identity{UserID: "u-1", Role: auth.RoleCitizen})
	stub.logout = func(_ context.Context, userID string) error {
		revoked = userID
		return nil
	}
	api := newTestAPI(Options{Auth: stub})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := doRequest(t, api, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if revoked != "u-1" {
		t.Fatalf("revoked user = %q", revoked)
	}
}

func TestLoginRejectsUnknownFields(t *testing.T) {
	api := newTestAPI(Options{Auth: &stubAuth{}})
	body := `{"email":"a@b.c","password":"x","extra":true}`
	rr := doRequest(t, api, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}
