package authapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opsdesk/opsdesk/internal/core/domain"
)

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{BaseURL: srv.URL})
}

func TestClient_Login_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok_abc"}`))
	}))
	defer srv.Close()

	token, err := newTestClient(srv).Login(context.Background(), "alice@example.com", "s3cret")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token != "tok_abc" {
		t.Fatalf("unexpected token: %s", token)
	}
}

func TestClient_Login_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), "alice@example.com", "wrong")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestClient_Login_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), "alice@example.com", "s3cret")
	if !errors.Is(err, domain.ErrAuthUnavailable) {
		t.Fatalf("a 5xx is not a rejection; expected ErrAuthUnavailable, got %v", err)
	}
}

func TestClient_FetchIdentity_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/me" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok_abc" {
			t.Fatalf("unexpected auth header: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"u_1","display_name":"Alice","email":"alice@example.com","role":"contractor","first_login":true,"linked_record_id":"rec_9"}`))
	}))
	defer srv.Close()

	identity, err := newTestClient(srv).FetchIdentity(context.Background(), "tok_abc")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if identity.ID != "u_1" || identity.Role != domain.RoleContractor || !identity.FirstLogin {
		t.Fatalf("unexpected identity: %+v", identity)
	}
	if identity.LinkedRecordID != "rec_9" {
		t.Fatalf("linked record id must pass through unchanged")
	}
}

func TestClient_FetchIdentity_TokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"token expired"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchIdentity(context.Background(), "tok_stale")
	if !errors.Is(err, domain.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestClient_FetchIdentity_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	_, err := newTestClient(srv).FetchIdentity(context.Background(), "tok_abc")
	if !errors.Is(err, domain.ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable, got %v", err)
	}
}

func TestClient_ResetPassword(t *testing.T) {
	accept := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/reset-password" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if !accept {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"current password incorrect"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(srv)

	err := client.ResetPassword(context.Background(), "tok", "wrong", "New1!")
	if !errors.Is(err, domain.ErrResetRejected) {
		t.Fatalf("expected ErrResetRejected, got %v", err)
	}

	accept = true
	if err := client.ResetPassword(context.Background(), "tok", "Temp1!", "New1!"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
}

func TestClient_Login_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Login(context.Background(), "alice@example.com", "s3cret")
	if !errors.Is(err, domain.ErrAuthUnavailable) {
		t.Fatalf("expected ErrAuthUnavailable on empty token, got %v", err)
	}
}
