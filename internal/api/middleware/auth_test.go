package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"polybet/pkg/crypto"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsWithoutToken(t *testing.T) {
	hash, err := crypto.HashToken("secret-token")
	if err != nil {
		t.Fatalf("failed to hash token: %v", err)
	}
	handler := Auth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthRejectsWrongToken(t *testing.T) {
	hash, _ := crypto.HashToken("secret-token")
	handler := Auth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestAuthAcceptsValidToken(t *testing.T) {
	hash, _ := crypto.HashToken("secret-token")
	handler := Auth(hash)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestAuthRequiresActorForMutations(t *testing.T) {
	hash, _ := crypto.HashToken("secret-token")
	handler := Auth(hash)(okHandler())

	// PUT без X-Actor-ID отклоняется даже с валидным токеном
	req := httptest.NewRequest(http.MethodPut, "/api/v1/risk/trading", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without X-Actor-ID, got %d", w.Code)
	}

	// С X-Actor-ID проходит
	req = httptest.NewRequest(http.MethodPut, "/api/v1/risk/trading", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-Actor-ID", "admin-1")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with X-Actor-ID, got %d", w.Code)
	}
}

func TestAuthEmptyHashAllowsAll(t *testing.T) {
	handler := Auth("")(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200 in dev mode, got %d", w.Code)
	}
}
