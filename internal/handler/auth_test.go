package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fami-pos/api/internal/auth"
	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/handler"
)

const testJWTSecret = "test-secret-do-not-use-in-prod"

// --- Mock store ---

type mockAuthStore struct {
	users map[uuid.UUID]database.User
}

func (m *mockAuthStore) GetUserByUsername(_ context.Context, username string) (database.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

// --- Helpers ---

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func authStoreWithUser(t *testing.T, username, password string, active bool) (*mockAuthStore, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	store := &mockAuthStore{users: map[uuid.UUID]database.User{
		userID: {
			ID:           userID,
			Username:     username,
			PasswordHash: mustHash(t, password),
			FullName:     "Test User",
			Role:         "CASHIER",
			IsActive:     active,
		},
	}}
	return store, userID
}

// --- Login tests ---

func TestLogin_Success(t *testing.T) {
	store, _ := authStoreWithUser(t, "budi", "rahasia-banget", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"username": "budi",
		"password": "rahasia-banget",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("expected non-empty access_token")
	}
	if resp["refresh_token"] == "" || resp["refresh_token"] == nil {
		t.Error("expected non-empty refresh_token")
	}

	user, ok := resp["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected user object in response, got %T", resp["user"])
	}
	if user["username"] != "budi" {
		t.Errorf("user.username: got %v, want budi", user["username"])
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	store, _ := authStoreWithUser(t, "budi", "rahasia-banget", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"username": "budi",
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{users: map[uuid.UUID]database.User{}})

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"username": "ghost",
		"password": "whatever-pass",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	store, _ := authStoreWithUser(t, "budi", "rahasia-banget", false)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"username": "budi",
		"password": "rahasia-banget",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	store, _ := authStoreWithUser(t, "budi", "rahasia-banget", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]interface{}{
		"username": "budi",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

// --- Refresh tests ---

func TestRefresh_Success(t *testing.T) {
	store, userID := authStoreWithUser(t, "budi", "rahasia-banget", true)
	router := setupAuthRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, userID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" || resp["access_token"] == nil {
		t.Error("expected non-empty access_token")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	store, _ := authStoreWithUser(t, "budi", "rahasia-banget", true)
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": "not-a-jwt",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestRefresh_DeactivatedUser(t *testing.T) {
	store, userID := authStoreWithUser(t, "budi", "rahasia-banget", false)
	router := setupAuthRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, userID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

// AccessTokenRejectedAsRefresh guards against token-type confusion.
func TestRefresh_AccessTokenRejected(t *testing.T) {
	store, userID := authStoreWithUser(t, "budi", "rahasia-banget", true)
	router := setupAuthRouter(store)

	accessToken, err := auth.GenerateToken(testJWTSecret, userID, "budi", "CASHIER")
	if err != nil {
		t.Fatalf("generate access token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]interface{}{
		"refresh_token": accessToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
