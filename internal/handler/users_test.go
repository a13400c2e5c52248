package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/fami-pos/api/internal/database"
	"github.com/fami-pos/api/internal/handler"
)

// --- Mock store ---

type mockUserStore struct {
	users map[uuid.UUID]database.User // keyed by user ID
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{users: make(map[uuid.UUID]database.User)}
}

func (m *mockUserStore) CreateUser(_ context.Context, arg database.CreateUserParams) (database.User, error) {
	for _, u := range m.users {
		if u.Username == arg.Username {
			return database.User{}, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
	}
	u := database.User{
		ID:           uuid.New(),
		Username:     arg.Username,
		PasswordHash: arg.PasswordHash,
		FullName:     arg.FullName,
		Role:         arg.Role,
		EmployeeCode: arg.EmployeeCode,
		IsActive:     arg.IsActive,
		CreatedAt:    time.Now(),
	}
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) GetUser(_ context.Context, id uuid.UUID) (database.User, error) {
	u, ok := m.users[id]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserStore) ListUsers(_ context.Context) ([]database.User, error) {
	result := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		result = append(result, u)
	}
	return result, nil
}

func (m *mockUserStore) UpdateUser(_ context.Context, arg database.UpdateUserParams) (database.User, error) {
	u, ok := m.users[arg.ID]
	if !ok {
		return database.User{}, pgx.ErrNoRows
	}
	u.FullName = arg.FullName
	u.Role = arg.Role
	u.EmployeeCode = arg.EmployeeCode
	u.IsActive = arg.IsActive
	m.users[u.ID] = u
	return u, nil
}

func (m *mockUserStore) UpdateUserPassword(_ context.Context, arg database.UpdateUserPasswordParams) error {
	u, ok := m.users[arg.ID]
	if !ok {
		return nil
	}
	u.PasswordHash = arg.PasswordHash
	m.users[u.ID] = u
	return nil
}

func (m *mockUserStore) DeactivateUser(_ context.Context, id uuid.UUID) error {
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.IsActive = false
	m.users[id] = u
	return nil
}

// --- Helpers ---

func setupUserRouter(store *mockUserStore) *chi.Mux {
	h := handler.NewUserHandler(store)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeResponse(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeListResponse(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return string(hash)
}

// --- Create tests ---

func TestUserCreate_Valid(t *testing.T) {
	store := newMockUserStore()
	router := setupUserRouter(store)

	rr := doRequest(t, router, "POST", "/users", map[string]interface{}{
		"username":  "budi",
		"password":  "s3cret-pass",
		"full_name": "Budi Santoso",
		"role":      "CASHIER",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["username"] != "budi" {
		t.Errorf("username: got %v, want budi", resp["username"])
	}
	if resp["role"] != "CASHIER" {
		t.Errorf("role: got %v, want CASHIER", resp["role"])
	}
	if resp["is_active"] != true {
		t.Errorf("is_active: got %v, want true", resp["is_active"])
	}
}

func TestUserCreate_InvalidRole(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, "POST", "/users", map[string]interface{}{
		"username":  "budi",
		"password":  "s3cret-pass",
		"full_name": "Budi",
		"role":      "SUPERUSER",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUserCreate_ShortPassword(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, "POST", "/users", map[string]interface{}{
		"username":  "budi",
		"password":  "short",
		"full_name": "Budi",
		"role":      "CASHIER",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestUserCreate_DuplicateUsername(t *testing.T) {
	store := newMockUserStore()
	router := setupUserRouter(store)

	body := map[string]interface{}{
		"username":  "budi",
		"password":  "s3cret-pass",
		"full_name": "Budi",
		"role":      "CASHIER",
	}
	doRequest(t, router, "POST", "/users", body)
	rr := doRequest(t, router, "POST", "/users", body)

	if rr.Code != http.StatusConflict {
		t.Errorf("status: got %d, want %d; body: %s", rr.Code, http.StatusConflict, rr.Body.String())
	}
}

// --- Get / list tests ---

func TestUserGet_NotFound(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, "GET", "/users/"+uuid.New().String(), nil)

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUserGet_HidesPasswordHash(t *testing.T) {
	store := newMockUserStore()
	userID := uuid.New()
	store.users[userID] = database.User{
		ID: userID, Username: "siti", PasswordHash: mustHash(t, "whatever1"),
		FullName: "Siti", Role: "MANAGER", IsActive: true,
	}
	router := setupUserRouter(store)

	rr := doRequest(t, router, "GET", "/users/"+userID.String(), nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	resp := decodeResponse(t, rr)
	if _, leaked := resp["password_hash"]; leaked {
		t.Error("response must not include password_hash")
	}
}

func TestUserList(t *testing.T) {
	store := newMockUserStore()
	for _, name := range []string{"a", "b", "c"} {
		id := uuid.New()
		store.users[id] = database.User{ID: id, Username: name, Role: "CASHIER", IsActive: true}
	}
	router := setupUserRouter(store)

	rr := doRequest(t, router, "GET", "/users", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if got := len(decodeListResponse(t, rr)); got != 3 {
		t.Errorf("expected 3 users, got %d", got)
	}
}

// --- Update / deactivate tests ---

func TestUserUpdate_NotFound(t *testing.T) {
	router := setupUserRouter(newMockUserStore())

	rr := doRequest(t, router, "PUT", "/users/"+uuid.New().String(), map[string]interface{}{
		"full_name": "New Name",
		"role":      "MANAGER",
		"is_active": true,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestUserDeactivate(t *testing.T) {
	store := newMockUserStore()
	userID := uuid.New()
	store.users[userID] = database.User{ID: userID, Username: "budi", Role: "CASHIER", IsActive: true}
	router := setupUserRouter(store)

	rr := doRequest(t, router, "DELETE", "/users/"+userID.String(), nil)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusNoContent)
	}
	if store.users[userID].IsActive {
		t.Error("expected user to be deactivated")
	}
}

func TestUserChangePassword_TooShort(t *testing.T) {
	store := newMockUserStore()
	userID := uuid.New()
	store.users[userID] = database.User{ID: userID, Username: "budi", Role: "CASHIER", IsActive: true}
	router := setupUserRouter(store)

	rr := doRequest(t, router, "PUT", "/users/"+userID.String()+"/password", map[string]interface{}{
		"password": "tiny",
	})

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
