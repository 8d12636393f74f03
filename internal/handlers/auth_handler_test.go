package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
)

func TestRegister_ForcesPatientRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h, stores := newTestHandler()

	// A role supplied in the body must be ignored.
	body := map[string]interface{}{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "hunter22",
		"role":     models.RoleAdmin,
		"phone":    "555-0199",
		"address":  "99 Low Road",
	}
	rec, env := perform(t, h, nil, http.MethodPost, "/api/auth/register", body)
	requireStatus(t, rec, http.StatusCreated)
	if env.Token == "" {
		t.Error("expected a token in the registration response")
	}

	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if data["role"] != models.RolePatient {
		t.Errorf("expected role %q, got %v", models.RolePatient, data["role"])
	}
	if _, hasPassword := data["password"]; hasPassword {
		t.Error("password must never be serialized")
	}

	user, err := stores.Users.FindByEmail(nil, "eve@example.com")
	if err != nil {
		t.Fatalf("registered user not stored: %v", err)
	}
	if user.Role != models.RolePatient {
		t.Errorf("stored role is %q, want %q", user.Role, models.RolePatient)
	}
	if user.Password == "hunter22" {
		t.Error("password stored in plain text")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h, _ := newTestHandler()

	body := map[string]interface{}{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "hunter22",
	}
	rec, _ := perform(t, h, nil, http.MethodPost, "/api/auth/register", body)
	requireStatus(t, rec, http.StatusCreated)

	rec, env := perform(t, h, nil, http.MethodPost, "/api/auth/register", body)
	requireStatus(t, rec, http.StatusBadRequest)
	if env.Message != "User already exists" {
		t.Errorf("unexpected message: %q", env.Message)
	}
}

func TestLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	h, _ := newTestHandler()

	register := map[string]interface{}{
		"name":     "Eve",
		"email":    "eve@example.com",
		"password": "hunter22",
	}
	rec, _ := perform(t, h, nil, http.MethodPost, "/api/auth/register", register)
	requireStatus(t, rec, http.StatusCreated)

	rec, env := perform(t, h, nil, http.MethodPost, "/api/auth/login",
		map[string]interface{}{"email": "eve@example.com", "password": "hunter22"})
	requireStatus(t, rec, http.StatusOK)
	if env.Token == "" {
		t.Error("expected a token on login")
	}

	rec, env = perform(t, h, nil, http.MethodPost, "/api/auth/login",
		map[string]interface{}{"email": "eve@example.com", "password": "wrong"})
	requireStatus(t, rec, http.StatusUnauthorized)
	if env.Message != "Invalid credentials" {
		t.Errorf("unexpected message: %q", env.Message)
	}

	rec, env = perform(t, h, nil, http.MethodPost, "/api/auth/login",
		map[string]interface{}{"email": "nobody@example.com", "password": "hunter22"})
	requireStatus(t, rec, http.StatusUnauthorized)
	if env.Message != "Invalid credentials" {
		t.Errorf("unknown email must look like bad credentials, got %q", env.Message)
	}
}

func TestMeAndLogout(t *testing.T) {
	h, stores := newTestHandler()
	alice := seedUser(t, stores, "Alice", "alice@example.com", models.RolePatient)

	rec, env := perform(t, h, alice, http.MethodGet, "/api/auth/me", nil)
	requireStatus(t, rec, http.StatusOK)
	var data map[string]interface{}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("failed to decode user: %v", err)
	}
	if data["email"] != "alice@example.com" {
		t.Errorf("me returned wrong subject: %v", data)
	}

	rec, env = perform(t, h, alice, http.MethodGet, "/api/auth/logout", nil)
	requireStatus(t, rec, http.StatusOK)
	if !env.Success {
		t.Error("logout should acknowledge success")
	}
}
