package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/gandhirajj/doctor-appointment-api/internal/middleware"
	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage/memstore"
	"github.com/gandhirajj/doctor-appointment-api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newGateRouter(users storage.UserStore, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{middleware.Authenticate(users)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		subject, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"email": subject.Email})
	})
	r.GET("/protected", chain...)
	return r
}

func seedUser(t *testing.T, users storage.UserStore, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:  "Test " + role,
		Email: role + "@example.com",
		Role:  role,
	}
	if err := users.Insert(nil, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func request(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate_NoToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	r := newGateRouter(stores.Users)

	rec := request(r, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	r := newGateRouter(stores.Users)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "NotBearer abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	r := newGateRouter(stores.Users)

	rec := request(r, "invalid.token.here")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	user := seedUser(t, stores.Users, models.RolePatient)
	r := newGateRouter(stores.Users)

	claims := &utils.Claims{
		UserID: user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	rec := request(r, token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAuthenticate_UnknownSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	r := newGateRouter(stores.Users)

	token, err := utils.GenerateJWT("64ffffffffffffffffffffff")
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rec := request(r, token)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// The deployment serves the patient application only: a valid token for
// a doctor or admin account is rejected at the gate even though the
// handlers beneath it understand those roles.
func TestAuthenticate_PatientOnlyDeployment(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()

	for _, role := range []string{models.RoleDoctor, models.RoleAdmin} {
		user := seedUser(t, stores.Users, role)
		token, err := utils.GenerateJWT(user.ID.Hex())
		if err != nil {
			t.Fatalf("failed to generate token: %v", err)
		}
		rec := request(newGateRouter(stores.Users), token)
		if rec.Code != http.StatusForbidden {
			t.Errorf("role %s: expected 403, got %d", role, rec.Code)
		}
	}
}

func TestAuthenticate_ValidPatient(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	user := seedUser(t, stores.Users, models.RolePatient)
	r := newGateRouter(stores.Users)

	token, err := utils.GenerateJWT(user.ID.Hex())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	rec := request(r, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["email"] != user.Email {
		t.Errorf("wrong subject resolved: %v", body)
	}
}

func TestAuthorize(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	stores := memstore.New()
	user := seedUser(t, stores.Users, models.RolePatient)
	token, err := utils.GenerateJWT(user.ID.Hex())
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	allowed := newGateRouter(stores.Users, middleware.Authorize(models.RolePatient))
	if rec := request(allowed, token); rec.Code != http.StatusOK {
		t.Errorf("permitted role: expected 200, got %d", rec.Code)
	}

	denied := newGateRouter(stores.Users, middleware.Authorize(models.RoleAdmin))
	if rec := request(denied, token); rec.Code != http.StatusForbidden {
		t.Errorf("excluded role: expected 403, got %d", rec.Code)
	}
}
