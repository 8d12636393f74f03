package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gandhirajj/doctor-appointment-api/internal/handlers"
	"github.com/gandhirajj/doctor-appointment-api/internal/middleware"
	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/services"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// envelope mirrors the uniform response body for assertions.
type envelope struct {
	Success bool            `json:"success"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
	Count   *int            `json:"count"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func newTestHandler() (*handlers.Handler, storage.Stores) {
	log := logrus.New()
	log.SetOutput(io.Discard)
	stores := memstore.New()
	h := handlers.NewHandler(stores, services.NewNotificationService(log), log, false)
	return h, stores
}

// perform runs one request through a router with the given subject
// injected directly, bypassing the token gate. That is how the tests
// reach the doctor/admin service paths the patient-only deployment gate
// would otherwise block.
func perform(t *testing.T, h *handlers.Handler, subject *models.User, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	r := gin.New()
	if subject != nil {
		r.Use(func(c *gin.Context) {
			middleware.SetCurrentUser(c, subject)
		})
	}
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	r.GET("/api/auth/me", h.Me)
	r.GET("/api/auth/logout", h.Logout)
	r.GET("/api/doctors", h.ListDoctors)
	r.GET("/api/doctors/:id", h.GetDoctor)
	r.POST("/api/doctors", h.CreateDoctor)
	r.PUT("/api/doctors/:id", h.UpdateDoctor)
	r.POST("/api/doctors/:id/reviews", h.AddDoctorReview)
	r.GET("/api/appointments", h.ListAppointments)
	r.GET("/api/appointments/:id", h.GetAppointment)
	r.POST("/api/appointments", h.CreateAppointment)
	r.PUT("/api/appointments/:id", h.UpdateAppointment)
	r.DELETE("/api/appointments/:id", h.DeleteAppointment)

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("response is not an envelope: %v\nbody: %s", err, rec.Body.String())
	}
	return rec, env
}

func seedUser(t *testing.T, stores storage.Stores, name, email, role string) *models.User {
	t.Helper()
	user := &models.User{
		Name:      name,
		Email:     email,
		Password:  "not-a-real-hash",
		Role:      role,
		Phone:     "555-0100",
		Address:   "12 High Street",
		CreatedAt: time.Now(),
	}
	if err := stores.Users.Insert(nil, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedDoctor(t *testing.T, stores storage.Stores, owner *models.User) *models.Doctor {
	t.Helper()
	doctor := &models.Doctor{
		User:           owner.ID,
		Specialization: "Cardiology",
		Fees:           150,
		Timings:        []string{"09:00", "10:00", "11:00"},
		Reviews:        []models.Review{},
		CreatedAt:      time.Now(),
	}
	if err := stores.Doctors.Insert(nil, doctor); err != nil {
		t.Fatalf("failed to seed doctor: %v", err)
	}
	return doctor
}

func seedAppointment(t *testing.T, stores storage.Stores, patient *models.User, doctor *models.Doctor, date, timeSlot string) *models.Appointment {
	t.Helper()
	apt := &models.Appointment{
		Patient:   patient.ID,
		Doctor:    doctor.ID,
		Date:      date,
		Time:      timeSlot,
		Reason:    "checkup",
		Status:    models.StatusPending,
		CreatedAt: time.Now(),
	}
	if err := stores.Appointments.Insert(nil, apt); err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
	return apt
}

func objectIDField(t *testing.T, data json.RawMessage, field string) primitive.ObjectID {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("failed to decode data: %v", err)
	}
	hex, _ := m[field].(string)
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		t.Fatalf("field %q is not an object id: %v", field, err)
	}
	return id
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}
