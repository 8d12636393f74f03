package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gandhirajj/doctor-appointment-api/internal/metrics"
	"github.com/gandhirajj/doctor-appointment-api/internal/middleware"
	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/response"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
)

// ListAppointments returns populated appointment views scoped by role:
// patients see their own bookings, doctors see their profile's bookings,
// admins see everything.
func (h *Handler) ListAppointments(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	filter := storage.AppointmentFilter{}
	switch subject.Role {
	case models.RolePatient:
		filter.Patient = subject.ID
	case models.RoleDoctor:
		profile, err := h.Stores.Doctors.FindByUser(c.Request.Context(), subject.ID)
		if errors.Is(err, storage.ErrNotFound) {
			response.List(c, http.StatusOK, []models.AppointmentView{}, 0,
				"No doctor profile found. Please create your doctor profile first.")
			return
		}
		if err != nil {
			h.serverError(c, "Failed to retrieve appointments", err)
			return
		}
		filter.Doctor = profile.ID
	case models.RoleAdmin:
		// unscoped
	}

	apts, err := h.Stores.Appointments.Find(c.Request.Context(), filter)
	if err != nil {
		h.serverError(c, "Failed to retrieve appointments", err)
		return
	}

	views, err := storage.PopulateAppointments(c.Request.Context(), h.Stores, apts)
	if err != nil {
		h.serverError(c, "Failed to retrieve appointments", err)
		return
	}

	response.List(c, http.StatusOK, views, len(views), "")
}

// GetAppointment returns one populated appointment. The caller must be
// its patient, the assigned doctor, or an admin.
func (h *Handler) GetAppointment(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
		return
	}

	apt, err := h.Stores.Appointments.FindByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
		return
	}
	if err != nil {
		h.serverError(c, "Failed to retrieve appointment", err)
		return
	}

	view, err := storage.PopulateAppointment(c.Request.Context(), h.Stores, apt)
	if err != nil {
		h.serverError(c, "Failed to retrieve appointment", err)
		return
	}

	if apt.Patient != subject.ID && view.Doctor.User.ID != subject.ID && subject.Role != models.RoleAdmin {
		response.Fail(c, http.StatusForbidden, "Not authorized to access this appointment")
		return
	}

	response.OK(c, http.StatusOK, view)
}

type CreateAppointmentRequest struct {
	Doctor string `json:"doctor" binding:"required"`
	Date   string `json:"date" binding:"required"`
	Time   string `json:"time" binding:"required"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
	Status string `json:"status"`
}

// CreateAppointment books a slot for the calling patient. The target
// doctor must exist and the (doctor, date, time) slot must not already
// hold a non-cancelled appointment.
func (h *Handler) CreateAppointment(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	if subject.Role != models.RolePatient {
		response.Fail(c, http.StatusForbidden, "Only patients can book appointments")
		return
	}

	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := req.Status
	if status == "" {
		status = models.StatusPending
	}
	if !models.ValidStatus(status) {
		response.Fail(c, http.StatusBadRequest, "Invalid status value: "+status)
		return
	}

	doctorID, err := primitive.ObjectIDFromHex(req.Doctor)
	if err != nil {
		response.Fail(c, http.StatusNotFound, "Doctor not found with id of "+req.Doctor)
		return
	}

	doctor, err := h.Stores.Doctors.FindByID(c.Request.Context(), doctorID)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, "Doctor not found with id of "+req.Doctor)
		return
	}
	if err != nil {
		h.serverError(c, "Failed to create appointment", err)
		return
	}

	// Read-then-write: two concurrent creates for the same slot can both
	// pass this check. Accepted for this deployment.
	_, err = h.Stores.Appointments.FindBookedSlot(c.Request.Context(), doctorID, req.Date, req.Time)
	if err == nil {
		response.Fail(c, http.StatusBadRequest, "This appointment slot is already booked")
		return
	}
	if !errors.Is(err, storage.ErrNotFound) {
		h.serverError(c, "Failed to create appointment", err)
		return
	}

	apt := &models.Appointment{
		Patient:   subject.ID,
		Doctor:    doctorID,
		Date:      req.Date,
		Time:      req.Time,
		Reason:    req.Reason,
		Notes:     req.Notes,
		Status:    status,
		Version:   0,
		CreatedAt: time.Now(),
	}
	if err := h.Stores.Appointments.Insert(c.Request.Context(), apt); err != nil {
		h.serverError(c, "Failed to create appointment", err)
		return
	}

	metrics.AppointmentsBooked.Inc()
	if owner, err := h.Stores.Users.FindByID(c.Request.Context(), doctor.User); err == nil {
		h.NotificationSvc.SendBookingSMS(subject, owner.Name, apt)
	}

	response.OK(c, http.StatusCreated, apt)
}

// UpdateAppointmentRequest uses pointer fields so an absent key and an
// empty value can be told apart. The patient reference is deliberately
// not updatable.
type UpdateAppointmentRequest struct {
	Doctor  *string `json:"doctor"`
	Date    *string `json:"date"`
	Time    *string `json:"time"`
	Reason  *string `json:"reason"`
	Notes   *string `json:"notes"`
	Status  *string `json:"status"`
	Version *int64  `json:"version"`
}

// doctorAllowedFields is the whitelist for doctor-role updates.
// "version" is the concurrency token, not a field, and is always allowed.
var doctorAllowedFields = map[string]bool{"status": true, "notes": true, "version": true}

// UpdateAppointment applies a partial update. The owning patient and
// admins may change any field; the assigned doctor only status and
// notes. A request naming any other field fails wholesale, with no
// partial write.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
		return
	}

	apt, err := h.Stores.Appointments.FindByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
		return
	}
	if err != nil {
		h.serverError(c, "Failed to update appointment", err)
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	var requested map[string]json.RawMessage
	if err := json.Unmarshal(body, &requested); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	var req UpdateAppointmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	// Resolve who the caller is relative to this appointment.
	if apt.Patient != subject.ID && subject.Role != models.RoleAdmin {
		if subject.Role != models.RoleDoctor {
			response.Fail(c, http.StatusForbidden, "Not authorized to update this appointment")
			return
		}

		profile, err := h.Stores.Doctors.FindByUser(c.Request.Context(), subject.ID)
		if errors.Is(err, storage.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "No doctor profile found. Please create your doctor profile first.")
			return
		}
		if err != nil {
			h.serverError(c, "Failed to update appointment", err)
			return
		}
		if profile.ID != apt.Doctor {
			response.Fail(c, http.StatusForbidden, "Not authorized to update this appointment")
			return
		}

		for field := range requested {
			if !doctorAllowedFields[field] {
				response.Fail(c, http.StatusBadRequest, "Doctors can only update: status, notes")
				return
			}
		}
	}

	if req.Version != nil && *req.Version != apt.Version {
		response.Fail(c, http.StatusConflict, "Appointment was modified by another request, please reload and retry")
		return
	}

	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			response.Fail(c, http.StatusBadRequest, "Invalid status value: "+*req.Status)
			return
		}
		if *req.Status != apt.Status && models.TerminalStatus(apt.Status) {
			response.Fail(c, http.StatusBadRequest, "Appointment is already "+apt.Status+" and cannot change status")
			return
		}
	}

	expectedVersion := apt.Version
	previousStatus := apt.Status

	if req.Doctor != nil {
		newDoctor, err := primitive.ObjectIDFromHex(*req.Doctor)
		if err != nil {
			response.Fail(c, http.StatusNotFound, "Doctor not found with id of "+*req.Doctor)
			return
		}
		if _, err := h.Stores.Doctors.FindByID(c.Request.Context(), newDoctor); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				response.Fail(c, http.StatusNotFound, "Doctor not found with id of "+*req.Doctor)
				return
			}
			h.serverError(c, "Failed to update appointment", err)
			return
		}
		apt.Doctor = newDoctor
	}
	if req.Date != nil {
		apt.Date = *req.Date
	}
	if req.Time != nil {
		apt.Time = *req.Time
	}
	if req.Reason != nil {
		apt.Reason = *req.Reason
	}
	if req.Notes != nil {
		apt.Notes = *req.Notes
	}
	if req.Status != nil {
		apt.Status = *req.Status
	}

	// Moving the appointment to another slot must not double-book it.
	if req.Doctor != nil || req.Date != nil || req.Time != nil {
		existing, err := h.Stores.Appointments.FindBookedSlot(c.Request.Context(), apt.Doctor, apt.Date, apt.Time)
		if err == nil && existing.ID != apt.ID {
			response.Fail(c, http.StatusBadRequest, "This appointment slot is already booked")
			return
		}
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.serverError(c, "Failed to update appointment", err)
			return
		}
	}

	if err := h.Stores.Appointments.Replace(c.Request.Context(), apt, expectedVersion); err != nil {
		if errors.Is(err, storage.ErrVersionMismatch) {
			response.Fail(c, http.StatusConflict, "Appointment was modified by another request, please reload and retry")
			return
		}
		if errors.Is(err, storage.ErrNotFound) {
			response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
			return
		}
		h.serverError(c, "Failed to update appointment", err)
		return
	}

	if apt.Status == models.StatusCancelled && previousStatus != models.StatusCancelled {
		metrics.AppointmentsCancelled.Inc()
		h.notifyCancellation(c, apt)
	}

	response.OK(c, http.StatusOK, apt)
}

// DeleteAppointment hard-deletes an appointment. Only the owning
// patient or an admin may do so.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
		return
	}

	apt, err := h.Stores.Appointments.FindByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, "Appointment not found with id of "+c.Param("id"))
		return
	}
	if err != nil {
		h.serverError(c, "Failed to delete appointment", err)
		return
	}

	if apt.Patient != subject.ID && subject.Role != models.RoleAdmin {
		response.Fail(c, http.StatusForbidden, "Not authorized to delete this appointment")
		return
	}

	if err := h.Stores.Appointments.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, storage.ErrNotFound) {
		h.serverError(c, "Failed to delete appointment", err)
		return
	}

	response.OK(c, http.StatusOK, gin.H{})
}

func (h *Handler) notifyCancellation(c *gin.Context, apt *models.Appointment) {
	patient, err := h.Stores.Users.FindByID(c.Request.Context(), apt.Patient)
	if err != nil {
		return
	}
	doctor, err := h.Stores.Doctors.FindByID(c.Request.Context(), apt.Doctor)
	if err != nil {
		return
	}
	owner, err := h.Stores.Users.FindByID(c.Request.Context(), doctor.User)
	if err != nil {
		return
	}
	h.NotificationSvc.SendCancellationSMS(patient, owner.Name, apt)
}
