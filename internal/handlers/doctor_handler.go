package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gandhirajj/doctor-appointment-api/internal/middleware"
	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/response"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
)

// ListDoctors is public: patients browse profiles before booking.
func (h *Handler) ListDoctors(c *gin.Context) {
	doctors, err := h.Stores.Doctors.FindAll(c.Request.Context())
	if err != nil {
		h.serverError(c, "Failed to retrieve doctors", err)
		return
	}

	views := make([]models.DoctorView, 0, len(doctors))
	for i := range doctors {
		view, err := h.doctorView(c, &doctors[i])
		if err != nil {
			h.serverError(c, "Failed to retrieve doctors", err)
			return
		}
		views = append(views, *view)
	}

	response.List(c, http.StatusOK, views, len(views), "")
}

func (h *Handler) GetDoctor(c *gin.Context) {
	doctor, ok := h.findDoctor(c)
	if !ok {
		return
	}
	view, err := h.doctorView(c, doctor)
	if err != nil {
		h.serverError(c, "Failed to retrieve doctor", err)
		return
	}
	response.OK(c, http.StatusOK, view)
}

type CreateDoctorRequest struct {
	Specialization string   `json:"specialization" binding:"required"`
	Fees           float64  `json:"fees" binding:"required"`
	Timings        []string `json:"timings" binding:"required"`
}

// CreateDoctor creates the calling doctor's profile. One profile per
// user.
func (h *Handler) CreateDoctor(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req CreateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	doctor := &models.Doctor{
		User:           subject.ID,
		Specialization: req.Specialization,
		Fees:           req.Fees,
		Timings:        req.Timings,
		Reviews:        []models.Review{},
		CreatedAt:      time.Now(),
	}
	if err := h.Stores.Doctors.Insert(c.Request.Context(), doctor); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			response.Fail(c, http.StatusBadRequest, "Doctor profile already exists for this user")
			return
		}
		h.serverError(c, "Failed to create doctor profile", err)
		return
	}

	response.OK(c, http.StatusCreated, doctor)
}

type UpdateDoctorRequest struct {
	Specialization *string   `json:"specialization"`
	Fees           *float64  `json:"fees"`
	Timings        *[]string `json:"timings"`
}

// UpdateDoctor lets the owning doctor or an admin edit a profile.
func (h *Handler) UpdateDoctor(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	doctor, found := h.findDoctor(c)
	if !found {
		return
	}

	if doctor.User != subject.ID && subject.Role != models.RoleAdmin {
		response.Fail(c, http.StatusForbidden, "Not authorized to update this doctor profile")
		return
	}

	var req UpdateDoctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.Fees != nil {
		doctor.Fees = *req.Fees
	}
	if req.Timings != nil {
		doctor.Timings = *req.Timings
	}

	if err := h.Stores.Doctors.Update(c.Request.Context(), doctor); err != nil {
		h.serverError(c, "Failed to update doctor profile", err)
		return
	}

	response.OK(c, http.StatusOK, doctor)
}

type AddReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// AddDoctorReview appends a patient review and recomputes the average
// rating.
func (h *Handler) AddDoctorReview(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}

	doctor, found := h.findDoctor(c)
	if !found {
		return
	}

	var req AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	doctor.Reviews = append(doctor.Reviews, models.Review{
		Patient:   subject.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	})
	var total int
	for _, r := range doctor.Reviews {
		total += r.Rating
	}
	doctor.AverageRating = float64(total) / float64(len(doctor.Reviews))

	if err := h.Stores.Doctors.Update(c.Request.Context(), doctor); err != nil {
		h.serverError(c, "Failed to add review", err)
		return
	}

	response.OK(c, http.StatusCreated, doctor)
}

func (h *Handler) findDoctor(c *gin.Context) (*models.Doctor, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusNotFound, "Doctor not found with id of "+c.Param("id"))
		return nil, false
	}
	doctor, err := h.Stores.Doctors.FindByID(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		response.Fail(c, http.StatusNotFound, "Doctor not found with id of "+c.Param("id"))
		return nil, false
	}
	if err != nil {
		h.serverError(c, "Failed to retrieve doctor", err)
		return nil, false
	}
	return doctor, true
}

func (h *Handler) doctorView(c *gin.Context, doctor *models.Doctor) (*models.DoctorView, error) {
	owner, err := h.Stores.Users.FindByID(c.Request.Context(), doctor.User)
	if err != nil {
		return nil, err
	}
	summary := owner.Summary()
	summary.Address = ""
	reviews := doctor.Reviews
	if reviews == nil {
		reviews = []models.Review{}
	}
	return &models.DoctorView{
		ID:             doctor.ID,
		User:           summary,
		Specialization: doctor.Specialization,
		Fees:           doctor.Fees,
		Timings:        doctor.Timings,
		Reviews:        reviews,
		AverageRating:  doctor.AverageRating,
		CreatedAt:      doctor.CreatedAt,
	}, nil
}
