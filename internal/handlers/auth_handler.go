package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gandhirajj/doctor-appointment-api/internal/middleware"
	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/response"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
	"github.com/gandhirajj/doctor-appointment-api/internal/utils"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role"` // accepted but ignored
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Register creates a patient account. Any role supplied in the body is
// discarded: public registration always produces a patient.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		h.serverError(c, "Error registering user", err)
		return
	}

	user := &models.User{
		Name:      req.Name,
		Email:     req.Email,
		Password:  hashedPassword,
		Role:      models.RolePatient,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: time.Now(),
	}

	if err := h.Stores.Users.Insert(c.Request.Context(), user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			response.Fail(c, http.StatusBadRequest, "User already exists")
			return
		}
		h.serverError(c, "Error registering user", err)
		return
	}

	h.sendTokenResponse(c, http.StatusCreated, user)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Please provide an email and password")
		return
	}

	user, err := h.Stores.Users.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.Fail(c, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.serverError(c, "Error logging in", err)
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		response.Fail(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.sendTokenResponse(c, http.StatusOK, user)
}

// Me returns the authenticated subject.
func (h *Handler) Me(c *gin.Context) {
	subject, ok := middleware.CurrentUser(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "User not authenticated")
		return
	}
	response.OK(c, http.StatusOK, subject)
}

// Logout is a stateless acknowledgment; the client discards its token.
func (h *Handler) Logout(c *gin.Context) {
	response.Message(c, http.StatusOK, "User logged out successfully")
}

func (h *Handler) sendTokenResponse(c *gin.Context, status int, user *models.User) {
	token, err := utils.GenerateJWT(user.ID.Hex())
	if err != nil {
		h.serverError(c, "Error generating authentication token", err)
		return
	}
	response.Token(c, status, token, user)
}
