package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/gandhirajj/doctor-appointment-api/internal/response"
	"github.com/gandhirajj/doctor-appointment-api/internal/services"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
)

// Handler carries the dependencies every endpoint needs: the stores,
// the notification service and the logger.
type Handler struct {
	Stores          storage.Stores
	NotificationSvc *services.NotificationService
	Log             *logrus.Logger

	// Production suppresses raw error detail in 500 responses.
	Production bool
}

func NewHandler(stores storage.Stores, notificationSvc *services.NotificationService, log *logrus.Logger, production bool) *Handler {
	return &Handler{
		Stores:          stores,
		NotificationSvc: notificationSvc,
		Log:             log,
		Production:      production,
	}
}

func (h *Handler) serverError(c *gin.Context, message string, err error) {
	h.Log.WithError(err).WithField("request_id", c.GetString("request_id")).Error(message)
	response.ServerError(c, message, err, h.Production)
}
