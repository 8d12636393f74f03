package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
)

// NotificationService sends best-effort SMS updates about appointments.
// Delivery failures are logged, never surfaced to the caller.
type NotificationService struct {
	log *logrus.Logger
}

func NewNotificationService(log *logrus.Logger) *NotificationService {
	return &NotificationService{log: log}
}

// SendBookingSMS notifies a patient that their appointment was booked.
func (s *NotificationService) SendBookingSMS(patient *models.User, doctorName string, apt *models.Appointment) {
	s.send(patient, fmt.Sprintf(
		"Appointment booked: Dr. %s on %s at %s. Status: %s.",
		doctorName, apt.Date, apt.Time, apt.Status,
	))
}

// SendCancellationSMS notifies a patient that their appointment was cancelled.
func (s *NotificationService) SendCancellationSMS(patient *models.User, doctorName string, apt *models.Appointment) {
	s.send(patient, fmt.Sprintf(
		"Appointment cancelled: Dr. %s on %s at %s.",
		doctorName, apt.Date, apt.Time,
	))
}

func (s *NotificationService) send(patient *models.User, message string) {
	if patient.Phone == "" {
		s.log.Debug("SMS not sent: patient has no phone number")
		return
	}
	// Fire and forget so the API response is not blocked.
	go s.sendSmsWithTextbelt(patient.Phone, message)
}

func (s *NotificationService) sendSmsWithTextbelt(phone, message string) {
	textbeltKey := os.Getenv("TEXTBELT_API_KEY")
	if textbeltKey == "" {
		s.log.WithField("phone", phone).Debug("TEXTBELT_API_KEY not set, skipping SMS")
		return
	}

	postBody, _ := json.Marshal(map[string]string{
		"phone":   phone,
		"message": message,
		"key":     textbeltKey,
	})

	resp, err := http.Post("https://textbelt.com/text", "application/json", bytes.NewBuffer(postBody))
	if err != nil {
		s.log.WithError(err).WithField("phone", phone).Warn("failed to send Textbelt request")
		return
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)

	if success, _ := result["success"].(bool); !success {
		errorMsg, _ := result["error"].(string)
		s.log.WithFields(logrus.Fields{"phone": phone, "reason": errorMsg}).Warn("Textbelt rejected SMS")
		return
	}
	s.log.WithField("phone", phone).Info("SMS sent")
}
