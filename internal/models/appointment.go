package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

type Appointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Patient   primitive.ObjectID `bson:"patient" json:"patient"`
	Doctor    primitive.ObjectID `bson:"doctor" json:"doctor"`
	Date      string             `bson:"date" json:"date"`
	Time      string             `bson:"time" json:"time"`
	Reason    string             `bson:"reason" json:"reason"`
	Notes     string             `bson:"notes" json:"notes"`
	Status    string             `bson:"status" json:"status"`
	Version   int64              `bson:"version" json:"version"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// ValidStatus reports whether s is one of the enumerated appointment states.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// TerminalStatus reports whether s admits no further transitions.
func TerminalStatus(s string) bool {
	return s == StatusCancelled || s == StatusCompleted
}

// AppointmentView is an appointment with its doctor and patient
// references resolved for display.
type AppointmentView struct {
	ID        primitive.ObjectID `json:"id"`
	Doctor    DoctorSummary      `json:"doctor"`
	Patient   UserSummary        `json:"patient"`
	Date      string             `json:"date"`
	Time      string             `json:"time"`
	Reason    string             `json:"reason"`
	Notes     string             `json:"notes"`
	Status    string             `json:"status"`
	Version   int64              `json:"version"`
	CreatedAt time.Time          `json:"createdAt"`
}
