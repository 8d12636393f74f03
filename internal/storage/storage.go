// Package storage defines the persistence contracts for users, doctor
// profiles and appointments, plus the read-time join that assembles
// populated appointment views. Engine adapters live in sub-packages.
package storage

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
)

var (
	// ErrNotFound is returned when the requested document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate key")
	// ErrVersionMismatch is returned when a conditional write loses the race.
	ErrVersionMismatch = errors.New("version mismatch")
)

type UserStore interface {
	Insert(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type DoctorStore interface {
	Insert(ctx context.Context, doctor *models.Doctor) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error)
	// FindByUser resolves the profile owned by a doctor-role user.
	FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error)
	FindAll(ctx context.Context) ([]models.Doctor, error)
	Update(ctx context.Context, doctor *models.Doctor) error
}

// AppointmentFilter scopes a list query. Zero-value fields are ignored.
type AppointmentFilter struct {
	Patient primitive.ObjectID
	Doctor  primitive.ObjectID
}

type AppointmentStore interface {
	Insert(ctx context.Context, apt *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	Find(ctx context.Context, filter AppointmentFilter) ([]models.Appointment, error)
	// FindBookedSlot returns the non-cancelled appointment occupying the
	// (doctor, date, time) slot, or ErrNotFound when the slot is free.
	FindBookedSlot(ctx context.Context, doctor primitive.ObjectID, date, time string) (*models.Appointment, error)
	// Replace overwrites the document whose version matches
	// expectedVersion, bumping the stored version by one. It returns
	// ErrVersionMismatch when a concurrent writer got there first.
	Replace(ctx context.Context, apt *models.Appointment, expectedVersion int64) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Stores bundles the three collections a request may touch.
type Stores struct {
	Users        UserStore
	Doctors      DoctorStore
	Appointments AppointmentStore
}
