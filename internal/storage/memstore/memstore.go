// Package memstore is an in-memory implementation of the storage
// contracts. Handler and middleware tests run against it so no Mongo
// instance is needed.
package memstore

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
)

func New() storage.Stores {
	return storage.Stores{
		Users:        &UserStore{users: map[primitive.ObjectID]models.User{}},
		Doctors:      &DoctorStore{doctors: map[primitive.ObjectID]models.Doctor{}},
		Appointments: &AppointmentStore{apts: map[primitive.ObjectID]models.Appointment{}},
	}
}

type UserStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

func (s *UserStore) Insert(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return storage.ErrDuplicate
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *UserStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &user, nil
}

func (s *UserStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, storage.ErrNotFound
}

type DoctorStore struct {
	mu      sync.RWMutex
	doctors map[primitive.ObjectID]models.Doctor
}

func (s *DoctorStore) Insert(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doctor.ID.IsZero() {
		doctor.ID = primitive.NewObjectID()
	}
	for _, d := range s.doctors {
		if d.User == doctor.User {
			return storage.ErrDuplicate
		}
	}
	s.doctors[doctor.ID] = *doctor
	return nil
}

func (s *DoctorStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doctor, ok := s.doctors[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &doctor, nil
}

func (s *DoctorStore) FindByUser(_ context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.doctors {
		if d.User == userID {
			doctor := d
			return &doctor, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *DoctorStore) FindAll(_ context.Context) ([]models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doctors := make([]models.Doctor, 0, len(s.doctors))
	for _, d := range s.doctors {
		doctors = append(doctors, d)
	}
	sort.Slice(doctors, func(i, j int) bool {
		return doctors[i].CreatedAt.Before(doctors[j].CreatedAt)
	})
	return doctors, nil
}

func (s *DoctorStore) Update(_ context.Context, doctor *models.Doctor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.doctors[doctor.ID]; !ok {
		return storage.ErrNotFound
	}
	s.doctors[doctor.ID] = *doctor
	return nil
}

type AppointmentStore struct {
	mu   sync.RWMutex
	apts map[primitive.ObjectID]models.Appointment
}

func (s *AppointmentStore) Insert(_ context.Context, apt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	s.apts[apt.ID] = *apt
	return nil
}

func (s *AppointmentStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apt, ok := s.apts[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &apt, nil
}

func (s *AppointmentStore) Find(_ context.Context, filter storage.AppointmentFilter) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apts := make([]models.Appointment, 0)
	for _, a := range s.apts {
		if !filter.Patient.IsZero() && a.Patient != filter.Patient {
			continue
		}
		if !filter.Doctor.IsZero() && a.Doctor != filter.Doctor {
			continue
		}
		apts = append(apts, a)
	}
	sort.Slice(apts, func(i, j int) bool {
		return apts[i].CreatedAt.After(apts[j].CreatedAt)
	})
	return apts, nil
}

func (s *AppointmentStore) FindBookedSlot(_ context.Context, doctor primitive.ObjectID, date, timeSlot string) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.apts {
		if a.Doctor == doctor && a.Date == date && a.Time == timeSlot && a.Status != models.StatusCancelled {
			apt := a
			return &apt, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *AppointmentStore) Replace(_ context.Context, apt *models.Appointment, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.apts[apt.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if current.Version != expectedVersion {
		return storage.ErrVersionMismatch
	}
	apt.Version = expectedVersion + 1
	s.apts[apt.ID] = *apt
	return nil
}

func (s *AppointmentStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apts[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.apts, id)
	return nil
}
