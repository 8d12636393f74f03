package storage

import (
	"context"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
)

// PopulateAppointment resolves an appointment's doctor and patient
// references into a display view. The join is deliberately explicit:
// fetch the doctor profile, fetch its owning user, fetch the patient,
// then assemble. A dangling reference surfaces as ErrNotFound.
func PopulateAppointment(ctx context.Context, s Stores, apt *models.Appointment) (*models.AppointmentView, error) {
	doctor, err := s.Doctors.FindByID(ctx, apt.Doctor)
	if err != nil {
		return nil, err
	}
	owner, err := s.Users.FindByID(ctx, doctor.User)
	if err != nil {
		return nil, err
	}
	patient, err := s.Users.FindByID(ctx, apt.Patient)
	if err != nil {
		return nil, err
	}

	ownerSummary := owner.Summary()
	ownerSummary.Address = "" // doctor contact details only
	return &models.AppointmentView{
		ID: apt.ID,
		Doctor: models.DoctorSummary{
			ID:             doctor.ID,
			Specialization: doctor.Specialization,
			Fees:           doctor.Fees,
			User:           ownerSummary,
		},
		Patient:   patient.Summary(),
		Date:      apt.Date,
		Time:      apt.Time,
		Reason:    apt.Reason,
		Notes:     apt.Notes,
		Status:    apt.Status,
		Version:   apt.Version,
		CreatedAt: apt.CreatedAt,
	}, nil
}

// PopulateAppointments joins a whole result set, preserving order.
func PopulateAppointments(ctx context.Context, s Stores, apts []models.Appointment) ([]models.AppointmentView, error) {
	views := make([]models.AppointmentView, 0, len(apts))
	for i := range apts {
		view, err := PopulateAppointment(ctx, s, &apts[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}
