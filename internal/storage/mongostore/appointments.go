package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
)

type AppointmentStore struct {
	col *mongo.Collection
}

func (s *AppointmentStore) Insert(ctx context.Context, apt *models.Appointment) error {
	if apt.ID.IsZero() {
		apt.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, apt)
	return err
}

func (s *AppointmentStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var apt models.Appointment
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&apt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

func (s *AppointmentStore) Find(ctx context.Context, filter storage.AppointmentFilter) ([]models.Appointment, error) {
	query := bson.M{}
	if !filter.Patient.IsZero() {
		query["patient"] = filter.Patient
	}
	if !filter.Doctor.IsZero() {
		query["doctor"] = filter.Doctor
	}

	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.col.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var apts []models.Appointment
	if err := cursor.All(ctx, &apts); err != nil {
		return nil, err
	}
	if apts == nil {
		apts = make([]models.Appointment, 0)
	}
	return apts, nil
}

func (s *AppointmentStore) FindBookedSlot(ctx context.Context, doctor primitive.ObjectID, date, timeSlot string) (*models.Appointment, error) {
	var apt models.Appointment
	err := s.col.FindOne(ctx, bson.M{
		"doctor": doctor,
		"date":   date,
		"time":   timeSlot,
		"status": bson.M{"$ne": models.StatusCancelled},
	}).Decode(&apt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &apt, nil
}

func (s *AppointmentStore) Replace(ctx context.Context, apt *models.Appointment, expectedVersion int64) error {
	apt.Version = expectedVersion + 1
	result, err := s.col.ReplaceOne(ctx, bson.M{"_id": apt.ID, "version": expectedVersion}, apt)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		// Either the document is gone or a concurrent writer bumped the
		// version first; look again to tell the two apart.
		if _, findErr := s.FindByID(ctx, apt.ID); errors.Is(findErr, storage.ErrNotFound) {
			return storage.ErrNotFound
		}
		return storage.ErrVersionMismatch
	}
	return nil
}

func (s *AppointmentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
