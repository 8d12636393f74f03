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

type DoctorStore struct {
	col *mongo.Collection
}

func (s *DoctorStore) Insert(ctx context.Context, doctor *models.Doctor) error {
	if doctor.ID.IsZero() {
		doctor.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, doctor)
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}

func (s *DoctorStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Doctor, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *DoctorStore) FindByUser(ctx context.Context, userID primitive.ObjectID) (*models.Doctor, error) {
	return s.findOne(ctx, bson.M{"user": userID})
}

func (s *DoctorStore) findOne(ctx context.Context, filter bson.M) (*models.Doctor, error) {
	var doctor models.Doctor
	err := s.col.FindOne(ctx, filter).Decode(&doctor)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doctor, nil
}

func (s *DoctorStore) FindAll(ctx context.Context) ([]models.Doctor, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := s.col.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var doctors []models.Doctor
	if err := cursor.All(ctx, &doctors); err != nil {
		return nil, err
	}
	if doctors == nil {
		doctors = make([]models.Doctor, 0)
	}
	return doctors, nil
}

func (s *DoctorStore) Update(ctx context.Context, doctor *models.Doctor) error {
	result, err := s.col.ReplaceOne(ctx, bson.M{"_id": doctor.ID}, doctor)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}
