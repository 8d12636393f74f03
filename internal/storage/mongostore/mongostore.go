// Package mongostore implements the storage contracts on MongoDB.
package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
)

// New wires the three collection adapters onto one database handle.
func New(db *mongo.Database) storage.Stores {
	return storage.Stores{
		Users:        &UserStore{col: db.Collection("users")},
		Doctors:      &DoctorStore{col: db.Collection("doctors")},
		Appointments: &AppointmentStore{col: db.Collection("appointments")},
	}
}

// EnsureIndexes creates the unique indexes the data model relies on:
// one account per email, one doctor profile per user.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}
	_, err = db.Collection("doctors").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
