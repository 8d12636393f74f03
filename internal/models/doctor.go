package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Review struct {
	Patient   primitive.ObjectID `bson:"patient" json:"patient"`
	Rating    int                `bson:"rating" json:"rating"`
	Comment   string             `bson:"comment" json:"comment"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Doctor is the professional profile owned by exactly one doctor-role user.
type Doctor struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User           primitive.ObjectID `bson:"user" json:"user"`
	Specialization string             `bson:"specialization" json:"specialization"`
	Fees           float64            `bson:"fees" json:"fees"`
	Timings        []string           `bson:"timings" json:"timings"`
	Reviews        []Review           `bson:"reviews" json:"reviews"`
	AverageRating  float64            `bson:"averageRating" json:"averageRating"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
}

// DoctorView is a full profile with the owning user's reference
// resolved into contact details.
type DoctorView struct {
	ID             primitive.ObjectID `json:"id"`
	User           UserSummary        `json:"user"`
	Specialization string             `json:"specialization"`
	Fees           float64            `json:"fees"`
	Timings        []string           `json:"timings"`
	Reviews        []Review           `json:"reviews"`
	AverageRating  float64            `json:"averageRating"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// DoctorSummary embeds the owning user's contact details for display.
type DoctorSummary struct {
	ID             primitive.ObjectID `json:"id"`
	Specialization string             `json:"specialization"`
	Fees           float64            `json:"fees"`
	User           UserSummary        `json:"user"`
}
