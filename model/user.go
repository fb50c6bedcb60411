package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity document owned by the user repository. Password and
// RefreshToken are never serialized into responses; public reads also exclude
// them at the query projection level.
type User struct {
	ID           primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Username     string             `json:"username" bson:"username"`
	Email        string             `json:"email" bson:"email"`
	FullName     string             `json:"fullName" bson:"fullName"`
	Avatar       string             `json:"avatar" bson:"avatar"`
	CoverImage   string             `json:"coverImage,omitempty" bson:"coverImage,omitempty"`
	Password     string             `json:"-" bson:"password"`
	RefreshToken string             `json:"-" bson:"refreshToken,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"createdAt"`
}
