package repository

import (
	"context"
	"errors"
	"go-user-api/logger"
	"go-user-api/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when no user matches the query.
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate user identity")
)

// IUserRepository defines the contract for user document operations. Every
// write is atomic at document granularity, which is what serializes racing
// session rotations for a single user.
type IUserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindPublicByID(ctx context.Context, id string) (*model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error)
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	UnsetField(ctx context.Context, id string, field string) error
}

// UserRepository implements IUserRepository over a MongoDB collection.
type UserRepository struct {
	collection *mongo.Collection
}

func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{collection: database.Collection("users")}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()

	if _, err := r.collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		logger.Log.WithError(err).Error("Failed to insert user document")
		return err
	}
	return nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	return r.findByID(ctx, id, nil)
}

// FindPublicByID loads a user with the password and refresh token fields
// excluded at the projection level.
func (r *UserRepository) FindPublicByID(ctx context.Context, id string) (*model.User, error) {
	projection := bson.M{"password": 0, "refreshToken": 0}
	return r.findByID(ctx, id, projection)
}

func (r *UserRepository) findByID(ctx context.Context, id string, projection bson.M) (*model.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	user := &model.User{}
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).WithField("user_id", id).Error("Failed to find user by id")
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*model.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}

	user := &model.User{}
	err := r.collection.FindOne(ctx, filter).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		logger.Log.WithError(err).Error("Failed to find user by username or email")
		return nil, err
	}
	return user, nil
}

// UpdateFields applies a single $set to the user document.
func (r *UserRepository) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": fields})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		logger.Log.WithError(err).WithField("user_id", id).Error("Failed to update user fields")
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UnsetField removes a field from the user document entirely.
func (r *UserRepository) UnsetField(ctx context.Context, id string, field string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$unset": bson.M{field: 1}})
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", id).Error("Failed to unset user field")
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
