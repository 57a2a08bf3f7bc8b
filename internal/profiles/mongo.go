package profiles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/jonesrussell/stock-publisher/internal/logger"
	"github.com/jonesrussell/stock-publisher/internal/models"
)

const mongoOpTimeout = 10 * time.Second

// MongoConfig holds MongoDB connection settings for the profile store.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore persists profiles in MongoDB, one document per (user, profile).
type MongoStore struct {
	coll   *mongo.Collection
	logger logger.Logger
}

type profileDocument struct {
	UserID  string         `bson:"user_id"`
	Profile models.Profile `bson:"profile"`
}

// Field paths into profileDocument as stored. profileIDPath must track the
// bson tag on models.Profile.ID.
const (
	userIDPath    = "user_id"
	profileIDPath = "profile.profile_id"
)

// NewMongoStore connects to MongoDB and returns a profile store. The caller
// owns the client's lifetime through Close.
func NewMongoStore(ctx context.Context, cfg MongoConfig, log logger.Logger) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoStore{
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
		logger: log,
	}, nil
}

// Close disconnects the underlying client.
func (m *MongoStore) Close(ctx context.Context) error {
	return m.coll.Database().Client().Disconnect(ctx)
}

// List implements Store.
func (m *MongoStore) List(ctx context.Context, userID string) ([]models.Profile, error) {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	cursor, err := m.coll.Find(opCtx, bson.M{userIDPath: userID})
	if err != nil {
		return nil, fmt.Errorf("list profiles for user %s: %w", userID, err)
	}
	defer cursor.Close(opCtx)

	var list []models.Profile
	for cursor.Next(opCtx) {
		var doc profileDocument
		if err := cursor.Decode(&doc); err != nil {
			m.logger.Error("could not decode profile document",
				logger.String("user_id", userID),
				logger.Error(err),
			)
			continue
		}
		list = append(list, doc.Profile)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles for user %s: %w", userID, err)
	}
	return list, nil
}

// Get implements Store.
func (m *MongoStore) Get(ctx context.Context, userID, profileID string) (*models.Profile, error) {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var doc profileDocument
	err := m.coll.FindOne(opCtx, bson.M{userIDPath: userID, profileIDPath: profileID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", profileID, err)
	}
	return &doc.Profile, nil
}

// Put implements Store. It upserts by (user, profile id).
func (m *MongoStore) Put(ctx context.Context, userID string, profile models.Profile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("invalid profile %q: %w", profile.ID, err)
	}

	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{userIDPath: userID, profileIDPath: profile.ID}
	doc := profileDocument{UserID: userID, Profile: profile}
	_, err := m.coll.ReplaceOne(opCtx, filter, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save profile %s: %w", profile.ID, err)
	}
	return nil
}

// Delete implements Store.
func (m *MongoStore) Delete(ctx context.Context, userID, profileID string) error {
	opCtx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := m.coll.DeleteOne(opCtx, bson.M{userIDPath: userID, profileIDPath: profileID})
	if err != nil {
		return fmt.Errorf("delete profile %s: %w", profileID, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
