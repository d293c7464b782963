package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gomatch/app/models"
)

// PreferenceProfile is a stored legacy preference profile. This CRUD
// surface predates the matching engine and is kept for clients that still
// manage saved profiles server-side.
type PreferenceProfile struct {
	UserID      string                 `bson:"user_id" json:"userId"`
	Preferences models.UserPreferences `bson:"preferences" json:"preferences"`
	CreatedAt   time.Time              `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time              `bson:"updated_at" json:"updatedAt"`
}

// PreferenceProfileService handles preference profile storage in MongoDB
type PreferenceProfileService struct {
	collection *mongo.Collection
}

// NewPreferenceProfileService creates a new preference profile service
// instance. A nil collection disables persistence (profiles are not
// required for matching itself).
func NewPreferenceProfileService(collection *mongo.Collection) *PreferenceProfileService {
	return &PreferenceProfileService{collection: collection}
}

// List returns all stored profiles, newest first
func (s *PreferenceProfileService) List(ctx context.Context) ([]PreferenceProfile, error) {
	if s.collection == nil {
		return []PreferenceProfile{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list preference profiles: %w", err)
	}
	defer cursor.Close(ctx)

	profiles := []PreferenceProfile{}
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("failed to decode preference profiles: %w", err)
	}
	return profiles, nil
}

// Get returns the profile stored for the user
func (s *PreferenceProfileService) Get(ctx context.Context, userID string) (*PreferenceProfile, error) {
	if s.collection == nil {
		return nil, fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}

	var profile PreferenceProfile
	err := s.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: profile for user %s", ErrNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch preference profile: %w", err)
	}
	return &profile, nil
}

// Upsert stores or replaces the user's profile
func (s *PreferenceProfileService) Upsert(ctx context.Context, userID string, prefs models.UserPreferences) (*PreferenceProfile, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidRequest)
	}

	now := time.Now().UTC()
	profile := PreferenceProfile{
		UserID:      userID,
		Preferences: prefs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if s.collection == nil {
		return &profile, nil
	}

	update := bson.M{
		"$set": bson.M{
			"preferences": prefs,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.collection.UpdateOne(ctx, bson.M{"user_id": userID}, update, opts); err != nil {
		return nil, fmt.Errorf("failed to store preference profile: %w", err)
	}
	return &profile, nil
}
