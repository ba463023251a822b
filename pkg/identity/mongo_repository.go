package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const identitiesCollection = "identities"

// MongoRepository implements Repository on a MongoDB collection, one document per user
type MongoRepository struct {
	collection *mongo.Collection
	pending    pendingWrites
}

type mongoUser struct {
	ID         string              `bson:"_id"`
	Username   string              `bson:"username"`
	Active     bool                `bson:"active"`
	CreatedAt  time.Time           `bson:"created_at"`
	Attributes map[string][]string `bson:"attributes,omitempty"`
}

func (m mongoUser) toUser() (User, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return User{}, fmt.Errorf("invalid user id %q: %w", m.ID, err)
	}
	return User{ID: id, Username: m.Username, Active: m.Active, CreatedAt: m.CreatedAt}, nil
}

// ConnectMongo connects to MongoDB and verifies the connection
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(connectCtx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// NewMongoRepository creates a repository on the identities collection of db
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(identitiesCollection)}
}

// EnsureIndexes creates the unique username index
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create username index: %w", err)
	}
	return nil
}

// CreateUser inserts a new identity document
func (r *MongoRepository) CreateUser(ctx context.Context, username string, active bool) (User, error) {
	user := User{
		ID:        uuid.New(),
		Username:  username,
		Active:    active,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	_, err := r.collection.InsertOne(ctx, mongoUser{
		ID:        user.ID.String(),
		Username:  user.Username,
		Active:    user.Active,
		CreatedAt: user.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return User{}, ErrUserAlreadyExists
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Debug("User created", "username", username, "userID", user.ID)
	return user, nil
}

// FindUserByUsername looks up a user by username
func (r *MongoRepository) FindUserByUsername(ctx context.Context, username string) (User, error) {
	var doc mongoUser
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toUser()
}

// GetAttribute returns the committed attribute values
func (r *MongoRepository) GetAttribute(ctx context.Context, userID uuid.UUID, name string) ([]string, error) {
	var doc mongoUser
	opts := options.FindOne().SetProjection(bson.M{"attributes." + name: 1})
	err := r.collection.FindOne(ctx, bson.M{"_id": userID.String()}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attribute %s: %w", name, err)
	}
	return append([]string{}, doc.Attributes[name]...), nil
}

// SetAttribute stages attribute values until Commit
func (r *MongoRepository) SetAttribute(ctx context.Context, userID uuid.UUID, name string, values []string) error {
	r.pending.stage(userID, name, values)
	return nil
}

// Commit writes every staged attribute in a single document update
func (r *MongoRepository) Commit(ctx context.Context, userID uuid.UUID) error {
	staged := r.pending.take(userID)
	if len(staged) == 0 {
		return nil
	}

	set := bson.M{}
	for name, values := range staged {
		set["attributes."+name] = values
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": userID.String()}, bson.M{"$set": set})
	if err != nil {
		r.pending.restore(userID, staged)
		return fmt.Errorf("failed to commit attributes: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	slog.Debug("Attributes committed", "userID", userID, "attributes", sortedKeys(staged))
	return nil
}
