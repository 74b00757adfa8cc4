package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adiallo/spendbot/internal/domain/models"
)

// ErrUserNotFound indicates a directory update targeted a user that does not
// exist. Callers decide whether to create the user first.
var ErrUserNotFound = errors.New("user not found in directory")

// Directory defines the interface for user storage.
type Directory interface {
	FindByTelegramID(ctx context.Context, telegramID int64) (*models.UserRecord, error)
	Upsert(ctx context.Context, user models.UserRecord) (*models.UserRecord, error)
	SetSpreadsheetID(ctx context.Context, telegramID int64, spreadsheetID string) (*models.UserRecord, error)
	ListAuthenticated(ctx context.Context) ([]models.UserRecord, error)
}

// MongoDBDirectory implements the Directory interface for MongoDB.
type MongoDBDirectory struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBDirectory creates a new MongoDB-backed user directory.
func NewMongoDBDirectory(ctx context.Context, uri string, dbName string) (*MongoDBDirectory, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBDirectory{
		client:   client,
		dbName:   dbName,
		collName: "users",
	}, nil
}

func (d *MongoDBDirectory) collection() *mongo.Collection {
	return d.client.Database(d.dbName).Collection(d.collName)
}

// FindByTelegramID looks a user up by their Telegram identity. A missing user
// is reported as (nil, nil), not as an error.
func (d *MongoDBDirectory) FindByTelegramID(ctx context.Context, telegramID int64) (*models.UserRecord, error) {
	var user models.UserRecord
	err := d.collection().FindOne(ctx, bson.M{"telegram_id": telegramID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user %d: %w", telegramID, err)
	}
	return &user, nil
}

// Upsert inserts the user or updates the existing record for the same
// Telegram identity. CreatedAt is preserved on updates.
func (d *MongoDBDirectory) Upsert(ctx context.Context, user models.UserRecord) (*models.UserRecord, error) {
	now := time.Now().UTC()
	user.UpdatedAt = now

	update := bson.M{
		"$set": bson.M{
			"credentials":   user.Credentials,
			"authenticated": user.Authenticated,
			"updated_at":    user.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"telegram_id": user.TelegramID,
			"created_at":  now,
		},
	}
	if user.SpreadsheetID != "" {
		update["$set"].(bson.M)["spreadsheet_id"] = user.SpreadsheetID
	}

	opts := options.Update().SetUpsert(true)
	if _, err := d.collection().UpdateOne(ctx, bson.M{"telegram_id": user.TelegramID}, update, opts); err != nil {
		return nil, fmt.Errorf("failed to upsert user %d: %w", user.TelegramID, err)
	}

	return d.FindByTelegramID(ctx, user.TelegramID)
}

// SetSpreadsheetID attaches a ledger spreadsheet to an existing user. Returns
// ErrUserNotFound when no record matches the Telegram identity.
func (d *MongoDBDirectory) SetSpreadsheetID(ctx context.Context, telegramID int64, spreadsheetID string) (*models.UserRecord, error) {
	update := bson.M{"$set": bson.M{
		"spreadsheet_id": spreadsheetID,
		"updated_at":     time.Now().UTC(),
	}}

	result, err := d.collection().UpdateOne(ctx, bson.M{"telegram_id": telegramID}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to set spreadsheet for user %d: %w", telegramID, err)
	}
	if result.MatchedCount == 0 {
		return nil, ErrUserNotFound
	}

	return d.FindByTelegramID(ctx, telegramID)
}

// ListAuthenticated returns every user that completed the authorization flow
// and has a spreadsheet attached.
func (d *MongoDBDirectory) ListAuthenticated(ctx context.Context) ([]models.UserRecord, error) {
	filter := bson.M{
		"authenticated":  true,
		"spreadsheet_id": bson.M{"$exists": true, "$ne": ""},
	}

	cursor, err := d.collection().Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list authenticated users: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var users []models.UserRecord
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("failed to decode user records: %w", err)
	}
	return users, nil
}

// Close closes the MongoDB connection.
func (d *MongoDBDirectory) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
