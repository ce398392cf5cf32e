package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
)

type MongoNotificationRepo struct {
	notifications *mongo.Collection
}

func NewMongoNotificationRepo(db *mongo.Database) *MongoNotificationRepo {
	return &MongoNotificationRepo{notifications: db.Collection("notifications")}
}

func (m *MongoNotificationRepo) PurgeRead(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := m.notifications.DeleteMany(ctx, bson.M{
		"status":     "read",
		"created_at": bson.M{"$lt": olderThan},
	})
	if err != nil {
		return 0, customErrors.WrapInternal(err, "PurgeRead")
	}
	return res.DeletedCount, nil
}
