package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamelilea/agrowtify-web/internal/models"
)

const (
	forecastCollection     = "weather_forecasts"
	DefaultForecastHistory = 10
	MaxForecastHistory     = 50
)

// ForecastLog keeps the forecasts users have looked at.
type ForecastLog interface {
	Record(ctx context.Context, snap models.WeatherSnapshot) error
	List(ctx context.Context, userID string, limit int64) ([]models.WeatherSnapshot, error)
}

type MongoForecastLog struct {
	col *mongo.Collection
}

func NewMongoForecastLog(db *mongo.Database) *MongoForecastLog {
	return &MongoForecastLog{col: db.Collection(forecastCollection)}
}

// EnsureIndexes configures the (user_id, created_at) index used by the history view.
// Called on startup from main after Mongo has connected.
func (l *MongoForecastLog) EnsureIndexes(ctx context.Context) error {
	_, err := l.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
		Options: options.Index().SetName("idx_user_created"),
	})
	return err
}

func (l *MongoForecastLog) Record(ctx context.Context, snap models.WeatherSnapshot) error {
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	_, err := l.col.InsertOne(ctx, snap)
	return err
}

// List returns the newest snapshots first.
func (l *MongoForecastLog) List(ctx context.Context, userID string, limit int64) ([]models.WeatherSnapshot, error) {
	limit = clampHistory(limit)
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cur, err := l.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	snaps := make([]models.WeatherSnapshot, 0, limit)
	if err := cur.All(ctx, &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

func clampHistory(limit int64) int64 {
	if limit <= 0 {
		return DefaultForecastHistory
	}
	if limit > MaxForecastHistory {
		return MaxForecastHistory
	}
	return limit
}
