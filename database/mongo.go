package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Mongo koleksiyon adları.
const (
	MessagesCollection = "messages"
	MembersCollection  = "village_members"
)

// Mongo, doküman deposu bağlantısını sarar.
type Mongo struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// ConnectMongo, MongoDB'ye bağlanır, ping atar ve gerekli index'leri kurar.
func ConnectMongo(ctx context.Context, uri, dbName string, log *zap.Logger) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	m := &Mongo{Client: client, DB: client.Database(dbName)}
	if err := m.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	log.Info("mongo connected", zap.String("database", dbName))
	return m, nil
}

// Close, istemci bağlantısını kapatır.
func (m *Mongo) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.DB.Collection(MessagesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "village", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "village", Value: 1}, {Key: "sender_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create message indexes: %w", err)
	}

	_, err = m.DB.Collection(MembersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "village", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create member indexes: %w", err)
	}
	return nil
}
