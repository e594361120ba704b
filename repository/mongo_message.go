package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrispine/server/database"
	"github.com/agrispine/server/models"
	"github.com/agrispine/server/pkg"
)

// mongoOpTimeout, tek bir Mongo çağrısının üst süresi.
const mongoOpTimeout = 5 * time.Second

// mongoMessageRepo, MessageRepository'nin MongoDB implementasyonu.
//
// Her mesaj tek bir dokümandır; set alanları dizi olarak saklanır.
// Tek doküman güncellemeleri Mongo'da atomik olduğundan read-modify-write
// işlemleri (yıldız toggle, tepki değiştirme) aggregation pipeline update ile
// tek çağrıda yapılır.
type mongoMessageRepo struct {
	coll *mongo.Collection
}

// NewMongoMessageRepo, constructor: interface döner.
func NewMongoMessageRepo(db *mongo.Database) MessageRepository {
	return &mongoMessageRepo{coll: db.Collection(database.MessagesCollection)}
}

func (r *mongoMessageRepo) Insert(ctx context.Context, m *models.Message) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	// BSON date milisaniye hassasiyetindedir; dönen nesne saklananla aynı olsun.
	m.CreatedAt = m.CreatedAt.UTC().Truncate(time.Millisecond)
	m.Normalize()

	if _, err := r.coll.InsertOne(ctx, m); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *mongoMessageRepo) GetByID(ctx context.Context, id string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var m models.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message by id: %w", err)
	}
	m.Normalize()
	return &m, nil
}

func (r *mongoMessageRepo) ListVisible(ctx context.Context, village, viewerID string) ([]models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{"village": village, "deleted_by": bson.M{"$ne": viewerID}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	return r.find(ctx, filter, opts)
}

func (r *mongoMessageRepo) MarkReadBulk(ctx context.Context, village, viewerID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"village": village, "read_by": bson.M{"$ne": viewerID}},
		bson.M{"$addToSet": bson.M{"read_by": viewerID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoMessageRepo) SoftDeleteForEveryone(ctx context.Context, id, requesterID string) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var m models.Message
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sender_id": requesterID},
		tombstoneUpdate(),
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)

	if errors.Is(err, mongo.ErrNoDocuments) {
		// Ya mesaj yok ya da başkasına ait; hangisi olduğunu ayır.
		n, cerr := r.coll.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, fmt.Errorf("failed to check message existence: %w", cerr)
		}
		if n == 0 {
			return nil, pkg.ErrNotFound
		}
		return nil, fmt.Errorf("%w: only the sender can delete this message", pkg.ErrUnauthorized)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to delete message: %w", err)
	}

	m.Normalize()
	return &m, nil
}

func (r *mongoMessageRepo) SoftDeleteOwned(ctx context.Context, ids []string, requesterID string) ([]models.Message, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []models.Message{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	filter := bson.M{"_id": bson.M{"$in": ids}, "sender_id": requesterID}
	if _, err := r.coll.UpdateMany(ctx, filter, tombstoneUpdate()); err != nil {
		return nil, fmt.Errorf("failed to delete messages: %w", err)
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	return r.find(ctx, filter, opts)
}

func (r *mongoMessageRepo) DeleteForMe(ctx context.Context, ids []string, viewerID string) (int64, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "deleted_by": bson.M{"$ne": viewerID}},
		bson.M{"$addToSet": bson.M{"deleted_by": viewerID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to hide messages: %w", err)
	}
	return res.ModifiedCount, nil
}

// ToggleStar: $cond ile "varsa çıkar, yoksa ekle" tek pipeline update'inde yapılır.
func (r *mongoMessageRepo) ToggleStar(ctx context.Context, id, userID string) (*models.Message, error) {
	starred := bson.M{"$ifNull": bson.A{"$starred_by", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"starred_by": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{bson.M{"$literal": userID}, starred}},
				bson.M{"$filter": bson.M{
					"input": starred,
					"cond":  bson.M{"$ne": bson.A{"$$this", bson.M{"$literal": userID}}},
				}},
				bson.M{"$concatArrays": bson.A{starred, bson.A{bson.M{"$literal": userID}}}},
			}},
		}}},
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": id}, pipeline)
}

// SetReaction: kullanıcının eski tepkisi süzülür, yenisi sona eklenir.
// Tombstone'lu mesaja tepki eklenmez.
func (r *mongoMessageRepo) SetReaction(ctx context.Context, id, userID, emoji string) (*models.Message, error) {
	reactions := bson.M{"$ifNull": bson.A{"$reactions", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"reactions": bson.M{"$concatArrays": bson.A{
				bson.M{"$filter": bson.M{
					"input": reactions,
					"cond":  bson.M{"$ne": bson.A{"$$this.user_id", bson.M{"$literal": userID}}},
				}},
				bson.A{bson.M{
					"user_id": bson.M{"$literal": userID},
					"emoji":   bson.M{"$literal": emoji},
				}},
			}},
		}}},
	}

	m, err := r.findOneAndUpdate(ctx, bson.M{"_id": id, "is_deleted": bson.M{"$ne": true}}, pipeline)
	if errors.Is(err, pkg.ErrNotFound) {
		if _, gerr := r.GetByID(ctx, id); gerr == nil {
			return nil, fmt.Errorf("%w: cannot react to a deleted message", pkg.ErrBadRequest)
		}
	}
	return m, err
}

func (r *mongoMessageRepo) ClearReaction(ctx context.Context, id, userID string) (*models.Message, error) {
	return r.findOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$pull": bson.M{"reactions": bson.M{"user_id": userID}}},
	)
}

func (r *mongoMessageRepo) SweepUnstarred(ctx context.Context, village string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctx, bson.M{
		"village": village,
		"$or": bson.A{
			bson.M{"starred_by": bson.M{"$size": 0}},
			bson.M{"starred_by": bson.M{"$exists": false}},
			bson.M{"starred_by": nil},
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sweep unstarred messages: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoMessageRepo) findOneAndUpdate(ctx context.Context, filter bson.M, update any) (*models.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	var m models.Message
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	m.Normalize()
	return &m, nil
}

func (r *mongoMessageRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Message, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find messages: %w", err)
	}
	defer cur.Close(ctx)

	out := []models.Message{}
	for cur.Next(ctx) {
		var m models.Message
		if err := cur.Decode(&m); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		m.Normalize()
		out = append(out, m)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return out, nil
}

func tombstoneUpdate() bson.M {
	return bson.M{"$set": bson.M{
		"is_deleted": true,
		"text":       models.DeletedPlaceholder,
		"reactions":  bson.A{},
		"reply_text": "",
	}}
}
