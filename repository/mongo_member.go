package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/agrispine/server/database"
	"github.com/agrispine/server/models"
)

type mongoMemberRepo struct {
	coll *mongo.Collection
}

// NewMongoMemberRepo, constructor: interface döner.
func NewMongoMemberRepo(db *mongo.Database) MemberRepository {
	return &mongoMemberRepo{coll: db.Collection(database.MembersCollection)}
}

func (r *mongoMemberRepo) Upsert(ctx context.Context, member *models.VillageMember) error {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	now := time.Now().UTC()
	if member.JoinedAt.IsZero() {
		member.JoinedAt = now
	}
	if member.LastSeenAt.IsZero() {
		member.LastSeenAt = now
	}

	set := bson.M{"last_seen_at": member.LastSeenAt}
	onInsert := bson.M{"joined_at": member.JoinedAt}
	if member.Name != "" {
		set["name"] = member.Name
	} else {
		onInsert["name"] = ""
	}

	_, err := r.coll.UpdateOne(ctx,
		bson.M{"village": member.Village, "user_id": member.UserID},
		bson.M{"$set": set, "$setOnInsert": onInsert},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert village member: %w", err)
	}
	return nil
}

func (r *mongoMemberRepo) ListByVillage(ctx context.Context, village string) ([]models.VillageMember, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoOpTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "user_id", Value: 1}})
	cur, err := r.coll.Find(ctx, bson.M{"village": village}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list village members: %w", err)
	}
	defer cur.Close(ctx)

	members := []models.VillageMember{}
	if err := cur.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("failed to decode village members: %w", err)
	}
	return members, nil
}
