// internal/app/store/requests/requeststore.go
package requeststore

import (
	"context"
	"errors"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound = errors.New("verification request not found")
	// ErrOpenExists is returned when a Discord user already has a
	// challenge_issued request.
	ErrOpenExists = errors.New("an open verification request already exists")
)

// replaceable are the statuses superseded when a new challenge is issued.
var replaceable = []models.RequestStatus{
	models.RequestChallengeIssued,
	models.RequestFailed,
	models.RequestExpired,
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("verification_requests")}
}

// Create inserts r. The caller sets Status; timestamps are filled in here.
func (s *Store) Create(ctx context.Context, r models.VerificationRequest) (models.VerificationRequest, error) {
	now := time.Now().UTC()
	if r.ID.IsZero() {
		r.ID = primitive.NewObjectID()
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.VerificationRequest{}, ErrOpenExists
		}
		return models.VerificationRequest{}, err
	}
	return r, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.VerificationRequest, error) {
	var r models.VerificationRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VerificationRequest{}, ErrNotFound
		}
		return models.VerificationRequest{}, err
	}
	return r, nil
}

// FindOpen returns the challenge_issued request for discordID.
func (s *Store) FindOpen(ctx context.Context, discordID string) (models.VerificationRequest, error) {
	var r models.VerificationRequest
	err := s.c.FindOne(ctx, bson.M{
		"discord_id": discordID,
		"status":     models.RequestChallengeIssued,
	}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.VerificationRequest{}, ErrNotFound
		}
		return models.VerificationRequest{}, err
	}
	return r, nil
}

// DeleteReplaceable removes discordID's open, failed and expired requests.
func (s *Store) DeleteReplaceable(ctx context.Context, discordID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"discord_id": discordID,
		"status":     bson.M{"$in": replaceable},
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteOpen removes discordID's challenge_issued requests.
func (s *Store) DeleteOpen(ctx context.Context, discordID string) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"discord_id": discordID,
		"status":     models.RequestChallengeIssued,
	})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Save replaces the stored request with r and bumps UpdatedAt.
func (s *Store) Save(ctx context.Context, r *models.VerificationRequest) error {
	r.UpdatedAt = time.Now().UTC()
	res, err := s.c.ReplaceOne(ctx, bson.M{"_id": r.ID}, r)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByMentee removes every request for a mentee.
func (s *Store) DeleteByMentee(ctx context.Context, menteeID primitive.ObjectID) (int64, error) {
	return s.deleteMany(ctx, bson.M{"mentee_id": menteeID})
}

func (s *Store) DeleteByMentees(ctx context.Context, menteeIDs []primitive.ObjectID) (int64, error) {
	if len(menteeIDs) == 0 {
		return 0, nil
	}
	return s.deleteMany(ctx, bson.M{"mentee_id": bson.M{"$in": menteeIDs}})
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	return s.deleteMany(ctx, bson.M{})
}

func (s *Store) deleteMany(ctx context.Context, filter bson.M) (int64, error) {
	res, err := s.c.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ReassignClan points every request for one clan at another.
func (s *Store) ReassignClan(ctx context.Context, from, to primitive.ObjectID, roleID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx, bson.M{"clan_id": from}, bson.M{"$set": bson.M{
		"clan_id":    to,
		"role_id":    roleID,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// PurgeTerminalBefore deletes terminal requests last updated before cutoff.
func (s *Store) PurgeTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return s.deleteMany(ctx, bson.M{
		"status":     bson.M{"$in": models.TerminalStatuses},
		"updated_at": bson.M{"$lt": cutoff.UTC()},
	})
}

// Filter narrows List.
type Filter struct {
	Status models.RequestStatus
	Since  time.Time
	Limit  int64
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if !f.Since.IsZero() {
		q["created_at"] = bson.M{"$gte": f.Since.UTC()}
	}
	return q
}

// List returns requests newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]models.VerificationRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if f.Limit > 0 {
		opts.SetLimit(f.Limit)
	}
	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.VerificationRequest{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count counts requests matching f. Limit is ignored.
func (s *Store) Count(ctx context.Context, f Filter) (int64, error) {
	return s.c.CountDocuments(ctx, f.query())
}

// ClanCount is a verified-request count for one clan.
type ClanCount struct {
	ClanID primitive.ObjectID `bson:"_id" json:"clan_id"`
	Count  int64              `bson:"count" json:"count"`
}

// TopClans returns the clans with the most verified requests.
func (s *Store) TopClans(ctx context.Context, limit int64) ([]ClanCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"status": models.RequestVerified}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$clan_id"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []ClanCount{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
