// internal/app/store/mentees/menteestore.go
package menteestore

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/devweekends/clanverify/internal/app/system/normalize"
	"github.com/devweekends/clanverify/internal/app/system/paging"
	"github.com/devweekends/clanverify/internal/app/system/slug"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound       = errors.New("mentee not found")
	ErrDuplicateEmail = errors.New("a mentee with this email already exists")
	// ErrDiscordTaken is returned when marking a mentee verified would bind a
	// Discord account that is already bound to another verified mentee.
	ErrDiscordTaken = errors.New("discord account already verified with another mentee")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("mentees")}
}

// Create inserts a mentee. Email is lower-cased, the clan slug derived and
// the status defaults to unverified.
func (s *Store) Create(ctx context.Context, m models.Mentee) (models.Mentee, error) {
	now := time.Now().UTC()
	m.ID = primitive.NewObjectID()
	m.FullName = normalize.Name(m.FullName)
	m.FullNameCI = text.Fold(m.FullName)
	m.Email = normalize.Email(m.Email)
	m.AssignedClan = normalize.Label(m.AssignedClan)
	m.AssignedClanSlug = slug.Make(m.AssignedClan)
	if m.Status == "" {
		m.Status = models.MenteeUnverified
	}
	m.CreatedAt = now
	m.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Mentee{}, ErrDuplicateEmail
		}
		return models.Mentee{}, err
	}
	return m, nil
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Mentee, error) {
	var m models.Mentee
	if err := s.c.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Mentee{}, ErrNotFound
		}
		return models.Mentee{}, err
	}
	return m, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Mentee, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.Mentee, error) {
	return s.findOne(ctx, bson.M{"email": normalize.Email(email)})
}

// GetByDiscordID returns the most recently updated mentee bound to discordID.
func (s *Store) GetByDiscordID(ctx context.Context, discordID string) (models.Mentee, error) {
	var m models.Mentee
	opts := options.FindOne().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if err := s.c.FindOne(ctx, bson.M{"discord_id": discordID}, opts).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Mentee{}, ErrNotFound
		}
		return models.Mentee{}, err
	}
	return m, nil
}

// VerifiedByDiscordID returns the verified mentee bound to discordID, if any.
func (s *Store) VerifiedByDiscordID(ctx context.Context, discordID string) (models.Mentee, error) {
	return s.findOne(ctx, bson.M{"discord_id": discordID, "status": models.MenteeVerified})
}

// Update holds the admin-editable mentee fields. Nil fields are left alone.
type Update struct {
	FullName     *string
	Email        *string
	AssignedClan *string
	Status       *models.MenteeStatus
}

func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (models.Mentee, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.FullName != nil {
		name := normalize.Name(*u.FullName)
		set["full_name"] = name
		set["full_name_ci"] = text.Fold(name)
	}
	if u.Email != nil {
		set["email"] = normalize.Email(*u.Email)
	}
	if u.AssignedClan != nil {
		label := normalize.Label(*u.AssignedClan)
		set["assigned_clan"] = label
		set["assigned_clan_slug"] = slug.Make(label)
	}
	if u.Status != nil {
		set["status"] = *u.Status
	}

	var out models.Mentee
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&out)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Mentee{}, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			if u.Email != nil {
				return models.Mentee{}, ErrDuplicateEmail
			}
			return models.Mentee{}, ErrDiscordTaken
		}
		return models.Mentee{}, err
	}
	return out, nil
}

// Delete removes a mentee by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.c.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Filter narrows List. Search matches name, email, clan or Discord username.
type Filter struct {
	Search   string
	Status   models.MenteeStatus
	Page     int
	PageSize int
}

func (f Filter) query() bson.M {
	q := bson.M{}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"full_name": rx},
			bson.M{"email": rx},
			bson.M{"assigned_clan": rx},
			bson.M{"discord_username": rx},
		}
	}
	return q
}

// List returns one page of mentees, newest first, and the total match count.
func (s *Store) List(ctx context.Context, f Filter) ([]models.Mentee, int64, error) {
	size := f.PageSize
	if size <= 0 {
		size = paging.PageSize
	}
	q := f.query()

	total, err := s.c.CountDocuments(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(paging.Skip(f.Page, size)).
		SetLimit(int64(size))
	cur, err := s.c.Find(ctx, q, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	out := []models.Mentee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Stats counts mentees by status.
type Stats struct {
	Total           int64 `json:"total"`
	Verified        int64 `json:"verified"`
	ChallengeIssued int64 `json:"challenge_issued"`
	Unverified      int64 `json:"unverified"`
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return Stats{}, err
	}
	defer cur.Close(ctx)

	var st Stats
	for cur.Next(ctx) {
		var row struct {
			Status models.MenteeStatus `bson:"_id"`
			N      int64               `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return Stats{}, err
		}
		st.Total += row.N
		switch row.Status {
		case models.MenteeVerified:
			st.Verified = row.N
		case models.MenteeChallengeIssued:
			st.ChallengeIssued = row.N
		default:
			st.Unverified += row.N
		}
	}
	return st, cur.Err()
}

// MarkChallengeIssued binds discordID to the mentee and moves it to
// challenge_issued.
func (s *Store) MarkChallengeIssued(ctx context.Context, id primitive.ObjectID, discordID, username string) error {
	return s.set(ctx, id, bson.M{
		"discord_id":       discordID,
		"discord_username": username,
		"status":           models.MenteeChallengeIssued,
	})
}

// MarkVerified records a completed verification.
func (s *Store) MarkVerified(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	err := s.set(ctx, id, bson.M{
		"status":         models.MenteeVerified,
		"email_verified": true,
		"verified_at":    at.UTC(),
	})
	if wafflemongo.IsDup(err) {
		return ErrDiscordTaken
	}
	return err
}

func (s *Store) set(ctx context.Context, id primitive.ObjectID, set bson.M) error {
	set["updated_at"] = time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetChallenge returns a mentee that is still waiting on a code for
// discordID to unverified and clears the binding. Verified mentees are
// left untouched.
func (s *Store) ResetChallenge(ctx context.Context, discordID string) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"discord_id": discordID, "status": models.MenteeChallengeIssued},
		bson.M{"$set": bson.M{
			"status":           models.MenteeUnverified,
			"discord_id":       "",
			"discord_username": "",
			"updated_at":       time.Now().UTC(),
		}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// Unlink clears the Discord binding and verification state of a mentee
// and returns the mentee as it was before.
func (s *Store) Unlink(ctx context.Context, id primitive.ObjectID) (models.Mentee, error) {
	var before models.Mentee
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"discord_id":       "",
			"discord_username": "",
			"status":           models.MenteeUnverified,
			"email_verified":   false,
			"updated_at":       time.Now().UTC(),
		},
		"$unset": bson.M{"verified_at": ""},
	}, opts).Decode(&before)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Mentee{}, ErrNotFound
		}
		return models.Mentee{}, err
	}
	return before, nil
}

// ListVerifiedBySlug returns verified mentees of a clan that have a bound
// Discord account.
func (s *Store) ListVerifiedBySlug(ctx context.Context, clanSlug string) ([]models.Mentee, error) {
	cur, err := s.c.Find(ctx, bson.M{
		"assigned_clan_slug": clanSlug,
		"status":             models.MenteeVerified,
		"discord_id":         bson.M{"$nin": bson.A{"", nil}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Mentee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByClanLabel returns every mentee whose assigned clan is label,
// compared case-insensitively.
func (s *Store) ListByClanLabel(ctx context.Context, label string) ([]models.Mentee, error) {
	cur, err := s.c.Find(ctx, labelFilter(label))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Mentee{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// RelabelClan moves every mentee assigned to oldLabel to newLabel.
func (s *Store) RelabelClan(ctx context.Context, oldLabel, newLabel string) (int64, error) {
	newLabel = normalize.Label(newLabel)
	res, err := s.c.UpdateMany(ctx, labelFilter(oldLabel), bson.M{"$set": bson.M{
		"assigned_clan":      newLabel,
		"assigned_clan_slug": slug.Make(newLabel),
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func labelFilter(label string) bson.M {
	label = normalize.Label(label)
	return bson.M{"assigned_clan": primitive.Regex{
		Pattern: "^" + regexp.QuoteMeta(label) + "$",
		Options: "i",
	}}
}

// ImportRow is one resolved row of an imported roll.
type ImportRow struct {
	FullName string
	Email    string
	Clan     string
}

// UpsertResult reports what BulkUpsert did.
type UpsertResult struct {
	Inserted int64
	Updated  int64
}

// BulkUpsert writes rows keyed by email in one unordered bulk operation.
// Existing mentees get the new name and clan and are reset to unverified;
// their Discord binding is kept.
func (s *Store) BulkUpsert(ctx context.Context, rows []ImportRow) (UpsertResult, error) {
	if len(rows) == 0 {
		return UpsertResult{}, nil
	}
	now := time.Now().UTC()
	writes := make([]mongo.WriteModel, 0, len(rows))
	for _, r := range rows {
		name := normalize.Name(r.FullName)
		if name == "" {
			name = "Unknown"
		}
		label := normalize.Label(r.Clan)
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"email": normalize.Email(r.Email)}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"full_name":          name,
					"full_name_ci":       text.Fold(name),
					"assigned_clan":      label,
					"assigned_clan_slug": slug.Make(label),
					"status":             models.MenteeUnverified,
					"email_verified":     false,
					"updated_at":         now,
				},
				"$setOnInsert": bson.M{
					"_id":              primitive.NewObjectID(),
					"discord_id":       "",
					"discord_username": "",
					"created_at":       now,
				},
			}).
			SetUpsert(true))
	}

	res, err := s.c.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if res == nil {
		return UpsertResult{}, err
	}
	return UpsertResult{Inserted: res.UpsertedCount, Updated: res.MatchedCount}, err
}
