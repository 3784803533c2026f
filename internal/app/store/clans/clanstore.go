// internal/app/store/clans/clanstore.go
package clanstore

import (
	"context"
	"errors"
	"strings"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/devweekends/clanverify/internal/app/system/slug"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound      = errors.New("clan not found")
	ErrDuplicateSlug = errors.New("a clan with this name already exists")
	ErrEmptyName     = errors.New("clan name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("clans")}
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Clan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Clan{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns every clan sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Clan, error) {
	return s.find(ctx, bson.M{})
}

// ListEnabled returns enabled clans sorted by name.
func (s *Store) ListEnabled(ctx context.Context) ([]models.Clan, error) {
	return s.find(ctx, bson.M{"enabled": true})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.Clan, error) {
	var c models.Clan
	if err := s.c.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Clan{}, ErrNotFound
		}
		return models.Clan{}, err
	}
	return c, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Clan, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetBySlug(ctx context.Context, sl string) (models.Clan, error) {
	return s.findOne(ctx, bson.M{"slug": strings.ToLower(strings.TrimSpace(sl))})
}

// GetByName matches the clan name case-insensitively.
func (s *Store) GetByName(ctx context.Context, name string) (models.Clan, error) {
	return s.findOne(ctx, bson.M{"name_ci": text.Fold(strings.TrimSpace(name))})
}

// Create inserts c with a slug derived from its name.
func (s *Store) Create(ctx context.Context, c models.Clan) (models.Clan, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return models.Clan{}, ErrEmptyName
	}
	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.NameCI = text.Fold(c.Name)
	c.Slug = slug.Make(c.Name)
	c.CreatedAt = now
	c.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Clan{}, ErrDuplicateSlug
		}
		return models.Clan{}, err
	}
	return c, nil
}

// Update holds the editable clan fields. Nil fields are left alone.
type Update struct {
	Name    *string
	RoleID  *string
	Enabled *bool
}

// Update applies u and returns the clan as it was before and after the
// change, so callers can cascade renames.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, u Update) (before, after models.Clan, err error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if name == "" {
			return models.Clan{}, models.Clan{}, ErrEmptyName
		}
		set["name"] = name
		set["name_ci"] = text.Fold(name)
		set["slug"] = slug.Make(name)
	}
	if u.RoleID != nil {
		set["role_id"] = strings.TrimSpace(*u.RoleID)
	}
	if u.Enabled != nil {
		set["enabled"] = *u.Enabled
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&before); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Clan{}, models.Clan{}, ErrNotFound
		}
		if wafflemongo.IsDup(err) {
			return models.Clan{}, models.Clan{}, ErrDuplicateSlug
		}
		return models.Clan{}, models.Clan{}, err
	}
	after, err = s.GetByID(ctx, id)
	return before, after, err
}

// Delete removes a clan by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// NamesByID returns id -> name for the given clans.
func (s *Store) NamesByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"name": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var row struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Name
	}
	return out, cur.Err()
}
