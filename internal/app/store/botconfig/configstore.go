// internal/app/store/botconfig/configstore.go
package configstore

import (
	"context"
	"time"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("bot_config")}
}

// Get returns the bot configuration, creating it with defaults on first read.
func (s *Store) Get(ctx context.Context) (models.BotConfig, error) {
	now := time.Now().UTC()
	def := models.DefaultBotConfig()
	def.CreatedAt = now
	def.UpdatedAt = now

	var cfg models.BotConfig
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"key": models.BotConfigKey},
		bson.M{"$setOnInsert": def},
		opts).Decode(&cfg)
	if err != nil && wafflemongo.IsDup(err) {
		// two first reads raced on the upsert; the other one won
		err = s.c.FindOne(ctx, bson.M{"key": models.BotConfigKey}).Decode(&cfg)
	}
	if err != nil {
		return models.BotConfig{}, err
	}
	return cfg, nil
}

// Update holds the admin-editable configuration. Nil fields are left alone.
type Update struct {
	RequestChannelID      *string
	LogChannelID          *string
	TempVoiceCategoryID   *string
	JoinToCreateChannelID *string
	MainRoleID            *string

	EmbedTitle       *string
	EmbedDescription *string
	EmbedColor       *int
	ButtonLabel      *string
	ButtonEmoji      *string

	EmailFromName *string
	EmailSubject  *string
	EmailTemplate *string
}

func (u Update) set() bson.M {
	set := bson.M{}
	put := func(key string, v *string) {
		if v != nil {
			set[key] = *v
		}
	}
	put("request_channel_id", u.RequestChannelID)
	put("log_channel_id", u.LogChannelID)
	put("temp_voice_category_id", u.TempVoiceCategoryID)
	put("join_to_create_channel_id", u.JoinToCreateChannelID)
	put("main_role_id", u.MainRoleID)
	put("embed.title", u.EmbedTitle)
	put("embed.description", u.EmbedDescription)
	put("button.label", u.ButtonLabel)
	put("button.emoji", u.ButtonEmoji)
	put("email_from_name", u.EmailFromName)
	put("email_subject", u.EmailSubject)
	put("email_template", u.EmailTemplate)
	if u.EmbedColor != nil {
		set["embed.color"] = *u.EmbedColor
	}
	return set
}

// Update applies u and returns the resulting configuration.
func (s *Store) Update(ctx context.Context, u Update) (models.BotConfig, error) {
	// make sure the singleton exists so the $set below has a target
	if _, err := s.Get(ctx); err != nil {
		return models.BotConfig{}, err
	}
	set := u.set()
	set["updated_at"] = time.Now().UTC()

	var cfg models.BotConfig
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"key": models.BotConfigKey},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&cfg)
	if err != nil {
		return models.BotConfig{}, err
	}
	return cfg, nil
}

// SetRequestMessage records the id of the deployed verification panel.
func (s *Store) SetRequestMessage(ctx context.Context, messageID string) error {
	if _, err := s.Get(ctx); err != nil {
		return err
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"key": models.BotConfigKey},
		bson.M{"$set": bson.M{"request_message_id": messageID, "updated_at": time.Now().UTC()}})
	return err
}
