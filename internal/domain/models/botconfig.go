// internal/domain/models/botconfig.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BotConfig is the singleton document holding the bot's Discord wiring
// and the admin-editable message templates. It is created with defaults
// the first time it is read.
type BotConfig struct {
	ID  primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Key string             `bson:"key" json:"-"`

	RequestChannelID      string `bson:"request_channel_id" json:"request_channel_id"`
	RequestMessageID      string `bson:"request_message_id" json:"request_message_id"`
	LogChannelID          string `bson:"log_channel_id" json:"log_channel_id"`
	TempVoiceCategoryID   string `bson:"temp_voice_category_id" json:"temp_voice_category_id"`
	JoinToCreateChannelID string `bson:"join_to_create_channel_id" json:"join_to_create_channel_id"`
	MainRoleID            string `bson:"main_role_id" json:"main_role_id"`

	Embed  PanelEmbed  `bson:"embed" json:"embed"`
	Button PanelButton `bson:"button" json:"button"`

	EmailFromName string `bson:"email_from_name" json:"email_from_name"`
	EmailSubject  string `bson:"email_subject" json:"email_subject"`
	EmailTemplate string `bson:"email_template" json:"email_template"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PanelEmbed is the embed shown on the deployed verification message.
type PanelEmbed struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	Color       int    `bson:"color" json:"color"`
}

// PanelButton is the button attached to the deployed verification message.
type PanelButton struct {
	Label string `bson:"label" json:"label"`
	Emoji string `bson:"emoji" json:"emoji"`
}

const (
	DefaultPanelTitle       = "Verified Clans & Communities"
	DefaultPanelDescription = "Prove you belong to one of our partner universities, companies, or clans to get exclusive roles and channels.\n\nClick the button below to start."
	DefaultPanelColor       = 0x00ff00
	DefaultButtonLabel      = "Request Clan Role"
	DefaultButtonEmoji      = "🔒"
	DefaultEmailFromName    = "Dev Weekends"
	DefaultEmailSubject     = "Your Verification Code: {{code}}"
)

// DefaultEmailTemplate is the HTML body used for verification emails until
// an admin edits it. {{clan}} and {{code}} are replaced at send time.
const DefaultEmailTemplate = `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2 style="color: #5865F2;">Verification Code</h2>
    <p>You requested to join <strong>{{clan}}</strong>.</p>
    <p>Your verification code is:</p>
    <div style="background: #f0f0f0; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px; margin: 20px 0; border-radius: 8px;">{{code}}</div>
    <p>This code expires in <strong>10 minutes</strong>.</p>
    <p style="color: #666; font-size: 12px;">If you didn't request this, please ignore this email.</p>
</div>`

// BotConfigKey identifies the singleton BotConfig document.
const BotConfigKey = "global"

// DefaultBotConfig returns the configuration used when none has been saved.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Key: BotConfigKey,
		Embed: PanelEmbed{
			Title:       DefaultPanelTitle,
			Description: DefaultPanelDescription,
			Color:       DefaultPanelColor,
		},
		Button: PanelButton{
			Label: DefaultButtonLabel,
			Emoji: DefaultButtonEmoji,
		},
		EmailFromName: DefaultEmailFromName,
		EmailSubject:  DefaultEmailSubject,
		EmailTemplate: DefaultEmailTemplate,
	}
}
