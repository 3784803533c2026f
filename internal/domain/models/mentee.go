// internal/domain/models/mentee.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MenteeStatus is the verification state of a mentee record.
type MenteeStatus string

const (
	MenteeUnverified      MenteeStatus = "unverified"
	MenteeChallengeIssued MenteeStatus = "challenge_issued"
	MenteeVerified        MenteeStatus = "verified"
)

// Valid reports whether s is a known mentee status.
func (s MenteeStatus) Valid() bool {
	switch s {
	case MenteeUnverified, MenteeChallengeIssued, MenteeVerified:
		return true
	}
	return false
}

// Mentee is a pre-provisioned person who can bind a Discord account to
// their record by confirming their email.
//
// NOTE:
//   - Email is stored lower-cased and is unique.
//   - AssignedClan is free text from the imported roll; it may not equal
//     any Clan.Name exactly. AssignedClanSlug is always slug(AssignedClan).
//   - DiscordID is empty until a verification is started.
type Mentee struct {
	ID               primitive.ObjectID `bson:"_id" json:"id"`
	FullName         string             `bson:"full_name" json:"full_name"`
	FullNameCI       string             `bson:"full_name_ci" json:"-"`
	Email            string             `bson:"email" json:"email"`
	AssignedClan     string             `bson:"assigned_clan" json:"assigned_clan"`
	AssignedClanSlug string             `bson:"assigned_clan_slug" json:"assigned_clan_slug"`

	DiscordID       string `bson:"discord_id" json:"discord_id,omitempty"`
	DiscordUsername string `bson:"discord_username" json:"discord_username,omitempty"`

	Status        MenteeStatus `bson:"status" json:"status"`
	EmailVerified bool         `bson:"email_verified" json:"email_verified"`
	VerifiedAt    *time.Time   `bson:"verified_at,omitempty" json:"verified_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
