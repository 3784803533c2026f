// internal/domain/models/clan.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clan is a canonical group that mentees are assigned to.
//
// Slug is derived from Name and recomputed whenever Name changes; it is
// never edited directly. RoleID is the chat-platform role granted to
// verified members of the clan.
type Clan struct {
	ID      primitive.ObjectID `bson:"_id" json:"id"`
	Name    string             `bson:"name" json:"name"`
	NameCI  string             `bson:"name_ci" json:"-"`
	Slug    string             `bson:"slug" json:"slug"`
	RoleID  string             `bson:"role_id" json:"role_id"`
	Enabled bool               `bson:"enabled" json:"enabled"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
