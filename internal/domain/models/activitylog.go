// internal/domain/models/activitylog.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityLog records an administrative action taken through the admin API.
type ActivityLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action    string             `bson:"action" json:"action"`
	AdminID   string             `bson:"admin_id" json:"admin_id"`
	AdminName string             `bson:"admin_name" json:"admin_name"`
	TargetID  string             `bson:"target_id,omitempty" json:"target_id,omitempty"`
	Details   map[string]string  `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
