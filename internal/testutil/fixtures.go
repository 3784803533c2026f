// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/devweekends/clanverify/internal/app/system/normalize"
	"github.com/devweekends/clanverify/internal/app/system/slug"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateClan creates an enabled clan with the given name and role.
func (f *Fixtures) CreateClan(ctx context.Context, name, roleID string) models.Clan {
	f.t.Helper()

	now := time.Now().UTC()
	c := models.Clan{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Slug:      slug.Make(name),
		RoleID:    roleID,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("clans").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test clan: %v", err)
	}
	return c
}

// CreateDisabledClan creates a clan that is hidden from verification.
func (f *Fixtures) CreateDisabledClan(ctx context.Context, name, roleID string) models.Clan {
	f.t.Helper()

	c := f.CreateClan(ctx, name, roleID)
	if _, err := f.db.Collection("clans").UpdateByID(ctx, c.ID, bson.M{"$set": bson.M{"enabled": false}}); err != nil {
		f.t.Fatalf("failed to disable test clan: %v", err)
	}
	c.Enabled = false
	return c
}

// CreateMentee creates an unverified mentee assigned to clanLabel.
func (f *Fixtures) CreateMentee(ctx context.Context, fullName, email, clanLabel string) models.Mentee {
	f.t.Helper()

	now := time.Now().UTC()
	label := normalize.Label(clanLabel)
	m := models.Mentee{
		ID:               primitive.NewObjectID(),
		FullName:         fullName,
		FullNameCI:       text.Fold(fullName),
		Email:            normalize.Email(email),
		AssignedClan:     label,
		AssignedClanSlug: slug.Make(label),
		Status:           models.MenteeUnverified,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("mentees").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test mentee: %v", err)
	}
	return m
}

// CreateVerifiedMentee creates a mentee already bound to discordID.
func (f *Fixtures) CreateVerifiedMentee(ctx context.Context, fullName, email, clanLabel, discordID string) models.Mentee {
	f.t.Helper()

	now := time.Now().UTC()
	label := normalize.Label(clanLabel)
	m := models.Mentee{
		ID:               primitive.NewObjectID(),
		FullName:         fullName,
		FullNameCI:       text.Fold(fullName),
		Email:            normalize.Email(email),
		AssignedClan:     label,
		AssignedClanSlug: slug.Make(label),
		DiscordID:        discordID,
		DiscordUsername:  fullName,
		Status:           models.MenteeVerified,
		EmailVerified:    true,
		VerifiedAt:       &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err := f.db.Collection("mentees").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create verified test mentee: %v", err)
	}
	return m
}

// CreateRequest inserts a verification request for mentee and clan in the
// given status. updatedAt lets retention tests backdate the record.
func (f *Fixtures) CreateRequest(ctx context.Context, mentee models.Mentee, clan models.Clan, status models.RequestStatus, updatedAt time.Time) models.VerificationRequest {
	f.t.Helper()

	r := models.VerificationRequest{
		ID:              primitive.NewObjectID(),
		DiscordID:       mentee.DiscordID,
		DiscordUsername: mentee.DiscordUsername,
		MenteeID:        mentee.ID,
		Email:           mentee.Email,
		ClanID:          clan.ID,
		RoleID:          clan.RoleID,
		Status:          status,
		CreatedAt:       updatedAt,
		UpdatedAt:       updatedAt,
	}
	if status == models.RequestVerified {
		at := updatedAt
		r.VerifiedAt = &at
		r.RoleGranted = true
	}
	if _, err := f.db.Collection("verification_requests").InsertOne(ctx, r); err != nil {
		f.t.Fatalf("failed to create test request: %v", err)
	}
	return r
}
