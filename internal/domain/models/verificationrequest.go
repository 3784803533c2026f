// internal/domain/models/verificationrequest.go
package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequestStatus is the state of a VerificationRequest.
type RequestStatus string

const (
	RequestChallengeIssued RequestStatus = "challenge_issued"
	RequestVerified        RequestStatus = "verified"
	RequestFailed          RequestStatus = "failed"
	RequestExpired         RequestStatus = "expired"
)

// ErrIllegalTransition is returned when a status change is not in the
// transition table.
var ErrIllegalTransition = errors.New("illegal verification request transition")

// requestTransitions is the only place allowed status changes are defined.
// Terminal statuses have no outgoing edges.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestChallengeIssued: {RequestVerified, RequestFailed, RequestExpired},
}

// TerminalStatuses lists the statuses a request never leaves.
var TerminalStatuses = []RequestStatus{RequestVerified, RequestFailed, RequestExpired}

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestChallengeIssued, RequestVerified, RequestFailed, RequestExpired:
		return true
	}
	return false
}

// Terminal reports whether s has no outgoing transitions.
func (s RequestStatus) Terminal() bool {
	return s.Valid() && len(requestTransitions[s]) == 0
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to RequestStatus) bool {
	for _, next := range requestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// VerificationRequest is one OTP challenge issued to a Discord user for a
// mentee record. At most one challenge_issued request exists per Discord
// user at a time.
type VerificationRequest struct {
	ID              primitive.ObjectID `bson:"_id" json:"id"`
	DiscordID       string             `bson:"discord_id" json:"discord_id"`
	DiscordUsername string             `bson:"discord_username" json:"discord_username"`
	MenteeID        primitive.ObjectID `bson:"mentee_id" json:"mentee_id"`
	Email           string             `bson:"email" json:"email"`
	ClanID          primitive.ObjectID `bson:"clan_id" json:"clan_id"`
	RoleID          string             `bson:"role_id" json:"role_id"`

	Code          string     `bson:"code,omitempty" json:"-"`
	CodeExpiresAt *time.Time `bson:"code_expires_at,omitempty" json:"code_expires_at,omitempty"`

	Status        RequestStatus `bson:"status" json:"status"`
	Attempts      int           `bson:"attempts" json:"attempts"`
	CodeMatchedAt *time.Time    `bson:"code_matched_at,omitempty" json:"code_matched_at,omitempty"`
	RoleGranted   bool          `bson:"role_granted" json:"role_granted"`
	FailureReason string        `bson:"failure_reason,omitempty" json:"failure_reason,omitempty"`
	VerifiedAt    *time.Time    `bson:"verified_at,omitempty" json:"verified_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Transition moves the request to the given status if the transition
// table allows it.
func (r *VerificationRequest) Transition(to RequestStatus) error {
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, to)
	}
	r.Status = to
	return nil
}

// Expired reports whether the code's validity window has passed at now.
func (r *VerificationRequest) Expired(now time.Time) bool {
	return r.CodeExpiresAt != nil && now.After(*r.CodeExpiresAt)
}

// Verify records one attempt against the request and reports whether code
// matches. Every call counts as an attempt, including a successful one.
// A request checked after its expiry moves to expired and never matches.
// On a match the status is left unchanged; granting the role and marking
// the request verified is the caller's job.
func (r *VerificationRequest) Verify(now time.Time, code string) bool {
	r.Attempts++
	if r.Code == "" || r.CodeExpiresAt == nil {
		return false
	}
	if r.Expired(now) {
		_ = r.Transition(RequestExpired)
		return false
	}
	if r.Status != RequestChallengeIssued {
		return false
	}
	return code == r.Code
}
