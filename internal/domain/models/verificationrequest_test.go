package models

import (
	"errors"
	"testing"
	"time"
)

func newIssued(now time.Time, code string) *VerificationRequest {
	exp := now.Add(10 * time.Minute)
	return &VerificationRequest{
		Code:          code,
		CodeExpiresAt: &exp,
		Status:        RequestChallengeIssued,
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to RequestStatus
		want     bool
	}{
		{RequestChallengeIssued, RequestVerified, true},
		{RequestChallengeIssued, RequestFailed, true},
		{RequestChallengeIssued, RequestExpired, true},
		{RequestChallengeIssued, RequestChallengeIssued, false},
		{RequestVerified, RequestFailed, false},
		{RequestFailed, RequestChallengeIssued, false},
		{RequestExpired, RequestVerified, false},
		{RequestStatus("bogus"), RequestVerified, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range TerminalStatuses {
		if !s.Terminal() {
			t.Errorf("%q should be terminal", s)
		}
	}
	if RequestChallengeIssued.Terminal() {
		t.Error("challenge_issued should not be terminal")
	}
	if RequestStatus("nope").Terminal() {
		t.Error("unknown status should not be terminal")
	}
}

func TestTransition_Illegal(t *testing.T) {
	r := &VerificationRequest{Status: RequestVerified}
	err := r.Transition(RequestFailed)
	if !errors.Is(err, ErrIllegalTransition) {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
	if r.Status != RequestVerified {
		t.Errorf("status changed to %q on illegal transition", r.Status)
	}
}

func TestVerify_CorrectCodeBeforeExpiry(t *testing.T) {
	now := time.Now()
	r := newIssued(now, "482913")

	if !r.Verify(now.Add(time.Minute), "482913") {
		t.Fatal("expected correct code to match")
	}
	if r.Attempts != 1 {
		t.Errorf("attempts: got %d, want 1", r.Attempts)
	}
	if r.Status != RequestChallengeIssued {
		t.Errorf("status: got %q, want caller to decide", r.Status)
	}
}

func TestVerify_WrongCodeKeepsChallengeIssued(t *testing.T) {
	now := time.Now()
	r := newIssued(now, "111111")

	for i := 1; i <= 5; i++ {
		if r.Verify(now, "222222") {
			t.Fatal("wrong code matched")
		}
		if r.Attempts != i {
			t.Fatalf("attempts: got %d, want %d", r.Attempts, i)
		}
		if r.Status != RequestChallengeIssued {
			t.Fatalf("status: got %q, want challenge_issued", r.Status)
		}
	}
}

func TestVerify_AfterExpiry(t *testing.T) {
	now := time.Now()
	r := newIssued(now, "123456")

	if r.Verify(now.Add(11*time.Minute), "123456") {
		t.Fatal("expired request matched")
	}
	if r.Status != RequestExpired {
		t.Errorf("status: got %q, want expired", r.Status)
	}
	if r.Attempts != 1 {
		t.Errorf("attempts: got %d, want 1", r.Attempts)
	}
}

func TestVerify_ExactlyAtExpiryStillValid(t *testing.T) {
	now := time.Now()
	r := newIssued(now, "123456")

	if !r.Verify(*r.CodeExpiresAt, "123456") {
		t.Fatal("code should still be valid at the expiry instant")
	}
}

func TestVerify_MissingCode(t *testing.T) {
	r := &VerificationRequest{Status: RequestChallengeIssued}
	if r.Verify(time.Now(), "") {
		t.Fatal("request without a code matched")
	}
	if r.Attempts != 1 {
		t.Errorf("attempts: got %d, want 1", r.Attempts)
	}
}

func TestVerify_TerminalRequestNeverMatches(t *testing.T) {
	now := time.Now()
	r := newIssued(now, "123456")
	r.Status = RequestFailed

	if r.Verify(now, "123456") {
		t.Fatal("failed request matched")
	}
	if r.Status != RequestFailed {
		t.Errorf("status: got %q, want failed", r.Status)
	}
}
