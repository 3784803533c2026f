package requests_test

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/devweekends/clanverify/internal/app/features/requests"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
	"go.uber.org/zap"
)

func setup(t *testing.T) (http.Handler, *testutil.Services) {
	t.Helper()
	s := testutil.NewServices(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clan := s.Fixtures.CreateClan(ctx, "Alpha", "111111111111111111")
	now := time.Now().UTC()
	a := s.Fixtures.CreateVerifiedMentee(ctx, "A", "a@example.com", "Alpha", "300000000000000001")
	b := s.Fixtures.CreateMentee(ctx, "B", "b@example.com", "Alpha")
	s.Fixtures.CreateRequest(ctx, a, clan, models.RequestVerified, now)
	s.Fixtures.CreateRequest(ctx, b, clan, models.RequestFailed, now)

	return requests.Routes(requests.NewHandler(s.Requests, s.Clans, zap.NewNop())), s
}

func TestList(t *testing.T) {
	h, _ := setup(t)

	tests := []struct {
		name   string
		target string
		status int
		want   int
	}{
		{"all", "/", http.StatusOK, 2},
		{"verified", "/?status=verified", http.StatusOK, 1},
		{"unknown status", "/?status=nope", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.ServeHTTP(rec, testutil.NewAdminRequest(http.MethodGet, tt.target))
			rec.AssertStatus(t, tt.status)
			if tt.status != http.StatusOK {
				return
			}
			var body struct {
				Requests []struct {
					ClanName string `json:"clan_name"`
				} `json:"requests"`
			}
			rec.DecodeJSON(t, &body)
			if len(body.Requests) != tt.want {
				t.Fatalf("requests = %d, want %d", len(body.Requests), tt.want)
			}
			if body.Requests[0].ClanName != "Alpha" {
				t.Errorf("clan name = %q, want Alpha", body.Requests[0].ClanName)
			}
		})
	}
}

func TestExport(t *testing.T) {
	h, _ := setup(t)

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewAdminRequest(http.MethodGet, "/export"))
	rec.AssertStatus(t, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}

	body := strings.TrimPrefix(rec.Body.String(), "\ufeff")
	records, err := csv.NewReader(strings.NewReader(body)).ReadAll()
	if err != nil {
		t.Fatalf("parse export: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(requests.ExportHeader, ",") {
		t.Errorf("header = %v", records[0])
	}
	var verified []string
	for _, rec := range records[1:] {
		if rec[3] == string(models.RequestVerified) {
			verified = rec
		}
	}
	if verified == nil || verified[1] != "a@example.com" || verified[2] != "Alpha" || verified[5] == "" {
		t.Errorf("verified row = %v", verified)
	}
}
