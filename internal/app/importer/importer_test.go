package importer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/devweekends/clanverify/internal/app/importer"
	clanstore "github.com/devweekends/clanverify/internal/app/store/clans"
	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/domain/models"
	"github.com/devweekends/clanverify/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func clanSet() []models.Clan {
	return []models.Clan{
		{ID: primitive.NewObjectID(), Name: "Crimson Guard", Slug: "crimson-guard", Enabled: true},
		{ID: primitive.NewObjectID(), Name: "Azure", Slug: "azure", Enabled: true},
	}
}

func TestParseRecords_HeaderAliases(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want importer.Record
	}{
		{
			name: "alternate headers",
			in:   "Student Name,E-Mail,Assigned Clan\nAda Lovelace,ADA@example.com,Azure\n",
			want: importer.Record{Line: 2, Name: "Ada Lovelace", Email: "ADA@example.com", Clan: "Azure"},
		},
		{
			name: "blank earlier alias falls back per row",
			in:   "Name,Email,Email Address,Clan\nAda,,ada@x.com,Crimson Guard\n",
			want: importer.Record{Line: 2, Name: "Ada", Email: "ada@x.com", Clan: "Crimson Guard"},
		},
		{
			name: "earlier alias wins when filled",
			in:   "Team,Name,Email,Clan\nBeta,Bo,bo@x.com,Azure\n",
			want: importer.Record{Line: 2, Name: "Bo", Email: "bo@x.com", Clan: "Azure"},
		},
		{
			name: "later alias used when earlier column is blank",
			in:   "Team,Name,Email,Clan\nBeta,Bo,bo@x.com,\n",
			want: importer.Record{Line: 2, Name: "Bo", Email: "bo@x.com", Clan: "Beta"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := importer.ParseRecords(strings.NewReader(tt.in))
			if err != nil {
				t.Fatalf("ParseRecords: %v", err)
			}
			if len(recs) != 1 {
				t.Fatalf("got %d records, want 1", len(recs))
			}
			if recs[0] != tt.want {
				t.Errorf("got %+v, want %+v", recs[0], tt.want)
			}
		})
	}
}

func TestParseRecords_FallbackRowIsImported(t *testing.T) {
	recs, err := importer.ParseRecords(strings.NewReader("Name,Email,Email Address,Clan\nAda,,ada@x.com,Crimson Guard\n"))
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	p := importer.BuildPlan(recs, clanSet())
	if len(p.Rows) != 1 || p.Skipped != 0 {
		t.Fatalf("rows=%d skipped=%d, want 1 and 0", len(p.Rows), p.Skipped)
	}
	if p.Rows[0].Email != "ada@x.com" || p.Rows[0].Clan != "Crimson Guard" {
		t.Errorf("unexpected row %+v", p.Rows[0])
	}
}

func TestParseRecords_MissingColumns(t *testing.T) {
	recs, err := importer.ParseRecords(strings.NewReader("email\na@x.com\n"))
	if err != nil {
		t.Fatalf("ParseRecords: %v", err)
	}
	if len(recs) != 1 || recs[0].Clan != "" || recs[0].Name != "" {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestBuildPlan(t *testing.T) {
	recs := []importer.Record{
		{Line: 2, Name: "A", Email: "a@x.com", Clan: "crimson guard"},
		{Line: 3, Name: "B", Email: "b@x.com", Clan: "Azure Alpha Team"},
		{Line: 4, Name: "C", Email: "", Clan: "Azure"},
		{Line: 5, Name: "D", Email: "d@x.com", Clan: ""},
		{Line: 6, Name: "E", Email: "e@x.com", Clan: "Nowhere"},
		{Line: 7, Name: "F", Email: "f@x.com", Clan: "nowhere"},
		{Line: 8, Name: "G", Email: "g@x.com", Clan: "Elsewhere"},
		{Line: 9, Name: "A2", Email: "A@X.com", Clan: "Azure"},
	}
	p := importer.BuildPlan(recs, clanSet())

	if len(p.Rows) != 2 {
		t.Fatalf("rows: got %d, want 2 (%+v)", len(p.Rows), p.Rows)
	}
	if p.Rows[0].Email != "a@x.com" || p.Rows[0].FullName != "A2" || p.Rows[0].Clan != "Azure" {
		t.Errorf("later duplicate should replace earlier row: %+v", p.Rows[0])
	}
	if p.Rows[1].Clan != "Azure" {
		t.Errorf("substring match: got clan %q, want Azure", p.Rows[1].Clan)
	}
	if p.Skipped != 6 {
		t.Errorf("skipped: got %d, want 6", p.Skipped)
	}
	if p.Unmatched != 3 {
		t.Errorf("unmatched: got %d, want 3", p.Unmatched)
	}
	want := []string{"Elsewhere", "Nowhere"}
	if strings.Join(p.Unresolved, "|") != strings.Join(want, "|") {
		t.Errorf("unresolved: got %v, want %v", p.Unresolved, want)
	}
}

func TestNoValidRecordsMessage(t *testing.T) {
	tests := []struct {
		name       string
		unmatched  int
		unresolved []string
		want       string
	}{
		{"empty", 0, nil, "No valid mentee records found in CSV."},
		{"unmatched only", 2, nil, "No valid mentees found. Skipped 2 records."},
		{
			"few labels", 3, []string{"a", "b"},
			"No valid mentees found. Skipped 3 records. Missing clans: a, b. Please create these clans first.",
		},
		{
			"many labels", 7, []string{"a", "b", "c", "d", "e", "f", "g"},
			"No valid mentees found. Skipped 7 records. Missing clans: a, b, c, d, e and 2 more. Please create these clans first.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := importer.NoValidRecordsMessage(tt.unmatched, tt.unresolved); got != tt.want {
				t.Errorf("got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestImport_MissingLabelsOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clans := clanstore.New(db)
	if _, err := clans.Create(ctx, models.Clan{Name: "Azure", RoleID: "r-azure", Enabled: true}); err != nil {
		t.Fatalf("create clan: %v", err)
	}
	rc := importer.New(clans, menteestore.New(db), nil, nil)
	_, err := rc.Import(ctx, strings.NewReader("email,clan\na@x.com,\nb@x.com,\n"))
	if !errors.Is(err, importer.ErrNoValidRecords) {
		t.Fatalf("expected ErrNoValidRecords, got %v", err)
	}
	if got := apperr.Message(err, ""); got != "No valid mentee records found in CSV." {
		t.Errorf("message: %q", got)
	}
}

func TestImport_DisabledClanNotMatched(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clans := clanstore.New(db)
	if _, err := clans.Create(ctx, models.Clan{Name: "Azure", RoleID: "r-azure", Enabled: false}); err != nil {
		t.Fatalf("create clan: %v", err)
	}
	rc := importer.New(clans, menteestore.New(db), nil, nil)
	_, err := rc.Import(ctx, strings.NewReader("email,clan\na@x.com,Azure\n"))
	if !errors.Is(err, importer.ErrNoValidRecords) {
		t.Fatalf("expected ErrNoValidRecords, got %v", err)
	}
	if !strings.Contains(apperr.Message(err, ""), "Missing clans: Azure") {
		t.Errorf("message: %q", apperr.Message(err, ""))
	}
}

func TestImport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	clans := clanstore.New(db)
	mentees := menteestore.New(db)
	for _, c := range clanSet() {
		if _, err := clans.Create(ctx, models.Clan{Name: c.Name, RoleID: "r-" + c.Slug, Enabled: true}); err != nil {
			t.Fatalf("create clan: %v", err)
		}
	}
	rc := importer.New(clans, mentees, nil, nil)

	csv := "Name,Email,Clan\n" +
		"Ada,ada@example.com,Crimson Guard Alpha\n" +
		"Bob,bob@example.com,Azure\n" +
		"Cy,cy@example.com,Unknown Clan\n"
	res, err := rc.Import(ctx, strings.NewReader(csv))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Imported != 2 || res.Inserted != 2 || res.Updated != 0 || res.Skipped != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Unresolved) != 1 || res.Unresolved[0] != "Unknown Clan" {
		t.Fatalf("unresolved: %v", res.Unresolved)
	}

	ada, err := mentees.GetByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if ada.AssignedClan != "Crimson Guard" || ada.AssignedClanSlug != "crimson-guard" {
		t.Errorf("canonical clan not stored: %q / %q", ada.AssignedClan, ada.AssignedClanSlug)
	}
	if ada.Status != models.MenteeUnverified {
		t.Errorf("status: got %q", ada.Status)
	}

	// Second import updates and resets the existing record.
	if err := mentees.MarkChallengeIssued(ctx, ada.ID, "u1", "ada#1"); err != nil {
		t.Fatalf("MarkChallengeIssued: %v", err)
	}
	res, err = rc.Import(ctx, strings.NewReader("email,clan\nada@example.com,azure\n"))
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if res.Updated != 1 || res.Inserted != 0 {
		t.Fatalf("re-import result: %+v", res)
	}
	ada, _ = mentees.GetByEmail(ctx, "ada@example.com")
	if ada.AssignedClan != "Azure" || ada.Status != models.MenteeUnverified {
		t.Errorf("re-import not applied: %+v", ada)
	}
}

func TestImport_NoValidRecords(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rc := importer.New(clanstore.New(db), menteestore.New(db), nil, nil)
	_, err := rc.Import(ctx, strings.NewReader("email,clan\na@x.com,Ghost\n"))
	if !errors.Is(err, importer.ErrNoValidRecords) {
		t.Fatalf("expected ErrNoValidRecords, got %v", err)
	}
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("kind: got %v", apperr.KindOf(err))
	}
	if !strings.Contains(apperr.Message(err, ""), "Missing clans: Ghost") {
		t.Errorf("message: %q", apperr.Message(err, ""))
	}
}
