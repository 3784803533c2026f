// internal/app/importer/importer.go
// Package importer loads mentee rolls from CSV and upserts them into the
// mentee ledger, mapping free-text clan labels onto known clans.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	menteestore "github.com/devweekends/clanverify/internal/app/store/mentees"
	"github.com/devweekends/clanverify/internal/app/system/apperr"
	"github.com/devweekends/clanverify/internal/app/system/clanmatch"
	"github.com/devweekends/clanverify/internal/app/system/csvutil"
	"github.com/devweekends/clanverify/internal/app/system/metrics"
	"github.com/devweekends/clanverify/internal/app/system/normalize"
	"github.com/devweekends/clanverify/internal/domain/models"
	"go.uber.org/zap"
)

// Header aliases, checked in order.
var (
	NameAliases  = []string{"name", "full name", "fullname", "mentee name", "student name"}
	EmailAliases = []string{"email", "email address", "e-mail", "mail"}
	ClanAliases  = []string{"clan", "assigned clan", "clan name", "group", "team"}
)

// maxListedLabels caps how many unresolved labels are named in messages.
const maxListedLabels = 5

// ErrNoValidRecords is wrapped by the error Import returns when no row
// could be imported.
var ErrNoValidRecords = errors.New("no valid mentee records")

// Record is one logical row of a roll.
type Record struct {
	Line  int
	Name  string
	Email string
	Clan  string
}

// Result summarises an import.
type Result struct {
	Imported   int      `json:"imported"`
	Inserted   int64    `json:"inserted"`
	Updated    int64    `json:"updated"`
	Skipped    int      `json:"skipped"`
	Unresolved []string `json:"unresolved,omitempty"`
}

type ClanLister interface {
	ListEnabled(ctx context.Context) ([]models.Clan, error)
}

type Upserter interface {
	BulkUpsert(ctx context.Context, rows []menteestore.ImportRow) (menteestore.UpsertResult, error)
}

// Reconciler imports rolls.
type Reconciler struct {
	Clans   ClanLister
	Mentees Upserter
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

func New(clans ClanLister, mentees Upserter, m *metrics.Metrics, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{Clans: clans, Mentees: mentees, Metrics: m, Log: logger}
}

// ParseRecords reads a headed CSV and maps its columns onto name, email
// and clan using the alias lists. Per row, each field takes the first alias
// column that is non-empty in that row.
func ParseRecords(r io.Reader) ([]Record, error) {
	tbl, err := csvutil.ReadTable(r, csvutil.MaxRows)
	if err != nil {
		return nil, err
	}
	nameCols := tbl.Indexes(NameAliases...)
	emailCols := tbl.Indexes(EmailAliases...)
	clanCols := tbl.Indexes(ClanAliases...)

	out := make([]Record, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		out = append(out, Record{
			Line:  row.Line,
			Name:  row.First(nameCols),
			Email: row.First(emailCols),
			Clan:  row.First(clanCols),
		})
	}
	return out, nil
}

// Plan is the pure part of an import: which rows resolve to which clan.
// Skipped counts every dropped row; Unmatched counts only rows whose label
// resolved to no clan.
type Plan struct {
	Rows       []menteestore.ImportRow
	Skipped    int
	Unmatched  int
	Unresolved []string
}

// BuildPlan resolves each record's clan label against clans. Rows missing
// an email or label and rows whose label resolves to no clan are skipped;
// the distinct raw labels of the latter are collected. Resolved rows carry
// the canonical clan name. A later row for the same email replaces an
// earlier one.
func BuildPlan(records []Record, clans []models.Clan) Plan {
	resolver := clanmatch.NewResolver(clans)
	var p Plan
	seenLabel := map[string]bool{}
	byEmail := map[string]int{}

	for _, rec := range records {
		email := normalize.Email(rec.Email)
		label := normalize.Label(rec.Clan)
		if email == "" || label == "" {
			p.Skipped++
			continue
		}
		clan, ok := resolver.Resolve(label)
		if !ok {
			p.Skipped++
			p.Unmatched++
			key := strings.ToLower(label)
			if !seenLabel[key] {
				seenLabel[key] = true
				p.Unresolved = append(p.Unresolved, label)
			}
			continue
		}
		row := menteestore.ImportRow{FullName: rec.Name, Email: email, Clan: clan.Name}
		if i, dup := byEmail[email]; dup {
			p.Rows[i] = row
			p.Skipped++
			continue
		}
		byEmail[email] = len(p.Rows)
		p.Rows = append(p.Rows, row)
	}
	sort.Strings(p.Unresolved)
	return p
}

// Import parses r, resolves clans and upserts the resolved rows in one
// bulk write. Re-imported mentees are reset to unverified.
func (rc *Reconciler) Import(ctx context.Context, r io.Reader) (Result, error) {
	records, err := ParseRecords(r)
	if err != nil {
		if errors.Is(err, csvutil.ErrTooManyRows) {
			return Result{}, apperr.Validation(fmt.Sprintf("CSV has more than %d rows.", csvutil.MaxRows))
		}
		return Result{}, apperr.Wrap(apperr.KindValidation, "Could not read CSV file.", err)
	}
	return rc.ImportRecords(ctx, records)
}

// ImportRecords is Import for already parsed records. Labels resolve
// against enabled clans only.
func (rc *Reconciler) ImportRecords(ctx context.Context, records []Record) (Result, error) {
	clans, err := rc.Clans.ListEnabled(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list clans: %w", err)
	}
	plan := BuildPlan(records, clans)
	res := Result{Skipped: plan.Skipped, Unresolved: plan.Unresolved}

	if len(plan.Rows) == 0 {
		rc.Metrics.ImportRows("skipped", plan.Skipped)
		return res, apperr.Wrap(apperr.KindValidation, NoValidRecordsMessage(plan.Unmatched, plan.Unresolved), ErrNoValidRecords)
	}

	up, err := rc.Mentees.BulkUpsert(ctx, plan.Rows)
	if err != nil {
		return res, fmt.Errorf("bulk upsert mentees: %w", err)
	}
	res.Imported = len(plan.Rows)
	res.Inserted = up.Inserted
	res.Updated = up.Updated

	rc.Metrics.ImportRows("imported", res.Imported)
	rc.Metrics.ImportRows("skipped", res.Skipped)
	rc.Log.Info("mentee roll imported",
		zap.Int("imported", res.Imported),
		zap.Int64("inserted", res.Inserted),
		zap.Int64("updated", res.Updated),
		zap.Int("skipped", res.Skipped),
		zap.Strings("unresolved", res.Unresolved))
	return res, nil
}

// NoValidRecordsMessage explains an import that resolved nothing. unmatched
// is the number of rows whose clan label matched no clan.
func NoValidRecordsMessage(unmatched int, unresolved []string) string {
	if unmatched == 0 {
		return "No valid mentee records found in CSV."
	}
	msg := fmt.Sprintf("No valid mentees found. Skipped %d records.", unmatched)
	if len(unresolved) > 0 {
		msg += " Missing clans: " + SummarizeLabels(unresolved) + ". Please create these clans first."
	}
	return msg
}

// SummarizeLabels lists up to five labels and counts the rest.
func SummarizeLabels(labels []string) string {
	if len(labels) <= maxListedLabels {
		return strings.Join(labels, ", ")
	}
	return fmt.Sprintf("%s and %d more", strings.Join(labels[:maxListedLabels], ", "), len(labels)-maxListedLabels)
}
