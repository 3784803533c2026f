// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"math"
	"time"

	"github.com/devweekends/clanverify/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of verification totals shown on the dashboard.
type Counts struct {
	Requests int64 `json:"requests"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`

	RequestsToday    int64 `json:"requests_today"`
	ApprovedToday    int64 `json:"approved_today"`
	RequestsThisWeek int64 `json:"requests_this_week"`
}

// ApprovalRate is the percentage of settled requests that were verified,
// rounded to the nearest integer. It is 0 when nothing has settled yet.
func (c Counts) ApprovalRate() int {
	settled := c.Approved + c.Rejected
	if settled == 0 {
		return 0
	}
	return int(math.Round(float64(c.Approved) / float64(settled) * 100))
}

// FetchDashboardCounts returns the request totals used by the dashboard.
// "Today" starts at midnight in now's location; "this week" is the last
// seven days. Intentionally tolerant: on error it returns 0 for that counter.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database, now time.Time) Counts {
	var out Counts
	c := db.Collection("verification_requests")
	count := func(filter bson.M) int64 {
		n, err := c.CountDocuments(ctx, filter)
		if err != nil {
			return 0
		}
		return n
	}

	y, m, d := now.Date()
	todayStart := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).UTC()
	weekStart := now.Add(-7 * 24 * time.Hour).UTC()

	out.Requests = count(bson.M{})
	out.Pending = count(bson.M{"status": models.RequestChallengeIssued})
	out.Approved = count(bson.M{"status": models.RequestVerified})
	out.Rejected = count(bson.M{"status": bson.M{"$in": []models.RequestStatus{models.RequestFailed, models.RequestExpired}}})

	out.RequestsToday = count(bson.M{"created_at": bson.M{"$gte": todayStart}})
	out.ApprovedToday = count(bson.M{
		"status":      models.RequestVerified,
		"verified_at": bson.M{"$gte": todayStart},
	})
	out.RequestsThisWeek = count(bson.M{"created_at": bson.M{"$gte": weekStart}})

	return out
}
