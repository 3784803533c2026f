// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"

	"github.com/devweekends/clanverify/internal/app/reconcile"
	"go.uber.org/zap"
)

// Job is a named unit of scheduled work.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// DriftReconcileJob restores clan roles for verified mentees and purges
// stale terminal verification requests.
func DriftReconcileJob(r *reconcile.Reconciler, logger *zap.Logger) Job {
	return Job{
		Name: "drift-reconcile",
		Run: func(ctx context.Context) error {
			res, err := r.RunFull(ctx)
			if err != nil {
				return err
			}
			logger.Info("drift reconcile finished",
				zap.Int("checked", res.Roles.Checked),
				zap.Int("restored", res.Roles.Restored),
				zap.Int("failed", res.Roles.Failed),
				zap.Int64("purged", res.Purged))
			return nil
		},
	}
}
