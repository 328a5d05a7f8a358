package app

import (
	"context"
	"time"

	"github.com/docspace/core/internal/config"
	"github.com/docspace/core/internal/modules/indexer"
	"github.com/docspace/core/internal/modules/org"
	"github.com/docspace/core/internal/modules/sessions"
	pkgcron "github.com/docspace/core/internal/pkg/cron"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB,
	registry *sessions.Registry, coord *indexer.Coordinator,
	cfg *config.AppConfig, logger *zap.Logger) {

	log := logger.Named("Cron")
	store := sessions.NewGormStore(db)
	orgSvc := org.NewService(db)

	sched.Register(pkgcron.Job{
		Name:        "sweep_expired_sessions",
		Description: "Destroy sessions past their expiry through the normal logout path",
		Interval:    cfg.SweepInterval(),
		Fn: func(ctx context.Context) error {
			if n := registry.SweepExpired(ctx); n > 0 {
				log.Info("expired sessions swept", zap.Int("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "purge_session_records",
		Description: "Delete expired session rows left behind by crashed instances",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := store.PurgeExpired(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("stale session rows purged", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "purge_expired_invitations",
		Description: "Delete unaccepted organization invitations past their expiry",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			n, err := orgSvc.PurgeExpiredInvitations()
			if err != nil {
				return err
			}
			if n > 0 {
				log.Info("expired invitations purged", zap.Int64("count", n))
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "sync_search_indexes",
		Description: "Force a rebuild of the search index for every active organization",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			for _, orgID := range registry.ActiveOrganizations() {
				if err := coord.Build(ctx, orgID, true); err != nil {
					log.Warn("index sync failed",
						zap.String("org_id", orgID), zap.Error(err))
				}
			}
			return nil
		},
	})
}
