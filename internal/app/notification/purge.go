package notification

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/learnora/learnora-server/internal/domain/auth/repo"
)

// read notifications older than this are swept
const retention = 30 * 24 * time.Hour

// Purger periodically deletes stale read notifications, off the
// request-serving path.
type Purger struct {
	repo     repo.NotificationRepo
	log      *zap.Logger
	schedule string
	cron     *cron.Cron
}

func NewPurger(r repo.NotificationRepo, schedule string, log *zap.Logger) *Purger {
	return &Purger{
		repo:     r,
		log:      log,
		schedule: schedule,
		cron:     cron.New(),
	}
}

func (p *Purger) Start() error {
	if _, err := p.cron.AddFunc(p.schedule, p.run); err != nil {
		return err
	}
	p.cron.Start()
	p.log.Info("notification purge scheduled", zap.String("schedule", p.schedule))
	return nil
}

// Stop waits for an in-flight sweep to finish.
func (p *Purger) Stop() {
	<-p.cron.Stop().Done()
}

func (p *Purger) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := p.repo.PurgeRead(ctx, time.Now().Add(-retention))
	if err != nil {
		p.log.Error("notification purge failed", zap.Error(err))
		return
	}
	p.log.Info("notification purge completed", zap.Int64("deleted", deleted))
}
