package worker

import (
	"context"

	"github.com/DataDog/datadog-go/statsd"
	"github.com/robfig/cron/v3"

	"github.com/anivartee/anivartee/moderation"
	Logger "github.com/anivartee/anivartee/utils/log"
)

// One sweep per minute. Claims last 30 minutes, so a lease outlives its
// deadline by at most the sweep interval.
const janitorSchedule = "@every 1m"

const ddClaimsExpiredCounter = "anivartee.claims.expired"

// ClaimJanitor periodically expires stale claims so an abandoned session
// can never lock a post out of the queue.
type ClaimJanitor struct {
	name string

	claims *moderation.ClaimService
	statsd *statsd.Client
	cron   *cron.Cron
}

func NewClaimJanitor(name string, claims *moderation.ClaimService, statsdClient *statsd.Client) *ClaimJanitor {
	return &ClaimJanitor{
		name:   name,
		claims: claims,
		statsd: statsdClient,
		cron:   cron.New(),
	}
}

func (j *ClaimJanitor) RunModule(ctx context.Context) error {
	_, err := j.cron.AddFunc(janitorSchedule, func() {
		j.sweep(ctx)
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	Logger.Log.Infof("claim janitor started (schedule: %s)", janitorSchedule)

	<-ctx.Done()
	return nil
}

func (j *ClaimJanitor) sweep(ctx context.Context) {
	count, err := j.claims.ExpireStale(ctx)
	if err != nil {
		// Non-fatal, the next tick retries the whole sweep.
		Logger.Log.Errorf("claim expiry sweep failed: %v", err)
		return
	}
	if count > 0 {
		Logger.Log.Infof("claim janitor: expired %d claim(s)", count)
		j.reportExpired(count)
	}
}

func (j *ClaimJanitor) reportExpired(count int) {
	if j.statsd == nil {
		return
	}
	if err := j.statsd.Count(ddClaimsExpiredCounter, int64(count), nil, 1); err != nil {
		Logger.Log.Infoln("cannot report expired claim count")
	}
}

func (j *ClaimJanitor) Name() string {
	return j.name
}

func (j *ClaimJanitor) Shutdown() {
	stopCtx := j.cron.Stop()
	<-stopCtx.Done()
	Logger.Log.Info("claim janitor stopped")
}
