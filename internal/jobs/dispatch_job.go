// Package jobs runs the scheduled background work.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/lumina-beauty/lumina-offer/internal/dispatch"
)

// DefaultDispatchSpec sweeps the queue every five minutes.
const DefaultDispatchSpec = "*/5 * * * *"

const sweepTimeout = 3 * time.Minute

// DispatchJob periodically drains due offer queue entries.
type DispatchJob struct {
	sweeper *dispatch.Sweeper
	spec    string
	cron    *cron.Cron
	logger  *zap.Logger
}

func NewDispatchJob(sweeper *dispatch.Sweeper, spec string, logger *zap.Logger) *DispatchJob {
	if spec == "" {
		spec = DefaultDispatchSpec
	}
	return &DispatchJob{
		sweeper: sweeper,
		spec:    spec,
		cron:    cron.New(),
		logger:  logger.With(zap.String("component", "dispatch_job")),
	}
}

func (j *DispatchJob) Start() error {
	_, err := j.cron.AddFunc(j.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		processed, err := j.sweeper.Sweep(ctx, time.Now())
		if err != nil {
			j.logger.Error("scheduled sweep failed", zap.Error(err))
			return
		}
		if processed > 0 {
			j.logger.Info("scheduled sweep finished", zap.Int("processed", processed))
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.Info("dispatch job started", zap.String("spec", j.spec))
	return nil
}

// Stop halts scheduling; a sweep already running finishes on its own.
func (j *DispatchJob) Stop() {
	j.cron.Stop()
	j.logger.Info("dispatch job stopped")
}
