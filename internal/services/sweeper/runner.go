package sweeper

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

var (
	mDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_revocations_deleted_total", Help: "Expired revocation entries removed",
	})
	mErr = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sweeper_errors_total", Help: "Errors in sweeper loop",
	})
	mLoopDur = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "sweeper_loop_duration_seconds", Help: "Sweeper tick duration",
		Buckets: prometheus.DefBuckets,
	})
)

type Runner struct {
	Log      *zap.Logger
	UC       *Usecase
	Interval time.Duration
}

func New(log *zap.Logger, uc *Usecase, interval time.Duration) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Runner{Log: log.With(zap.String("component", "sweeper")), UC: uc, Interval: interval}
}

func (r *Runner) tick(ctx context.Context) {
	start := time.Now()
	n, err := r.UC.Tick(ctx)
	if err != nil {
		mErr.Inc()
		r.Log.Warn("tick error", zap.Error(err))
	}
	if n > 0 {
		mDeleted.Add(float64(n))
		r.Log.Debug("swept revocations", zap.Int64("deleted", n))
	}
	mLoopDur.Observe(time.Since(start).Seconds())
}

// Run sweeps once immediately and then every Interval until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	r.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}
