package metricspush

import (
	"context"
	"time"

	"github.com/smallbiznis/orderpulse/internal/config"
	obsmetrics "github.com/smallbiznis/orderpulse/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("metrics.push",
	fx.Provide(NewPusher),
	fx.Invoke(run),
)

// run pushes the pipeline registry every interval and once more on stop so
// the last window is not lost.
func run(lc fx.Lifecycle, cfg config.Config, pusher Pusher, pipeline *obsmetrics.Pipeline, log *zap.Logger) {
	if pusher == nil || pipeline == nil {
		return
	}
	log = log.Named("metrics.push")
	interval := cfg.MetricsPushInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			log.Info("starting metrics push", zap.String("exporter", cfg.MetricsPushExporter), zap.Duration("interval", interval))
			go func() {
				defer close(done)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()

				for {
					select {
					case <-ticker.C:
						if err := pusher.Push(ctx, pipeline.Registry()); err != nil {
							log.Warn("metrics push failed", zap.Error(err))
						}
					case <-ctx.Done():
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			<-done
			if err := pusher.Push(stopCtx, pipeline.Registry()); err != nil {
				log.Warn("final metrics push failed", zap.Error(err))
			}
			return nil
		},
	})
}
