package statsdx

import (
	"time"

	"github.com/cactus/go-statsd-client/statsd"

	"github.com/ksislv/silverstripe-framework/pkg/logx"
)

const (
	alwaysSample   = 1
	failureMessage = "failed-to-send-metric"
)

// Statter forwards metrics to a statsd endpoint, logging send failures
// instead of propagating them.
type Statter struct {
	statsdClient statsd.Statter
	logger       logx.Logger
}

func NewStatter(logger logx.Logger, statsdClient statsd.Statter) *Statter {
	return &Statter{
		statsdClient: statsdClient,
		logger:       logger,
	}
}

func (s *Statter) Inc(metric string, value int64) {
	if err := s.statsdClient.Inc(metric, value, alwaysSample); err != nil {
		s.logger.Error(failureMessage, err, logx.Data{
			Key:   "metric",
			Value: metric,
		}, logx.Data{
			Key:   "value",
			Value: value,
		})
	}
}

func (s *Statter) Gauge(metric string, value int64) {
	if err := s.statsdClient.Gauge(metric, value, alwaysSample); err != nil {
		s.logger.Error(failureMessage, err, logx.Data{
			Key:   "metric",
			Value: metric,
		}, logx.Data{
			Key:   "value",
			Value: value,
		})
	}
}

func (s *Statter) TimingDuration(metric string, value time.Duration) {
	if err := s.statsdClient.TimingDuration(metric, value, alwaysSample); err != nil {
		s.logger.Error(failureMessage, err, logx.Data{
			Key:   "metric",
			Value: metric,
		}, logx.Data{
			Key:   "value",
			Value: value,
		})
	}
}
