package metrics

import "time"

// Statter emits operational metrics. The resolver treats it as optional;
// a nil Statter disables metric emission.
type Statter interface {
	Inc(metric string, value int64)
	Gauge(metric string, value int64)
	TimingDuration(metric string, value time.Duration)
}
