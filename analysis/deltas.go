package analysis

import (
	"fmt"

	"github.com/poiesic/driftlens/biometric"
	"github.com/poiesic/driftlens/core"
)

// metricSpecs returns the specs to analyse for payload: every configured
// metric in presentation order, then, when enabled, the submission's
// unrecognised series in name order.
func (p *Pipeline) metricSpecs(payload *core.Payload) []core.MetricSpec {
	specs := core.Metrics()
	if !p.unconfigured {
		return specs
	}
	for _, name := range payload.SeriesNames() {
		if _, ok := core.LookupMetric(name); !ok {
			specs = append(specs, core.UnconfiguredMetric(name, ""))
		}
	}
	return specs
}

func (p *Pipeline) computeDeltas(payload *core.Payload) ([]core.BiometricDelta, error) {
	specs := p.metricSpecs(payload)
	deltas := make([]core.BiometricDelta, 0, len(specs))

	for _, spec := range specs {
		acute, err := payload.Acute(spec)
		if err != nil {
			return nil, fmt.Errorf("%s acute series: %w", spec.Name, err)
		}
		longitudinal, err := payload.Longitudinal(spec)
		if err != nil {
			return nil, fmt.Errorf("%s longitudinal series: %w", spec.Name, err)
		}

		delta, err := biometric.Compute(spec, acute, longitudinal)
		if err != nil {
			return nil, err
		}

		if p.detector != nil {
			scanned := acute
			if spec.Policy == core.BaselineLongitudinal {
				scanned = longitudinal
			}
			cp, ok, err := p.detector.DetectSeries(scanned)
			if err != nil {
				return nil, fmt.Errorf("%s change point: %w", spec.Name, err)
			}
			if ok {
				delta = delta.WithChangepoint(cp)
			}
		}

		deltas = append(deltas, delta)
	}
	return deltas, nil
}
