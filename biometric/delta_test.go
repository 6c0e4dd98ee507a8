package biometric

import (
	"strings"
	"testing"
	"time"

	"github.com/poiesic/driftlens/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(unit string, values ...float64) core.MetricSeries {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s := make(core.MetricSeries, len(values))
	for i, v := range values {
		s[i] = core.MetricPoint{Timestamp: start.AddDate(0, 0, i), Value: v, Unit: unit}
	}
	return s
}

func TestComputeDelta_LongitudinalBaseline(t *testing.T) {
	spec := core.MetricRestingHeartRate.Spec()
	acute := series("bpm", 68, 70, 69, 78, 76, 74, 72)
	baseline := series("bpm", 63, 64, 65, 64)

	d, err := ComputeDelta(acute, baseline, spec)
	require.NoError(t, err)

	assert.Equal(t, "restingHeartRate", d.Metric)
	assert.Equal(t, core.MetricRestingHeartRate, d.Kind)
	assert.Equal(t, 72.43, d.AcuteMean)
	assert.Equal(t, 64.0, d.BaselineMean)
	assert.Equal(t, 8.43, d.Delta)
	assert.Equal(t, "bpm", d.Unit)
	assert.True(t, d.Significant)
	assert.Nil(t, d.Changepoint)
}

func TestComputeSplitDelta(t *testing.T) {
	spec := core.MetricHeartRateVariability.Spec()

	t.Run("acute drop in HRV", func(t *testing.T) {
		d, err := ComputeSplitDelta(series("ms", 48.2, 47.1, 45.9, 22.4, 24.1, 28.5, 31.0), spec)
		require.NoError(t, err)
		assert.Equal(t, 47.07, d.BaselineMean)
		assert.Equal(t, 26.5, d.AcuteMean)
		assert.Equal(t, 20.57, d.Delta)
		assert.True(t, d.Significant)
	})

	t.Run("series shorter than split point", func(t *testing.T) {
		d, err := ComputeSplitDelta(series("ms", 40, 50), spec)
		require.NoError(t, err)
		assert.Equal(t, 45.0, d.BaselineMean)
		assert.Equal(t, 0.0, d.AcuteMean)
		assert.Equal(t, 45.0, d.Delta)
	})

	t.Run("custom split point", func(t *testing.T) {
		custom := spec
		custom.SplitAt = 1
		d, err := ComputeSplitDelta(series("ms", 40, 50, 60), custom)
		require.NoError(t, err)
		assert.Equal(t, 40.0, d.BaselineMean)
		assert.Equal(t, 55.0, d.AcuteMean)
	})

	t.Run("zero split point falls back to default", func(t *testing.T) {
		custom := spec
		custom.SplitAt = 0
		d, err := ComputeSplitDelta(series("ms", 10, 10, 10, 40), custom)
		require.NoError(t, err)
		assert.Equal(t, 10.0, d.BaselineMean)
		assert.Equal(t, 40.0, d.AcuteMean)
	})
}

func TestComputeDelta_EdgeCases(t *testing.T) {
	spec := core.MetricRestingHeartRate.Spec()

	tests := []struct {
		name            string
		acute           core.MetricSeries
		baseline        core.MetricSeries
		wantAcute       float64
		wantBaseline    float64
		wantDelta       float64
		wantSignificant bool
	}{
		{
			name:      "both empty",
			wantDelta: 0,
		},
		{
			name:         "empty acute",
			baseline:     series("bpm", 60, 62),
			wantBaseline: 61,
			wantDelta:    61,
			// degenerate input still reports against the threshold
			wantSignificant: true,
		},
		{
			name:      "delta equal to threshold is not significant",
			acute:     series("bpm", 69),
			baseline:  series("bpm", 64),
			wantAcute: 69, wantBaseline: 64, wantDelta: 5,
			wantSignificant: false,
		},
		{
			name:      "delta just above threshold",
			acute:     series("bpm", 69.01),
			baseline:  series("bpm", 64),
			wantAcute: 69.01, wantBaseline: 64, wantDelta: 5.01,
			wantSignificant: true,
		},
		{
			name:      "single points",
			acute:     series("bpm", 70),
			baseline:  series("bpm", 70),
			wantAcute: 70, wantBaseline: 70, wantDelta: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ComputeDelta(tt.acute, tt.baseline, spec)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAcute, d.AcuteMean)
			assert.Equal(t, tt.wantBaseline, d.BaselineMean)
			assert.Equal(t, tt.wantDelta, d.Delta)
			assert.Equal(t, tt.wantSignificant, d.Significant)
			assert.GreaterOrEqual(t, d.Delta, 0.0)
			assert.Equal(t, "bpm", d.Unit)
		})
	}
}

func TestComputeDelta_Symmetric(t *testing.T) {
	spec := core.MetricWalkingAsymmetry.Spec()
	a := series("%", 2.1, 2.4, 8.9, 9.3)
	b := series("%", 2.0, 2.2, 2.1)

	ab, err := ComputeDelta(a, b, spec)
	require.NoError(t, err)
	ba, err := ComputeDelta(b, a, spec)
	require.NoError(t, err)

	assert.Equal(t, ab.Delta, ba.Delta)
	assert.Equal(t, ab.Significant, ba.Significant)
}

func TestComputeDelta_UnitMismatch(t *testing.T) {
	spec := core.MetricRestingHeartRate.Spec()

	_, err := ComputeDelta(series("bpm", 70), series("bps", 64), spec)
	assert.ErrorIs(t, err, core.ErrUnitMismatch)

	mixed := series("ms", 40, 41, 42, 43)
	mixed[2].Unit = "s"
	_, err = ComputeSplitDelta(mixed, core.MetricHeartRateVariability.Spec())
	assert.ErrorIs(t, err, core.ErrUnitMismatch)
}

func TestCompute_DispatchesOnPolicy(t *testing.T) {
	acute := series("bpm", 60, 60, 60, 90)
	longitudinal := series("bpm", 60)

	longDelta, err := Compute(core.MetricRestingHeartRate.Spec(), acute, longitudinal)
	require.NoError(t, err)
	assert.Equal(t, 67.5, longDelta.AcuteMean)
	assert.Equal(t, 60.0, longDelta.BaselineMean)

	split := core.UnconfiguredMetric("restingHeartRate", "bpm")
	splitDelta, err := Compute(split, acute, longitudinal)
	require.NoError(t, err)
	assert.Equal(t, 90.0, splitDelta.AcuteMean)
	assert.Equal(t, 60.0, splitDelta.BaselineMean)

	_, err = Compute(core.MetricSpec{Name: "broken"}, acute, longitudinal)
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestCompute_UnconfiguredThreshold(t *testing.T) {
	spec := core.UnconfiguredMetric("bloodOxygen", "%")
	d, err := Compute(spec, series("%", 97, 97, 97, 97.1), nil)
	require.NoError(t, err)
	assert.True(t, d.Significant, "zero threshold flags any change")
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 8.43, Round(8.428571, 2))
	assert.Equal(t, -1.24, Round(-1.2351, 2))
	assert.Equal(t, 0.1235, Round(0.12345678, 4))
}

func TestFormatSummary(t *testing.T) {
	rhr, err := ComputeDelta(series("bpm", 68, 70, 69, 78, 76, 74, 72), series("bpm", 64), core.MetricRestingHeartRate.Spec())
	require.NoError(t, err)
	hrv, err := ComputeSplitDelta(series("ms", 48.2, 47.1, 45.9, 22.4, 24.1, 28.5, 31.0), core.MetricHeartRateVariability.Spec())
	require.NoError(t, err)
	hrv = hrv.WithChangepoint(core.Changepoint{
		Timestamp: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		Direction: core.DirectionDown,
		Magnitude: 18.9856,
	})
	steps, err := ComputeSplitDelta(series("count", 8000, 8200, 7900, 7500), core.MetricStepCount.Spec())
	require.NoError(t, err)

	summary := FormatSummary([]core.BiometricDelta{rhr, hrv, steps})

	lines := strings.Split(strings.TrimSpace(summary), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "### Biometric Delta Summary", lines[0])
	assert.Equal(t, "- **restingHeartRate**: acute avg 72.43 bpm vs baseline avg 64.00 bpm (delta: 8.43 bpm) - CLINICALLY SIGNIFICANT", lines[2])
	assert.Equal(t, "- **heartRateVariabilitySDNN**: acute avg 26.50 ms vs baseline avg 47.07 ms (delta: 20.57 ms) - CLINICALLY SIGNIFICANT; sustained shift down from 2025-03-04", lines[3])
	assert.Contains(t, lines[4], "within normal range")

	assert.Equal(t, summary, FormatSummary([]core.BiometricDelta{rhr, hrv, steps}), "summary must be deterministic")
}

func TestFormatSummary_Empty(t *testing.T) {
	assert.Equal(t, "### Biometric Delta Summary\n\nNo biometric data available.\n", FormatSummary(nil))
}
