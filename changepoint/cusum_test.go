package changepoint

import (
	"testing"
	"time"

	"github.com/poiesic/driftlens/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) []time.Time {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	stamps := make([]time.Time, n)
	for i := range stamps {
		stamps[i] = start.AddDate(0, 0, i)
	}
	return stamps
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name          string
		values        []float64
		wantOK        bool
		wantIndex     int
		wantDirection core.Direction
		wantMagnitude float64
	}{
		{
			name:          "HRV crash triggers down at first acute point",
			values:        []float64{48.2, 47.1, 45.9, 22.4, 24.1, 28.5, 31.0},
			wantOK:        true,
			wantIndex:     3,
			wantDirection: core.DirectionDown,
			wantMagnitude: 18.9856,
		},
		{
			name:          "resting heart rate jump triggers up",
			values:        []float64{62, 63, 62, 78, 76, 74, 72},
			wantOK:        true,
			wantIndex:     3,
			wantDirection: core.DirectionUp,
			wantMagnitude: 12.1565,
		},
		{
			name:          "step shift is detected no earlier than the fourth point",
			values:        []float64{10, 10, 10, 20, 20, 20, 20},
			wantOK:        true,
			wantIndex:     4,
			wantDirection: core.DirectionUp,
			wantMagnitude: 14.6548,
		},
		{
			name:   "alternating noise never crosses",
			values: []float64{60, 61, 60, 61, 60, 61, 60},
			wantOK: false,
		},
		{
			name:   "constant series",
			values: []float64{70, 70, 70, 70, 70, 70},
			wantOK: false,
		},
		{
			name:   "three values is insufficient",
			values: []float64{10, 50, 90},
			wantOK: false,
		},
		{
			name:   "empty",
			values: []float64{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stamps := days(len(tt.values))
			cp, ok, err := Default().Detect(tt.values, stamps)
			require.NoError(t, err)
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Zero(t, cp)
				return
			}
			assert.Equal(t, stamps[tt.wantIndex], cp.Timestamp)
			assert.Equal(t, tt.wantDirection, cp.Direction)
			assert.InDelta(t, tt.wantMagnitude, cp.Magnitude, 1e-9)
		})
	}
}

func TestDetect_ConstantSeriesOfAnyLength(t *testing.T) {
	for n := MinObservations; n <= 30; n++ {
		values := make([]float64, n)
		for i := range values {
			values[i] = 0.1
		}
		_, ok, err := Default().Detect(values, days(n))
		require.NoError(t, err)
		assert.False(t, ok, "length %d", n)
	}
}

func TestDetect_ShiftNeverBeforeFourthPoint(t *testing.T) {
	for _, shift := range []float64{5, 10, 50, 1000} {
		values := []float64{3, 3, 3, 3 + shift, 3 + shift, 3 + shift, 3 + shift, 3 + shift}
		stamps := days(len(values))

		cp, ok, err := Default().Detect(values, stamps)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, core.DirectionUp, cp.Direction)
		assert.False(t, cp.Timestamp.Before(stamps[3]), "shift %v detected at %v", shift, cp.Timestamp)
	}
}

func TestDetect_Errors(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		_, _, err := Default().Detect([]float64{1, 2, 3, 4}, days(3))
		assert.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("zero value detector", func(t *testing.T) {
		_, _, err := Detector{}.Detect([]float64{1, 2, 3, 4}, days(4))
		assert.ErrorIs(t, err, ErrInvalidParameters)
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		k, h    float64
		wantErr bool
	}{
		{"defaults", DefaultSlack, DefaultThreshold, false},
		{"zero slack", 0, 1, false},
		{"negative slack", -0.1, 1.5, true},
		{"zero threshold", 0.5, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.k, tt.h)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidParameters)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.k, d.K)
			assert.Equal(t, tt.h, d.H)
		})
	}
}

func TestDetect_SensitivityIsConfigurable(t *testing.T) {
	values := []float64{62, 63, 62, 78, 76, 74, 72}
	stamps := days(len(values))

	strict, err := New(0.5, 10)
	require.NoError(t, err)
	_, ok, err := strict.Detect(values, stamps)
	require.NoError(t, err)
	assert.False(t, ok)

	loose, err := New(0, 0.5)
	require.NoError(t, err)
	cp, ok, err := loose.Detect(values, stamps)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stamps[3], cp.Timestamp)
}

func TestDetectSeries(t *testing.T) {
	values := []float64{48.2, 47.1, 45.9, 22.4, 24.1, 28.5, 31.0}
	stamps := days(len(values))
	series := make(core.MetricSeries, len(values))
	for i := range values {
		series[i] = core.MetricPoint{Timestamp: stamps[i], Value: values[i], Unit: "ms"}
	}

	cp, ok, err := Default().DetectSeries(series)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, stamps[3], cp.Timestamp)
	assert.Equal(t, core.DirectionDown, cp.Direction)
}
