package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioload/internal/errors"
	"physioload/pkg/contracts/domain"
)

var testStart = time.Date(2013, 2, 20, 16, 25, 19, 0, time.UTC)

func TestBuildRecords_Uniform(t *testing.T) {
	sig := &DecodedSignal{
		StartTime:  testStart,
		SampleRate: 4.0,
		Samples:    [][]float64{{0.1}, {0.2}, {0.3}, {0.4}},
	}

	records, err := BuildRecords(sig, "EDA", "S05", "S05_STRESS", domain.SessionStress)
	require.NoError(t, err)
	require.Len(t, records, 4)

	for i, rec := range records {
		wantTime := testStart.Add(time.Duration(float64(i) / 4.0 * float64(time.Second)))
		assert.Equal(t, fmt.Sprintf("S05_STRESS_EDA_%d", i), rec.MeasurementID)
		assert.Equal(t, "S05", rec.SubjectID)
		assert.Equal(t, "S05_STRESS", rec.SessionID)
		assert.Equal(t, domain.SignalEDA, rec.SignalType)
		assert.Equal(t, domain.SessionStress, rec.SessionType)
		assert.Equal(t, domain.QualityValid, rec.QualityFlag)
		assert.True(t, wantTime.Equal(rec.Timestamp), "record %d: want %v, got %v", i, wantTime, rec.Timestamp)
		assert.InDelta(t, float64(i+1)*0.1, rec.Value, 1e-12)
	}

	// Record 2 at 4 Hz lands exactly half a second in.
	assert.True(t, testStart.Add(500*time.Millisecond).Equal(records[2].Timestamp))
}

func TestBuildRecords_Triaxial(t *testing.T) {
	sig := &DecodedSignal{
		StartTime:  testStart,
		SampleRate: 32.0,
		Samples:    [][]float64{{64, -32, 128}, {0, 64, -64}},
	}

	records, err := BuildRecords(sig, "ACC", "S05", "S05_STRESS", domain.SessionStress)
	require.NoError(t, err)
	require.Len(t, records, 6)

	// Each input row yields three records sharing one timestamp.
	for row := 0; row < 2; row++ {
		wantTime := testStart.Add(time.Duration(float64(row) / 32.0 * float64(time.Second)))
		for axis := 0; axis < 3; axis++ {
			rec := records[row*3+axis]
			assert.True(t, wantTime.Equal(rec.Timestamp))
			assert.Equal(t, fmt.Sprintf("S05_STRESS_%s_%d", rec.SignalType, row), rec.MeasurementID)
		}
	}

	assert.Equal(t, domain.SignalACCX, records[0].SignalType)
	assert.Equal(t, domain.SignalACCY, records[1].SignalType)
	assert.Equal(t, domain.SignalACCZ, records[2].SignalType)

	// Raw device units divide by 64 to g.
	assert.Equal(t, 1.0, records[0].Value)
	assert.Equal(t, -0.5, records[1].Value)
	assert.Equal(t, 2.0, records[2].Value)
	assert.Equal(t, 0.0, records[3].Value)
}

func TestBuildRecords_Interval(t *testing.T) {
	sig := &DecodedSignal{
		StartTime:  testStart,
		SampleRate: 0, // header rate plays no part for the interval stream
		Samples:    [][]float64{{0.5, 0.8}, {1.3, 0.75}, {2.1, 0.82}},
	}

	records, err := BuildRecords(sig, "IBI", "S05", "S05_STRESS", domain.SessionStress)
	require.NoError(t, err)
	require.Len(t, records, 3)

	offsets := []float64{0.5, 1.3, 2.1}
	values := []float64{0.8, 0.75, 0.82}
	for i, rec := range records {
		wantTime := testStart.Add(time.Duration(offsets[i] * float64(time.Second)))
		assert.True(t, wantTime.Equal(rec.Timestamp), "record %d: want %v, got %v", i, wantTime, rec.Timestamp)
		assert.Equal(t, values[i], rec.Value)
		assert.Equal(t, domain.SignalIBI, rec.SignalType)
		assert.Equal(t, fmt.Sprintf("S05_STRESS_IBI_%d", i), rec.MeasurementID)
	}
}

func TestBuildRecords_Errors(t *testing.T) {
	tests := []struct {
		name string
		stem string
		sig  *DecodedSignal
	}{
		{
			name: "uniform zero sample rate",
			stem: "BVP",
			sig:  &DecodedSignal{StartTime: testStart, SampleRate: 0, Samples: [][]float64{{1}}},
		},
		{
			name: "triaxial zero sample rate",
			stem: "ACC",
			sig:  &DecodedSignal{StartTime: testStart, SampleRate: 0, Samples: [][]float64{{1, 2, 3}}},
		},
		{
			name: "triaxial narrow row",
			stem: "ACC",
			sig:  &DecodedSignal{StartTime: testStart, SampleRate: 32, Samples: [][]float64{{1, 2}}},
		},
		{
			name: "interval narrow row",
			stem: "IBI",
			sig:  &DecodedSignal{StartTime: testStart, Samples: [][]float64{{0.5}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRecords(tt.sig, tt.stem, "S05", "S05_STRESS", domain.SessionStress)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeParsing))
		})
	}
}

func TestBuildRecords_UnknownStem(t *testing.T) {
	sig := &DecodedSignal{StartTime: testStart, SampleRate: 4, Samples: [][]float64{{1}}}

	_, err := BuildRecords(sig, "SPO2", "S05", "S05_STRESS", domain.SessionStress)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))
}

func TestBuildRecords_EmptySamples(t *testing.T) {
	sig := &DecodedSignal{StartTime: testStart, SampleRate: 4, Samples: nil}

	records, err := BuildRecords(sig, "HR", "S05", "S05_STRESS", domain.SessionStress)
	require.NoError(t, err)
	assert.Empty(t, records)
}
