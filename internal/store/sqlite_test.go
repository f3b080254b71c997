package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioload/pkg/contracts/domain"
)

func openTestStore(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "analytics.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleMeasurements(sessionID string, n int) []domain.Measurement {
	start := time.Date(2013, 2, 20, 17, 55, 19, 0, time.UTC)
	records := make([]domain.Measurement, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, domain.Measurement{
			MeasurementID: domain.MeasurementID(sessionID, domain.SignalEDA, i),
			SubjectID:     "S05",
			SessionID:     sessionID,
			Timestamp:     start.Add(time.Duration(i) * 250 * time.Millisecond),
			SignalType:    domain.SignalEDA,
			Value:         float64(i) * 0.1,
			SessionType:   domain.SessionStress,
			QualityFlag:   domain.QualityValid,
		})
	}
	return records
}

func TestDB_InsertMeasurements_RoundTrip(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	records := sampleMeasurements("S05_STRESS", 5)
	require.NoError(t, db.InsertMeasurements(ctx, records))

	count, err := db.CountMeasurements(ctx, "S05_STRESS")
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	got, err := db.Measurements(ctx, "S05_STRESS")
	require.NoError(t, err)
	require.Len(t, got, 5)

	// Insert order and sub-second timestamp precision survive the round trip.
	for i, rec := range got {
		assert.Equal(t, records[i].MeasurementID, rec.MeasurementID)
		assert.True(t, records[i].Timestamp.Equal(rec.Timestamp),
			"timestamp %d: want %v, got %v", i, records[i].Timestamp, rec.Timestamp)
		assert.Equal(t, records[i].Value, rec.Value)
		assert.Equal(t, domain.QualityValid, rec.QualityFlag)
	}
}

func TestDB_InsertMeasurements_Empty(t *testing.T) {
	db := openTestStore(t)

	require.NoError(t, db.InsertMeasurements(context.Background(), nil))
}

func TestDB_AppendOnly(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	records := sampleMeasurements("S05_STRESS", 3)
	require.NoError(t, db.InsertMeasurements(ctx, records))
	// Re-running ingestion appends duplicate rows; the store enforces no
	// uniqueness on measurement_id.
	require.NoError(t, db.InsertMeasurements(ctx, records))

	count, err := db.CountMeasurements(ctx, "S05_STRESS")
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}

func TestDB_InsertSession(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	start := time.Date(2013, 2, 20, 17, 55, 19, 500000000, time.UTC)
	end := start.Add(90 * time.Minute)

	meta := domain.SessionMetadata{
		SessionID:        "S05_STRESS",
		SubjectID:        "S05",
		SessionType:      domain.SessionStress,
		ProtocolVersion:  "V1",
		SessionDate:      time.Date(2013, 2, 20, 0, 0, 0, 0, time.UTC),
		SessionStartTime: start,
		SessionEndTime:   end,
		DurationMinutes:  90,
		QualityNotes:     "incomplete_procedure",
	}
	require.NoError(t, db.InsertSession(ctx, meta))

	sessions, err := db.Sessions(ctx, "S05_STRESS")
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	got := sessions[0]
	assert.Equal(t, meta.SubjectID, got.SubjectID)
	assert.Equal(t, meta.SessionType, got.SessionType)
	assert.Equal(t, meta.ProtocolVersion, got.ProtocolVersion)
	assert.True(t, meta.SessionStartTime.Equal(got.SessionStartTime))
	assert.True(t, meta.SessionEndTime.Equal(got.SessionEndTime))
	assert.Equal(t, meta.DurationMinutes, got.DurationMinutes)
	assert.Equal(t, "incomplete_procedure", got.QualityNotes)
}

func TestDB_InsertSession_NoNotes(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	meta := domain.SessionMetadata{
		SessionID:        "S01_AEROBIC",
		SubjectID:        "S01",
		SessionType:      domain.SessionAerobic,
		ProtocolVersion:  "V1",
		SessionDate:      time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC),
		SessionStartTime: time.Date(2013, 3, 1, 9, 0, 0, 0, time.UTC),
		SessionEndTime:   time.Date(2013, 3, 1, 9, 30, 0, 0, time.UTC),
		DurationMinutes:  30,
	}
	require.NoError(t, db.InsertSession(ctx, meta))

	sessions, err := db.Sessions(ctx, "S01_AEROBIC")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Empty(t, sessions[0].QualityNotes)
}

func TestDB_TableStats(t *testing.T) {
	db := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, db.InsertMeasurements(ctx, sampleMeasurements("S05_STRESS", 4)))

	stats, err := db.TableStats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	byName := make(map[string]int64)
	for _, s := range stats {
		byName[s.TableName] = s.RowCount
	}
	assert.Equal(t, int64(4), byName["fact_physiological_measurements"])
	assert.Equal(t, int64(0), byName["dim_sessions"])
	assert.Equal(t, int64(0), byName["dim_subjects"])
}
