package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioload/internal/store"
	"physioload/pkg/contracts/domain"
)

// subjectFailingWriter delegates to a real store but refuses every insert
// for one designated subject.
type subjectFailingWriter struct {
	inner       store.Writer
	failSubject string
}

func (w *subjectFailingWriter) InsertMeasurements(ctx context.Context, records []domain.Measurement) error {
	if len(records) > 0 && records[0].SubjectID == w.failSubject {
		return assert.AnError
	}
	return w.inner.InsertMeasurements(ctx, records)
}

func (w *subjectFailingWriter) InsertSession(ctx context.Context, meta domain.SessionMetadata) error {
	if meta.SubjectID == w.failSubject {
		return assert.AnError
	}
	return w.inner.InsertSession(ctx, meta)
}

func TestLoadAll(t *testing.T) {
	root := t.TempDir()
	writeSubjectFixture(t, root, domain.SessionStress, "S01")
	writeSubjectFixture(t, root, domain.SessionStress, "S02")
	writeSubjectFixture(t, root, domain.SessionStress, "S05")
	loader, db := newTestLoader(t, root)
	ctx := context.Background()

	report, err := loader.LoadAll(ctx, domain.SessionStress, false)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)

	// S02 carries the duplicated_data defect and is skipped by default.
	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Loaded)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Failed)

	// Results arrive in directory order.
	assert.Equal(t, "S01", report.Results[0].SubjectID)
	assert.Equal(t, "S02", report.Results[1].SubjectID)
	assert.Equal(t, "S05", report.Results[2].SubjectID)
	assert.Equal(t, OutcomeSkipped, report.Results[1].Outcome)
	assert.Equal(t, "duplicated_data", report.Results[1].Reason)

	count, err := db.CountMeasurements(ctx, "S01_STRESS")
	require.NoError(t, err)
	assert.Equal(t, 80, count)

	count, err = db.CountMeasurements(ctx, "S02_STRESS")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadAll_SubjectFailureDoesNotHaltBatch(t *testing.T) {
	root := t.TempDir()
	writeSubjectFixture(t, root, domain.SessionStress, "S01")
	writeSubjectFixture(t, root, domain.SessionStress, "S05")
	writeSubjectFixture(t, root, domain.SessionStress, "S09")

	db, err := store.Open(":memory:", testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	writer := &subjectFailingWriter{inner: db, failSubject: "S05"}
	uploader := store.NewUploader(writer, store.UploaderConfig{ChunkSize: 32}, testLogger(), nil)
	loader := NewLoader(root, nil, uploader, writer, testLogger(), nil)
	ctx := context.Background()

	report, err := loader.LoadAll(ctx, domain.SessionStress, false)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, 2, report.Loaded)
	assert.Zero(t, report.Skipped)
	assert.Equal(t, 1, report.Failed)

	// The failed subject does not stop the one after it from loading.
	assert.Equal(t, OutcomeLoaded, report.Results[0].Outcome)
	assert.Equal(t, OutcomeFailed, report.Results[1].Outcome)
	assert.Equal(t, OutcomeLoaded, report.Results[2].Outcome)

	count, err := db.CountMeasurements(ctx, "S09_STRESS")
	require.NoError(t, err)
	assert.Equal(t, 80, count)

	count, err = db.CountMeasurements(ctx, "S05_STRESS")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestLoadAll_MissingSessionDirectory(t *testing.T) {
	loader, _ := newTestLoader(t, t.TempDir())

	_, err := loader.LoadAll(context.Background(), domain.SessionStress, false)
	require.Error(t, err)
}
