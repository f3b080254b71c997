package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"physioload/internal/dataset"
	"physioload/internal/infrastructure"
	"physioload/internal/quality"
	"physioload/internal/store"
	"physioload/pkg/contracts/domain"
)

// Outcome is the result of processing one subject-session.
type Outcome string

const (
	OutcomeLoaded  Outcome = "loaded"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// SubjectResult reports what happened to one subject-session.
type SubjectResult struct {
	SubjectID string
	SessionID string
	Outcome   Outcome
	Reason    string // skip reason or failure message
	Records   int    // measurement rows written
}

// Loader runs the ingestion pipeline for subject-sessions: classify, decode
// each signal file, expand to records, upload in chunks, summarize.
type Loader struct {
	root       string // resolved dataset root
	classifier *quality.Classifier
	uploader   *store.Uploader
	writer     store.Writer
	logger     *slog.Logger
	metrics    *infrastructure.Metrics
}

// NewLoader wires a loader over a resolved dataset root. A nil classifier
// means the shipped defect table; a nil metrics handle disables
// instrumentation.
func NewLoader(root string, classifier *quality.Classifier, uploader *store.Uploader, writer store.Writer, logger *slog.Logger, metrics *infrastructure.Metrics) *Loader {
	if classifier == nil {
		classifier = quality.NewClassifier(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		root:       root,
		classifier: classifier,
		uploader:   uploader,
		writer:     writer,
		logger:     logger,
		metrics:    metrics,
	}
}

// LoadSubjectSession ingests all sensor data for one subject's session.
//
// Per-file decode and expansion failures are recovered locally: the file is
// skipped with a warning and the rest of the session continues. A session
// where every file was missing or unparseable is a completed no-op, reported
// as skipped. Upload and metadata write failures are fatal for the
// subject-session and returned alongside the failed result.
func (l *Loader) LoadSubjectSession(ctx context.Context, subjectID string, sessionType domain.SessionType, includeProblematic bool) (SubjectResult, error) {
	sessionID := domain.SessionID(subjectID, sessionType)
	result := SubjectResult{SubjectID: subjectID, SessionID: sessionID}

	skip, note := l.classifier.Classify(subjectID, sessionType, includeProblematic)
	if skip {
		l.logger.InfoContext(ctx, "skipping subject",
			slog.String("subject_id", subjectID),
			slog.String("session_type", string(sessionType)),
			slog.String("reason", note))
		result.Outcome = OutcomeSkipped
		result.Reason = note
		return result, nil
	}

	subjectDir := dataset.SubjectDir(l.root, sessionType, subjectID)
	if _, err := os.Stat(subjectDir); err != nil {
		l.logger.WarnContext(ctx, "subject directory not found",
			slog.String("subject_id", subjectID),
			slog.String("path", subjectDir))
		result.Outcome = OutcomeSkipped
		result.Reason = "subject directory not found"
		return result, nil
	}

	l.logger.InfoContext(ctx, "processing subject session",
		slog.String("subject_id", subjectID),
		slog.String("session_id", sessionID),
		slog.String("quality_note", note))

	records := l.collectRecords(ctx, subjectDir, subjectID, sessionID, sessionType)
	if len(records) == 0 {
		l.logger.WarnContext(ctx, "no data produced for subject session",
			slog.String("session_id", sessionID))
		result.Outcome = OutcomeSkipped
		result.Reason = "no data produced"
		return result, nil
	}

	l.logger.InfoContext(ctx, "uploading measurements",
		slog.String("session_id", sessionID),
		slog.Int("total_records", len(records)))

	if err := l.uploader.Upload(ctx, records); err != nil {
		result.Outcome = OutcomeFailed
		result.Reason = err.Error()
		return result, fmt.Errorf("upload for %s: %w", sessionID, err)
	}

	meta, err := SummarizeSession(sessionID, subjectID, sessionType, records, note)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Reason = err.Error()
		return result, fmt.Errorf("summarize %s: %w", sessionID, err)
	}

	if err := l.writer.InsertSession(ctx, meta); err != nil {
		result.Outcome = OutcomeFailed
		result.Reason = err.Error()
		return result, fmt.Errorf("session metadata for %s: %w", sessionID, err)
	}

	l.logger.InfoContext(ctx, "subject session loaded",
		slog.String("session_id", sessionID),
		slog.Int("records", len(records)),
		slog.Float64("duration_minutes", meta.DurationMinutes))

	result.Outcome = OutcomeLoaded
	result.Reason = note
	result.Records = len(records)
	return result, nil
}

// collectRecords decodes and expands every present signal file, skipping
// missing or unparseable files so one bad file never aborts the session.
func (l *Loader) collectRecords(ctx context.Context, subjectDir, subjectID, sessionID string, sessionType domain.SessionType) []domain.Measurement {
	var all []domain.Measurement

	for _, fileName := range SignalFileNames {
		path := filepath.Join(subjectDir, fileName)
		stem := strings.TrimSuffix(fileName, ".csv")

		if _, err := os.Stat(path); err != nil {
			l.logger.WarnContext(ctx, "signal file missing",
				slog.String("session_id", sessionID),
				slog.String("file", fileName))
			continue
		}

		sig, err := DecodeSignalFile(path)
		if err != nil {
			l.logger.WarnContext(ctx, "failed to decode signal file, skipping",
				slog.String("session_id", sessionID),
				slog.String("file", fileName),
				slog.String("error", err.Error()))
			continue
		}

		records, err := BuildRecords(sig, stem, subjectID, sessionID, sessionType)
		if err != nil {
			l.logger.WarnContext(ctx, "failed to expand signal file, skipping",
				slog.String("session_id", sessionID),
				slog.String("file", fileName),
				slog.String("error", err.Error()))
			continue
		}

		if l.metrics != nil {
			l.metrics.RecordsBuilt.Add(ctx, int64(len(records)))
		}

		l.logger.InfoContext(ctx, "signal file expanded",
			slog.String("session_id", sessionID),
			slog.String("file", fileName),
			slog.Int("records", len(records)))

		all = append(all, records...)
	}

	return all
}
