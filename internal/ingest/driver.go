package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"physioload/internal/dataset"
	"physioload/internal/infrastructure"
	"physioload/pkg/contracts/domain"
)

// BatchReport aggregates the per-subject outcomes of one all-subjects run.
type BatchReport struct {
	RunID   string
	Results []SubjectResult
	Loaded  int
	Skipped int
	Failed  int
}

// LoadAll processes every subject directory of one session type in order.
//
// Subjects are isolated from each other: a fatal error in one subject's
// upload is recorded as a failed outcome and the batch moves on to the next
// subject. The aggregated report carries every outcome and the final counts.
func (l *Loader) LoadAll(ctx context.Context, sessionType domain.SessionType, includeProblematic bool) (*BatchReport, error) {
	report := &BatchReport{RunID: uuid.NewString()}
	ctx = infrastructure.WithRunID(ctx, report.RunID)

	subjects, err := dataset.ListSubjects(l.root, sessionType)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "starting batch run",
		slog.String("session_type", string(sessionType)),
		slog.Int("subjects", len(subjects)),
		slog.Bool("include_problematic", includeProblematic))

	for _, subjectID := range subjects {
		result, err := l.LoadSubjectSession(ctx, subjectID, sessionType, includeProblematic)
		if err != nil {
			l.logger.ErrorContext(ctx, "subject session failed",
				slog.String("subject_id", subjectID),
				slog.String("error", err.Error()))
		}

		report.Results = append(report.Results, result)
		switch result.Outcome {
		case OutcomeLoaded:
			report.Loaded++
		case OutcomeSkipped:
			report.Skipped++
		case OutcomeFailed:
			report.Failed++
		}

		if l.metrics != nil {
			l.metrics.CountSubject(ctx, string(result.Outcome))
		}
	}

	l.logger.InfoContext(ctx, "batch run complete",
		slog.String("session_type", string(sessionType)),
		slog.Int("loaded", report.Loaded),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))

	return report, nil
}
