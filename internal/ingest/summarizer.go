package ingest

import (
	"time"

	apperrors "physioload/internal/errors"
	"physioload/pkg/contracts/domain"
)

// SummarizeSession derives the single session metadata row from a loaded
// record set. Start and end times are the minimum and maximum timestamp
// across all records, so every record's timestamp falls inside the session
// span by construction. Call only with a non-empty record set; a session
// that produced no records gets no metadata row.
func SummarizeSession(sessionID, subjectID string, sessionType domain.SessionType, records []domain.Measurement, qualityNote string) (domain.SessionMetadata, error) {
	if len(records) == 0 {
		return domain.SessionMetadata{}, apperrors.NewValidationError("cannot summarize a session with no records")
	}

	minTime := records[0].Timestamp
	maxTime := records[0].Timestamp
	for _, rec := range records[1:] {
		if rec.Timestamp.Before(minTime) {
			minTime = rec.Timestamp
		}
		if rec.Timestamp.After(maxTime) {
			maxTime = rec.Timestamp
		}
	}

	start := minTime.UTC()
	end := maxTime.UTC()

	return domain.SessionMetadata{
		SessionID:        sessionID,
		SubjectID:        subjectID,
		SessionType:      sessionType,
		ProtocolVersion:  string(domain.CohortFor(subjectID)),
		SessionDate:      time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
		SessionStartTime: start,
		SessionEndTime:   end,
		DurationMinutes:  end.Sub(start).Minutes(),
		QualityNotes:     qualityNote,
	}, nil
}
