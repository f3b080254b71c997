package domain

import (
	"fmt"
	"strings"
	"time"
)

// SessionType is one of the three exercise protocols a subject undergoes.
type SessionType string

const (
	SessionStress    SessionType = "STRESS"
	SessionAerobic   SessionType = "AEROBIC"
	SessionAnaerobic SessionType = "ANAEROBIC"
)

// SessionTypes lists all valid session types in canonical order. The first
// entry doubles as the marker directory when probing for the dataset root.
var SessionTypes = []SessionType{SessionStress, SessionAerobic, SessionAnaerobic}

// ParseSessionType validates and normalizes a session type string.
func ParseSessionType(s string) (SessionType, error) {
	st := SessionType(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range SessionTypes {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid session type %q (expected STRESS, AEROBIC or ANAEROBIC)", s)
}

// SessionID derives the canonical session identifier for a subject-session.
func SessionID(subjectID string, sessionType SessionType) string {
	return fmt.Sprintf("%s_%s", subjectID, sessionType)
}

// SessionMetadata is the row shape of the dim_sessions table. Exactly one row
// is appended per successfully loaded subject-session; rows are never updated
// in place.
type SessionMetadata struct {
	SessionID        string      `json:"session_id" db:"session_id" validate:"required"`
	SubjectID        string      `json:"subject_id" db:"subject_id" validate:"required"`
	SessionType      SessionType `json:"session_type" db:"session_type" validate:"required"`
	ProtocolVersion  string      `json:"protocol_version" db:"protocol_version" validate:"oneof=V1 V2"`
	SessionDate      time.Time   `json:"session_date" db:"session_date"`
	SessionStartTime time.Time   `json:"session_start_time" db:"session_start_time"`
	SessionEndTime   time.Time   `json:"session_end_time" db:"session_end_time"`
	DurationMinutes  float64     `json:"duration_minutes" db:"duration_minutes"`
	QualityNotes     string      `json:"data_quality_notes,omitempty" db:"data_quality_notes"`
}
