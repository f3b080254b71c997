package domain

import (
	"fmt"
	"time"
)

// SignalType identifies one physiological signal stream.
type SignalType string

const (
	SignalBVP  SignalType = "BVP"
	SignalEDA  SignalType = "EDA"
	SignalTEMP SignalType = "TEMP"
	SignalACCX SignalType = "ACC_X"
	SignalACCY SignalType = "ACC_Y"
	SignalACCZ SignalType = "ACC_Z"
	SignalHR   SignalType = "HR"
	SignalIBI  SignalType = "IBI"
)

// QualityFlag marks the per-sample quality of a measurement.
// Flagging is currently session-level only, so every stored sample is VALID.
type QualityFlag string

const (
	QualityValid QualityFlag = "VALID"
)

// Measurement is one canonical timestamped sample, the row shape of the
// fact_physiological_measurements table.
type Measurement struct {
	MeasurementID string      `json:"measurement_id" db:"measurement_id" validate:"required"`
	SubjectID     string      `json:"subject_id" db:"subject_id" validate:"required"`
	SessionID     string      `json:"session_id" db:"session_id" validate:"required"`
	Timestamp     time.Time   `json:"measurement_timestamp" db:"measurement_timestamp"`
	SignalType    SignalType  `json:"signal_type" db:"signal_type" validate:"required"`
	Value         float64     `json:"value" db:"value"`
	SessionType   SessionType `json:"session_type" db:"session_type" validate:"required"`
	QualityFlag   QualityFlag `json:"data_quality_flag" db:"data_quality_flag"`
}

// MeasurementID derives the stable identifier for a sample from its session,
// signal type and ordinal index within the source file. Re-running ingestion
// produces the same IDs; the store remains append-only, so this is not a
// dedup guarantee.
func MeasurementID(sessionID string, signal SignalType, index int) string {
	return fmt.Sprintf("%s_%s_%d", sessionID, signal, index)
}
