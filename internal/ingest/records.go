package ingest

import (
	"fmt"
	"time"

	apperrors "physioload/internal/errors"
	"physioload/pkg/contracts/domain"
)

// accScale converts raw accelerometer device units to g-force.
const accScale = 64.0

// SignalFileNames lists the raw file names of one subject directory in
// processing order. A missing file is skipped with a warning, not an error.
var SignalFileNames = []string{"BVP.csv", "EDA.csv", "TEMP.csv", "ACC.csv", "HR.csv", "IBI.csv"}

// accAxes maps the accelerometer's column order onto its three signal types.
var accAxes = []domain.SignalType{domain.SignalACCX, domain.SignalACCY, domain.SignalACCZ}

// BuildRecords expands a decoded signal into canonical measurement records.
// The expansion rule is selected by the file stem: "ACC" is triaxial, "IBI"
// is the irregularly sampled interval stream, everything else is a uniformly
// sampled single-column signal.
func BuildRecords(sig *DecodedSignal, fileStem, subjectID, sessionID string, sessionType domain.SessionType) ([]domain.Measurement, error) {
	switch fileStem {
	case "ACC":
		return buildTriaxial(sig, subjectID, sessionID, sessionType)
	case "IBI":
		return buildInterval(sig, subjectID, sessionID, sessionType)
	case "BVP", "EDA", "TEMP", "HR":
		return buildUniform(sig, domain.SignalType(fileStem), subjectID, sessionID, sessionType)
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown signal file stem %q", fileStem))
	}
}

// buildTriaxial expands accelerometer rows: three records per row, one per
// axis, sharing the row's timestamp. Raw values are divided by 64 to convert
// device units to g.
func buildTriaxial(sig *DecodedSignal, subjectID, sessionID string, sessionType domain.SessionType) ([]domain.Measurement, error) {
	if sig.SampleRate <= 0 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("accelerometer needs a positive sample rate, got %v", sig.SampleRate), nil)
	}

	records := make([]domain.Measurement, 0, len(sig.Samples)*len(accAxes))
	for i, row := range sig.Samples {
		if len(row) < len(accAxes) {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("accelerometer row %d has %d columns, need %d", i, len(row), len(accAxes)), nil)
		}

		timestamp := sig.StartTime.Add(sampleOffset(i, sig.SampleRate))
		for axis, signal := range accAxes {
			records = append(records, domain.Measurement{
				MeasurementID: domain.MeasurementID(sessionID, signal, i),
				SubjectID:     subjectID,
				SessionID:     sessionID,
				Timestamp:     timestamp,
				SignalType:    signal,
				Value:         row[axis] / accScale,
				SessionType:   sessionType,
				QualityFlag:   domain.QualityValid,
			})
		}
	}

	return records, nil
}

// buildInterval expands the inter-beat interval stream. Rows are not
// uniformly spaced: column 0 is each beat's own offset in seconds from the
// start reference, column 1 the interval duration stored as the value. The
// header sample rate plays no part.
func buildInterval(sig *DecodedSignal, subjectID, sessionID string, sessionType domain.SessionType) ([]domain.Measurement, error) {
	records := make([]domain.Measurement, 0, len(sig.Samples))
	for i, row := range sig.Samples {
		if len(row) < 2 {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("interval row %d has %d columns, need offset and duration", i, len(row)), nil)
		}

		records = append(records, domain.Measurement{
			MeasurementID: domain.MeasurementID(sessionID, domain.SignalIBI, i),
			SubjectID:     subjectID,
			SessionID:     sessionID,
			Timestamp:     sig.StartTime.Add(secondsOffset(row[0])),
			SignalType:    domain.SignalIBI,
			Value:         row[1],
			SessionType:   sessionType,
			QualityFlag:   domain.QualityValid,
		})
	}

	return records, nil
}

// buildUniform expands a uniformly sampled single-column signal: row i is
// timestamped start + i/rate and its raw value stored unconverted.
func buildUniform(sig *DecodedSignal, signal domain.SignalType, subjectID, sessionID string, sessionType domain.SessionType) ([]domain.Measurement, error) {
	if sig.SampleRate <= 0 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("signal %s needs a positive sample rate, got %v", signal, sig.SampleRate), nil)
	}

	records := make([]domain.Measurement, 0, len(sig.Samples))
	for i, row := range sig.Samples {
		if len(row) < 1 {
			return nil, apperrors.NewParsingError(
				fmt.Sprintf("signal %s row %d is empty", signal, i), nil)
		}

		records = append(records, domain.Measurement{
			MeasurementID: domain.MeasurementID(sessionID, signal, i),
			SubjectID:     subjectID,
			SessionID:     sessionID,
			Timestamp:     sig.StartTime.Add(sampleOffset(i, sig.SampleRate)),
			SignalType:    signal,
			Value:         row[0],
			SessionType:   sessionType,
			QualityFlag:   domain.QualityValid,
		})
	}

	return records, nil
}

// sampleOffset is the time of the i-th uniformly spaced sample relative to
// the start reference.
func sampleOffset(i int, rate float64) time.Duration {
	return secondsOffset(float64(i) / rate)
}

// secondsOffset converts a fractional seconds offset to a duration.
func secondsOffset(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
