// Package ingest turns raw per-subject sensor dumps into canonical
// measurement records and drives their way into the analytical store.
//
// Raw files follow the wearable's CSV convention: row 0 is the session start
// reference, row 1 the sampling rate in Hz, and every following row a numeric
// sample (one column for simple signals, three for the accelerometer, two for
// the inter-beat interval stream).
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	apperrors "physioload/internal/errors"
)

// DecodedSignal is the parsed content of one raw sensor file.
type DecodedSignal struct {
	StartTime  time.Time   // UTC session start reference
	SampleRate float64     // Hz; meaningless for the interval signal
	Samples    [][]float64 // rows 2..N of the file, in file order
}

// startTimeParser is one strategy for reading the header start reference.
// Strategies are tried in order; the first success wins.
type startTimeParser struct {
	name  string
	parse func(raw string) (time.Time, error)
}

var startTimeParsers = []startTimeParser{
	{name: "unix_epoch", parse: parseEpochSeconds},
	{name: "datetime", parse: parseDatetimeString},
}

// datetimeLayouts are the accepted zone-less and zoned datetime forms, most
// common first.
var datetimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	time.RFC3339,
}

// DecodeSignalFile parses one raw sensor file into its start time, sample
// rate and sample matrix. A header timestamp matching neither accepted
// representation is a parsing error for this one file only; the caller skips
// the file and continues with the rest of the session.
func DecodeSignalFile(path string) (*DecodedSignal, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open signal file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // header rows and sample rows differ in width
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read signal csv", err)
	}

	if len(rows) < 2 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("signal file has %d rows, need start time and sample rate headers", len(rows)), nil)
	}

	startTime, err := ParseStartTime(firstCell(rows[0]))
	if err != nil {
		return nil, err
	}

	rateRaw := strings.TrimSpace(firstCell(rows[1]))
	sampleRate, err := strconv.ParseFloat(rateRaw, 64)
	if err != nil {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("cannot parse sample rate %q", rateRaw), err)
	}

	samples := make([][]float64, 0, len(rows)-2)
	for i, row := range rows[2:] {
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue // trailing blank line
		}
		sample := make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("non-numeric sample at row %d column %d: %q", i+2, j, cell), err)
			}
			sample[j] = v
		}
		samples = append(samples, sample)
	}

	return &DecodedSignal{
		StartTime:  startTime,
		SampleRate: sampleRate,
		Samples:    samples,
	}, nil
}

// ParseStartTime reads the session start reference, accepting either a unix
// epoch-seconds float or a datetime string, tried in that order. Both
// representations yield a UTC instant; zone-less strings are localized to
// UTC. If neither parses, the error names the offending raw value.
func ParseStartTime(raw string) (time.Time, error) {
	trimmed := strings.TrimSpace(raw)

	for _, parser := range startTimeParsers {
		if t, err := parser.parse(trimmed); err == nil {
			return t, nil
		}
	}

	return time.Time{}, apperrors.NewParsingError(
		fmt.Sprintf("cannot parse start time: %q", raw), nil)
}

// parseEpochSeconds converts a fractional unix timestamp to a UTC instant.
func parseEpochSeconds(raw string) (time.Time, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return time.Time{}, err
	}

	sec := int64(v)
	nsec := int64((v - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC(), nil
}

// parseDatetimeString tries the accepted datetime layouts in order. Layouts
// without zone information parse as UTC; zoned values are normalized to UTC.
func parseDatetimeString(raw string) (time.Time, error) {
	for _, layout := range datetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("no datetime layout matched %q", raw)
}

// firstCell returns the first column of a row, or "" for an empty row.
func firstCell(row []string) string {
	if len(row) == 0 {
		return ""
	}
	return row[0]
}
