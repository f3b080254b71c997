package domain

import (
	"strings"
	"time"
)

// Cohort tags the recruitment batch a subject belongs to. It doubles as the
// protocol version recorded in session metadata.
type Cohort string

const (
	CohortV1 Cohort = "V1"
	CohortV2 Cohort = "V2"
)

// CohortFor derives the cohort from the subject identifier prefix: ids
// starting with 'S' belong to the first recruitment batch, everything else
// (e.g. "f07") to the second.
func CohortFor(subjectID string) Cohort {
	if strings.HasPrefix(subjectID, "S") {
		return CohortV1
	}
	return CohortV2
}

// SubjectDimension is the row shape of the dim_subjects table, produced by
// the demographics cleaner and read by reporting tools. The ingestion core
// owns the schema but never writes these rows.
type SubjectDimension struct {
	SubjectID      string    `json:"subject_id" db:"subject_id" validate:"required"`
	Cohort         Cohort    `json:"cohort" db:"cohort"`
	Age            int       `json:"age,omitempty" db:"age"`
	WeightKg       float64   `json:"weight_kg,omitempty" db:"weight_kg"`
	HeightCm       float64   `json:"height_cm,omitempty" db:"height_cm"`
	BMI            float64   `json:"bmi,omitempty" db:"bmi"`
	Gender         string    `json:"gender,omitempty" db:"gender"`
	EnrollmentDate time.Time `json:"enrollment_date" db:"enrollment_date"`
}
