// Package quality decides whether a subject-session's recordings are usable.
//
// The dataset ships with a list of known defects per subject and session
// type. Two of those defects mean the data is absent or unusable and the
// subject is always excluded; the rest mean the data is usable but flawed,
// and may be loaded on explicit request with the defect carried forward into
// the session metadata.
package quality

import (
	"physioload/pkg/contracts/domain"
)

// Issue is one entry of the closed defect vocabulary.
type Issue string

const (
	IssueTestNotPerformed    Issue = "test_not_performed"
	IssueInvalidSignals      Issue = "invalid_signals_no_cover_removed"
	IssueIncompleteProcedure Issue = "incomplete_procedure"
	IssueDuplicatedData      Issue = "duplicated_data"
	IssueSplitData           Issue = "split_data"
)

// IssueTable maps session type and subject to a known defect. Tables are
// immutable once handed to a Classifier.
type IssueTable map[domain.SessionType]map[string]Issue

// KnownIssues returns the defect table shipped with the dataset's
// constraints file.
func KnownIssues() IssueTable {
	return IssueTable{
		domain.SessionStress: {
			"S02": IssueDuplicatedData,
			"f07": IssueInvalidSignals,
			"f14": IssueSplitData,
		},
		domain.SessionAerobic: {
			"S03": IssueIncompleteProcedure,
			"S07": IssueIncompleteProcedure,
			"S11": IssueSplitData,
			"S12": IssueTestNotPerformed,
		},
		domain.SessionAnaerobic: {
			"S06": IssueIncompleteProcedure,
			"S16": IssueSplitData,
		},
	}
}

// Classifier gates subject-sessions against a defect table.
type Classifier struct {
	issues IssueTable
}

// NewClassifier creates a classifier over the given table. A nil table means
// the shipped defaults.
func NewClassifier(issues IssueTable) *Classifier {
	if issues == nil {
		issues = KnownIssues()
	}
	return &Classifier{issues: issues}
}

// Classify decides whether a subject-session should be skipped.
//
// Clean subjects return (false, ""). Hard-excluded subjects (data absent or
// unusable) return (true, issue) regardless of includeProblematic.
// Soft-excluded subjects return (true, issue) unless includeProblematic is
// set, in which case they load with the issue tag preserved as the
// data-quality note.
func (c *Classifier) Classify(subjectID string, sessionType domain.SessionType, includeProblematic bool) (skip bool, note string) {
	issues, ok := c.issues[sessionType]
	if !ok {
		return false, ""
	}

	issue, ok := issues[subjectID]
	if !ok {
		return false, ""
	}

	if issue.hardExclude() {
		return true, string(issue)
	}

	if !includeProblematic {
		return true, string(issue)
	}

	return false, string(issue)
}

// hardExclude reports whether the issue disqualifies the data
// unconditionally, as opposed to flawed-but-usable defects.
func (i Issue) hardExclude() bool {
	return i == IssueTestNotPerformed || i == IssueInvalidSignals
}
