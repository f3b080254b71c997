package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"physioload/internal/errors"
	"physioload/pkg/contracts/domain"
)

// DefaultCandidates are the relative locations the raw dataset is known to
// live at, probed in order: a self-contained extracted archive, the mirror
// layout of the upstream publisher, or the base directory itself.
func DefaultCandidates() []string {
	return []string{
		"wearable-exam-stress-1.0.1",
		"physionet.org/files/wearable-exam-stress/1.0.1",
		".",
	}
}

// markerDir is the sub-directory whose presence identifies a valid dataset
// root. The first session type's folder always exists in a complete dump.
var markerDir = string(domain.SessionTypes[0])

// Locate resolves the on-disk root of the raw dataset by probing the
// candidate relative paths under baseDir in order. A candidate qualifies
// when it exists and contains the marker session directory. The probe is
// read-only and has no fallback behavior beyond the given list.
func Locate(baseDir string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultCandidates()
	}

	for _, candidate := range candidates {
		root := filepath.Join(baseDir, candidate)
		if !dirExists(root) {
			continue
		}
		if !dirExists(filepath.Join(root, markerDir)) {
			continue
		}
		return root, nil
	}

	return "", errors.NewDatasetNotFoundError(fmt.Sprintf(
		"could not find dataset under %s: expected STRESS/, AEROBIC/, ANAEROBIC/ directories", baseDir))
}

// ListSubjects returns the sorted subject directory names for one session
// type under the dataset root.
func ListSubjects(root string, sessionType domain.SessionType) ([]string, error) {
	sessionDir := filepath.Join(root, string(sessionType))
	entries, err := os.ReadDir(sessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory %s: %w", sessionDir, err)
	}

	var subjects []string
	for _, entry := range entries {
		if entry.IsDir() {
			subjects = append(subjects, entry.Name())
		}
	}

	return subjects, nil
}

// SubjectDir returns the directory holding one subject's raw signal files
// for a session type.
func SubjectDir(root string, sessionType domain.SessionType, subjectID string) string {
	return filepath.Join(root, string(sessionType), subjectID)
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
