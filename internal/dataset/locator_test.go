package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"physioload/internal/errors"
	"physioload/pkg/contracts/domain"
)

func makeDataset(t *testing.T, base string, relative string) string {
	t.Helper()
	root := filepath.Join(base, relative)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "STRESS"), 0755))
	return root
}

func TestLocate(t *testing.T) {
	t.Run("finds extracted archive layout", func(t *testing.T) {
		base := t.TempDir()
		want := makeDataset(t, base, "wearable-exam-stress-1.0.1")

		got, err := Locate(base, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("finds publisher mirror layout", func(t *testing.T) {
		base := t.TempDir()
		want := makeDataset(t, base, "physionet.org/files/wearable-exam-stress/1.0.1")

		got, err := Locate(base, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("falls through to base directory", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(base, "STRESS"), 0755))

		got, err := Locate(base, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(base, "."), got)
	})

	t.Run("earlier candidate wins", func(t *testing.T) {
		base := t.TempDir()
		first := makeDataset(t, base, "wearable-exam-stress-1.0.1")
		makeDataset(t, base, "physionet.org/files/wearable-exam-stress/1.0.1")

		got, err := Locate(base, nil)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	})

	t.Run("candidate without marker directory is rejected", func(t *testing.T) {
		base := t.TempDir()
		// Directory exists but has no STRESS/ sub-directory.
		require.NoError(t, os.MkdirAll(filepath.Join(base, "wearable-exam-stress-1.0.1"), 0755))
		want := makeDataset(t, base, "physionet.org/files/wearable-exam-stress/1.0.1")

		got, err := Locate(base, nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("no candidate qualifies", func(t *testing.T) {
		base := t.TempDir()

		_, err := Locate(base, nil)
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrTypeDatasetNotFound))
	})

	t.Run("injected candidate list", func(t *testing.T) {
		base := t.TempDir()
		want := makeDataset(t, base, "alt/location")

		got, err := Locate(base, []string{"alt/location"})
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}

func TestListSubjects(t *testing.T) {
	base := t.TempDir()
	root := makeDataset(t, base, "wearable-exam-stress-1.0.1")

	for _, subject := range []string{"S05", "S01", "f07"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, "STRESS", subject), 0755))
	}
	// Stray files are not subjects.
	require.NoError(t, os.WriteFile(filepath.Join(root, "STRESS", "notes.txt"), []byte("x"), 0644))

	subjects, err := ListSubjects(root, domain.SessionStress)
	require.NoError(t, err)
	assert.Equal(t, []string{"S01", "S05", "f07"}, subjects)
}

func TestListSubjects_MissingSessionDir(t *testing.T) {
	base := t.TempDir()
	root := makeDataset(t, base, "wearable-exam-stress-1.0.1")

	_, err := ListSubjects(root, domain.SessionAerobic)
	assert.Error(t, err)
}

func TestSubjectDir(t *testing.T) {
	got := SubjectDir("/data/raw/ds", domain.SessionAnaerobic, "S16")
	assert.Equal(t, filepath.Join("/data/raw/ds", "ANAEROBIC", "S16"), got)
}
