package memorial

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestHistory(t *testing.T) *HistoryStore {
	t.Helper()
	s, err := OpenHistory(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenHistory(t *testing.T) {
	s := setupTestHistory(t)
	require.NotNil(t, s.db)

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestDefaultHistoryPath(t *testing.T) {
	assert.Equal(t, filepath.Join("books", ".memorial", "history.db"), DefaultHistoryPath("books"))
}

func TestStartAndFinishRun(t *testing.T) {
	s := setupTestHistory(t)

	run, err := s.StartRun("/books/data.json")
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, RunRunning, run.Status)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunRunning, got.Status)
	assert.True(t, got.FinishedAt.IsZero())
	assert.True(t, got.StartedAt.Equal(run.StartedAt))

	run.Pages = 4
	run.Comments = 7
	run.Output = "/books/ada-memories.pdf"
	done, err := s.FinishRun(run, nil)
	require.NoError(t, err)
	assert.Equal(t, RunOK, done.Status)

	got, err = s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunOK, got.Status)
	assert.Equal(t, 4, got.Pages)
	assert.Equal(t, 7, got.Comments)
	assert.Equal(t, "/books/ada-memories.pdf", got.Output)
	assert.Empty(t, got.Error)
	assert.False(t, got.FinishedAt.Before(got.StartedAt))
}

func TestFinishRunFailed(t *testing.T) {
	s := setupTestHistory(t)

	run, err := s.StartRun("data.json")
	require.NoError(t, err)
	_, err = s.FinishRun(run, errors.New("chrome exited"))
	require.NoError(t, err)

	got, err := s.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, RunFailed, got.Status)
	assert.Equal(t, "chrome exited", got.Error)
}

func TestGetRunNotFound(t *testing.T) {
	s := setupTestHistory(t)
	_, err := s.GetRun("nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := setupTestHistory(t)

	var ids []string
	for i := 0; i < 5; i++ {
		r, err := s.StartRun("data.json")
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 5)
	for i, r := range runs {
		assert.Equal(t, ids[len(ids)-1-i], r.ID)
	}

	runs, err = s.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[4], runs[0].ID)
	assert.Equal(t, ids[3], runs[1].ID)
}
