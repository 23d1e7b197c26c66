package repository

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/camden-git/attendsysbackend/models"
)

func TestHasPresentEntry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceLogRepository(db)

	ok, err := repo.HasPresentEntry(1, 10)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, repo.Append(&models.AttendanceLogEntry{
		SessionID: 1, StudentID: 10, Status: models.AttendanceLate,
	}))

	// late counts as present for de-duplication purposes
	ok, err = repo.HasPresentEntry(1, 10)
	require.NoError(t, err)
	require.True(t, ok)

	// absent entries do not
	require.NoError(t, repo.Append(&models.AttendanceLogEntry{
		SessionID: 1, StudentID: 11, Status: models.AttendanceAbsent,
	}))
	ok, err = repo.HasPresentEntry(1, 11)
	require.NoError(t, err)
	require.False(t, ok)

	// scoped to the session
	ok, err = repo.HasPresentEntry(2, 10)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestPresentStudentIDs(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceLogRepository(db)

	require.NoError(t, repo.Append(&models.AttendanceLogEntry{SessionID: 1, StudentID: 10, Status: models.AttendancePresent}))
	require.NoError(t, repo.Append(&models.AttendanceLogEntry{SessionID: 1, StudentID: 11, Status: models.AttendanceLate}))
	require.NoError(t, repo.Append(&models.AttendanceLogEntry{SessionID: 1, StudentID: 12, Status: models.AttendanceAbsent}))
	require.NoError(t, repo.Append(&models.AttendanceLogEntry{SessionID: 2, StudentID: 13, Status: models.AttendancePresent}))

	ids, err := repo.PresentStudentIDs(1)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{10, 11}, ids)
}

func TestGetBySessionAndStudentReturnsLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceLogRepository(db)

	require.NoError(t, repo.Append(&models.AttendanceLogEntry{SessionID: 1, StudentID: 10, Status: models.AttendancePresent, Recognized: true}))
	require.NoError(t, repo.Append(&models.AttendanceLogEntry{SessionID: 1, StudentID: 10, Status: models.AttendanceEarlyLeave}))

	entry, err := repo.GetBySessionAndStudent(1, 10)
	require.NoError(t, err)
	require.Equal(t, models.AttendanceEarlyLeave, entry.Status)
	require.False(t, entry.Recognized)
}

func TestAppendSetsTimestamps(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAttendanceLogRepository(db)

	entry := &models.AttendanceLogEntry{SessionID: 1, StudentID: 10, Status: models.AttendancePresent}
	require.NoError(t, repo.Append(entry))
	require.NotZero(t, entry.Timestamp)
	require.NotZero(t, entry.CreatedAt)
}
