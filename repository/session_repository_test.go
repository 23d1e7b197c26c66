package repository

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/attendsysbackend/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Class{},
		&models.Enrollment{},
		&models.FaceProfile{},
		&models.AttendanceSession{},
		&models.AttendanceLogEntry{},
	))
	return db
}

func createTestSession(t *testing.T, repo *SessionRepository, classID uint) *models.AttendanceSession {
	t.Helper()
	session := &models.AttendanceSession{ClassID: classID, Date: "2026-03-02"}
	require.NoError(t, repo.Create(session))
	return session
}

func TestSessionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	session := createTestSession(t, repo, 1)
	require.Equal(t, models.SessionPending, session.Status)

	require.NoError(t, repo.Start(session.ID))
	got, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionActive, got.Status)
	require.NotNil(t, got.StartedAt)

	// starting an active session is a no-op
	require.NoError(t, repo.Start(session.ID))

	require.NoError(t, repo.Complete(session.ID))
	got, err = repo.GetByID(session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	// completed is terminal: completing again is a no-op, restarting errors
	require.NoError(t, repo.Complete(session.ID))
	require.ErrorIs(t, repo.Start(session.ID), ErrSessionCompleted)
}

func TestSessionStartUnknownID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	require.ErrorIs(t, repo.Start(999), gorm.ErrRecordNotFound)
}

func TestCompletePendingSession(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	// completing a session that never went active is allowed
	session := createTestSession(t, repo, 1)
	require.NoError(t, repo.Complete(session.ID))

	got, err := repo.GetByID(session.ID)
	require.NoError(t, err)
	require.Equal(t, models.SessionCompleted, got.Status)
	require.Nil(t, got.StartedAt)
}

func TestListByClassIDNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSessionRepository(db)

	older := &models.AttendanceSession{ClassID: 1, Date: "2026-03-01"}
	require.NoError(t, repo.Create(older))
	newer := &models.AttendanceSession{ClassID: 1, Date: "2026-03-02"}
	require.NoError(t, repo.Create(newer))
	other := &models.AttendanceSession{ClassID: 2, Date: "2026-03-02"}
	require.NoError(t, repo.Create(other))

	sessions, err := repo.ListByClassID(1)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.Equal(t, newer.ID, sessions[0].ID)
	require.Equal(t, older.ID, sessions[1].ID)
}
