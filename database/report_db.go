package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/camden-git/attendsysbackend/models"
)

var qb = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// Querier is the subset of *sql.DB / *sql.Tx used by the report queries
type Querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// SessionStatusCounts holds the per-status entry counts of one session
type SessionStatusCounts struct {
	SessionID  int64 `json:"session_id"`
	Present    int   `json:"present"`
	Late       int   `json:"late"`
	Absent     int   `json:"absent"`
	EarlyLeave int   `json:"early_leave"`
	Recognized int   `json:"recognized"`
}

// ClassSessionReport is one row of a class attendance report: a session with
// its marked/roster ratio.
type ClassSessionReport struct {
	SessionID  int64  `json:"session_id"`
	Date       string `json:"date"`
	Status     string `json:"status"`
	Marked     int    `json:"marked"`
	RosterSize int    `json:"roster_size"`
}

// GetSessionStatusCounts aggregates log entries of one session by status.
// Only the latest entry per student counts, so superseded manual overrides do
// not inflate the numbers.
func GetSessionStatusCounts(db Querier, sessionID int64) (SessionStatusCounts, error) {
	counts := SessionStatusCounts{SessionID: sessionID}

	queryBuilder := qb.Select("l.status", "l.recognized", "COUNT(*)").
		From("attendance_logs l").
		Join(`(SELECT student_id, MAX(id) AS max_id FROM attendance_logs
			WHERE session_id = ? GROUP BY student_id) latest
			ON l.student_id = latest.student_id AND l.id = latest.max_id`, sessionID).
		GroupBy("l.status", "l.recognized")
	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return counts, fmt.Errorf("failed to build SQL for GetSessionStatusCounts: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return counts, fmt.Errorf("failed to execute GetSessionStatusCounts query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var recognized bool
		var n int
		if err := rows.Scan(&status, &recognized, &n); err != nil {
			return counts, fmt.Errorf("failed to scan status count row: %w", err)
		}
		switch status {
		case models.AttendancePresent:
			counts.Present += n
		case models.AttendanceLate:
			counts.Late += n
		case models.AttendanceAbsent:
			counts.Absent += n
		case models.AttendanceEarlyLeave:
			counts.EarlyLeave += n
		}
		if recognized {
			counts.Recognized += n
		}
	}
	return counts, rows.Err()
}

// GetClassAttendanceReport lists the sessions of a class with how many
// students were marked present or late in each, optionally bounded by an
// inclusive date range (YYYY-MM-DD).
func GetClassAttendanceReport(db Querier, classID int64, from, to *string) ([]ClassSessionReport, error) {
	queryBuilder := qb.Select(
		"s.id", "s.date", "s.status",
		`(SELECT COUNT(DISTINCT l.student_id) FROM attendance_logs l
			WHERE l.session_id = s.id AND l.status IN ('present', 'late')) AS marked`,
		`(SELECT COUNT(*) FROM enrollments e WHERE e.class_id = s.class_id) AS roster_size`,
	).
		From("attendance_sessions s").
		Where(sq.Eq{"s.class_id": classID}).
		Where(sq.Eq{"s.deleted_at": nil}).
		OrderBy("s.date ASC", "s.id ASC")

	if from != nil {
		queryBuilder = queryBuilder.Where(sq.GtOrEq{"s.date": *from})
	}
	if to != nil {
		queryBuilder = queryBuilder.Where(sq.LtOrEq{"s.date": *to})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL for GetClassAttendanceReport: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute GetClassAttendanceReport query: %w", err)
	}
	defer rows.Close()

	var report []ClassSessionReport
	for rows.Next() {
		var row ClassSessionReport
		if err := rows.Scan(&row.SessionID, &row.Date, &row.Status, &row.Marked, &row.RosterSize); err != nil {
			return nil, fmt.Errorf("failed to scan class report row: %w", err)
		}
		report = append(report, row)
	}
	return report, rows.Err()
}
