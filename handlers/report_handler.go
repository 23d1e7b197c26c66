package handlers

import (
	"log"
	"net/http"

	"github.com/camden-git/attendsysbackend/database"
)

type ReportHandler struct {
	DB database.Querier
}

// SessionReport returns the per-status counts for one session.
func (rh *ReportHandler) SessionReport(w http.ResponseWriter, r *http.Request) {
	sessionID, err := parseUintParam(r, "session_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid session ID format")
		return
	}

	counts, err := database.GetSessionStatusCounts(rh.DB, int64(sessionID))
	if err != nil {
		log.Printf("Error building session report for %d: %v", sessionID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to build session report")
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

// ClassReport lists a class's sessions with marked/roster counts, optionally
// bounded by ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (rh *ReportHandler) ClassReport(w http.ResponseWriter, r *http.Request) {
	classID, err := parseUintParam(r, "class_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid class ID format")
		return
	}

	var from, to *string
	if v := r.URL.Query().Get("from"); v != "" {
		from = &v
	}
	if v := r.URL.Query().Get("to"); v != "" {
		to = &v
	}

	report, err := database.GetClassAttendanceReport(rh.DB, int64(classID), from, to)
	if err != nil {
		log.Printf("Error building class report for %d: %v", classID, err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to build class report")
		return
	}
	if report == nil {
		report = []database.ClassSessionReport{}
	}
	writeJSON(w, http.StatusOK, report)
}
