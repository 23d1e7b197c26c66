package handlers

import (
	"errors"
	"log"
	"net/http"

	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/models"
	"github.com/camden-git/attendsysbackend/repository"
)

type UserHandler struct {
	UserRepo repository.UserRepositoryInterface
}

// ListUsers returns all accounts, optionally filtered by ?role=student.
func (uh *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")

	var users []models.User
	var err error
	if role != "" {
		if !models.ValidRole(role) {
			WriteAPIError(w, http.StatusBadRequest, "invalid_role", "Role must be admin, teacher, or student")
			return
		}
		users, err = uh.UserRepo.ListByRole(role)
	} else {
		users, err = uh.UserRepo.ListAll()
	}
	if err != nil {
		log.Printf("Error listing users: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (uh *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(r, "user_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid user ID format")
		return
	}

	user, err := uh.UserRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "User not found")
		} else {
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to retrieve user")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (uh *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUintParam(r, "user_id")
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_id", "Invalid user ID format")
		return
	}

	caller, _ := UserFromContext(r.Context())
	if caller != nil && caller.ID == userID {
		WriteAPIError(w, http.StatusBadRequest, "self_delete", "Cannot delete your own account")
		return
	}

	if err := uh.UserRepo.Delete(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			WriteAPIError(w, http.StatusNotFound, "not_found", "User not found")
		} else {
			log.Printf("Error deleting user %d: %v", userID, err)
			WriteAPIError(w, http.StatusInternalServerError, "db_error", "Failed to delete user")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
